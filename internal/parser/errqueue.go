package parser

import "github.com/roach88/packc/internal/diag"

// errorQueue orders syntax errors for reporting.
//
// The innermost recogniser raises a generic error and leaves it pending;
// an enclosing rule that recognises the situation may refine the pending
// error into a more specific one before it is committed. flush reports the
// earliest committed error in source order; ties keep the first raised.
type errorQueue struct {
	pending *diag.SyntaxError
	order   []*diag.SyntaxError
}

// raise commits any pending error and makes err the new pending one.
func (q *errorQueue) raise(err *diag.SyntaxError) {
	q.commit()
	q.pending = err
}

// refine replaces the pending error. It returns false when nothing is
// pending, in which case err is raised instead.
func (q *errorQueue) refine(err *diag.SyntaxError) bool {
	if q.pending == nil {
		q.raise(err)
		return false
	}
	q.pending = err
	return true
}

func (q *errorQueue) commit() {
	if q.pending != nil {
		q.order = append(q.order, q.pending)
		q.pending = nil
	}
}

// flush returns the error to report, or nil when none was raised.
func (q *errorQueue) flush() *diag.SyntaxError {
	q.commit()
	var first *diag.SyntaxError
	for _, e := range q.order {
		if first == nil || e.Span.Start.Before(first.Span.Start) {
			first = e
		}
	}
	return first
}

func (q *errorQueue) empty() bool { return q.pending == nil && len(q.order) == 0 }
