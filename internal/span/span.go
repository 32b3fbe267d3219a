// Package span models source ranges attached to syntax nodes and diagnostics.
//
// A Span is a pure value: it is created by the parser, copied into every node
// derived from the same source text, and never mutated. Any of its four
// coordinates may be absent (zero), which is how synthesized nodes that have
// no source counterpart are represented.
package span

import "fmt"

// Pos is a 1-based line/column pair. Zero means "absent".
type Pos struct {
	Line int `json:"line,omitempty"`
	Col  int `json:"col,omitempty"`
}

// IsValid reports whether the position has a line.
func (p Pos) IsValid() bool { return p.Line > 0 }

// Before reports whether p sorts strictly before q (line, then column).
// Absent positions never sort before anything.
func (p Pos) Before(q Pos) bool {
	if !p.IsValid() || !q.IsValid() {
		return false
	}
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	if p.Col == 0 || q.Col == 0 {
		return false
	}
	return p.Col < q.Col
}

func (p Pos) String() string {
	switch {
	case !p.IsValid():
		return "?"
	case p.Col == 0:
		return fmt.Sprintf("%d", p.Line)
	default:
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
}

// Span is a source range. End is inclusive.
type Span struct {
	Start Pos `json:"start"`
	End   Pos `json:"end"`
}

// Point returns a span covering a single character.
func Point(line, col int) Span {
	p := Pos{Line: line, Col: col}
	return Span{Start: p, End: p}
}

// Range returns a span from (sl, sc) to (el, ec).
func Range(sl, sc, el, ec int) Span {
	return Span{Start: Pos{Line: sl, Col: sc}, End: Pos{Line: el, Col: ec}}
}

// IsZero reports whether no coordinate of the span is defined.
func (s Span) IsZero() bool {
	return s.Start == (Pos{}) && s.End == (Pos{})
}

// Union returns the smallest span covering both a and b.
//
// The start is the earliest defined start, the end the latest defined end.
// When lines tie, the smaller start column and larger end column win.
// Union is commutative.
func Union(a, b Span) Span {
	return Span{
		Start: earliest(a.Start, b.Start),
		End:   latest(a.End, b.End),
	}
}

func earliest(a, b Pos) Pos {
	switch {
	case !a.IsValid():
		return b
	case !b.IsValid():
		return a
	case a.Line != b.Line:
		if a.Line < b.Line {
			return a
		}
		return b
	}
	return Pos{Line: a.Line, Col: minDefined(a.Col, b.Col)}
}

func latest(a, b Pos) Pos {
	switch {
	case !a.IsValid():
		return b
	case !b.IsValid():
		return a
	case a.Line != b.Line:
		if a.Line > b.Line {
			return a
		}
		return b
	}
	return Pos{Line: a.Line, Col: max(a.Col, b.Col)}
}

// minDefined is min over the non-zero operands.
func minDefined(a, b int) int {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	return min(a, b)
}

// String renders "L:C" for a point, "L:C-L:C" for a range and "?" when absent.
func (s Span) String() string {
	if s.IsZero() {
		return "?"
	}
	if s.Start == s.End || !s.End.IsValid() {
		return s.Start.String()
	}
	return s.Start.String() + "-" + s.End.String()
}
