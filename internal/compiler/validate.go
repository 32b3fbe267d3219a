package compiler

import (
	"fmt"

	"github.com/roach88/packc/internal/ir"
)

// IR validation error codes (E100-E199). Any of these is a compiler
// defect, never a user error.
const (
	ErrForeignFragment  = "E101" // CondInvoke targets another function's fragment
	ErrDanglingShift    = "E102" // StackShift not followed by an Assign of its variable
	ErrForeignVariable  = "E103" // variable of another user function used without a shift
	ErrForeignGuard     = "E104" // guard variable not owned by the function
	ErrOrphanFragment   = "E105" // extra fragment never invoked
	ErrUnregisteredCall = "E106" // Invoke of a function missing from the module
	ErrBadShift         = "E107" // StackShift of a non-parameter, non-return slot
)

// ValidationError represents an IR invariant violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"` // command index within the fragment, 1-based
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the structural invariants of a lowered module.
// Returns all errors found (does not fail-fast).
func Validate(mod *ir.Module) []ValidationError {
	var errs []ValidationError
	known := make(map[*ir.Function]bool)
	for _, fn := range mod.All() {
		known[fn] = true
	}
	for _, fn := range mod.All() {
		errs = append(errs, validateFunction(fn, known)...)
	}
	return errs
}

func validateFunction(fn *ir.Function, known map[*ir.Function]bool) []ValidationError {
	var errs []ValidationError
	invoked := make(map[*ir.Fragment]bool)

	for _, fr := range fn.Fragments() {
		field := fn.ID + "/" + fr.Name
		var shifted *ir.Variable
		for i, c := range fr.Commands {
			line := i + 1
			report := func(code, format string, args ...any) {
				errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code, Line: line})
			}

			if shifted != nil {
				a, ok := c.(*ir.Assign)
				if !ok || (a.Dst != ir.Atom(shifted) && a.Src != ir.Atom(shifted)) {
					report(ErrDanglingShift, "shift of %s is not followed by an assignment of it", shifted)
				}
			}
			allowed := shifted
			shifted = nil

			switch x := c.(type) {
			case *ir.StackShift:
				if x.Var.Kind != ir.VarParam && x.Var.Kind != ir.VarReturn {
					report(ErrBadShift, "cannot shift %s variable %s", x.Var.Kind, x.Var)
				}
				shifted = x.Var
				continue
			case *ir.CondInvoke:
				if x.Fragment.Owner != fn {
					report(ErrForeignFragment, "fragment %s belongs to %s", x.Fragment.Name, x.Fragment.Owner.ID)
				}
				invoked[x.Fragment] = true
				for _, g := range x.Guards {
					if g.Var.Owner != fn && g.Var.Owner.IsUser() {
						report(ErrForeignGuard, "guard %s belongs to %s", g.Var, g.Var.Owner.ID)
					}
				}
			case *ir.Invoke:
				if !known[x.Callee] {
					report(ErrUnregisteredCall, "callee %s is not part of the module", x.Callee.Name)
				}
			}

			for _, v := range variablesOf(c) {
				if v == allowed || v.Owner == fn || !v.Owner.IsUser() {
					continue
				}
				report(ErrForeignVariable, "variable %s of %s used without a shift", v, v.Owner.ID)
			}
		}
		if shifted != nil {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("fragment ends after shift of %s", shifted), Code: ErrDanglingShift})
		}
	}

	for _, fr := range fn.Extra {
		if !invoked[fr] {
			errs = append(errs, ValidationError{
				Field:   fn.ID + "/" + fr.Name,
				Message: "fragment is never invoked",
				Code:    ErrOrphanFragment,
			})
		}
	}
	return errs
}

// variablesOf lists the variables a command reads or writes.
func variablesOf(c ir.Command) []*ir.Variable {
	var atoms []ir.Atom
	switch x := c.(type) {
	case *ir.Assign:
		atoms = []ir.Atom{x.Dst, x.Src}
	case *ir.Arith:
		atoms = []ir.Atom{x.Dst, x.Src}
	case *ir.Compare:
		atoms = []ir.Atom{x.Dst, x.L, x.R}
	case *ir.Not:
		atoms = []ir.Atom{x.Dst, x.Src}
	case *ir.And:
		atoms = []ir.Atom{x.Dst, x.L, x.R}
	case *ir.Or:
		atoms = []ir.Atom{x.Dst, x.L, x.R}
	case *ir.NullCoalesce:
		atoms = []ir.Atom{x.Dst, x.L, x.R}
	case *ir.Invoke:
		atoms = []ir.Atom{x.Executor}
	case *ir.Raw:
		for _, p := range x.Parts {
			switch p := p.(type) {
			case ir.TagName:
				atoms = append(atoms, p.Var)
			case ir.Target:
				atoms = append(atoms, p.Atom)
			}
		}
	case *ir.Tellraw:
		for _, p := range x.Parts {
			switch p := p.(type) {
			case ir.TellScore:
				atoms = append(atoms, p.Atom)
			case ir.TellTarget:
				atoms = append(atoms, p.Atom)
			}
		}
	}
	var out []*ir.Variable
	for _, a := range atoms {
		switch v := a.(type) {
		case *ir.Variable:
			out = append(out, v)
		case ir.Property:
			if rv, ok := v.Receiver.(*ir.Variable); ok {
				out = append(out, rv)
			}
		}
	}
	return out
}
