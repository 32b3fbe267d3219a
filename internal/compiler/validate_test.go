package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/packc/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateLoweredModules(t *testing.T) {
	sources := []string{
		"var foo: int = 3 + 4",
		"def f(x: int) -> int {\n\tif x > 0 {\n\t\treturn f(x - 1)\n\t}\n\treturn 0\n}\nprint(f(3))",
		"def entity hop() { this.y = this.y + 1 }\nvar e: entity = @e[limit=1]\ne.hop()",
		"def g() -> bool { return true }\nvar b: bool = g() or g()\nwhile b { b = false }",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			// lower asserts the module validates cleanly
			lower(t, src, true)
		})
	}
}

func TestValidateForeignFragment(t *testing.T) {
	mod := ir.NewModule("test")
	f := mod.Register("f", "f", ir.ExecWorld)
	g := mod.Register("g", "g", ir.ExecWorld)
	fr := g.NewFragment("arm")
	f.Main.Emit(&ir.CondInvoke{Fragment: fr})

	errs := Validate(mod)
	assert.Contains(t, codes(errs), ErrForeignFragment)
	assert.Contains(t, codes(errs), ErrOrphanFragment, "g never invokes its own fragment")
}

func TestValidateDanglingShift(t *testing.T) {
	mod := ir.NewModule("test")
	f := mod.Register("f", "f", ir.ExecWorld)
	g := mod.Register("g", "g", ir.ExecWorld)
	p := g.AddParam("a", false)

	f.Main.Emit(&ir.StackShift{Var: p, Delta: 1}, &ir.Invoke{Callee: g})
	errs := Validate(mod)
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrDanglingShift, errs[0].Code)
	assert.Equal(t, 2, errs[0].Line)
	assert.Equal(t, "f_0/main", errs[0].Field)

	mod = ir.NewModule("test")
	f = mod.Register("f", "f", ir.ExecWorld)
	f.Main.Emit(&ir.StackShift{Var: f.Return, Delta: 1})
	errs = Validate(mod)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDanglingShift, errs[0].Code)
	assert.Contains(t, errs[0].Message, "fragment ends")
}

func TestValidateForeignVariable(t *testing.T) {
	mod := ir.NewModule("test")
	f := mod.Register("f", "f", ir.ExecWorld)
	g := mod.Register("g", "g", ir.ExecWorld)
	x := g.AddPublic("x", false)
	f.Main.Emit(&ir.Assign{Dst: x, Src: mod.Int(1)})

	assert.Equal(t, []string{ErrForeignVariable}, codes(Validate(mod)))
}

func TestValidateGlobalsAreShared(t *testing.T) {
	mod := ir.NewModule("test")
	f := mod.Register("f", "f", ir.ExecWorld)
	g := mod.Load.AddPublic("g", false)
	f.Main.Emit(&ir.Assign{Dst: g, Src: mod.Int(1)})

	assert.Empty(t, Validate(mod))
}

func TestValidateBadShift(t *testing.T) {
	mod := ir.NewModule("test")
	f := mod.Register("f", "f", ir.ExecWorld)
	x := f.AddPublic("x", false)
	f.Main.Emit(&ir.StackShift{Var: x, Delta: 1}, &ir.Assign{Dst: x, Src: mod.Int(1)})

	assert.Equal(t, []string{ErrBadShift}, codes(Validate(mod)))
}

func TestValidateOrphanFragment(t *testing.T) {
	mod := ir.NewModule("test")
	f := mod.Register("f", "f", ir.ExecWorld)
	f.NewFragment("lost")

	errs := Validate(mod)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrOrphanFragment, errs[0].Code)
	assert.Equal(t, "[E105] f_0/lost: fragment is never invoked", errs[0].Error())
}

func TestValidateUnregisteredCall(t *testing.T) {
	other := ir.NewModule("other")
	stray := other.Register("s", "s", ir.ExecWorld)

	mod := ir.NewModule("test")
	mod.Load.Main.Emit(&ir.Invoke{Callee: stray})
	assert.Equal(t, []string{ErrUnregisteredCall}, codes(Validate(mod)))
}

func TestValidateForeignGuard(t *testing.T) {
	mod := ir.NewModule("test")
	f := mod.Register("f", "f", ir.ExecWorld)
	g := mod.Register("g", "g", ir.ExecWorld)
	flag := g.Hidden("#rf")
	arm := f.NewFragment("arm")
	f.Main.Emit(&ir.CondInvoke{Guards: []ir.Guard{{Var: flag, Want: true}}, Fragment: arm})

	assert.Contains(t, codes(Validate(mod)), ErrForeignGuard)
}
