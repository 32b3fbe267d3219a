package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/packc/internal/ir"
	"github.com/roach88/packc/internal/parser"
	"github.com/roach88/packc/internal/sema"
	"github.com/roach88/packc/internal/session"
)

func lower(t *testing.T, src string, debug bool) *ir.Module {
	t.Helper()
	root, err := parser.Parse(src)
	require.NoError(t, err)
	prog, err := sema.Resolve(root)
	require.NoError(t, err)
	mod := Lower(prog, LowerOptions{Namespace: "test", Debug: debug, Tags: session.NewTagIssuer("test")})
	require.Empty(t, Validate(mod), "lowered module must be valid")
	return mod
}

func commands(fr *ir.Fragment) []string {
	out := make([]string, len(fr.Commands))
	for i, c := range fr.Commands {
		out[i] = c.String()
	}
	return out
}

func fragment(t *testing.T, fn *ir.Function, name string) *ir.Fragment {
	t.Helper()
	for _, fr := range fn.Fragments() {
		if fr.Name == name {
			return fr
		}
	}
	require.Failf(t, "missing fragment", "%s has no fragment %q", fn.ID, name)
	return nil
}

func fragmentNames(fn *ir.Function) []string {
	var out []string
	for _, fr := range fn.Extra {
		out = append(out, fr.Name)
	}
	return out
}

func TestLowerGlobalArithmetic(t *testing.T) {
	mod := lower(t, "var foo: int = 3 + 4", false)
	assert.Equal(t, []string{"#0 = 3", "#0 += 4", "foo = #0"}, commands(mod.Load.Main))
	assert.Equal(t, []string{"error = 0", "foo = null"}, commands(mod.Setup.Main))
}

func TestLowerConstantsAreInterned(t *testing.T) {
	mod := lower(t, "var a: int = 42\nvar b: int = 42\nvar c: int = a + 42", false)
	count := 0
	for _, c := range mod.Constants() {
		if c.Kind == ir.ConstInt && c.Int == 42 {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestLowerIntegerArithmeticNeedsNoScale(t *testing.T) {
	ints := func(mod *ir.Module) []int64 {
		var out []int64
		for _, c := range mod.Constants() {
			out = append(out, c.Int)
		}
		return out
	}
	assert.NotContains(t, ints(lower(t, "var foo: int = 3 + 4", false)), int64(ir.FixedScale))
	assert.Contains(t, ints(lower(t, "var x: float = 1.5\nvar y: float = x * 2.0", false)), int64(ir.FixedScale))
}

func TestLowerInPlaceUpdate(t *testing.T) {
	mod := lower(t, "var n: int = 1\nn = n * 3\nn = n - 2", false)
	assert.Equal(t, []string{"n = 1", "n *= 3", "n -= 2"}, commands(mod.Load.Main))
}

func TestLowerSelfAssignment(t *testing.T) {
	mod := lower(t, "var x: int = 5\nx = x\nprint(x)", false)
	assert.Equal(t, []string{"x = 5", "tellraw x"}, commands(mod.Load.Main))
}

func TestLowerRecursiveCallPassesOwnParam(t *testing.T) {
	mod := lower(t, "def f(n: int) { f(n) }", false)
	f := mod.Functions()[0]
	assert.Equal(t, []string{"#0 = n", "shift n +1", "n = #0", "invoke f_0"}, commands(f.Main))
}

func TestLowerPower(t *testing.T) {
	mod := lower(t, "var p: int = 4 ^ 3", false)
	assert.Equal(t, []string{"#0 = 1", "#0 *= 4", "#0 *= 4", "#0 *= 4", "p = #0"}, commands(mod.Load.Main))
}

func TestLowerFloatMultiplication(t *testing.T) {
	mod := lower(t, "var x: float = 1.5\nvar y: float = x * 2.0", false)
	assert.Equal(t, []string{
		"x = 1500/1000",
		"#0 = x",
		"#0 *= 2000/1000",
		"#0 /= 1000",
		"y = #0",
	}, commands(mod.Load.Main))
}

func TestLowerIfChainFragments(t *testing.T) {
	mod := lower(t, `
def f(x: int) {
	if x > 1 {
		print(1)
	} elif x > 0 {
		print(2)
	} else {
		print(3)
	}
}`, false)
	f := mod.Functions()[0]
	assert.Equal(t, []string{"if0", "next0_1", "elif0_1", "else0"}, fragmentNames(f))
	assert.Equal(t, []string{"#0 = x > 1", "if #0 invoke if0", "if !#0 invoke next0_1"}, commands(f.Main))

	next := fragment(t, f, "next0_1")
	assert.Equal(t, []string{"#1 = x > 0", "if #1 invoke elif0_1", "if !#1 invoke else0"}, commands(next))
}

func TestLowerWhileLoop(t *testing.T) {
	mod := lower(t, `
def f() {
	var i: int = 0
	while i < 3 {
		i = i + 1
	}
}`, false)
	f := mod.Functions()[0]
	assert.Equal(t, []string{"while0_check", "while0_body"}, fragmentNames(f))
	assert.Equal(t, []string{"#0 = 3 > i", "if #0 invoke while0_body", "if #0 invoke while0_check"},
		commands(fragment(t, f, "while0_check")))
	assert.Equal(t, []string{"i += 1"}, commands(fragment(t, f, "while0_body")))
}

func TestLowerForLoop(t *testing.T) {
	mod := lower(t, "def f() { for i in 0..3 { print(i) } }", false)
	f := mod.Functions()[0]
	main := commands(f.Main)
	require.Len(t, main, 3)
	assert.Equal(t, []string{"i = 0", "#end0 = 3"}, main[:2])

	assert.Equal(t, []string{"#0 = #end0 > i", "if #0 invoke for0_body", "if #0 invoke for0_check"},
		commands(fragment(t, f, "for0_check")))
	assert.Equal(t, []string{"tellraw i", "i += 1"}, commands(fragment(t, f, "for0_body")))
}

func TestLowerCallPassesArguments(t *testing.T) {
	mod := lower(t, "def add(a: int, b: int) -> int { return a + b }\nvar s: int = add(1, 2)", false)
	assert.Equal(t, []string{
		"shift a +1", "a = 1",
		"shift b +1", "b = 2",
		"invoke add_0",
		"shift #ret +1", "#0 = #ret",
		"s = #0",
	}, commands(mod.Load.Main))

	add := mod.Functions()[0]
	assert.Equal(t, []string{"#ret = null", "#0 = a", "#0 += b", "#ret = #0"}, commands(add.Main))
}

func TestLowerNestedReturnContinuation(t *testing.T) {
	mod := lower(t, `
def f(x: int) -> int {
	if x > 0 {
		return 1
	}
	return 2
}`, false)
	f := mod.Functions()[0]
	assert.Equal(t, []string{
		"#ret = null",
		"#rf = 0",
		"#0 = x > 0",
		"if #0 invoke if0",
		"if !#rf invoke cont1",
	}, commands(f.Main))
	assert.Equal(t, []string{"#ret = 1", "#rf = 1"}, commands(fragment(t, f, "if0")))
	assert.Equal(t, []string{"#ret = 2", "#rf = 1"}, commands(fragment(t, f, "cont1")))
}

func TestLowerDropsStatementsAfterReturn(t *testing.T) {
	mod := lower(t, "def f() -> int {\n\treturn 1\n\tprint(5)\n}", false)
	assert.Equal(t, []string{"#ret = null", "#ret = 1"}, commands(mod.Functions()[0].Main))
}

func TestLowerEntityReceiver(t *testing.T) {
	mod := lower(t, "def entity jump() { this.height = 1 }\n@a.jump()", false)
	assert.Equal(t, []string{"invoke jump_0 as @a"}, commands(mod.Load.Main))
	assert.Equal(t, []string{"@s.height = 1"}, commands(mod.Functions()[0].Main))
	assert.Equal(t, []string{"height"}, mod.Properties())
}

func TestLowerEntityVariable(t *testing.T) {
	mod := lower(t, "var e: entity = @e[type=pig,limit=1]", false)
	assert.Equal(t, []string{
		"raw tag @e remove <tag e>",
		"raw tag <@e[type=pig,limit=1]> add <tag e>",
	}, commands(mod.Load.Main))
	assert.Contains(t, commands(mod.Setup.Main), "raw tag @e remove <tag e>")
	assert.Equal(t, "test.t0_e", mod.Load.Publics[0].Tag)
}

func TestLowerShortCircuitWithCall(t *testing.T) {
	mod := lower(t, "def f() -> bool { return true }\nvar a: bool = false and f()", false)
	assert.Equal(t, []string{"#0 = 0", "if #0 invoke and0", "a = #0"}, commands(mod.Load.Main))
	assert.Equal(t, []string{"invoke f_0", "shift #ret +1", "#1 = #ret", "#0 = #1"},
		commands(fragment(t, mod.Load, "and0")))
}

func TestLowerEagerLogic(t *testing.T) {
	mod := lower(t, "var a: bool = true\nvar b: bool = a or false", false)
	assert.Equal(t, []string{"a = 1", "#0 = a or 0", "b = #0"}, commands(mod.Load.Main))
}

func TestLowerComparisonForms(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"var x: int = 1\nvar b: bool = x != 2", []string{"#0 = x == 2", "#0 = not #0"}},
		{"var x: int = 1\nvar b: bool = x <= 2", []string{"#0 = 2 >= x"}},
		{"var x: int = 1\nvar b: bool = x >= 2", []string{"#0 = x >= 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			mod := lower(t, tt.src, false)
			got := commands(mod.Load.Main)
			assert.Equal(t, tt.want, got[1:len(got)-1])
		})
	}
}

func TestLowerPrintFloat(t *testing.T) {
	mod := lower(t, "print(\"half\", 0.5, 12.25)", false)
	main := mod.Load.Main
	require.Len(t, main.Commands, 1, "constant floats need no runtime split")
	tell := main.Commands[0].(*ir.Tellraw)
	assert.Equal(t, []ir.TellPart{
		ir.TellText("half"), ir.TellText(" "), ir.TellText("0.500"), ir.TellText(" "), ir.TellText("12.250"),
	}, tell.Parts)
}

func TestLowerPrintRuntimeFloatSign(t *testing.T) {
	mod := lower(t, "var x: float = 2.5\nprint(\"x is\", x, 1.25)", false)
	main := commands(mod.Load.Main)
	assert.Equal(t, []string{
		"x = 2500/1000",
		"#0 = 0 > x",
		"#1 = #0", "#1 *= -2", "#1 += 1", "#1 *= x",
		"#2 = #1", "#2 /= 1000",
		"#3 = #1", "#3 %= 1000",
	}, main[:10])
	assert.Equal(t, []string{"if !#0 invoke print0_0", "if #0 invoke print0_1"}, main[len(main)-2:])
	assert.Equal(t, []string{"print0_0", "print0_1"}, fragmentNames(mod.Load))

	digits := []ir.TellPart{
		ir.TellScore{Atom: mod.Load.Pseudo(2)}, ir.TellText("."),
		ir.TellScore{Atom: mod.Load.Pseudo(4)}, ir.TellScore{Atom: mod.Load.Pseudo(5)}, ir.TellScore{Atom: mod.Load.Pseudo(6)},
	}
	positive := fragment(t, mod.Load, "print0_0").Commands[0].(*ir.Tellraw)
	negative := fragment(t, mod.Load, "print0_1").Commands[0].(*ir.Tellraw)

	want := append([]ir.TellPart{ir.TellText("x is"), ir.TellText(" ")}, digits...)
	want = append(want, ir.TellText(" "), ir.TellText("1.250"))
	assert.Equal(t, want, positive.Parts)

	want = append([]ir.TellPart{ir.TellText("x is"), ir.TellText(" "), ir.TellText("-")}, digits...)
	want = append(want, ir.TellText(" "), ir.TellText("1.250"))
	assert.Equal(t, want, negative.Parts)
}

func TestLowerPrintTwoRuntimeFloats(t *testing.T) {
	mod := lower(t, "var a: float = 1.0\nvar b: float = 2.0\nprint(a, b)", false)
	assert.Equal(t, []string{"print0_0", "print0_1", "print0_2", "print0_3"}, fragmentNames(mod.Load))
	last := mod.Load.Main.Commands[len(mod.Load.Main.Commands)-1].(*ir.CondInvoke)
	require.Len(t, last.Guards, 2)
	assert.True(t, last.Guards[0].Want)
	assert.True(t, last.Guards[1].Want)
}

func TestLowerCmd(t *testing.T) {
	mod := lower(t, `cmd("say hi")`, false)
	assert.Equal(t, []string{"raw say hi"}, commands(mod.Load.Main))
}

func TestLowerDecoratedFunctions(t *testing.T) {
	mod := lower(t, "@tick\ndef step() {}\n@load\ndef boot() {}", false)
	assert.Equal(t, []string{"error = 0", "invoke step_0"}, commands(mod.Tick.Main))
	assert.Equal(t, []string{"invoke boot_1"}, commands(mod.Load.Main))
}

func TestLowerDebugFlags(t *testing.T) {
	mod := lower(t, "@tick\ndef step() {}", true)
	assert.Equal(t, []string{"overrun"}, fragmentNames(mod.Tick))
	assert.Equal(t, []string{
		"error = 0",
		"if busy invoke overrun",
		"busy = 1",
		"invoke step_0",
		"busy = 0",
	}, commands(mod.Tick.Main))
	assert.Equal(t, []string{"error = 0", "busy = 0"}, commands(mod.Setup.Main))
}

func TestLowerImportTitle(t *testing.T) {
	mod := lower(t, "", false)
	assert.Equal(t, []string{"# namespace test"}, commands(mod.Import.Main))
}
