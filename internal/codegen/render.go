package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/packc/internal/canon"
	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/ir"
	"github.com/roach88/packc/internal/linker"
)

// anyScore matches every set score; an unset score is null.
const anyScore = "-2147483648.."

// renderer turns IR commands into target commands for one depth.
type renderer struct {
	lk     *linker.Linker
	mod    *ir.Module
	depth  int
	shifts map[*ir.Variable]int
}

func newRenderer(lk *linker.Linker) *renderer {
	return &renderer{lk: lk, mod: lk.Module(), shifts: make(map[*ir.Variable]int)}
}

// fragment renders the commands of fr at depth, followed by the removal of
// the tags it recorded.
func (r *renderer) fragment(fr *ir.Fragment, depth int) []string {
	r.depth = depth
	clear(r.shifts)
	var out []string
	for _, c := range fr.Commands {
		out = append(out, r.command(c)...)
	}
	diag.Assert(len(r.shifts) == 0, "fragment %s/%s ends with a pending shift", fr.Owner.ID, fr.Name)
	for _, v := range fr.Tags {
		out = append(out, "tag @e remove "+r.tag(v))
	}
	return out
}

func (r *renderer) command(c ir.Command) []string {
	if s, ok := c.(*ir.StackShift); ok {
		r.shifts[s.Var] = s.Delta
		return nil
	}
	defer clear(r.shifts)

	switch x := c.(type) {
	case *ir.Assign:
		return r.assign(r.score(x.Dst), x.Src)
	case *ir.Arith:
		return []string{r.arith(x)}
	case *ir.Compare:
		return []string{fmt.Sprintf("execute store result score %s if score %s %s %s",
			r.score(x.Dst), r.score(x.L), compareOp(x.Op), r.score(x.R))}
	case *ir.Not:
		return []string{fmt.Sprintf("execute store success score %s unless score %s matches 1..", r.score(x.Dst), r.score(x.Src))}
	case *ir.And:
		return []string{fmt.Sprintf("execute store success score %s if score %s matches 1.. if score %s matches 1..",
			r.score(x.Dst), r.score(x.L), r.score(x.R))}
	case *ir.Or:
		dst := r.score(x.Dst)
		return []string{
			fmt.Sprintf("execute store success score %s if score %s matches 1..", dst, r.score(x.L)),
			fmt.Sprintf("execute if score %s matches 1.. run scoreboard players set %s 1", r.score(x.R), dst),
		}
	case *ir.NullCoalesce:
		dst := r.score(x.Dst)
		out := r.assign(dst, x.L)
		for _, line := range r.assign(dst, x.R) {
			if strings.HasPrefix(line, "scoreboard players reset ") {
				continue
			}
			out = append(out, fmt.Sprintf("execute unless score %s matches %s run %s", dst, anyScore, line))
		}
		return out
	case *ir.Invoke:
		run := "run function " + r.lk.Main(x.Callee, r.depth+1)
		if x.Executor != nil {
			run = "as " + r.target(x.Executor) + " " + run
		}
		return []string{r.unlessError() + run}
	case *ir.CondInvoke:
		var b strings.Builder
		b.WriteString("execute")
		for _, g := range x.Guards {
			cond := "unless"
			if g.Want {
				cond = "if"
			}
			fmt.Fprintf(&b, " %s score %s matches 1..", cond, r.score(g.Var))
		}
		fmt.Fprintf(&b, " unless score %s matches 1.. run function %s", r.score(r.mod.ErrorFlag), r.lk.Fragment(x.Fragment, r.depth))
		return []string{b.String()}
	case *ir.Raw:
		var b strings.Builder
		for _, p := range x.Parts {
			switch p := p.(type) {
			case ir.Text:
				b.WriteString(string(p))
			case ir.TagName:
				b.WriteString(r.tag(p.Var))
			case ir.Target:
				b.WriteString(r.target(p.Atom))
			}
		}
		return []string{b.String()}
	case *ir.Tellraw:
		return []string{"tellraw @a " + string(canon.MustMarshal(r.tellraw(x)))}
	case *ir.Comment:
		if x.Level == ir.CommentTitle {
			return []string{"# == " + x.Text + " =="}
		}
		return []string{"# " + x.Text}
	}
	diag.Unreachable(c)
	return nil
}

func (r *renderer) unlessError() string {
	return fmt.Sprintf("execute unless score %s matches 1.. ", r.score(r.mod.ErrorFlag))
}

// assign renders dst = src. Copying a null leaves dst unset; a copy onto
// itself renders nothing.
func (r *renderer) assign(dst string, src ir.Atom) []string {
	if c, ok := src.(*ir.Constant); ok {
		switch c.Kind {
		case ir.ConstNull:
			return []string{"scoreboard players reset " + dst}
		case ir.ConstInt, ir.ConstFloat:
			return []string{fmt.Sprintf("scoreboard players set %s %d", dst, c.Int)}
		}
		diag.Internalf("string constant %s has no score", c)
	}
	s := r.score(src)
	if s == dst {
		return nil
	}
	return []string{
		"scoreboard players reset " + dst,
		fmt.Sprintf("execute if score %s matches %s run scoreboard players operation %s = %s", s, anyScore, dst, s),
	}
}

func (r *renderer) arith(x *ir.Arith) string {
	dst := r.score(x.Dst)
	if c, ok := x.Src.(*ir.Constant); ok && (x.Op == ir.Add || x.Op == ir.Sub) {
		v := c.Int
		add := x.Op == ir.Add
		if v < 0 {
			v, add = -v, !add
		}
		if add {
			return fmt.Sprintf("scoreboard players add %s %d", dst, v)
		}
		return fmt.Sprintf("scoreboard players remove %s %d", dst, v)
	}
	return fmt.Sprintf("scoreboard players operation %s %s %s", dst, x.Op, r.score(x.Src))
}

func compareOp(op ir.CompareOp) string {
	switch op {
	case ir.Eq:
		return "="
	case ir.Ge:
		return ">="
	case ir.Gt:
		return ">"
	}
	diag.Unreachable(op)
	return ""
}

// score renders the "holder objective" pair of a numeric atom.
func (r *renderer) score(a ir.Atom) string {
	switch x := a.(type) {
	case *ir.Variable:
		loc := r.lk.Variable(x)
		switch loc.Kind {
		case linker.LocGlobal:
			return loc.Holder + " " + r.lk.GlobalObjective()
		case linker.LocFrame:
			return loc.Holder + " " + r.lk.FrameObjective(r.depth+r.shifts[x])
		}
		diag.Internalf("%s variable %s has no score", loc.Kind, x)
	case *ir.Constant:
		return r.lk.Constant(x).Holder + " " + r.lk.ConstObjective()
	case ir.Property:
		return r.holder(x.Receiver) + " " + r.lk.PropertyObjective(x.Name)
	}
	diag.Unreachable(a)
	return ""
}

// holder renders a property receiver as a single score holder.
func (r *renderer) holder(a ir.Atom) string {
	switch x := a.(type) {
	case ir.World:
		return "$world"
	case ir.Selector:
		return x.Text
	case *ir.Variable:
		if x.Kind == ir.VarEntity {
			return "@e[tag=" + r.tag(x) + ",limit=1]"
		}
	}
	return r.target(a)
}

// target renders an entity atom as a selector.
func (r *renderer) target(a ir.Atom) string {
	switch x := a.(type) {
	case ir.Selector:
		return x.Text
	case *ir.Variable:
		switch x.Kind {
		case ir.VarExecutor:
			return "@s"
		case ir.VarEntity:
			return "@e[tag=" + r.tag(x) + "]"
		}
	}
	diag.Internalf("%s does not select entities", a)
	return ""
}

func (r *renderer) tag(v *ir.Variable) string {
	return linker.TagAt(r.lk.Variable(v), max(r.depth, 0))
}

func (r *renderer) tellraw(x *ir.Tellraw) canon.Array {
	out := canon.Array{canon.String("")}
	for _, p := range x.Parts {
		switch p := p.(type) {
		case ir.TellText:
			out = append(out, canon.Obj(canon.P("text", canon.String(string(p)))))
		case ir.TellScore:
			if c, ok := p.Atom.(*ir.Constant); ok {
				out = append(out, canon.Obj(canon.P("text", canon.String(strconv.FormatInt(c.Int, 10)))))
				continue
			}
			score := r.score(p.Atom)
			i := strings.LastIndexByte(score, ' ')
			holder, objective := score[:i], score[i+1:]
			out = append(out, canon.Obj(canon.P("score", canon.Obj(
				canon.P("name", canon.String(holder)),
				canon.P("objective", canon.String(objective)),
			))))
		case ir.TellTarget:
			out = append(out, canon.Obj(canon.P("selector", canon.String(r.target(p.Atom)))))
		}
	}
	return out
}
