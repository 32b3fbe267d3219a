package ir

import (
	"fmt"
	"strings"
)

// Command is a sealed, atomic IR instruction.
type Command interface {
	command()
	String() string
}

// ArithOp is an in-place arithmetic operator.
type ArithOp string

const (
	Add ArithOp = "+="
	Sub ArithOp = "-="
	Mul ArithOp = "*="
	Div ArithOp = "/="
	Mod ArithOp = "%="
)

// CompareOp is a canonical comparison. Less-than forms are expressed by
// swapping operands.
type CompareOp string

const (
	Eq CompareOp = "=="
	Ge CompareOp = ">="
	Gt CompareOp = ">"
)

// CommentLevel distinguishes structural titles from debug notes.
type CommentLevel int

const (
	CommentTitle CommentLevel = iota
	CommentDebug
	CommentUser
)

// Assign sets Dst to Src.
type Assign struct {
	Dst Atom
	Src Atom
}

// Arith applies Dst = Dst Op Src.
type Arith struct {
	Op  ArithOp
	Dst Atom
	Src Atom
}

// Compare sets Dst to 1 when L Op R holds, else 0.
type Compare struct {
	Op   CompareOp
	Dst  Atom
	L, R Atom
}

// Not sets Dst to 1 when Src is 0, else 0.
type Not struct {
	Dst Atom
	Src Atom
}

// And sets Dst to 1 when both operands are non-zero.
type And struct {
	Dst  Atom
	L, R Atom
}

// Or sets Dst to 1 when either operand is non-zero.
type Or struct {
	Dst  Atom
	L, R Atom
}

// NullCoalesce sets Dst to L, or to R when L is null.
type NullCoalesce struct {
	Dst  Atom
	L, R Atom
}

// Invoke calls the main fragment of Callee. A non-nil Executor runs the
// callee as that entity.
type Invoke struct {
	Callee   *Function
	Executor Atom
}

// Guard tests the truthiness of a variable.
type Guard struct {
	Var  *Variable
	Want bool
}

// CondInvoke runs Fragment of the current function when every guard
// holds.
type CondInvoke struct {
	Guards   []Guard
	Fragment *Fragment
}

// RawPart is a piece of a raw command line.
type RawPart interface {
	rawPart()
}

// Text is literal command text.
type Text string

// TagName renders the tag that stores an entity variable.
type TagName struct{ Var *Variable }

// Target renders an atom as a selector: the executor as @s, an entity
// variable as @e[tag=...] and a Selector as itself.
type Target struct{ Atom Atom }

func (Text) rawPart()    {}
func (TagName) rawPart() {}
func (Target) rawPart()  {}

// Raw injects a target-native command.
type Raw struct {
	Parts []RawPart
}

// TellPart is one component of a Tellraw message.
type TellPart interface {
	tellPart()
}

// TellText is literal message text.
type TellText string

// TellScore shows the score held by an atom.
type TellScore struct{ Atom Atom }

// TellTarget shows the name of the entities an atom selects.
type TellTarget struct{ Atom Atom }

func (TellText) tellPart()   {}
func (TellScore) tellPart()  {}
func (TellTarget) tellPart() {}

// Tellraw shows a message to every player.
type Tellraw struct {
	Parts []TellPart
}

// Comment is kept in the rendered file.
type Comment struct {
	Level CommentLevel
	Text  string
}

// StackShift marks that the next Assign touching Var reads or writes the
// frame Delta levels deeper than the current one. It models argument
// passing into and result retrieval out of a callee.
type StackShift struct {
	Var   *Variable
	Delta int
}

func (*Assign) command()       {}
func (*Arith) command()        {}
func (*Compare) command()      {}
func (*Not) command()          {}
func (*And) command()          {}
func (*Or) command()           {}
func (*NullCoalesce) command() {}
func (*Invoke) command()       {}
func (*CondInvoke) command()   {}
func (*Raw) command()          {}
func (*Tellraw) command()      {}
func (*Comment) command()      {}
func (*StackShift) command()   {}

func (c *Assign) String() string { return fmt.Sprintf("%s = %s", c.Dst, c.Src) }
func (c *Arith) String() string  { return fmt.Sprintf("%s %s %s", c.Dst, c.Op, c.Src) }
func (c *Compare) String() string {
	return fmt.Sprintf("%s = %s %s %s", c.Dst, c.L, c.Op, c.R)
}
func (c *Not) String() string { return fmt.Sprintf("%s = not %s", c.Dst, c.Src) }
func (c *And) String() string { return fmt.Sprintf("%s = %s and %s", c.Dst, c.L, c.R) }
func (c *Or) String() string  { return fmt.Sprintf("%s = %s or %s", c.Dst, c.L, c.R) }
func (c *NullCoalesce) String() string {
	return fmt.Sprintf("%s = %s ?? %s", c.Dst, c.L, c.R)
}

func (c *Invoke) String() string {
	if c.Executor != nil {
		return fmt.Sprintf("invoke %s as %s", c.Callee.ID, c.Executor)
	}
	return "invoke " + c.Callee.ID
}

func (c *CondInvoke) String() string {
	guards := make([]string, len(c.Guards))
	for i, g := range c.Guards {
		if g.Want {
			guards[i] = g.Var.String()
		} else {
			guards[i] = "!" + g.Var.String()
		}
	}
	return fmt.Sprintf("if %s invoke %s", strings.Join(guards, " && "), c.Fragment.Name)
}

func (c *Raw) String() string {
	var b strings.Builder
	b.WriteString("raw ")
	for _, p := range c.Parts {
		switch x := p.(type) {
		case Text:
			b.WriteString(string(x))
		case TagName:
			b.WriteString("<tag " + x.Var.Name + ">")
		case Target:
			b.WriteString("<" + x.Atom.String() + ">")
		}
	}
	return b.String()
}

func (c *Tellraw) String() string {
	parts := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		switch x := p.(type) {
		case TellText:
			parts[i] = fmt.Sprintf("%q", string(x))
		case TellScore:
			parts[i] = x.Atom.String()
		case TellTarget:
			parts[i] = "<" + x.Atom.String() + ">"
		}
	}
	return "tellraw " + strings.Join(parts, " ")
}

func (c *Comment) String() string { return "# " + c.Text }

func (c *StackShift) String() string {
	return fmt.Sprintf("shift %s %+d", c.Var, c.Delta)
}
