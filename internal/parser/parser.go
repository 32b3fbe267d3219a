// Package parser turns source text into an ast.Root.
//
// Parsing is recursive descent over a token slice. A syntax error is queued
// and the parser unwinds to the enclosing statement with a bailout panic,
// resynchronises at the next statement boundary and keeps going; Parse
// reports the earliest queued error in source order.
package parser

import (
	"slices"
	"strconv"

	"github.com/roach88/packc/internal/ast"
	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/span"
)

// Parse parses a whole program.
func Parse(src string) (*ast.Root, error) {
	errs := &errorQueue{}
	p := &parser{toks: lex(src, errs), errs: errs}
	root := p.program()
	if err := errs.flush(); err != nil {
		return nil, err
	}
	return root, nil
}

// bailout unwinds the parser to the nearest statement boundary after an
// error has been queued.
type bailout struct{}

type parser struct {
	toks []Token
	pos  int
	errs *errorQueue
}

func (p *parser) peek() Token { return p.peekAt(0) }

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) at(k Kind) bool { return p.peek().Kind == k }

func (p *parser) accept(k Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// fail queues an error and unwinds.
func (p *parser) fail(err *diag.SyntaxError) {
	p.errs.raise(err)
	panic(bailout{})
}

func (p *parser) expect(k Kind) Token {
	tok := p.peek()
	if tok.Kind != k {
		p.fail(diag.Syntaxf(diag.ErrUnexpectedToken, tok.Span, "expected %s, found %s", k, tok))
	}
	return p.advance()
}

// refining runs fn and, if it bails out, lets refine replace the pending
// generic error with a more specific one.
func (p *parser) refining(fn func(), refine func(pending *diag.SyntaxError) *diag.SyntaxError) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); ok && p.errs.pending != nil {
				if better := refine(p.errs.pending); better != nil {
					p.errs.refine(better)
				}
			}
			panic(r)
		}
	}()
	fn()
}

// from returns the span from start to the end of the last consumed token.
func (p *parser) from(start span.Pos) span.Span {
	end := start
	if p.pos > 0 {
		end = p.toks[p.pos-1].Span.End
	}
	return span.Span{Start: start, End: end}
}

// ---------------------------------------------------------------------------
// Statements

func (p *parser) program() *ast.Root {
	start := p.peek().Span.Start
	body := &ast.Scope{Stmts: p.statements(Token{})}
	body.Loc = p.from(start)
	return &ast.Root{Base: ast.Base{Loc: body.Loc}, Body: body}
}

// statements parses until EOF, or until the '}' matching open when open is
// a '{' token.
func (p *parser) statements(open Token) []*ast.Stmnt {
	var out []*ast.Stmnt
	for {
		for p.accept(NEWLINE) || p.accept(SEMICOLON) {
		}
		switch tok := p.peek(); tok.Kind {
		case EOF:
			if open.Kind == LBRACE {
				p.errs.raise(diag.Syntaxf(diag.ErrUnclosedScope, open.Span,
					"unclosed scope: '{' opened at %s is never closed", open.Span.Start))
			}
			return out
		case RBRACE:
			if open.Kind == LBRACE {
				return out
			}
			p.errs.raise(diag.Syntaxf(diag.ErrUnexpectedToken, tok.Span, "unexpected '}' outside of a block"))
			p.advance()
			continue
		}
		if s := p.safeStatement(); s != nil {
			out = append(out, s)
		}
	}
}

// safeStatement parses one statement, resynchronising after a bailout.
func (p *parser) safeStatement() (s *ast.Stmnt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.sync()
			s = nil
		}
	}()
	start := p.peek().Span.Start
	inner := p.statement()
	s = &ast.Stmnt{Base: ast.Base{Loc: p.from(start)}, Inner: inner}
	p.endOfStatement()
	return s
}

// sync skips to the next statement boundary at the current brace depth.
func (p *parser) sync() {
	depth := 0
	for {
		switch p.peek().Kind {
		case EOF:
			return
		case NEWLINE, SEMICOLON:
			if depth == 0 {
				return
			}
		case LBRACE:
			depth++
		case RBRACE:
			if depth == 0 {
				return
			}
			depth--
		}
		p.advance()
	}
}

func (p *parser) endOfStatement() {
	switch tok := p.peek(); tok.Kind {
	case NEWLINE, SEMICOLON:
		p.advance()
	case RBRACE, EOF:
	default:
		p.fail(diag.Syntaxf(diag.ErrUnexpectedToken, tok.Span, "expected end of statement, found %s", tok))
	}
}

func (p *parser) statement() ast.Node {
	tok := p.peek()
	switch tok.Kind {
	case COMMENT:
		p.advance()
		return &ast.UserComment{Base: ast.Base{Loc: tok.Span}, Text: tok.Text}
	case VAR:
		return p.varDecl()
	case DECORATOR, DEF:
		return p.funcDecl()
	case IF:
		return p.ifStruct()
	case WHILE:
		return p.whileLoop()
	case FOR:
		return p.forLoop()
	case RETURN:
		return p.returnLn()
	case INCLUDE:
		return p.include()
	case ELIF, ELSE:
		p.fail(diag.Syntaxf(diag.ErrMisusedKeyword, tok.Span, "%s without a preceding 'if'", tok.Kind))
	}
	return p.simpleStatement()
}

// simpleStatement is an expression statement or an assignment.
func (p *parser) simpleStatement() ast.Node {
	first, firstIdx := p.peek(), p.pos
	var n ast.Node
	p.refining(func() {
		target := p.expr()
		if !p.at(ASSIGN) {
			n = target
			if !endsStatement(p.peek().Kind) {
				p.fail(diag.Syntaxf(diag.ErrUnexpectedToken, p.peek().Span, "expected end of statement, found %s", p.peek()))
			}
			return
		}
		p.advance()
		if !assignable(target) {
			p.fail(diag.Syntaxf(diag.ErrAssignTarget, target.Span(),
				"cannot assign to %s; the target must be a variable or a property", describe(target)))
		}
		value := p.expr()
		n = &ast.Assignment{Base: ast.Base{Loc: p.from(first.Span.Start)}, Target: target, Value: value}
	}, func(pending *diag.SyntaxError) *diag.SyntaxError {
		// `retrun 5`: an identifier directly followed by another operand.
		second := p.toks[min(firstIdx+1, len(p.toks)-1)]
		if first.Kind != IDENT || pending.Code != diag.ErrUnexpectedToken || pending.Span != second.Span {
			return nil
		}
		switch second.Kind {
		case IDENT, INT, FLOAT, STRING, SELECTOR, LBRACE, TRUE, FALSE, NULL, THIS, WORLD:
		default:
			return nil
		}
		err := diag.Syntaxf(diag.ErrUnknownStatement, first.Span, "unknown statement %q", first.Text)
		err.Suggestions = diag.Suggest(first.Text, statementKeywords)
		return err
	})
	return n
}

func endsStatement(k Kind) bool {
	return k == NEWLINE || k == SEMICOLON || k == RBRACE || k == EOF
}

func assignable(n ast.Node) bool {
	switch x := n.(type) {
	case *ast.Identifier:
		return true
	case *ast.PropertyAccess:
		switch x.Receiver.(type) {
		case *ast.Identifier, *ast.LiteralThis, *ast.LiteralWorld, *ast.Selector:
			return true
		}
	}
	return false
}

func describe(n ast.Node) string {
	switch n.(type) {
	case *ast.Call:
		return "a function call"
	case *ast.LiteralInt, *ast.LiteralFloat, *ast.LiteralString, *ast.LiteralBool, *ast.LiteralNull:
		return "a literal"
	case *ast.LiteralThis, *ast.LiteralWorld, *ast.Selector:
		return "a receiver"
	}
	return "an expression"
}

// name consumes an identifier used as a declared name.
func (p *parser) name(what string) Token {
	tok := p.peek()
	if tok.Kind.IsKeyword() {
		p.fail(diag.Syntaxf(diag.ErrMisusedKeyword, tok.Span,
			"%q is a reserved keyword and cannot be used as a %s name", tok.Text, what))
	}
	return p.expect(IDENT)
}

func (p *parser) typeNode(owner, what string) *ast.TypeNode {
	tok := p.peek()
	if tok.Kind != IDENT {
		p.fail(diag.Syntaxf(diag.ErrMissingType, tok.Span, "missing type annotation for %s %q", what, owner))
	}
	p.advance()
	if !slices.Contains(typeNames, tok.Text) {
		err := diag.Syntaxf(diag.ErrUnknownType, tok.Span, "unknown type %q", tok.Text)
		err.Suggestions = diag.Suggest(tok.Text, typeNames)
		p.fail(err)
	}
	return &ast.TypeNode{Base: ast.Base{Loc: tok.Span}, Name: tok.Text}
}

// annotation parses `: type`, reporting a missing annotation when the colon
// is absent.
func (p *parser) annotation(owner Token, what string) *ast.TypeNode {
	if !p.at(COLON) {
		p.fail(diag.Syntaxf(diag.ErrMissingType, owner.Span, "missing type annotation for %s %q", what, owner.Text))
	}
	p.advance()
	return p.typeNode(owner.Text, what)
}

func (p *parser) varDecl() ast.Node {
	start := p.expect(VAR).Span.Start
	name := p.name("variable")
	typ := p.annotation(name, "variable")
	var value ast.Node
	if p.accept(ASSIGN) {
		value = p.expr()
	}
	return &ast.VariableDecl{Base: ast.Base{Loc: p.from(start)}, Name: name.Text, Type: typ, Value: value}
}

func (p *parser) funcDecl() ast.Node {
	start := p.peek().Span.Start
	var decorators []*ast.Decorator
	for p.at(DECORATOR) {
		tok := p.advance()
		decorators = append(decorators, &ast.Decorator{Base: ast.Base{Loc: tok.Span}, Name: tok.Text})
		for p.accept(NEWLINE) {
		}
	}
	p.expect(DEF)

	exec := ast.ExecWorld
	if p.peek().Kind == IDENT && p.peek().Text == "entity" && p.peekAt(1).Kind == IDENT {
		p.advance()
		exec = ast.ExecEntity
	}
	name := p.name("function")

	p.expect(LPAREN)
	var params []*ast.ParamDecl
	for !p.at(RPAREN) {
		if len(params) > 0 {
			p.expect(COMMA)
		}
		params = append(params, p.param())
	}
	p.expect(RPAREN)

	var ret *ast.TypeNode
	if p.accept(ARROW) {
		ret = p.typeNode(name.Text, "return value of")
	}
	body := p.block()
	return &ast.FunctionDecl{
		Base:       ast.Base{Loc: p.from(start)},
		Name:       name.Text,
		Exec:       exec,
		Return:     ret,
		Decorators: decorators,
		Params:     params,
		Body:       body,
	}
}

func (p *parser) param() *ast.ParamDecl {
	name := p.name("parameter")
	typ := p.annotation(name, "parameter")
	var def ast.Node
	if p.accept(ASSIGN) {
		def = p.expr()
	}
	return &ast.ParamDecl{Base: ast.Base{Loc: p.from(name.Span.Start)}, Name: name.Text, Type: typ, Default: def}
}

func (p *parser) block() *ast.CodeBlock {
	open := p.expect(LBRACE)
	stmts := p.statements(open)
	if !p.at(RBRACE) {
		// statements already queued the unclosed-scope error at EOF.
		panic(bailout{})
	}
	p.advance()
	loc := p.from(open.Span.Start)
	return &ast.CodeBlock{Base: ast.Base{Loc: loc}, Body: &ast.Scope{Base: ast.Base{Loc: loc}, Stmts: stmts}}
}

// skipNewlinesBefore consumes blank lines only when one of ks follows them.
func (p *parser) skipNewlinesBefore(ks ...Kind) bool {
	i := 0
	for p.peekAt(i).Kind == NEWLINE {
		i++
	}
	if !slices.Contains(ks, p.peekAt(i).Kind) {
		return false
	}
	p.pos += i
	return true
}

func (p *parser) ifStruct() ast.Node {
	start := p.expect(IF).Span.Start
	n := &ast.IfStruct{Cond: p.expr(), Body: p.block()}
	for p.skipNewlinesBefore(ELIF) {
		at := p.advance().Span.Start
		elif := &ast.ElifStruct{Cond: p.expr(), Body: p.block()}
		elif.Loc = p.from(at)
		n.Elifs = append(n.Elifs, elif)
	}
	if p.skipNewlinesBefore(ELSE) {
		at := p.advance().Span.Start
		n.Else = &ast.ElseStruct{Body: p.block()}
		n.Else.Loc = p.from(at)
	}
	n.Loc = p.from(start)
	return n
}

func (p *parser) whileLoop() ast.Node {
	start := p.expect(WHILE).Span.Start
	n := &ast.WhileLoop{Cond: p.expr(), Body: p.block()}
	n.Loc = p.from(start)
	return n
}

func (p *parser) forLoop() ast.Node {
	start := p.expect(FOR).Span.Start
	v := p.name("loop variable")
	p.expect(IN)
	from := p.expr()
	p.expect(RANGE)
	to := p.expr()
	n := &ast.ForLoop{Var: v.Text, From: from, To: to, Body: p.block()}
	n.Loc = p.from(start)
	return n
}

func (p *parser) returnLn() ast.Node {
	start := p.expect(RETURN).Span.Start
	n := &ast.ReturnLn{}
	if !endsStatement(p.peek().Kind) {
		n.Value = p.expr()
	}
	n.Loc = p.from(start)
	return n
}

func (p *parser) include() ast.Node {
	start := p.expect(INCLUDE).Span.Start
	n := &ast.Include{Resource: p.expect(STRING).Text}
	if p.accept(ARROW) {
		n.Dest = p.expect(STRING).Text
	}
	n.Loc = p.from(start)
	return n
}

// ---------------------------------------------------------------------------
// Expressions, lowest precedence first.

func (p *parser) expr() ast.Node { return p.coalesce() }

func (p *parser) coalesce() ast.Node {
	left := p.or()
	for p.accept(COALESCE) {
		right := p.or()
		left = &ast.NullCoalesce{Base: spanOf(left, right), Left: left, Right: right}
	}
	return left
}

func (p *parser) or() ast.Node {
	left := p.and()
	for p.accept(OR) {
		right := p.and()
		left = &ast.Logical{Base: spanOf(left, right), Op: ast.OpOr, Left: left, Right: right}
	}
	return left
}

func (p *parser) and() ast.Node {
	left := p.not()
	for p.accept(AND) {
		right := p.not()
		left = &ast.Logical{Base: spanOf(left, right), Op: ast.OpAnd, Left: left, Right: right}
	}
	return left
}

func (p *parser) not() ast.Node {
	if p.at(NOT) {
		start := p.advance().Span.Start
		operand := p.not()
		return &ast.Not{Base: ast.Base{Loc: p.from(start)}, Operand: operand}
	}
	return p.comparison()
}

var compareOps = map[Kind]ast.CompareOp{
	EQ: ast.OpEq, NE: ast.OpNe, LT: ast.OpLt, LE: ast.OpLe, GT: ast.OpGt, GE: ast.OpGe,
}

func (p *parser) comparison() ast.Node {
	left := p.additive()
	if op, ok := compareOps[p.peek().Kind]; ok {
		p.advance()
		right := p.additive()
		return &ast.Comparison{Base: spanOf(left, right), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) additive() ast.Node {
	left := p.multiplicative()
	for {
		var op ast.ArithOp
		switch p.peek().Kind {
		case PLUS:
			op = ast.OpAdd
		case MINUS:
			op = ast.OpSub
		default:
			return left
		}
		p.advance()
		right := p.multiplicative()
		left = &ast.Arithmetic{Base: spanOf(left, right), Op: op, Left: left, Right: right}
	}
}

func (p *parser) multiplicative() ast.Node {
	left := p.unary()
	for {
		var op ast.ArithOp
		switch p.peek().Kind {
		case STAR:
			op = ast.OpMul
		case SLASH:
			op = ast.OpDiv
		case PERCENT:
			op = ast.OpMod
		default:
			return left
		}
		p.advance()
		right := p.unary()
		left = &ast.Arithmetic{Base: spanOf(left, right), Op: op, Left: left, Right: right}
	}
}

// unary folds a minus directly applied to a numeric literal.
func (p *parser) unary() ast.Node {
	if !p.at(MINUS) {
		return p.power()
	}
	start := p.advance().Span.Start
	operand := p.unary()
	loc := ast.Base{Loc: p.from(start)}
	switch lit := operand.(type) {
	case *ast.LiteralInt:
		return &ast.LiteralInt{Base: loc, Value: -lit.Value}
	case *ast.LiteralFloat:
		return &ast.LiteralFloat{Base: loc, Value: -lit.Value}
	}
	return &ast.Negate{Base: loc, Operand: operand}
}

func (p *parser) power() ast.Node {
	base := p.postfix()
	if !p.accept(CARET) {
		return base
	}
	exp := p.unary()
	return &ast.Arithmetic{Base: spanOf(base, exp), Op: ast.OpPow, Left: base, Right: exp}
}

func (p *parser) postfix() ast.Node {
	n := p.primary()
	for {
		switch {
		case p.at(LPAREN):
			p.advance()
			var args []*ast.CallArg
			for !p.at(RPAREN) {
				if len(args) > 0 {
					p.expect(COMMA)
				}
				args = append(args, p.callArg())
			}
			p.expect(RPAREN)
			n = &ast.Call{Base: ast.Base{Loc: p.from(n.Span().Start)}, Callee: n, Args: args}
		case p.at(DOT):
			p.advance()
			name := p.expect(IDENT)
			n = &ast.PropertyAccess{Base: ast.Base{Loc: p.from(n.Span().Start)}, Receiver: n, Name: name.Text}
		default:
			return n
		}
	}
}

func (p *parser) callArg() *ast.CallArg {
	start := p.peek().Span.Start
	arg := &ast.CallArg{}
	if p.at(IDENT) && p.peekAt(1).Kind == ASSIGN {
		arg.Name = p.advance().Text
		p.advance()
	}
	arg.Value = p.expr()
	arg.Loc = p.from(start)
	return arg
}

func (p *parser) primary() ast.Node {
	tok := p.peek()
	loc := ast.Base{Loc: tok.Span}
	switch tok.Kind {
	case INT:
		p.advance()
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		diag.Assert(err == nil, "lexer accepted integer %q", tok.Text)
		return &ast.LiteralInt{Base: loc, Value: v}
	case FLOAT:
		p.advance()
		// range checked by the lexer
		v, err := strconv.ParseFloat(tok.Text, 64)
		diag.Assert(err == nil, "lexer accepted float %q", tok.Text)
		return &ast.LiteralFloat{Base: loc, Value: v}
	case STRING:
		p.advance()
		return &ast.LiteralString{Base: loc, Value: tok.Text}
	case TRUE, FALSE:
		p.advance()
		return &ast.LiteralBool{Base: loc, Value: tok.Kind == TRUE}
	case NULL:
		p.advance()
		return &ast.LiteralNull{Base: loc}
	case WORLD:
		p.advance()
		return &ast.LiteralWorld{Base: loc}
	case THIS:
		p.advance()
		return &ast.LiteralThis{Base: loc}
	case IDENT:
		p.advance()
		return &ast.Identifier{Base: loc, Name: tok.Text}
	case SELECTOR:
		p.advance()
		return &ast.Selector{Base: loc, Text: tok.Text}
	case LPAREN:
		p.advance()
		inner := p.expr()
		p.expect(RPAREN)
		return inner
	}
	p.fail(diag.Syntaxf(diag.ErrUnexpectedToken, tok.Span, "expected an expression, found %s", tok))
	return nil
}

func spanOf(a, b ast.Node) ast.Base {
	return ast.Base{Loc: span.Union(a.Span(), b.Span())}
}
