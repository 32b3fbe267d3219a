package parser

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/span"
)

// lexer holds the mutable state of one scanning pass over src.
type lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // 1-based line of src[pos]
	col  int // 1-based column of src[pos]

	depth  int // open '(' count; newlines inside parentheses are not terminators
	errs   *errorQueue
	tokens []Token
}

func newLexer(src string, errs *errorQueue) *lexer {
	src = norm.NFC.String(src)
	src = strings.ReplaceAll(src, "\r\n", "\n")
	return &lexer{src: []rune(src), line: 1, col: 1, errs: errs}
}

// lex scans the whole input. Lexical errors are queued and scanning
// continues, so the parser can still place later errors in order.
func lex(src string, errs *errorQueue) []Token {
	l := newLexer(src, errs)
	for {
		tok, ok := l.next()
		if !ok {
			continue
		}
		l.tokens = append(l.tokens, tok)
		if tok.Kind == EOF {
			return l.tokens
		}
	}
}

func (l *lexer) peek() rune { return l.peekAt(0) }

func (l *lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) here() span.Pos { return span.Pos{Line: l.line, Col: l.col} }

// last returns the position of the most recently consumed rune.
func (l *lexer) last() span.Pos {
	if l.col > 1 {
		return span.Pos{Line: l.line, Col: l.col - 1}
	}
	return l.here()
}

func (l *lexer) fail(code string, start span.Pos, format string, args ...any) {
	l.errs.raise(diag.Syntaxf(code, span.Span{Start: start, End: l.last()}, format, args...))
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentPart(r rune) bool  { return isIdentStart(r) || unicode.IsDigit(r) }
func isDigit(r rune) bool      { return r >= '0' && r <= '9' }

// next scans one token. ok is false when the scan produced nothing (an
// invalid character was skipped).
func (l *lexer) next() (Token, bool) {
	for {
		r := l.peek()
		switch {
		case r == '\n' && l.depth == 0:
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.advance()
			continue
		case r == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		break
	}

	start := l.here()
	tok := func(k Kind, text string) (Token, bool) {
		return Token{Kind: k, Text: text, Span: span.Span{Start: start, End: l.last()}}, true
	}

	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Span: span.Point(start.Line, start.Col)}, true
	}

	r := l.advance()
	switch {
	case r == '\n':
		return tok(NEWLINE, "\n")
	case r == '#':
		var b strings.Builder
		for l.pos < len(l.src) && l.peek() != '\n' {
			b.WriteRune(l.advance())
		}
		return tok(COMMENT, strings.TrimSpace(b.String()))
	case isIdentStart(r):
		text := string(r) + l.takeWhile(isIdentPart)
		if k, ok := keywords[text]; ok {
			return tok(k, text)
		}
		return tok(IDENT, text)
	case isDigit(r):
		return l.number(start, r)
	case r == '"':
		return l.str(start)
	case r == '@':
		return l.at(start)
	}

	two := string([]rune{r, l.peek()})
	switch two {
	case "==", "!=", "<=", ">=", "??", "..", "->":
		l.advance()
		return tok(twoRune[two], two)
	}
	if k, ok := oneRune[r]; ok {
		switch k {
		case LPAREN:
			l.depth++
		case RPAREN:
			if l.depth > 0 {
				l.depth--
			}
		}
		return tok(k, string(r))
	}

	l.fail(diag.ErrInvalidCharacter, start, "invalid character %q", r)
	return Token{}, false
}

var twoRune = map[string]Kind{
	"==": EQ, "!=": NE, "<=": LE, ">=": GE, "??": COALESCE, "..": RANGE, "->": ARROW,
}

var oneRune = map[rune]Kind{
	'+': PLUS, '-': MINUS, '*': STAR, '/': SLASH, '%': PERCENT, '^': CARET,
	'<': LT, '>': GT, '=': ASSIGN, '.': DOT, ',': COMMA, ':': COLON, ';': SEMICOLON,
	'(': LPAREN, ')': RPAREN, '{': LBRACE, '}': RBRACE,
}

func (l *lexer) takeWhile(pred func(rune) bool) string {
	begin := l.pos
	for l.pos < len(l.src) && pred(l.peek()) {
		l.advance()
	}
	return string(l.src[begin:l.pos])
}

// number scans an integer or a decimal float. A '.' only continues the
// number when a digit follows, so `0..10` lexes as a range.
func (l *lexer) number(start span.Pos, first rune) (Token, bool) {
	text := string(first) + l.takeWhile(isDigit)
	kind := INT
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()
		text += "." + l.takeWhile(isDigit)
		kind = FLOAT
	}
	malformed := isIdentStart(l.peek()) || (l.peek() == '.' && isDigit(l.peekAt(1)))
	if malformed {
		text += l.takeWhile(func(r rune) bool { return isIdentPart(r) || r == '.' && isDigit(l.peekAt(1)) })
		l.fail(diag.ErrMalformedNumber, start, "malformed number literal %q", text)
		return Token{Kind: INT, Text: "0", Span: span.Span{Start: start, End: l.last()}}, true
	}
	switch kind {
	case INT:
		if _, err := strconv.ParseInt(text, 10, 32); err != nil {
			l.fail(diag.ErrMalformedNumber, start, "integer literal %s does not fit in 32 bits", text)
			text = "0"
		}
	case FLOAT:
		// floats are stored as thousandths in a 32-bit score
		if v, err := strconv.ParseFloat(text, 64); err != nil || math.Abs(math.Round(v*1000)) > math.MaxInt32 {
			l.fail(diag.ErrMalformedNumber, start, "float literal %s does not fit in 32 bits as fixed point", text)
			text = "0.0"
		}
	}
	return Token{Kind: kind, Text: text, Span: span.Span{Start: start, End: l.last()}}, true
}

// str scans a double-quoted literal; the opening quote is consumed.
func (l *lexer) str(start span.Pos) (Token, bool) {
	var b strings.Builder
	for {
		r := l.peek()
		switch {
		case l.pos >= len(l.src) || r == '\n':
			l.fail(diag.ErrUnterminatedStr, start, "unterminated string literal")
			return Token{Kind: STRING, Text: b.String(), Span: span.Span{Start: start, End: l.last()}}, true
		case r == '"':
			l.advance()
			return Token{Kind: STRING, Text: b.String(), Span: span.Span{Start: start, End: l.last()}}, true
		case r == '\\':
			l.advance()
			switch e := l.advance(); e {
			case 'n':
				b.WriteRune('\n')
			case '"', '\\':
				b.WriteRune(e)
			default:
				b.WriteRune('\\')
				b.WriteRune(e)
			}
		default:
			b.WriteRune(l.advance())
		}
	}
}

// at scans a target selector (`@e[...]`) or a decorator (`@tick`); the '@'
// is consumed.
func (l *lexer) at(start span.Pos) (Token, bool) {
	name := l.takeWhile(isIdentPart)
	if name == "" {
		l.fail(diag.ErrInvalidCharacter, start, "invalid character '@'")
		return Token{}, false
	}
	if len(name) == 1 && strings.ContainsRune("aeprs", rune(name[0])) {
		text := "@" + name
		if l.peek() == '[' {
			text += l.bracketed(start)
		}
		return Token{Kind: SELECTOR, Text: text, Span: span.Span{Start: start, End: l.last()}}, true
	}
	return Token{Kind: DECORATOR, Text: name, Span: span.Span{Start: start, End: l.last()}}, true
}

// bracketed consumes a balanced [...] group, respecting quoted strings.
func (l *lexer) bracketed(start span.Pos) string {
	var b strings.Builder
	depth := 0
	quoted := false
	for l.pos < len(l.src) {
		r := l.peek()
		if r == '\n' {
			break
		}
		b.WriteRune(l.advance())
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			depth++
		case r == ']':
			depth--
			if depth == 0 {
				return b.String()
			}
		}
	}
	l.fail(diag.ErrUnexpectedToken, start, "selector arguments are not closed with ']'")
	return b.String()
}
