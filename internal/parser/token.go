package parser

import (
	"fmt"

	"github.com/roach88/packc/internal/span"
)

// Kind identifies the category of a lexed token.
type Kind int

const (
	EOF Kind = iota
	NEWLINE
	SEMICOLON

	// Literals
	IDENT
	INT
	FLOAT
	STRING
	SELECTOR  // @e[type=pig]
	DECORATOR // @tick
	COMMENT   // # kept text

	// Keywords
	VAR
	DEF
	RETURN
	IF
	ELIF
	ELSE
	WHILE
	FOR
	IN
	AND
	OR
	NOT
	TRUE
	FALSE
	NULL
	WORLD
	THIS
	INCLUDE

	// Operators and punctuation
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	CARET    // ^
	EQ       // ==
	NE       // !=
	LT       // <
	LE       // <=
	GT       // >
	GE       // >=
	ASSIGN   // =
	COALESCE // ??
	DOT      // .
	RANGE    // ..
	COMMA    // ,
	COLON    // :
	ARROW    // ->
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
)

var kindNames = map[Kind]string{
	EOF: "end of file", NEWLINE: "newline", SEMICOLON: "';'",
	IDENT: "identifier", INT: "integer", FLOAT: "float", STRING: "string",
	SELECTOR: "selector", DECORATOR: "decorator", COMMENT: "comment",
	PLUS: "'+'", MINUS: "'-'", STAR: "'*'", SLASH: "'/'", PERCENT: "'%'", CARET: "'^'",
	EQ: "'=='", NE: "'!='", LT: "'<'", LE: "'<='", GT: "'>'", GE: "'>='",
	ASSIGN: "'='", COALESCE: "'??'", DOT: "'.'", RANGE: "'..'", COMMA: "','",
	COLON: "':'", ARROW: "'->'", LPAREN: "'('", RPAREN: "')'", LBRACE: "'{'", RBRACE: "'}'",
}

// keywords maps source text to its keyword Kind.
var keywords = map[string]Kind{
	"var":     VAR,
	"def":     DEF,
	"return":  RETURN,
	"if":      IF,
	"elif":    ELIF,
	"else":    ELSE,
	"while":   WHILE,
	"for":     FOR,
	"in":      IN,
	"and":     AND,
	"or":      OR,
	"not":     NOT,
	"true":    TRUE,
	"false":   FALSE,
	"null":    NULL,
	"world":   WORLD,
	"this":    THIS,
	"include": INCLUDE,
}

// statementKeywords are the words that may open a statement; they feed
// did-you-mean hints for misspelt statements.
var statementKeywords = []string{"var", "def", "return", "if", "elif", "else", "while", "for", "include"}

// typeNames are the spellable type annotations.
var typeNames = []string{"int", "float", "bool", "str", "entity", "void"}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	for word, kw := range keywords {
		if kw == k {
			return fmt.Sprintf("'%s'", word)
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool { return k >= VAR && k <= INCLUDE }

// Token is one lexeme with its source span.
type Token struct {
	Kind Kind
	Text string
	Span span.Span
}

func (t Token) String() string {
	switch t.Kind {
	case EOF, NEWLINE:
		return t.Kind.String()
	}
	return fmt.Sprintf("%q", t.Text)
}
