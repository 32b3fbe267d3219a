package diag

import (
	"fmt"
	"strings"

	"github.com/roach88/packc/internal/span"
)

// Syntax error codes (E200-E299).
const (
	ErrUnexpectedToken  = "E201" // unexpected token
	ErrMissingType      = "E202" // missing type annotation
	ErrUnclosedScope    = "E203" // '{' never closed
	ErrMisusedKeyword   = "E204" // keyword used as a name or out of place
	ErrAssignTarget     = "E205" // malformed assignment target
	ErrUnknownType      = "E206" // unknown type name
	ErrUnknownStatement = "E207" // unknown statement keyword
	ErrUnterminatedStr  = "E208" // unterminated string literal
	ErrInvalidCharacter = "E209" // invalid character
	ErrMalformedNumber  = "E210" // malformed number literal
)

// Conversion error codes (E300-E399).
const (
	ErrReturnOutside    = "E301" // return outside a function
	ErrUndefinedName    = "E302" // undefined name
	ErrTypeMismatch     = "E303" // type mismatch
	ErrArgumentCount    = "E304" // wrong argument count / unknown parameter
	ErrDuplicate        = "E305" // duplicate declaration
	ErrInvalidOperator  = "E306" // operator not defined for operand types
	ErrUnknownDecorator = "E307" // unknown decorator
	ErrDecoratedParams  = "E308" // decorated function takes parameters
	ErrNotModuleLevel   = "E309" // declaration only allowed at module level
	ErrBadExponent      = "E310" // exponent must be a non-negative integer literal
	ErrIncludeMissing   = "E311" // include resource does not exist
	ErrIncludeNotFolder = "E312" // include destination component is a file
	ErrIncludeClash     = "E313" // include name collides with an existing node
	ErrReturnValue      = "E314" // missing or unexpected return value
	ErrPropertyReceiver = "E315" // invalid property or call receiver
)

// SyntaxError reports malformed source text.
type SyntaxError struct {
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Span        span.Span `json:"span"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error [%s] at %s: %s%s", e.Code, e.Span, e.Message, suggestionSuffix(e.Suggestions))
}

// ConversionError reports a construct that parsed but cannot be compiled.
type ConversionError struct {
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Span        span.Span `json:"span"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion error [%s] at %s: %s%s", e.Code, e.Span, e.Message, suggestionSuffix(e.Suggestions))
}

// Syntaxf builds a SyntaxError.
func Syntaxf(code string, at span.Span, format string, args ...any) *SyntaxError {
	return &SyntaxError{Code: code, Span: at, Message: fmt.Sprintf(format, args...)}
}

// Conversionf builds a ConversionError.
func Conversionf(code string, at span.Span, format string, args ...any) *ConversionError {
	return &ConversionError{Code: code, Span: at, Message: fmt.Sprintf(format, args...)}
}

func suggestionSuffix(s []string) string {
	switch len(s) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf(" (did you mean %q?)", s[0])
	}
	quoted := make([]string, len(s))
	for i, c := range s {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf(" (did you mean one of %s?)", strings.Join(quoted, ", "))
}

// InternalError is a compiler defect: an invariant that correct upstream
// stages guarantee did not hold.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal compiler error: " + e.Message
}

// Internalf panics with an InternalError.
func Internalf(format string, args ...any) {
	panic(&InternalError{Message: fmt.Sprintf(format, args...)})
}

// Assert panics with an InternalError when cond is false.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		Internalf(format, args...)
	}
}

// Unreachable panics for a case a closed variant switch should never reach.
func Unreachable(what any) {
	Internalf("unreachable: unexpected %T", what)
}
