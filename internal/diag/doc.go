// Package diag defines the error classes shared by every compiler stage.
//
// Two classes are user facing and carry a source span:
//   - SyntaxError: malformed source, raised by the parser.
//   - ConversionError: structurally or semantically invalid constructs found
//     after parsing (resolution, inclusion).
//
// Everything else is an InternalError: a violated compiler invariant. Those
// are raised with panic and are never turned into user messages.
package diag
