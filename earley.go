/*
Package earley is a parser combinator library for context-free grammars,
built around an Earley-style recognition engine.

Consists of subpackages:
  - grammar: combinators building inert grammar descriptions (productions and
    rule declarations, including mutually recursive ones) and the protocol
    resolving declarations into engine-usable rule storage;
  - parser: recognition engine interpreting a resolved grammar over a token
    slice, returning every full parse together with a progress report;
  - generator: enumeration engine listing the sentences of a resolved grammar
    over a finite alphabet up to a length bound.

Typical usage is:

1. Build productions with the grammar package combinators. Productions are
plain immutable values and may be freely shared and composed.

2. Declare rules with grammar.Rule, or grammar.Fix for recursive and mutually
recursive rule groups, and finish the declaration sequence with
grammar.Yield.

3. Hand the grammar to parser.New or generator.New, which resolve the
declarations into rule storage, then parse token slices or enumerate
sentences.
*/
package earley

import (
	"fmt"
)

// Error classes used by subpackages, each class contains up to 99 error codes:
const (
	GrammarErrors   = 1   // used by grammar construction and resolution
	ResolverErrors  = 101 // used by rule storage
	ParserErrors    = 201 // used by parser
	GeneratorErrors = 301 // used by generator
)

// Error is the error type used by earley subpackages.
type Error struct {
	// Code contains non-zero error code.
	Code int

	// Message contains non-empty error message.
	Message string
}

// NewError creates new Error structure.
func NewError(code int, msg string) *Error {
	return &Error{code, msg}
}

// Error simply returns Error.Message.
func (e *Error) Error() string {
	return e.Message
}

// FormatError creates Error structure.
// params will be added to error message using fmt.Sprintf function.
func FormatError(code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg)
}
