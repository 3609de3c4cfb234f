package parser

import (
	"github.com/ava12/earley"
)

const (
	GuardError = iota + earley.ParserErrors
	RepetitionError
)

func guardError(e error) *earley.Error {
	return earley.FormatError(GuardError, "guard predicate failed: %s", e.Error())
}

func repetitionError() *earley.Error {
	return earley.FormatError(RepetitionError, "repetition node survived rule lowering")
}
