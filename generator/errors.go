package generator

import (
	"github.com/ava12/earley"
)

const (
	GuardError = iota + earley.GeneratorErrors
	RepetitionError
	UnboundedRuleError
)

func guardError(e error) *earley.Error {
	return earley.FormatError(GuardError, "guard predicate failed: %s", e.Error())
}

func repetitionError() *earley.Error {
	return earley.FormatError(RepetitionError, "repetition node survived rule lowering")
}

func unboundedRuleError(index int) *earley.Error {
	return earley.FormatError(UnboundedRuleError,
		"rule %d keeps producing new values without consuming input", index)
}
