package grammar

import (
	"github.com/ava12/earley"
)

const (
	KnotUnresolvedError = iota + earley.GrammarErrors
	KnotValueError
	UnknownGrammarError
)

// Codes for defects detected by Resolver implementations:
const (
	ForeignRuleError = iota + earley.ResolverErrors
	UnresolvedRuleError
	DoubleInstallError
	StartValueError
)

func knotUnresolvedError() *earley.Error {
	return earley.FormatError(KnotUnresolvedError,
		"grammar declares a rule that cannot be resolved without first demanding its own value")
}

func knotValueError(v any) *earley.Error {
	return earley.FormatError(KnotValueError,
		"recursive declaration referenced as a production but resolved to %T", v)
}

func unknownGrammarError(g Grammar) *earley.Error {
	return earley.FormatError(UnknownGrammarError, "unknown grammar node %T", g)
}
