/*
Package grammar builds inert descriptions of context-free grammars and
resolves them into engine-usable rule storage.

Productions are assembled with combinators and are plain immutable values:
nothing here reads input tokens. Rule declarations, including mutually
recursive ones, are sequenced by Grammar values and materialized by a
Resolver (supplied by an engine) walking the declarations in order.
*/
package grammar

import (
	"context"
)

// A Prod describes how to derive a value from a fragment of input. Prod
// values are immutable: combinators build new values and never modify their
// operands, so any production may be shared between any number of use sites.
//
// Consuming variants (Terminal, NonTerminal, Alts, Many) do not point at a
// "next" production. They carry a continuation production whose own value is
// a func(any) any applied to the variant's value by the interpreting engine.
// Sequencing pushes continuations into the leftmost operand, which keeps
// long chains flat and composition cost linear in chain length.
type Prod interface {
	isProd()
}

// Terminal consumes exactly one input token. Match reports whether the token
// is accepted and yields the token's parsed value. No match means the branch
// dies; it is never an error.
type Terminal struct {
	Match func(token any) (any, bool)
	Cont  Prod
}

// NonTerminal invokes a declared rule through a reference created by a
// Resolver. A reference is only valid with the resolver that created it.
type NonTerminal struct {
	Ref  Ref
	Cont Prod
}

// Pure succeeds without consuming input, producing Value.
type Pure struct {
	Value any
}

// Alts is an ordered choice. An engine must explore every candidate:
// ambiguity is preserved, not resolved. An Alts with no candidates never
// succeeds and is the neutral element of choice.
type Alts struct {
	Prods []Prod
	Cont  Prod
}

// Many applies Prod zero or more times, producing the matches as []any.
type Many struct {
	Prod Prod
	Cont Prod
}

// Named attaches a diagnostic label to a production. Engines aggregate the
// label into the expected set whenever the production is attempted at the
// position where overall progress stalls.
type Named struct {
	Prod  Prod
	Label string
}

// Guard post-filters the values of a production. Pred rejecting a value
// discards that parse branch only; other branches stay viable. A non-nil
// error from Pred aborts interpretation as a defect.
type Guard struct {
	Prod Prod
	Pred func(ctx context.Context, value any) (bool, error)
}

// Ref identifies a declared rule. Refs are created by a Resolver during one
// resolution pass and must not be used with any other resolver; engines fail
// fast on references they did not create.
type Ref any

func (*Terminal) isProd()    {}
func (*NonTerminal) isProd() {}
func (*Pure) isProd()        {}
func (*Alts) isProd()        {}
func (*Many) isProd()        {}
func (*Named) isProd()       {}
func (*Guard) isProd()       {}

// idCont is the continuation returning values unchanged. It is shared so
// that combinators can recognize an unextended production by pointer:
// function values are not comparable, one well-known node is.
var idCont = &Pure{Value: func(v any) any { return v }}

// Term builds a production matching a single token for which match yields a
// value.
func Term(match func(token any) (any, bool)) Prod {
	return &Terminal{Match: match, Cont: idCont}
}

// Satisfy matches a single token accepted by pred, producing the token
// itself.
func Satisfy(pred func(token any) bool) Prod {
	return Term(func(t any) (any, bool) { return t, pred(t) })
}

// Token matches a single token equal to lit, producing the token. Tokens
// compared this way must be comparable values (runes, strings, ...).
func Token(lit any) Prod {
	return Term(func(t any) (any, bool) { return t, t == lit })
}

// Word matches the runes of text as consecutive tokens, producing text.
func Word(text string) Prod {
	prods := make([]Prod, 0, len(text))
	for _, r := range text {
		prods = append(prods, Token(r))
	}
	return Map(func(any) any { return text }, Seq(prods...))
}

// Value succeeds without consuming input, producing v.
func Value(v any) Prod {
	return &Pure{Value: v}
}

// Empty is the choice with no candidates: it never succeeds.
func Empty() Prod {
	return &Alts{Cont: idCont}
}

// NonTerm builds a production invoking the rule identified by ref. It is
// intended for Resolver implementations handing out rule references.
func NonTerm(ref Ref) Prod {
	return &NonTerminal{Ref: ref, Cont: idCont}
}

// Map applies f to every value produced by p.
func Map(f func(any) any, p Prod) Prod {
	switch p := p.(type) {
	case *Terminal:
		return &Terminal{p.Match, mapCont(f, p.Cont)}
	case *NonTerminal:
		return &NonTerminal{p.Ref, mapCont(f, p.Cont)}
	case *Pure:
		return &Pure{f(p.Value)}
	case *Alts:
		return &Alts{p.Prods, mapCont(f, p.Cont)}
	case *Many:
		return &Many{p.Prod, mapCont(f, p.Cont)}
	case *Named:
		return &Named{Map(f, p.Prod), p.Label}
	default:
		// A guard has no continuation to compose into; keep it inside and
		// apply f through a single-candidate choice.
		return &Alts{Prods: []Prod{p}, Cont: &Pure{Value: f}}
	}
}

// mapCont composes f after every function produced by continuation c.
func mapCont(f func(any) any, c Prod) Prod {
	return Map(func(g any) any {
		gf := g.(func(any) any)
		return func(v any) any { return f(gf(v)) }
	}, c)
}

// Apply sequences p before q, applying each function produced by p to each
// value produced by q. The left operand keeps its own variant at the top and
// the continuation is pushed into it, never wrapped around it, so repeated
// sequencing does not restructure what is already built. Apply is
// associative up to the produced values.
//
// The left operand must produce func(any) any values; Map turns any
// production into one.
func Apply(p, q Prod) Prod {
	switch p := p.(type) {
	case *Terminal:
		return &Terminal{p.Match, contApply(p.Cont, q)}
	case *NonTerminal:
		return &NonTerminal{p.Ref, contApply(p.Cont, q)}
	case *Pure:
		return Map(p.Value.(func(any) any), q)
	case *Alts:
		return &Alts{p.Prods, contApply(p.Cont, q)}
	case *Many:
		return &Many{p.Prod, contApply(p.Cont, q)}
	case *Named:
		return &Named{Apply(p.Prod, q), p.Label}
	default:
		return &Alts{Prods: []Prod{p}, Cont: Map(applyTo, q)}
	}
}

// applyTo turns a value into the function applying produced functions to it.
func applyTo(w any) any {
	return func(f any) any { return f.(func(any) any)(w) }
}

// contApply extends continuation c with a following production q: the result
// produces v -> g(v)(w) for every g from c and w from q.
func contApply(c, q Prod) Prod {
	return Apply(Map(func(g any) any {
		gf := g.(func(any) any)
		return func(w any) any {
			return func(v any) any { return gf(v).(func(any) any)(w) }
		}
	}, c), q)
}

// Seq matches prods in order, producing their values as []any.
func Seq(prods ...Prod) Prod {
	acc := Prod(&Pure{Value: []any{}})
	for _, p := range prods {
		acc = Apply(Map(appendValue, acc), p)
	}
	return acc
}

func appendValue(vs any) any {
	s := vs.([]any)
	return func(v any) any {
		out := make([]any, len(s)+1)
		copy(out, s)
		out[len(s)] = v
		return out
	}
}

// Alt builds an ordered choice among prods. Nested un-continued choices are
// merged into one flat candidate list, labels distribute over their
// expansions, an empty candidate list yields Empty, and a single effective
// candidate is returned directly instead of being wrapped. The rewrite is
// linear in the number of leaf alternatives and idempotent.
func Alt(prods ...Prod) Prod {
	merged := make([]Prod, 0, len(prods))
	for _, p := range prods {
		merged = append(merged, expand(nil, p)...)
	}
	switch len(merged) {
	case 0:
		return Empty()
	case 1:
		return merged[0]
	default:
		return &Alts{Prods: merged, Cont: idCont}
	}
}

// expand flattens one choice operand into its leaf candidates, applying f to
// every produced value. A nil f is the identity and keeps candidates intact.
func expand(f func(any) any, p Prod) []Prod {
	switch q := p.(type) {
	case *Alts:
		if q.Cont == Prod(idCont) {
			out := make([]Prod, 0, len(q.Prods))
			for _, a := range q.Prods {
				out = append(out, expand(f, a)...)
			}
			return out
		}
		if pure, ok := q.Cont.(*Pure); ok {
			g := pure.Value.(func(any) any)
			comp := g
			if f != nil {
				comp = func(v any) any { return f(g(v)) }
			}
			out := make([]Prod, 0, len(q.Prods))
			for _, a := range q.Prods {
				out = append(out, expand(comp, a)...)
			}
			return out
		}
	case *Named:
		sub := expand(f, q.Prod)
		out := make([]Prod, len(sub))
		for i, a := range sub {
			out[i] = &Named{a, q.Label}
		}
		return out
	}
	if f == nil {
		return []Prod{p}
	}
	return []Prod{Map(f, p)}
}

// ZeroOrMore matches p zero or more times, producing the matches as []any.
// Wrapping is applied once: repeating an unextended repetition returns it
// unchanged, and repeating a production that never succeeds matches exactly
// zero times.
func ZeroOrMore(p Prod) Prod {
	switch q := p.(type) {
	case *Alts:
		if len(q.Prods) == 0 {
			return &Pure{Value: []any{}}
		}
	case *Many:
		if q.Cont == Prod(idCont) {
			return p
		}
	}
	return &Many{Prod: p, Cont: idCont}
}

// OneOrMore matches p one or more times, producing the matches as []any: one
// p followed by ZeroOrMore(p), combined by sequencing.
func OneOrMore(p Prod) Prod {
	return Apply(Map(consValue, p), ZeroOrMore(p))
}

func consValue(v any) any {
	return func(vs any) any {
		tail := vs.([]any)
		out := make([]any, len(tail)+1)
		out[0] = v
		copy(out[1:], tail)
		return out
	}
}

// Option is the value produced by Optional: absent, or present with the
// wrapped production's value.
type Option struct {
	Present bool
	Value   any
}

// Optional matches p zero or one time. The absent branch occupies the first
// position of the flattened candidate list, the present branch the second;
// this order also fixes sentence enumeration order.
func Optional(p Prod) Prod {
	return Alt(&Pure{Value: Option{}}, Map(present, p))
}

func present(v any) any {
	return Option{Present: true, Value: v}
}

// Label attaches name to p for expected-set reporting. An outer label
// shadows inner ones in reports; labeling a choice is equivalent to labeling
// every branch.
func Label(p Prod, name string) Prod {
	return &Named{Prod: p, Label: name}
}

// Filter keeps only the values of p accepted by pred. Rejection discards a
// single parse branch; other branches stay viable.
func Filter(p Prod, pred func(value any) bool) Prod {
	return FilterCtx(p, func(_ context.Context, v any) (bool, error) {
		return pred(v), nil
	})
}

// FilterCtx is Filter with an effectful predicate: it receives the context
// the engine was run with and may return an error, which aborts
// interpretation.
func FilterCtx(p Prod, pred func(ctx context.Context, value any) (bool, error)) Prod {
	return &Guard{Prod: p, Pred: pred}
}
