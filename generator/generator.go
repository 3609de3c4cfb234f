// Package generator enumerates the language of a resolved grammar over a
// finite alphabet. Enumeration respects the declared structure: candidates
// of a choice are listed first-declared first, and repetitions list zero
// occurrences before longer runs.
package generator

import (
	"context"
	"reflect"

	"github.com/ava12/earley/grammar"
	"github.com/ava12/earley/internal/ints"
	"github.com/ava12/earley/internal/rules"
)

// DefaultMaxRounds is the fixpoint round bound used when Generator.MaxRounds
// is left zero.
const DefaultMaxRounds = 64

// Generator owns the resolved rule storage for one grammar. It may be reused
// for any number of Generate calls; MaxRounds should be adjusted, if at all,
// before the first one.
type Generator struct {
	store *rules.Store
	start grammar.Prod

	// MaxRounds bounds fixpoint iteration per (rule, budget): a rule whose
	// value set is still growing after this many rounds without consuming
	// any more input is reported as unbounded. Rounds are independent of the
	// token limit because a guarded rule may legitimately grow its value set
	// many times on the same consumed prefix before converging. Zero selects
	// DefaultMaxRounds.
	MaxRounds int
}

// Sentence is one generated parse: the produced value and the consumed token
// prefix.
type Sentence struct {
	Value  any
	Tokens []any
}

// New resolves g into rule storage. The grammar's final value must be the
// entry-point production.
func New(g grammar.Grammar) (*Generator, error) {
	store, start, err := rules.Build(g)
	if err != nil {
		return nil, err
	}
	return &Generator{store: store, start: start}, nil
}

// Generate enumerates every (value, consumed prefix) pair the grammar can
// produce using at most limit tokens drawn from alphabet.
func (g *Generator) Generate(ctx context.Context, alphabet []any, limit int) ([]Sentence, error) {
	if limit < 0 {
		limit = 0
	}
	maxRounds := g.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	gc := &genCtx{
		ctx:       ctx,
		store:     g.store,
		alphabet:  alphabet,
		limit:     limit,
		maxRounds: maxRounds,
		memo:      map[genKey][]Sentence{},
		partial:   map[genKey][]Sentence{},
		active:    ints.NewSet(),
		deps:      ints.NewSet(),
	}
	out := gc.gen(g.start, limit)
	if gc.err != nil {
		return nil, gc.err
	}
	return out, nil
}

// GenerateString enumerates over the runes of alphabet.
func (g *Generator) GenerateString(ctx context.Context, alphabet string, limit int) ([]Sentence, error) {
	toks := make([]any, 0, len(alphabet))
	for _, r := range alphabet {
		toks = append(toks, r)
	}
	return g.Generate(ctx, toks, limit)
}

type genKey struct {
	rule   int
	budget int
}

type genCtx struct {
	ctx       context.Context
	store     *rules.Store
	alphabet  []any
	limit     int
	maxRounds int
	memo      map[genKey][]Sentence
	partial   map[genKey][]Sentence
	active    *ints.Set
	deps      *ints.Set
	err       error
}

func (gc *genCtx) gen(p grammar.Prod, budget int) []Sentence {
	if gc.err != nil {
		return nil
	}
	if err := gc.ctx.Err(); err != nil {
		gc.fail(err)
		return nil
	}

	switch q := p.(type) {
	case *grammar.Pure:
		return []Sentence{{Value: q.Value}}

	case *grammar.Terminal:
		if budget < 1 {
			return nil
		}
		var out []Sentence
		for _, tok := range gc.alphabet {
			v, ok := q.Match(tok)
			if !ok {
				continue
			}
			for _, rest := range gc.gen(q.Cont, budget-1) {
				g := rest.Value.(func(any) any)
				out = append(out, Sentence{g(v), prepend(tok, rest.Tokens)})
			}
		}
		return out

	case *grammar.NonTerminal:
		index, body, err := gc.store.Deref(q.Ref)
		if err != nil {
			gc.fail(err)
			return nil
		}
		var out []Sentence
		for _, sub := range gc.rule(index, body, budget) {
			for _, rest := range gc.gen(q.Cont, budget-len(sub.Tokens)) {
				g := rest.Value.(func(any) any)
				out = append(out, Sentence{g(sub.Value), concat(sub.Tokens, rest.Tokens)})
			}
		}
		return out

	case *grammar.Alts:
		var out []Sentence
		for _, a := range q.Prods {
			for _, sub := range gc.gen(a, budget) {
				for _, rest := range gc.gen(q.Cont, budget-len(sub.Tokens)) {
					g := rest.Value.(func(any) any)
					out = append(out, Sentence{g(sub.Value), concat(sub.Tokens, rest.Tokens)})
				}
			}
		}
		return out

	case *grammar.Named:
		return gc.gen(q.Prod, budget)

	case *grammar.Guard:
		var out []Sentence
		for _, sub := range gc.gen(q.Prod, budget) {
			ok, err := q.Pred(gc.ctx, sub.Value)
			if err != nil {
				gc.fail(guardError(err))
				return nil
			}
			if ok {
				out = append(out, sub)
			}
		}
		return out
	}

	gc.fail(repetitionError())
	return nil
}

// rule enumerates one rule within a token budget. Recursive rules are
// iterated to a fixpoint: re-entering a rule already being enumerated at the
// same budget yields the sentences collected so far, and enumeration repeats
// until no new sentence appears. Sentence sets only ever grow between
// rounds, so an unchanged size means the set is stable. A rule that keeps
// producing new values without consuming input cannot reach a fixpoint and
// is reported as a defect once MaxRounds is exceeded.
//
// Rules referencing each other form cycles spanning several slots (every
// recursive declaration already spans two: the placeholder and the declared
// rule). A result computed while consulting the incomplete partial set of a
// rule still being enumerated higher up such a cycle is itself incomplete,
// so it must not be memoized: gc.deps tracks which active rules were
// consulted, and only dependency-free results are cached. The enclosing
// fixpoint re-requests the others on every round until the whole cycle is
// stable.
func (gc *genCtx) rule(index int, body grammar.Prod, budget int) []Sentence {
	key := genKey{index, budget}
	if out, ok := gc.memo[key]; ok {
		return out
	}
	enc := index*(gc.limit+1) + budget
	if gc.active.Contains(enc) {
		gc.deps.Add(enc)
		return gc.partial[key]
	}
	gc.active.Add(enc)
	outer := gc.deps
	gc.deps = ints.NewSet()

	var out []Sentence
	for round := 0; ; round++ {
		res := dedupSentences(gc.gen(body, budget))
		if gc.err != nil {
			break
		}
		if len(res) == len(out) {
			out = res
			break
		}
		out = res
		gc.partial[key] = res
		if round >= gc.maxRounds {
			gc.fail(unboundedRuleError(index))
			break
		}
	}

	gc.active.Remove(enc)
	delete(gc.partial, key)
	gc.deps.Remove(enc)
	if gc.err == nil && gc.deps.IsEmpty() {
		gc.memo[key] = out
	}
	for _, d := range gc.deps.ToSlice() {
		outer.Add(d)
	}
	gc.deps = outer
	return out
}

func (gc *genCtx) fail(err error) {
	if gc.err == nil {
		gc.err = err
	}
}

func dedupSentences(in []Sentence) []Sentence {
	out := make([]Sentence, 0, len(in))
	for _, s := range in {
		dup := false
		for _, t := range out {
			if sameTokens(s.Tokens, t.Tokens) && reflect.DeepEqual(s.Value, t.Value) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, s)
		}
	}
	return out
}

func sameTokens(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func prepend(tok any, rest []any) []any {
	out := make([]any, len(rest)+1)
	out[0] = tok
	copy(out[1:], rest)
	return out
}

func concat(a, b []any) []any {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]any, len(a)+len(b))
	copy(out, a)
	copy(out[len(a):], b)
	return out
}
