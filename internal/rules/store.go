// Package rules implements arena-backed rule storage shared by the parser
// and generator engines. A Store is one resolution session: it allocates
// rule slots in declaration order, supports the two-phase placeholder
// protocol for recursive declarations, and rejects references created by
// another store.
package rules

import (
	"github.com/ava12/earley"
	"github.com/ava12/earley/grammar"
)

type slot struct {
	body   grammar.Prod
	filled bool
}

// Store implements grammar.Resolver. Installed rule bodies are lowered so
// that engines never see repetition nodes: every Many becomes its own rule
// rep = [] | item rep, with the empty branch listed first.
type Store struct {
	slots []slot
	many  map[grammar.Prod]*ruleRef
}

// ruleRef identifies one slot of one store. The store pointer doubles as the
// session identifier checked on every dereference.
type ruleRef struct {
	store *Store
	index int
}

func New() *Store {
	return &Store{many: map[grammar.Prod]*ruleRef{}}
}

// Build resolves g against a fresh store. The grammar's final value must be
// the entry-point production, which is returned lowered, ready for
// interpretation.
func Build(g grammar.Grammar) (*Store, grammar.Prod, error) {
	st := New()
	v, err := grammar.Resolve(st, g)
	if err != nil {
		return nil, nil, err
	}
	start, ok := v.(grammar.Prod)
	if !ok {
		return nil, nil, startValueError(v)
	}
	if err = st.CheckResolved(); err != nil {
		return nil, nil, err
	}
	return st, st.lower(start), nil
}

// Rule implements grammar.Resolver.
func (st *Store) Rule(body grammar.Prod) (grammar.Prod, error) {
	i := st.alloc()
	body = st.lower(body)
	st.slots[i] = slot{body: body, filled: true}
	return st.refProd(i), nil
}

// Placeholder implements grammar.Resolver.
func (st *Store) Placeholder() (grammar.Prod, func(body grammar.Prod) error) {
	i := st.alloc()
	install := func(body grammar.Prod) error {
		if st.slots[i].filled {
			return doubleInstallError(i)
		}
		body = st.lower(body)
		st.slots[i] = slot{body: body, filled: true}
		return nil
	}
	return st.refProd(i), install
}

// Deref returns the slot index and installed body for ref, failing fast when
// ref was created by another store or its body was never installed.
func (st *Store) Deref(ref grammar.Ref) (int, grammar.Prod, error) {
	rr, ok := ref.(*ruleRef)
	if !ok || rr.store != st {
		return 0, nil, foreignRuleError()
	}
	s := st.slots[rr.index]
	if !s.filled {
		return 0, nil, unresolvedRuleError(rr.index)
	}
	return rr.index, s.body, nil
}

// CheckResolved reports a defect if any placeholder slot was left without a
// body.
func (st *Store) CheckResolved() error {
	for i, s := range st.slots {
		if !s.filled {
			return unresolvedRuleError(i)
		}
	}
	return nil
}

// Len returns the number of allocated rule slots.
func (st *Store) Len() int {
	return len(st.slots)
}

func (st *Store) alloc() int {
	st.slots = append(st.slots, slot{})
	return len(st.slots) - 1
}

func (st *Store) refProd(index int) grammar.Prod {
	return grammar.NonTerm(&ruleRef{st, index})
}

// lower rewrites p so that it contains no Many nodes. Lowering stops at rule
// references; installed bodies are lowered separately.
func (st *Store) lower(p grammar.Prod) grammar.Prod {
	switch q := p.(type) {
	case *grammar.Terminal:
		return &grammar.Terminal{Match: q.Match, Cont: st.lower(q.Cont)}
	case *grammar.NonTerminal:
		return &grammar.NonTerminal{Ref: q.Ref, Cont: st.lower(q.Cont)}
	case *grammar.Pure:
		return q
	case *grammar.Alts:
		prods := make([]grammar.Prod, len(q.Prods))
		for i, a := range q.Prods {
			prods[i] = st.lower(a)
		}
		return &grammar.Alts{Prods: prods, Cont: st.lower(q.Cont)}
	case *grammar.Many:
		return &grammar.NonTerminal{Ref: st.manyRule(q), Cont: st.lower(q.Cont)}
	case *grammar.Named:
		return &grammar.Named{Prod: st.lower(q.Prod), Label: q.Label}
	case *grammar.Guard:
		return &grammar.Guard{Prod: st.lower(q.Prod), Pred: q.Pred}
	}
	return p
}

// manyRule allocates the rule rep = [] | item rep. The synthesized rule
// depends only on the repeated item, so it is shared between every
// repetition of the same item production, however each repetition node was
// continued.
func (st *Store) manyRule(m *grammar.Many) grammar.Ref {
	if ref, ok := st.many[m.Prod]; ok {
		return ref
	}
	i := st.alloc()
	ref := &ruleRef{st, i}
	st.many[m.Prod] = ref
	item := st.lower(m.Prod)
	body := grammar.Alt(
		grammar.Value([]any{}),
		grammar.Apply(grammar.Map(consItem, item), grammar.NonTerm(ref)),
	)
	st.slots[i] = slot{body: body, filled: true}
	return ref
}

// consItem prepends a repetition item to the accumulated tail.
func consItem(v any) any {
	return func(vs any) any {
		tail := vs.([]any)
		out := make([]any, len(tail)+1)
		out[0] = v
		copy(out[1:], tail)
		return out
	}
}

func foreignRuleError() *earley.Error {
	return earley.FormatError(grammar.ForeignRuleError,
		"rule reference used outside the grammar that declared it")
}

func unresolvedRuleError(index int) *earley.Error {
	return earley.FormatError(grammar.UnresolvedRuleError,
		"rule slot %d was never given a body", index)
}

func doubleInstallError(index int) *earley.Error {
	return earley.FormatError(grammar.DoubleInstallError,
		"rule slot %d installed twice", index)
}

func startValueError(v any) *earley.Error {
	return earley.FormatError(grammar.StartValueError,
		"grammar resolved to %T, expecting a production", v)
}
