package grammar

// A Grammar describes a sequence of rule declarations producing a final
// value, usually a production. Like productions, Grammar values are
// immutable, side-effect-free descriptions: rules acquire identity only when
// a Resolver walks the grammar through Resolve.
type Grammar interface {
	isGrammar()
}

// Bind declares one rule from a production and continues with a reference
// production denoting it.
type Bind struct {
	Prod Prod
	Cont func(ref Prod) Grammar
}

// FixBind declares a value that may refer to itself through the very
// reference being produced, and continues with the fully resolved value.
type FixBind struct {
	Make func(knot *Knot) Grammar
	Cont func(value any) Grammar
}

// Done yields the final value; no more declarations follow.
type Done struct {
	Value any
}

func (*Bind) isGrammar()    {}
func (*FixBind) isGrammar() {}
func (*Done) isGrammar()    {}

// Rule declares p as a grammar rule and yields the reference production
// unchanged. Every use of the reference denotes the same rule, so the
// recognition work for p is shared between use sites instead of duplicated.
func Rule(p Prod) Grammar {
	return &Bind{Prod: p, Cont: func(ref Prod) Grammar { return &Done{Value: ref} }}
}

// Fix declares a possibly self-referential value: f may hand out references
// to its eventual result through the knot before that result is known.
// Yields the resolved value.
func Fix(f func(knot *Knot) Grammar) Grammar {
	return &FixBind{Make: f, Cont: func(v any) Grammar { return &Done{Value: v} }}
}

// Yield finishes a declaration sequence with the final value v.
func Yield(v any) Grammar {
	return &Done{Value: v}
}

// Then continues g with k, which receives g's final value. Declarations made
// by g keep their order and precede those made by k, so rule identities are
// allocated reproducibly for identical grammars.
func Then(g Grammar, k func(value any) Grammar) Grammar {
	switch g := g.(type) {
	case *Done:
		return k(g.Value)
	case *Bind:
		cont := g.Cont
		return &Bind{Prod: g.Prod, Cont: func(ref Prod) Grammar { return Then(cont(ref), k) }}
	case *FixBind:
		cont := g.Cont
		return &FixBind{Make: g.Make, Cont: func(v any) Grammar { return Then(cont(v), k) }}
	}
	return g
}

// A Resolver materializes rule storage for one resolution pass. Engines
// implement it; rule references it creates are valid only for interpretation
// by the engine that produced them.
//
// Placeholder is the recursive-knot capability: it allocates an empty rule
// slot whose body arrives later. The install function must be called exactly
// once, and every placeholder must be installed before the resolver treats
// resolution as finished; a slot left empty is a construction-time defect,
// not a parsing failure.
type Resolver interface {
	// Rule stores body as a new rule and returns a production referring to it.
	Rule(body Prod) (Prod, error)

	// Placeholder allocates an empty rule slot, returning a production
	// referring to it and the function installing the slot's body.
	Placeholder() (ref Prod, install func(body Prod) error)
}

// Knot is the placeholder for the eventual value of a Fix declaration. It is
// usable only during the resolution pass that created it.
type Knot struct {
	resolver Resolver
	ref      Prod
	install  func(body Prod) error
	value    any
	tied     bool
}

// Prod returns a production standing for the knot's eventual value, which
// must then resolve to a production. The underlying rule slot is allocated
// through the resolver on first use and its body installed once the knot is
// tied.
func (k *Knot) Prod() Prod {
	if k.ref == nil {
		k.ref, k.install = k.resolver.Placeholder()
	}
	return k.ref
}

// Value returns the resolved value. Calling it before the declaring function
// has finished is the unresolvable-grammar defect: the declaration demands
// its own result in order to produce it.
func (k *Knot) Value() (any, error) {
	if !k.tied {
		return nil, knotUnresolvedError()
	}
	return k.value, nil
}

func (k *Knot) tie(v any) error {
	k.value = v
	k.tied = true
	if k.install == nil {
		return nil
	}
	body, ok := v.(Prod)
	if !ok {
		return knotValueError(v)
	}
	return k.install(body)
}

// Resolve walks g in declaration order, materializing every declared rule
// through r, and returns the final value. The driver performs no parsing;
// after it returns, r owns the resolved rule storage.
func Resolve(r Resolver, g Grammar) (any, error) {
	for {
		switch gr := g.(type) {
		case *Done:
			return gr.Value, nil
		case *Bind:
			ref, err := r.Rule(gr.Prod)
			if err != nil {
				return nil, err
			}
			g = gr.Cont(ref)
		case *FixBind:
			knot := &Knot{resolver: r}
			v, err := Resolve(r, gr.Make(knot))
			if err != nil {
				return nil, err
			}
			if err = knot.tie(v); err != nil {
				return nil, err
			}
			g = gr.Cont(v)
		default:
			return nil, unknownGrammarError(g)
		}
	}
}
