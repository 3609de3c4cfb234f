// Package parser implements an Earley-style recognition engine interpreting
// resolved grammars over token slices. It explores every alternative, so
// ambiguous grammars yield every distinct parse, and it handles left
// recursion, right recursion, and nullable rules without special casing by
// the grammar author.
package parser

import (
	"context"
	"reflect"

	"github.com/ava12/earley/grammar"
	"github.com/ava12/earley/internal/queue"
	"github.com/ava12/earley/internal/rules"
)

// Parser owns the resolved rule storage for one grammar. It is immutable
// after New and may be reused for any number of Parse calls.
type Parser struct {
	store *rules.Store
	start grammar.Prod
}

// Report describes how far recognition got, no matter whether it succeeded.
type Report struct {
	// Position is the furthest input position the parser reached.
	Position int

	// Expected lists the labels attempted at Position, in first-attempt
	// order, without duplicates. Labels of branches that were tried at the
	// furthest position are included even when the parse as a whole
	// succeeded.
	Expected []string

	// Unconsumed is the input remainder past Position.
	Unconsumed []any
}

// New resolves g into rule storage. The grammar's final value must be the
// entry-point production.
func New(g grammar.Grammar) (*Parser, error) {
	store, start, err := rules.Build(g)
	if err != nil {
		return nil, err
	}
	return &Parser{store: store, start: start}, nil
}

// Parse interprets the grammar over tokens and returns every full parse
// value together with a report. A non-nil error reports a grammar defect, a
// failed guard predicate, or context cancellation, never a plain mismatch:
// input that does not match yields no values and a report describing where
// progress stalled.
func (p *Parser) Parse(ctx context.Context, tokens []any) ([]any, *Report, error) {
	pc := &parseCtx{
		ctx:     ctx,
		parser:  p,
		tokens:  tokens,
		work:    queue.New[state](),
		entries: map[entryKey]*ruleEntry{},
	}
	return pc.run()
}

// ParseString parses the runes of text.
func (p *Parser) ParseString(ctx context.Context, text string) ([]any, *Report, error) {
	return p.Parse(ctx, Runes(text))
}

// Runes converts text to the token slice shape Parse expects for
// character-level grammars.
func Runes(text string) []any {
	out := make([]any, 0, len(text))
	for _, r := range text {
		out = append(out, r)
	}
	return out
}

// cont receives a value produced by a sub-parse ending at position pos.
// Continuations are always invoked while the parser is processing pos.
type cont func(value any, pos int)

// state is one unit of work: interpret prod starting at the current position
// and hand every value it produces to k. mute suppresses label recording
// inside labeled subtrees, so an outer label shadows inner ones.
type state struct {
	prod grammar.Prod
	k    cont
	mute bool
}

type entryKey struct {
	rule   int
	origin int
}

// ruleEntry merges every use of one rule starting at one position: the body
// runs once, completions fan out to all registered continuations. Pairing
// each continuation with each completion exactly once is what makes
// left-recursive and cyclic rules terminate.
type ruleEntry struct {
	conts   []cont
	results []completion
}

type completion struct {
	pos   int
	value any
}

type parseCtx struct {
	ctx     context.Context
	parser  *Parser
	tokens  []any
	pos     int
	work    *queue.Queue[state]
	next    []state
	entries map[entryKey]*ruleEntry
	names   []string
	results []any
	err     error
}

func (pc *parseCtx) run() ([]any, *Report, error) {
	total := len(pc.tokens)
	pc.work.Append(state{pc.parser.start, func(v any, pos int) {
		if pos == total {
			pc.results = append(pc.results, v)
		}
	}, false})

	for {
		if err := pc.ctx.Err(); err != nil {
			return nil, nil, err
		}
		pc.names = pc.names[:0]
		for {
			st, ok := pc.work.First()
			if !ok {
				break
			}
			pc.step(st)
			if pc.err != nil {
				return nil, nil, pc.err
			}
		}
		if len(pc.next) == 0 {
			break
		}
		pc.pos++
		for _, st := range pc.next {
			pc.work.Append(st)
		}
		pc.next = pc.next[:0]
	}

	report := &Report{
		Position:   pc.pos,
		Expected:   dedup(pc.names),
		Unconsumed: pc.tokens[pc.pos:],
	}
	return pc.results, report, nil
}

func (pc *parseCtx) step(st state) {
	switch q := st.prod.(type) {
	case *grammar.Pure:
		st.k(q.Value, pc.pos)

	case *grammar.Terminal:
		if pc.pos >= len(pc.tokens) {
			return
		}
		v, ok := q.Match(pc.tokens[pc.pos])
		if !ok {
			return
		}
		k := st.k
		mute := st.mute
		pc.next = append(pc.next, state{q.Cont, func(g any, pos int) {
			k(g.(func(any) any)(v), pos)
		}, mute})

	case *grammar.NonTerminal:
		pc.enter(q, st.k, st.mute)

	case *grammar.Alts:
		k := st.k
		after := q.Cont
		mute := st.mute
		for _, a := range q.Prods {
			pc.work.Append(state{a, func(v any, pos int) {
				pc.schedule(pos, state{after, func(g any, pos2 int) {
					k(g.(func(any) any)(v), pos2)
				}, mute})
			}, mute})
		}

	case *grammar.Named:
		if !st.mute {
			pc.names = append(pc.names, q.Label)
		}
		pc.work.Append(state{q.Prod, st.k, true})

	case *grammar.Guard:
		k := st.k
		pred := q.Pred
		pc.work.Append(state{q.Prod, func(v any, pos int) {
			ok, err := pred(pc.ctx, v)
			if err != nil {
				pc.fail(guardError(err))
				return
			}
			if ok {
				k(v, pos)
			}
		}, st.mute})

	default:
		pc.fail(repetitionError())
	}
}

// enter looks up the rule entry for the current position, starting the
// rule's body if this is its first use here, and registers the caller's
// continuation. Completions already recorded (same-position completions of
// nullable or cyclic rules) are replayed to the new continuation.
//
// The shared body runs with the first caller's mute flag: when a rule is
// invoked from both labeled and unlabeled sites at one position, the call
// site processed first decides whether the body's inner labels are
// reported. Parse results are unaffected.
func (pc *parseCtx) enter(nt *grammar.NonTerminal, k cont, mute bool) {
	index, body, err := pc.parser.store.Deref(nt.Ref)
	if err != nil {
		pc.fail(err)
		return
	}
	key := entryKey{index, pc.pos}
	e := pc.entries[key]
	if e == nil {
		e = &ruleEntry{}
		pc.entries[key] = e
		pc.work.Append(state{body, func(v any, pos int) {
			pc.complete(e, v, pos)
		}, mute})
	}
	after := nt.Cont
	kc := func(v any, pos int) {
		pc.schedule(pos, state{after, func(g any, pos2 int) {
			k(g.(func(any) any)(v), pos2)
		}, mute})
	}
	e.conts = append(e.conts, kc)
	for _, c := range e.results {
		kc(c.value, c.pos)
	}
}

// complete records one rule completion and fans it out to every registered
// continuation. A completion identical to one already recorded for the same
// span is dropped; without that, cyclic rules would propagate the same
// result forever.
func (pc *parseCtx) complete(e *ruleEntry, v any, pos int) {
	for _, c := range e.results {
		if c.pos == pos && reflect.DeepEqual(c.value, v) {
			return
		}
	}
	e.results = append(e.results, completion{pos, v})
	for _, kc := range e.conts {
		kc(v, pos)
	}
}

// schedule queues st at pos. Continuations only ever fire at the position
// being processed, so pos is the current position; anything else is kept for
// the next one.
func (pc *parseCtx) schedule(pos int, st state) {
	if pos == pc.pos {
		pc.work.Append(st)
	} else {
		pc.next = append(pc.next, st)
	}
}

func (pc *parseCtx) fail(err error) {
	if pc.err == nil {
		pc.err = err
	}
}

func dedup(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		seen := false
		for _, m := range out {
			if m == n {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, n)
		}
	}
	return out
}
