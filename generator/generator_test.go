package generator

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ava12/earley"
	"github.com/ava12/earley/grammar"
)

func render(ss []Sentence) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		text := ""
		for _, tok := range s.Tokens {
			text += string(tok.(rune))
		}
		out[i] = text
	}
	return out
}

func TestEnumerationFollowsDeclaredOrder(t *testing.T) {
	prod := grammar.Seq(
		grammar.Optional(grammar.Label(grammar.Token('a'), "a")),
		grammar.Label(grammar.Token('b'), "b"),
	)
	g, e := New(grammar.Yield(prod))
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	sentences, e := g.GenerateString(context.Background(), "ab", 2)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}

	want := []Sentence{
		{Value: []any{grammar.Option{}, 'b'}, Tokens: []any{'b'}},
		{Value: []any{grammar.Option{Present: true, Value: 'a'}, 'b'}, Tokens: []any{'a', 'b'}},
	}
	if d := cmp.Diff(want, sentences, cmpopts.EquateEmpty()); d != "" {
		t.Errorf("wrong sentences (-want +got):\n%s", d)
	}
}

func TestRepetitionListsZeroFirst(t *testing.T) {
	g, e := New(grammar.Yield(grammar.ZeroOrMore(grammar.Token('a'))))
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	sentences, e := g.GenerateString(context.Background(), "a", 2)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	want := []string{"", "a", "aa"}
	if d := cmp.Diff(want, render(sentences)); d != "" {
		t.Errorf("wrong sentences (-want +got):\n%s", d)
	}
}

func TestLeftRecursiveRule(t *testing.T) {
	g := grammar.Fix(func(s *grammar.Knot) grammar.Grammar {
		grow := grammar.Map(func(v any) any {
			vs := v.([]any)
			return vs[0].(string) + "a"
		}, grammar.Seq(s.Prod(), grammar.Token('a')))
		return grammar.Rule(grammar.Alt(grow, grammar.Value("")))
	})
	gen, e := New(g)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	sentences, e := gen.GenerateString(context.Background(), "a", 2)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	got := render(sentences)
	sort.Strings(got)
	want := []string{"", "a", "aa"}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("wrong sentences (-want +got):\n%s", d)
	}
}

func TestNestedRecursion(t *testing.T) {
	g := grammar.Fix(func(s *grammar.Knot) grammar.Grammar {
		self := s.Prod()
		nest := grammar.Map(func(v any) any {
			vs := v.([]any)
			return "(" + vs[1].(string) + ")" + vs[3].(string)
		}, grammar.Seq(grammar.Token('('), self, grammar.Token(')'), self))
		return grammar.Rule(grammar.Alt(nest, grammar.Value("")))
	})
	gen, e := New(g)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	sentences, e := gen.GenerateString(context.Background(), "()", 4)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	got := render(sentences)
	sort.Strings(got)
	want := []string{"", "(())", "()", "()()"}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("wrong sentences (-want +got):\n%s", d)
	}
}

func TestMutuallyRecursiveRules(t *testing.T) {
	// a = b, b = a 'x' | "" describes the language x*; the two rules
	// reference each other without consuming input in between.
	g := grammar.Fix(func(a *grammar.Knot) grammar.Grammar {
		grow := grammar.Map(func(v any) any {
			return v.([]any)[0].(string) + "x"
		}, grammar.Seq(a.Prod(), grammar.Token('x')))
		b := grammar.Rule(grammar.Alt(grow, grammar.Value("")))
		return grammar.Then(b, func(ref any) grammar.Grammar {
			return grammar.Rule(ref.(grammar.Prod))
		})
	})
	gen, e := New(g)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	sentences, e := gen.GenerateString(context.Background(), "x", 2)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	got := render(sentences)
	sort.Strings(got)
	want := []string{"", "x", "xx"}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("wrong sentences (-want +got):\n%s", d)
	}
}

func TestGuardBoundedValueRecursion(t *testing.T) {
	// n = (n+1 when n+1 < 5) | 0: five values, all on the empty prefix.
	// Converging takes more fixpoint rounds than the token limit would
	// suggest, so the unbounded-rule check must not trip.
	g := grammar.Fix(func(n *grammar.Knot) grammar.Grammar {
		grow := grammar.Filter(
			grammar.Map(func(v any) any { return v.(int) + 1 }, n.Prod()),
			func(v any) bool { return v.(int) < 5 },
		)
		return grammar.Rule(grammar.Alt(grow, grammar.Value(0)))
	})
	gen, e := New(g)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	sentences, e := gen.GenerateString(context.Background(), "", 0)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	got := make([]int, 0, len(sentences))
	for _, s := range sentences {
		if len(s.Tokens) != 0 {
			t.Errorf("expecting no consumed tokens, got %v", s.Tokens)
		}
		got = append(got, s.Value.(int))
	}
	sort.Ints(got)
	want := []int{0, 1, 2, 3, 4}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("wrong values (-want +got):\n%s", d)
	}
}

func TestGuardFiltersSentences(t *testing.T) {
	prod := grammar.Filter(grammar.Satisfy(func(any) bool { return true }), func(v any) bool {
		return v == 'a'
	})
	g, e := New(grammar.Yield(prod))
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	sentences, e := g.GenerateString(context.Background(), "ab", 1)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	want := []string{"a"}
	if d := cmp.Diff(want, render(sentences)); d != "" {
		t.Errorf("wrong sentences (-want +got):\n%s", d)
	}
}

func TestTokenAlphabets(t *testing.T) {
	prod := grammar.Term(func(tok any) (any, bool) {
		n, ok := tok.(int)
		if !ok || n%2 != 0 {
			return nil, false
		}
		return n * 10, true
	})
	g, e := New(grammar.Yield(prod))
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	sentences, e := g.Generate(context.Background(), []any{1, 2, 3, 4}, 1)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	want := []Sentence{
		{Value: 20, Tokens: []any{2}},
		{Value: 40, Tokens: []any{4}},
	}
	if d := cmp.Diff(want, sentences); d != "" {
		t.Errorf("wrong sentences (-want +got):\n%s", d)
	}
}

func TestUnboundedRuleIsADefect(t *testing.T) {
	g := grammar.Fix(func(s *grammar.Knot) grammar.Grammar {
		grow := grammar.Map(func(v any) any {
			return v.(int) + 1
		}, s.Prod())
		return grammar.Rule(grammar.Alt(grow, grammar.Value(0)))
	})
	gen, e := New(g)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	gen.MaxRounds = 8
	_, e = gen.GenerateString(context.Background(), "", 0)
	if e == nil {
		t.Fatalf("expecting an error, got none")
	}
	ee, ok := e.(*earley.Error)
	if !ok {
		t.Fatalf("expecting *earley.Error, got %T: %s", e, e.Error())
	}
	if ee.Code != UnboundedRuleError {
		t.Errorf("expecting error code %d, got %d (%s)", UnboundedRuleError, ee.Code, ee.Message)
	}
}
