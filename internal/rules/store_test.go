package rules

import (
	"testing"

	"github.com/ava12/earley"
	"github.com/ava12/earley/grammar"
)

func checkErrorCode(t *testing.T, e error, code int) {
	t.Helper()
	if e == nil {
		t.Errorf("expecting error code %d, got no error", code)
		return
	}
	ee, ok := e.(*earley.Error)
	if !ok {
		t.Errorf("expecting *earley.Error, got %T: %s", e, e.Error())
		return
	}
	if ee.Code != code {
		t.Errorf("expecting error code %d, got %d (%s)", code, ee.Code, ee.Message)
	}
}

func TestRuleRoundTrip(t *testing.T) {
	st := New()
	a, b := grammar.Token('a'), grammar.Token('b')
	ra, e := st.Rule(a)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	rb, e := st.Rule(b)
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	if st.Len() != 2 {
		t.Fatalf("expecting 2 rule slots, got %d", st.Len())
	}

	for i, ref := range []grammar.Prod{ra, rb} {
		index, body, e := st.Deref(ref.(*grammar.NonTerminal).Ref)
		if e != nil {
			t.Errorf("rule #%d: got error: %s", i, e.Error())
			continue
		}
		if index != i {
			t.Errorf("rule #%d: wrong index %d", i, index)
		}
		if _, ok := body.(*grammar.Terminal); !ok {
			t.Errorf("rule #%d: wrong body type %T", i, body)
		}
	}
}

func TestPlaceholderProtocol(t *testing.T) {
	st := New()
	ref, install := st.Placeholder()

	if e := st.CheckResolved(); e == nil {
		t.Errorf("expecting an error for an empty slot, got none")
	} else {
		checkErrorCode(t, e, grammar.UnresolvedRuleError)
	}
	_, _, e := st.Deref(ref.(*grammar.NonTerminal).Ref)
	checkErrorCode(t, e, grammar.UnresolvedRuleError)

	if e = install(grammar.Token('a')); e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	if e = st.CheckResolved(); e != nil {
		t.Errorf("got error: %s", e.Error())
	}
	checkErrorCode(t, install(grammar.Token('b')), grammar.DoubleInstallError)
}

func TestForeignReference(t *testing.T) {
	st1, st2 := New(), New()
	ref, e := st1.Rule(grammar.Token('a'))
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	st2.Rule(grammar.Token('a'))
	_, _, e = st2.Deref(ref.(*grammar.NonTerminal).Ref)
	checkErrorCode(t, e, grammar.ForeignRuleError)
	_, _, e = st2.Deref("bogus")
	checkErrorCode(t, e, grammar.ForeignRuleError)
}

func TestBuildRejectsNonProductionValue(t *testing.T) {
	_, _, e := Build(grammar.Yield(42))
	checkErrorCode(t, e, grammar.StartValueError)
}

func hasMany(p grammar.Prod) bool {
	switch q := p.(type) {
	case *grammar.Terminal:
		return hasMany(q.Cont)
	case *grammar.NonTerminal:
		return hasMany(q.Cont)
	case *grammar.Alts:
		for _, a := range q.Prods {
			if hasMany(a) {
				return true
			}
		}
		return hasMany(q.Cont)
	case *grammar.Many:
		return true
	case *grammar.Named:
		return hasMany(q.Prod)
	case *grammar.Guard:
		return hasMany(q.Prod)
	}
	return false
}

func TestLoweringRemovesRepetitions(t *testing.T) {
	st, start, e := Build(grammar.Rule(grammar.Seq(
		grammar.ZeroOrMore(grammar.Token('a')),
		grammar.Token('b'),
	)))
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}

	// One declared rule plus one synthesized repetition rule.
	if st.Len() != 2 {
		t.Errorf("expecting 2 rule slots, got %d", st.Len())
	}
	if hasMany(start) {
		t.Errorf("repetition node in the start production")
	}
	for i := 0; i < st.Len(); i++ {
		_, body, e := st.Deref(&ruleRef{st, i})
		if e != nil {
			t.Fatalf("rule #%d: got error: %s", i, e.Error())
		}
		if hasMany(body) {
			t.Errorf("repetition node in the body of rule %d", i)
		}
	}
}

func TestSharedRepetitionIsLoweredOnce(t *testing.T) {
	rep := grammar.ZeroOrMore(grammar.Token('a'))
	st, _, e := Build(grammar.Rule(grammar.Seq(rep, grammar.Token('b'), rep)))
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	if st.Len() != 2 {
		t.Errorf("expecting 2 rule slots, got %d", st.Len())
	}
}
