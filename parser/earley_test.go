package parser

import (
	"testing"
)

func ident(text string) Token {
	return Token{Kind: TokenIdentifier, Text: text, Value: text}
}

func minus() Token {
	return Token{Kind: TokenOperator2, Text: "-", Value: "-"}
}

func feedAll(t *testing.T, r *Recognizer, tokens ...Token) {
	t.Helper()
	for i, tok := range tokens {
		if err := r.Feed(tok); err != nil {
			t.Fatalf("token %d (%q): %v", i, tok.Text, err)
		}
	}
}

func ambiguousGrammar(t *testing.T) *Grammar {
	t.Helper()
	g := NewGrammar("e", nil)
	g.Rule("e", "e operator2:- e", func(a []interface{}) interface{} {
		return "(" + a[0].(string) + "-" + a[2].(string) + ")"
	})
	g.Rule("e", "identifier", func(a []interface{}) interface{} {
		return a[0].(Token).Text
	})
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return g
}

func TestRecognizerPrefersLongestLeftSpan(t *testing.T) {
	r, err := NewRecognizer(ambiguousGrammar(t))
	if err != nil {
		t.Fatalf("NewRecognizer: %v", err)
	}
	feedAll(t, r, ident("a"), minus(), ident("b"), minus(), ident("c"))
	if !r.Complete() {
		t.Fatalf("expected complete sentence")
	}
	results := r.Results()
	if len(results) != 1 {
		t.Fatalf("expected one derivation per start rule, got %d", len(results))
	}
	if got := results[0].(string); got != "((a-b)-c)" {
		t.Fatalf("expected left-nested derivation, got %s", got)
	}
}

func TestRecognizerPrefersEarlierRule(t *testing.T) {
	g := NewGrammar("s", nil)
	g.Rule("s", "x", nil)
	g.Rule("x", "first", nil)
	g.Rule("x", "second", nil)
	g.Rule("first", "identifier", func(a []interface{}) interface{} { return "first" })
	g.Rule("second", "identifier", func(a []interface{}) interface{} { return "second" })

	r, err := NewRecognizer(g)
	if err != nil {
		t.Fatalf("NewRecognizer: %v", err)
	}
	feedAll(t, r, ident("a"))
	results := r.Results()
	if len(results) != 1 || results[0] != "first" {
		t.Fatalf("expected the first registered rule to win, got %v", results)
	}
}

func TestRecognizerRejectsAndReportsExpected(t *testing.T) {
	r, err := NewRecognizer(ambiguousGrammar(t))
	if err != nil {
		t.Fatalf("NewRecognizer: %v", err)
	}
	feedAll(t, r, ident("a"))
	err = r.Feed(ident("b"))
	if err == nil {
		t.Fatalf("expected two identifiers in a row to be rejected")
	}
	nc, ok := err.(*noContinuation)
	if !ok {
		t.Fatalf("expected *noContinuation, got %T", err)
	}
	if len(nc.expected) != 1 || nc.expected[0] != "operator2:-" {
		t.Fatalf("unexpected expected terminals %v", nc.expected)
	}
	if r.Fed() != 1 || !r.Complete() {
		t.Fatalf("rejected token must leave the chart unchanged")
	}

	feedAll(t, r, minus())
	if r.Complete() {
		t.Fatalf("dangling operator must not complete")
	}
	if got := r.Expected(); len(got) != 1 || got[0] != "identifier" {
		t.Fatalf("expected identifier next, got %v", got)
	}
}

func TestRecognizerWithoutTokens(t *testing.T) {
	r, err := NewRecognizer(ambiguousGrammar(t))
	if err != nil {
		t.Fatalf("NewRecognizer: %v", err)
	}
	if r.Complete() || r.Results() != nil {
		t.Fatalf("nothing fed, nothing derived")
	}
}

func TestGrammarCompileErrors(t *testing.T) {
	g := NewGrammar("s", nil)
	g.Rule("s", "nosuch", nil)
	if err := g.Compile(); err == nil {
		t.Fatalf("expected unknown symbol error")
	}

	g = NewGrammar("s", nil)
	g.Rule("s", "  ", nil)
	if err := g.Compile(); err == nil {
		t.Fatalf("expected empty right-hand side error")
	}

	g = NewGrammar("s", nil)
	g.Rule("t", "identifier", nil)
	if err := g.Compile(); err == nil {
		t.Fatalf("expected missing start symbol error")
	}
	if _, err := NewRecognizer(g); err == nil {
		t.Fatalf("expected recognizer to refuse a broken grammar")
	}
}

func TestGrammarCustomTerminal(t *testing.T) {
	g := NewGrammar("s", nil)
	g.Terminal("upper", func(tok Token) bool {
		return tok.Text != "" && tok.Text[0] >= 'A' && tok.Text[0] <= 'Z'
	})
	g.Rule("s", "upper", func(a []interface{}) interface{} { return a[0].(Token).Text })
	r, err := NewRecognizer(g)
	if err != nil {
		t.Fatalf("NewRecognizer: %v", err)
	}
	if err := r.Feed(ident("lower")); err == nil {
		t.Fatalf("expected custom terminal to reject lower case")
	}
	feedAll(t, r, ident("Upper"))
	if res := r.Results(); len(res) != 1 || res[0] != "Upper" {
		t.Fatalf("unexpected results %v", res)
	}
	if got := len(g.Rules("s")); got != 1 {
		t.Fatalf("expected one rule for s, got %d", got)
	}
}

func TestItemSetIndexesWaitingItems(t *testing.T) {
	g := ambiguousGrammar(t)
	rules := g.Rules("e")
	s := newItemSet()
	s.add(item{rule: rules[0]})
	s.add(item{rule: rules[0], dot: 1})
	s.add(item{rule: rules[0], dot: 2})
	s.add(item{rule: rules[1]})
	s.add(item{rule: rules[1], dot: 1})
	s.add(item{rule: rules[0]})

	waiting := s.waiting["e"]
	if len(waiting) != 2 || waiting[0].dot != 0 || waiting[1].dot != 2 {
		t.Fatalf("expected items before each e, got %+v", waiting)
	}
	if !s.done[doneKey{"e", 0}] || len(s.items) != 5 {
		t.Fatalf("unexpected set state: %d items, done %v", len(s.items), s.done)
	}
}

func TestRecognizerLongLeftRecursiveInput(t *testing.T) {
	r, err := NewRecognizer(ambiguousGrammar(t))
	if err != nil {
		t.Fatalf("NewRecognizer: %v", err)
	}
	const n = 100
	feedAll(t, r, ident("a"))
	for i := 0; i < n; i++ {
		feedAll(t, r, minus(), ident("a"))
	}
	if !r.Complete() {
		t.Fatalf("expected complete sentence")
	}
	if r.Fed() != 2*n+1 {
		t.Fatalf("expected %d tokens fed, got %d", 2*n+1, r.Fed())
	}
}
