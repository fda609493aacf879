package parser

import (
	"fmt"
	"strings"
)

// Action builds the value of a rule from the values of its right-hand
// side: a Token for each terminal and the action result for each
// nonterminal.
type Action func(args []interface{}) interface{}

// Rule is a production lhs := rhs with its reduction action.
type Rule struct {
	id     int
	lhs    string
	words  []string
	rhs    []symbol
	action Action
}

func (r *Rule) String() string {
	return r.lhs + " := " + strings.Join(r.words, " ")
}

type symbol struct {
	name     string
	terminal bool
	match    func(Token) bool
}

// Grammar is a context-free grammar over tokens. Right-hand sides are
// written as space separated words:
//
//	name          nonterminal when some rule defines it
//	kind          terminal matching a token kind, e.g. "identifier"
//	kind:text     terminal matching kind and exact text, e.g. "operator2:-"
//	@word         keyword spelled as a bare identifier
//	@word(        keyword spelled as a call head, e.g. "for("
//
// Terminals registered with Terminal are referenced by name.
// Rules are tried in the order they were added when a span can be
// derived in more than one way.
type Grammar struct {
	start  string
	spec   *TokenSpec
	rules  []*Rule
	byLHS  map[string][]*Rule
	terms  map[string]func(Token) bool
	frozen bool
}

// NewGrammar creates an empty grammar with the given start symbol.
// Keyword terminals are resolved through the TokenSpec.
func NewGrammar(start string, spec *TokenSpec) *Grammar {
	if spec == nil {
		spec = DefaultTokenSpec()
	}
	return &Grammar{
		start: start,
		spec:  spec,
		byLHS: make(map[string][]*Rule),
		terms: make(map[string]func(Token) bool),
	}
}

// Terminal registers a named terminal with a custom predicate.
func (g *Grammar) Terminal(name string, match func(Token) bool) {
	g.terms[name] = match
	g.frozen = false
}

// Rule adds the production lhs := rhs.
func (g *Grammar) Rule(lhs, rhs string, action Action) {
	words := strings.Fields(rhs)
	r := &Rule{
		id:     len(g.rules),
		lhs:    lhs,
		words:  words,
		action: action,
	}
	g.rules = append(g.rules, r)
	g.byLHS[lhs] = append(g.byLHS[lhs], r)
	g.frozen = false
}

// Compile resolves the words of every rule into symbols.
func (g *Grammar) Compile() error {
	if _, ok := g.byLHS[g.start]; !ok {
		return fmt.Errorf("grammar: no rules for start symbol %q", g.start)
	}
	for _, r := range g.rules {
		if len(r.words) == 0 {
			return fmt.Errorf("grammar: rule %q has an empty right-hand side", r.lhs)
		}
		r.rhs = make([]symbol, len(r.words))
		for i, w := range r.words {
			sym, err := g.resolve(w)
			if err != nil {
				return fmt.Errorf("grammar: rule %s: %w", r, err)
			}
			r.rhs[i] = sym
		}
	}
	g.frozen = true
	return nil
}

// Rules returns the productions for lhs in the order they were added.
func (g *Grammar) Rules(lhs string) []*Rule {
	return g.byLHS[lhs]
}

func (g *Grammar) resolve(word string) (symbol, error) {
	if _, ok := g.byLHS[word]; ok {
		return symbol{name: word}, nil
	}
	if match, ok := g.terms[word]; ok {
		return symbol{name: word, terminal: true, match: match}, nil
	}
	spec := g.spec
	if strings.HasPrefix(word, "@") {
		kw := strings.TrimPrefix(word, "@")
		if strings.HasSuffix(kw, "(") {
			kw = strings.TrimSuffix(kw, "(")
			return symbol{name: word, terminal: true, match: func(tok Token) bool {
				return tok.Kind == TokenActionCall && spec.IsKeyword(tok, kw)
			}}, nil
		}
		return symbol{name: word, terminal: true, match: func(tok Token) bool {
			return tok.Kind == TokenIdentifier && spec.IsKeyword(tok, kw)
		}}, nil
	}
	name, text, exact := strings.Cut(word, ":")
	kind, ok := KindByName(name)
	if !ok {
		return symbol{}, fmt.Errorf("unknown symbol %q", word)
	}
	if exact {
		return symbol{name: word, terminal: true, match: func(tok Token) bool {
			return tok.Kind == kind && tok.Text == text
		}}, nil
	}
	return symbol{name: word, terminal: true, match: func(tok Token) bool {
		return tok.Kind == kind
	}}, nil
}
