package parser

import "fmt"

type item struct {
	rule   *Rule
	dot    int
	origin int
}

func (it item) next() (symbol, bool) {
	if it.dot >= len(it.rule.rhs) {
		return symbol{}, false
	}
	return it.rule.rhs[it.dot], true
}

type doneKey struct {
	lhs    string
	origin int
}

type itemSet struct {
	items     []item
	index     map[item]bool
	done      map[doneKey]bool
	predicted map[string]bool
	// items whose next symbol is the keyed nonterminal
	waiting   map[string][]item
}

func newItemSet() *itemSet {
	return &itemSet{
		index:     make(map[item]bool),
		done:      make(map[doneKey]bool),
		predicted: make(map[string]bool),
		waiting:   make(map[string][]item),
	}
}

func (s *itemSet) add(it item) {
	if s.index[it] {
		return
	}
	s.index[it] = true
	s.items = append(s.items, it)
	sym, ok := it.next()
	switch {
	case !ok:
		s.done[doneKey{it.rule.lhs, it.origin}] = true
	case !sym.terminal:
		s.waiting[sym.name] = append(s.waiting[sym.name], it)
	}
}

func (s *itemSet) has(r *Rule, dot, origin int) bool {
	return s.index[item{r, dot, origin}]
}

// Recognizer is an Earley chart over one token stream. It is fed tokens
// one at a time and yields the derivations of the start symbol that
// span everything fed so far.
type Recognizer struct {
	g      *Grammar
	sets   []*itemSet
	tokens []Token
}

// noContinuation is returned by Feed when a token cannot extend any item.
type noContinuation struct {
	tok      Token
	expected []string
}

func (e *noContinuation) Error() string {
	return fmt.Sprintf("unexpected %s %q", e.tok.Kind, e.tok.Text)
}

// NewRecognizer starts a chart for g. The grammar is compiled if needed.
func NewRecognizer(g *Grammar) (*Recognizer, error) {
	if !g.frozen {
		if err := g.Compile(); err != nil {
			return nil, err
		}
	}
	r := &Recognizer{g: g}
	first := newItemSet()
	for _, rule := range g.byLHS[g.start] {
		first.add(item{rule: rule})
	}
	first.predicted[g.start] = true
	r.sets = append(r.sets, first)
	r.close(0)
	return r, nil
}

// Feed advances the chart over tok. When no item accepts tok the chart
// is left unchanged and the error lists the terminals that would have
// been accepted.
func (r *Recognizer) Feed(tok Token) error {
	k := len(r.sets) - 1
	next := newItemSet()
	for _, it := range r.sets[k].items {
		sym, ok := it.next()
		if ok && sym.terminal && sym.match(tok) {
			next.add(item{it.rule, it.dot + 1, it.origin})
		}
	}
	if len(next.items) == 0 {
		return &noContinuation{tok: tok, expected: r.Expected()}
	}
	r.tokens = append(r.tokens, tok)
	r.sets = append(r.sets, next)
	r.close(k + 1)
	return nil
}

// Expected lists the terminals acceptable as the next token, in rule order.
func (r *Recognizer) Expected() []string {
	var out []string
	seen := make(map[string]bool)
	for _, it := range r.sets[len(r.sets)-1].items {
		sym, ok := it.next()
		if !ok || !sym.terminal || seen[sym.name] {
			continue
		}
		seen[sym.name] = true
		out = append(out, sym.name)
	}
	return out
}

// Complete reports whether the tokens fed so far form a full sentence.
func (r *Recognizer) Complete() bool {
	return r.sets[len(r.sets)-1].done[doneKey{r.g.start, 0}]
}

// Fed returns the number of tokens accepted.
func (r *Recognizer) Fed() int {
	return len(r.tokens)
}

func (r *Recognizer) close(k int) {
	set := r.sets[k]
	for i := 0; i < len(set.items); i++ {
		it := set.items[i]
		sym, ok := it.next()
		if !ok {
			// Rules never derive the empty string, so origin < k.
			for _, parent := range r.sets[it.origin].waiting[it.rule.lhs] {
				set.add(item{parent.rule, parent.dot + 1, parent.origin})
			}
			continue
		}
		if sym.terminal || set.predicted[sym.name] {
			continue
		}
		set.predicted[sym.name] = true
		for _, rule := range r.g.byLHS[sym.name] {
			set.add(item{rule: rule, origin: k})
		}
	}
}

// Results builds the values of the completed derivations of the start
// symbol over all fed tokens, one per start rule that completes. Within a
// derivation, ambiguity is resolved by preferring the rule added first and
// then the longest span for the leftmost symbol.
func (r *Recognizer) Results() []interface{} {
	if len(r.tokens) == 0 {
		return nil
	}
	end := len(r.tokens)
	last := r.sets[end]
	d := &deriver{r: r, memo: make(map[spanKey]derived)}
	var out []interface{}
	for _, rule := range r.g.byLHS[r.g.start] {
		if !last.has(rule, len(rule.rhs), 0) {
			continue
		}
		args := make([]interface{}, len(rule.rhs))
		if d.match(rule, len(rule.rhs), 0, end, args) {
			out = append(out, d.reduce(rule, args))
		}
	}
	return out
}

type spanKey struct {
	lhs        string
	start, end int
}

type derived struct {
	value interface{}
	ok    bool
	busy  bool
}

type deriver struct {
	r    *Recognizer
	memo map[spanKey]derived
}

func (d *deriver) reduce(rule *Rule, args []interface{}) interface{} {
	if rule.action == nil {
		if len(args) == 1 {
			return args[0]
		}
		return args
	}
	return rule.action(args)
}

// build derives lhs over tokens [start, end).
func (d *deriver) build(lhs string, start, end int) (interface{}, bool) {
	key := spanKey{lhs, start, end}
	if m, ok := d.memo[key]; ok {
		if m.busy {
			return nil, false
		}
		return m.value, m.ok
	}
	d.memo[key] = derived{busy: true}
	set := d.r.sets[end]
	for _, rule := range d.r.g.byLHS[lhs] {
		if !set.has(rule, len(rule.rhs), start) {
			continue
		}
		args := make([]interface{}, len(rule.rhs))
		if d.match(rule, len(rule.rhs), start, end, args) {
			v := d.reduce(rule, args)
			d.memo[key] = derived{value: v, ok: true}
			return v, true
		}
	}
	d.memo[key] = derived{}
	return nil, false
}

// match fills args[:dot] with a derivation of rule.rhs[:dot] over
// tokens [origin, end), walking from the right.
func (d *deriver) match(rule *Rule, dot, origin, end int, args []interface{}) bool {
	if dot == 0 {
		return origin == end
	}
	sym := rule.rhs[dot-1]
	if sym.terminal {
		mid := end - 1
		if mid < origin || !d.r.sets[mid].has(rule, dot-1, origin) {
			return false
		}
		tok := d.r.tokens[mid]
		if !sym.match(tok) {
			return false
		}
		args[dot-1] = tok
		return d.match(rule, dot-1, origin, mid, args)
	}
	// Later split points leave the longest span to the symbols before.
	// The first symbol always starts at the origin.
	hi := end - 1
	if dot == 1 {
		hi = origin
	}
	for mid := hi; mid >= origin; mid-- {
		if !d.r.sets[mid].has(rule, dot-1, origin) {
			continue
		}
		if !d.r.sets[end].done[doneKey{sym.name, mid}] {
			continue
		}
		v, ok := d.build(sym.name, mid, end)
		if !ok {
			continue
		}
		args[dot-1] = v
		if d.match(rule, dot-1, origin, mid, args) {
			return true
		}
	}
	return false
}
