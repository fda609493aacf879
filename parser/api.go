package parser

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Parser turns source files into syntax trees. It keeps the tokens, the
// source text and the last successful tree of every file it has parsed,
// keyed by file identifier.
//
// A Parser may be shared between goroutines, but parses of the same file
// identifier must not overlap: each parse replaces the cached entries for
// its key, so concurrent parses of one key leave the caches describing
// whichever finished last. Use separate Parsers or serialize per key.
type Parser struct {
	spec     *TokenSpec
	grammar  *Grammar
	log      *slog.Logger
	readFile func(string) ([]byte, error)

	mu      sync.Mutex
	tokens  map[string][]Token
	sources map[string]string
	results map[string]*Tree
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(p *Parser) {
		if log != nil {
			p.log = log
		}
	}
}

// WithTokenSpec replaces the default token table and keywords.
func WithTokenSpec(spec *TokenSpec) Option {
	return func(p *Parser) {
		if spec != nil {
			p.spec = spec
		}
	}
}

// WithReadFile sets the loader used when ParseAST is given no code.
func WithReadFile(read func(string) ([]byte, error)) Option {
	return func(p *Parser) {
		if read != nil {
			p.readFile = read
		}
	}
}

// New creates a parser.
func New(opts ...Option) (*Parser, error) {
	p := &Parser{
		log:      slog.New(slog.DiscardHandler),
		readFile: os.ReadFile,
		tokens:   make(map[string][]Token),
		sources:  make(map[string]string),
		results:  make(map[string]*Tree),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.spec == nil {
		p.spec = DefaultTokenSpec()
	}
	g, err := NewGrammarFor(p.spec)
	if err != nil {
		return nil, err
	}
	p.grammar = g
	return p, nil
}

// ParseAST parses code, or the contents of file when code is omitted.
// The file identifier keys the caches and appears in error messages.
func (p *Parser) ParseAST(file string, code ...string) (*Tree, error) {
	var src string
	switch {
	case len(code) > 0:
		src = code[0]
		if file == "" {
			file = "<input>"
		}
	case file != "":
		data, err := p.readFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		src = string(data)
	default:
		return nil, ErrInvalidInvocation
	}

	log := p.log.With("file", file)
	log.Debug("parse start", "bytes", len(src))

	tokens := NewLexer(p.spec).Tokenize(file, src)
	p.mu.Lock()
	p.tokens[file] = tokens
	p.sources[file] = src
	delete(p.results, file)
	p.mu.Unlock()

	out, err := parseTokens(p.grammar, file, src, tokens)
	if err != nil {
		log.Warn("parse failed", "tokens", out.accepted, "error", err)
		return nil, err
	}
	tree, err := NewTree(out.root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	p.mu.Lock()
	p.results[file] = tree
	p.mu.Unlock()

	log.Debug("parse done", "tokens", out.accepted, "derivations", out.derivations, "nodes", tree.Len())
	return tree, nil
}

// Result returns the tree of the last successful parse of file.
func (p *Parser) Result(file string) (*Tree, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.results[file]
	return t, ok
}

// Source returns the text last parsed under file.
func (p *Parser) Source(file string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	src, ok := p.sources[file]
	return src, ok
}

// Tokens returns the cached tokens of file, layout included. A non-empty
// value keeps tokens whose text or captured value equals it; kinds, when
// given, keep only tokens of those kinds.
func (p *Parser) Tokens(file, value string, kinds ...TokenKind) []Token {
	p.mu.Lock()
	cached := p.tokens[file]
	p.mu.Unlock()

	var out []Token
	for _, tok := range cached {
		if value != "" && tok.Text != value && tok.Value != value {
			continue
		}
		if len(kinds) > 0 && !hasKind(kinds, tok.Kind) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// TokenAt returns the cached token of file that covers line and column.
func (p *Parser) TokenAt(file string, line, column int) (Token, bool) {
	p.mu.Lock()
	cached := p.tokens[file]
	p.mu.Unlock()

	for _, tok := range cached {
		if covers(tok, line, column) {
			return tok, true
		}
	}
	return Token{}, false
}

func hasKind(kinds []TokenKind, kind TokenKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func covers(tok Token, line, column int) bool {
	if line < tok.Line || line > tok.Line+tok.LineBreaks {
		return false
	}
	l, c := tok.Line, tok.Column
	for _, r := range tok.Text {
		if l == line && c == column {
			return true
		}
		if r == '\n' {
			l++
			c = 1
			continue
		}
		c++
	}
	return false
}

// ParseString parses source text with a fresh default parser.
func ParseString(src string) (*Tree, error) {
	p, err := New()
	if err != nil {
		return nil, err
	}
	return p.ParseAST("<input>", src)
}

// ParseReader consumes source from an io.Reader and parses it.
func ParseReader(r io.Reader) (*Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseString(string(data))
}

