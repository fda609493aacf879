package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer produces located tokens from a source buffer one at a time.
type Lexer struct {
	spec   *TokenSpec
	file   string
	src    string
	stream lexer.Lexer

	// position just past the last emitted token
	pos    int
	line   int
	column int

	failed bool
}

// NewLexer creates a lexer over the given token table.
func NewLexer(spec *TokenSpec) *Lexer {
	if spec == nil {
		spec = DefaultTokenSpec()
	}
	return &Lexer{spec: spec, line: 1, column: 1}
}

// Reset discards scanning state and positions the lexer at the start of src.
func (lx *Lexer) Reset(file, src string) {
	lx.file = file
	lx.src = src
	lx.pos = 0
	lx.line = 1
	lx.column = 1
	lx.failed = false
	lx.stream = nil
	stream, err := lx.spec.def.LexString(file, src)
	if err != nil {
		lx.failed = true
		return
	}
	lx.stream = stream
}

// Next returns the next token. At the end of input it returns a token
// whose EOF method reports true. Input that matches no rule yields a
// single TokenLexerError token holding the first offending rune; the
// lexer reports EOF after it.
func (lx *Lexer) Next() Token {
	if lx.pos >= len(lx.src) {
		return lx.eofToken()
	}
	if lx.failed || lx.stream == nil {
		return lx.errorToken()
	}
	ptok, err := lx.stream.Next()
	if err != nil {
		return lx.errorToken()
	}
	if ptok.EOF() {
		return lx.eofToken()
	}
	kind, ok := lx.spec.kindOf(ptok.Type)
	if !ok {
		return lx.errorToken()
	}
	tok := Token{
		Kind:   kind,
		Text:   ptok.Value,
		Value:  lx.spec.capture(kind, ptok.Value),
		Offset: ptok.Pos.Offset,
		Size:   len(ptok.Value),
		Line:   ptok.Pos.Line,
		Column: ptok.Pos.Column,
	}
	if lx.spec.SpansLines(kind) {
		tok.LineBreaks = strings.Count(ptok.Value, "\n")
	}
	lx.advanceTo(tok.Offset + tok.Size)
	return tok
}

// Tokenize scans src completely, including layout tokens. The EOF token
// is not returned; a TokenLexerError, when present, is the last token.
func (lx *Lexer) Tokenize(file, src string) []Token {
	lx.Reset(file, src)
	var tokens []Token
	for {
		tok := lx.Next()
		if tok.EOF() {
			return tokens
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenLexerError {
			return tokens
		}
	}
}

func (lx *Lexer) errorToken() Token {
	lx.failed = true
	r, w := utf8.DecodeRuneInString(lx.src[lx.pos:])
	text := lx.src[lx.pos : lx.pos+w]
	if r == utf8.RuneError && w == 0 {
		text = ""
	}
	tok := Token{
		Kind:   TokenLexerError,
		Text:   text,
		Value:  text,
		Offset: lx.pos,
		Size:   len(text),
		Line:   lx.line,
		Column: lx.column,
	}
	lx.pos = len(lx.src)
	return tok
}

func (lx *Lexer) eofToken() Token {
	return Token{
		Kind:   tokenEOF,
		Offset: lx.pos,
		Line:   lx.line,
		Column: lx.column,
	}
}

func (lx *Lexer) advanceTo(end int) {
	if end < lx.pos || end > len(lx.src) {
		return
	}
	for _, r := range lx.src[lx.pos:end] {
		if r == '\n' {
			lx.line++
			lx.column = 1
		} else {
			lx.column++
		}
	}
	lx.pos = end
}
