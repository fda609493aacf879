package parser

import (
	"errors"
	"fmt"
)

// outcome is the result of running the grammar over one token stream.
type outcome struct {
	root        *RootNode
	accepted    int
	derivations int
}

// parseTokens feeds the non-layout tokens of a fully lexed source to a
// fresh recognizer and reduces the first derivation. Failures are
// classified in stream order: a LexerError token reached before any
// grammar failure makes a *LexerError, anything else a *ParserError.
func parseTokens(g *Grammar, file, src string, tokens []Token) (outcome, error) {
	rec, err := NewRecognizer(g)
	if err != nil {
		return outcome{}, err
	}
	var accepted []Token
	for _, tok := range tokens {
		if tok.Kind == TokenLexerError {
			return outcome{accepted: len(accepted)}, newLexerError(file, src, tok)
		}
		if tok.skipped() {
			continue
		}
		if err := rec.Feed(tok); err != nil {
			var nc *noContinuation
			if !errors.As(err, &nc) {
				return outcome{}, err
			}
			return outcome{accepted: len(accepted)}, newParserError(file, src, tok, accepted, nc.expected)
		}
		accepted = append(accepted, tok)
	}
	if len(accepted) == 0 {
		return outcome{root: &RootNode{nodeBase: newBase(Location{})}}, nil
	}
	if !rec.Complete() {
		eof := Token{Kind: tokenEOF, Offset: len(src)}
		return outcome{accepted: len(accepted)}, newParserError(file, src, eof, accepted, rec.Expected())
	}
	results := rec.Results()
	if len(results) == 0 {
		return outcome{}, fmt.Errorf("%s: completed chart yielded no derivation", file)
	}
	root, ok := results[0].(*RootNode)
	if !ok {
		return outcome{}, fmt.Errorf("%s: derivation produced %T, not a root node", file, results[0])
	}
	return outcome{root: root, accepted: len(accepted), derivations: len(results)}, nil
}
