package parser

// TokenKind enumerates lexical categories recognised by the lexer.
type TokenKind int

const (
	tokenEOF TokenKind = iota

	TokenInclude
	TokenUse
	TokenModuleDefinition
	TokenFunctionDefinition
	TokenActionCall
	TokenComment
	TokenMLComment

	TokenComma     // ,
	TokenSeperator // :
	TokenLVect     // [
	TokenRVect     // ]
	TokenLParent   // (
	TokenRParent   // )
	TokenLBlock    // {
	TokenRBlock    // }
	TokenAssign    // =

	TokenBool
	TokenOperator1 // * / %
	TokenOperator2 // + -
	TokenOperator3 // < <= == != >= > && ||
	TokenIdentifier
	TokenString
	TokenFloat

	TokenEOL
	TokenEOS // ;
	TokenWhitespace

	// TokenLexerError marks input that matched no rule.
	TokenLexerError
)

var tokenNames = map[TokenKind]string{
	tokenEOF:                "EOF",
	TokenInclude:            "include",
	TokenUse:                "use",
	TokenModuleDefinition:   "moduleDefinition",
	TokenFunctionDefinition: "functionDefinition",
	TokenActionCall:         "actionCall",
	TokenComment:            "comment",
	TokenMLComment:          "mlComment",
	TokenComma:              "comma",
	TokenSeperator:          "seperator",
	TokenLVect:              "lvect",
	TokenRVect:              "rvect",
	TokenLParent:            "lparent",
	TokenRParent:            "rparent",
	TokenLBlock:             "lblock",
	TokenRBlock:             "rblock",
	TokenAssign:             "assign",
	TokenBool:               "bool",
	TokenOperator1:          "operator1",
	TokenOperator2:          "operator2",
	TokenOperator3:          "operator3",
	TokenIdentifier:         "identifier",
	TokenString:             "string",
	TokenFloat:              "float",
	TokenEOL:                "eol",
	TokenEOS:                "eos",
	TokenWhitespace:         "whitespace",
	TokenLexerError:         "LexerError",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindByName looks up a token kind by its table name, e.g. "actionCall".
func KindByName(name string) (TokenKind, bool) {
	for kind, n := range tokenNames {
		if n == name {
			return kind, true
		}
	}
	return tokenEOF, false
}

// Token is a single lexical unit produced by the lexer.
type Token struct {
	Kind       TokenKind
	Text       string // raw matched text
	Value      string // captured part of Text, e.g. the path of an include
	Offset     int    // zero-based byte offset
	Size       int    // width of Text in bytes
	Line       int    // one-based line number
	Column     int    // one-based column number (rune count)
	LineBreaks int    // newlines embedded in Text
}

// EOF reports whether the token marks the end of input.
func (t Token) EOF() bool {
	return t.Kind == tokenEOF
}

// Location returns where the token sits in the source.
func (t Token) Location() Location {
	return Location{
		Offset:     t.Offset,
		Size:       t.Size,
		LineBreaks: t.LineBreaks,
		Line:       t.Line,
		Column:     t.Column,
	}
}

// skipped reports whether the token carries layout only.
func (t Token) skipped() bool {
	switch t.Kind {
	case TokenWhitespace, TokenEOL:
		return true
	}
	return false
}
