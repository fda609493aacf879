package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// TokenRule maps a token kind to the pattern that produces it.
type TokenRule struct {
	Kind       TokenKind
	Pattern    string // regular expression anchored at the current offset
	Capture    string // optional expression whose first group becomes Token.Value
	SpansLines bool   // matches may contain newlines
}

// TokenSpec is the compiled token table together with the keywords the
// grammar tests identifiers against. Rules are tried in table order and
// the first one that matches wins, so a rule must precede every rule that
// could match a shorter prefix of the same input. The default table is
// ordered that way, which makes the first match the longest one.
type TokenSpec struct {
	rules    []TokenRule
	def      *lexer.StatefulDefinition
	kinds    map[lexer.TokenType]TokenKind
	captures map[TokenKind]*regexp.Regexp
	spans    map[TokenKind]bool
	keywords map[string]bool
}

const identPattern = `[A-Za-z_$][A-Za-z0-9_]*`

// pathPattern is the body of include <...> and use <...>. Operators that
// cannot appear in a file name keep comparisons such as "use < 3 && b > 2"
// from lexing as a use statement.
const pathPattern = `[^<>;=&|]*`

// ruleName is the lexer symbol of kind. Symbols starting with a lower case
// letter are dropped by the lexer, so every kind gets an upper case prefix.
func ruleName(kind TokenKind) string {
	return "Tok" + strings.ToUpper(kind.String()[:1]) + kind.String()[1:]
}

// DefaultRules is the token table of the modeling language.
func DefaultRules() []TokenRule {
	return []TokenRule{
		{Kind: TokenInclude, Pattern: `include[ \t]*<` + pathPattern + `>`, Capture: `<([^>]*)>`, SpansLines: true},
		{Kind: TokenUse, Pattern: `use[ \t]*<` + pathPattern + `>`, Capture: `<([^>]*)>`, SpansLines: true},
		{Kind: TokenModuleDefinition, Pattern: `module[ \t]+` + identPattern + `[ \t]*\(`, Capture: `^module[ \t]+(` + identPattern + `)`},
		{Kind: TokenFunctionDefinition, Pattern: `function[ \t]+` + identPattern + `[ \t]*\(`, Capture: `^function[ \t]+(` + identPattern + `)`},
		{Kind: TokenActionCall, Pattern: `[!#*%]?` + identPattern + `[ \t]*\(`, Capture: `(` + identPattern + `)`},
		{Kind: TokenMLComment, Pattern: `/\*[\s\S]*?\*/`, Capture: `(?s)^/\*(.*)\*/$`, SpansLines: true},
		{Kind: TokenComment, Pattern: `//[^\n]*`, Capture: `^//([^\n]*)`},
		{Kind: TokenComma, Pattern: `,`},
		{Kind: TokenSeperator, Pattern: `:`},
		{Kind: TokenLVect, Pattern: `\[`},
		{Kind: TokenRVect, Pattern: `\]`},
		{Kind: TokenLParent, Pattern: `\(`},
		{Kind: TokenRParent, Pattern: `\)`},
		{Kind: TokenLBlock, Pattern: `\{`},
		{Kind: TokenRBlock, Pattern: `\}`},
		{Kind: TokenBool, Pattern: `(?:true|false)\b`},
		{Kind: TokenOperator3, Pattern: `<=|>=|==|!=|&&|\|\||<|>`},
		{Kind: TokenAssign, Pattern: `=`},
		{Kind: TokenOperator1, Pattern: `[*/%]`},
		{Kind: TokenOperator2, Pattern: `[+\-]`},
		{Kind: TokenIdentifier, Pattern: identPattern},
		{Kind: TokenString, Pattern: `"(?:\\.|[^"\\\n])*"`, Capture: `^"(.*)"$`},
		{Kind: TokenFloat, Pattern: `(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`},
		{Kind: TokenEOL, Pattern: `\r?\n`, SpansLines: true},
		{Kind: TokenEOS, Pattern: `[ \t]*;`},
		{Kind: TokenWhitespace, Pattern: `[ \t\r]+`},
	}
}

// DefaultKeywords lists identifiers the grammar treats specially.
func DefaultKeywords() []string {
	return []string{"for"}
}

// NewTokenSpec compiles a token table.
func NewTokenSpec(rules []TokenRule, keywords []string) (*TokenSpec, error) {
	ts := &TokenSpec{
		rules:    rules,
		kinds:    make(map[lexer.TokenType]TokenKind, len(rules)),
		captures: make(map[TokenKind]*regexp.Regexp),
		spans:    make(map[TokenKind]bool),
		keywords: make(map[string]bool, len(keywords)),
	}
	root := make([]lexer.Rule, 0, len(rules))
	byName := make(map[string]TokenKind, len(rules))
	for _, r := range rules {
		if r.Kind == tokenEOF || r.Kind == TokenLexerError {
			return nil, fmt.Errorf("token rule %q: reserved kind", r.Kind)
		}
		name := ruleName(r.Kind)
		byName[name] = r.Kind
		root = append(root, lexer.Rule{Name: name, Pattern: r.Pattern})
		if r.Capture != "" {
			re, err := regexp.Compile(r.Capture)
			if err != nil {
				return nil, fmt.Errorf("token rule %q: capture: %w", r.Kind, err)
			}
			ts.captures[r.Kind] = re
		}
		ts.spans[r.Kind] = r.SpansLines
	}
	def, err := lexer.New(lexer.Rules{"Root": root})
	if err != nil {
		return nil, fmt.Errorf("token table: %w", err)
	}
	ts.def = def
	for name, tt := range def.Symbols() {
		if kind, ok := byName[name]; ok {
			ts.kinds[tt] = kind
		}
	}
	for _, kw := range keywords {
		ts.keywords[kw] = true
	}
	return ts, nil
}

// DefaultTokenSpec compiles the default table.
func DefaultTokenSpec() *TokenSpec {
	ts, err := NewTokenSpec(DefaultRules(), DefaultKeywords())
	if err != nil {
		panic(err)
	}
	return ts
}

// SpansLines reports whether tokens of kind may contain newlines.
func (ts *TokenSpec) SpansLines(kind TokenKind) bool {
	return ts.spans[kind]
}

// Rules returns the table in priority order.
func (ts *TokenSpec) Rules() []TokenRule {
	out := make([]TokenRule, len(ts.rules))
	copy(out, ts.rules)
	return out
}

// IsKeyword reports whether tok spells the registered keyword word, either
// as a bare identifier or as the head of a call ("for(").
func (ts *TokenSpec) IsKeyword(tok Token, word string) bool {
	if !ts.keywords[word] {
		return false
	}
	switch tok.Kind {
	case TokenIdentifier:
		return tok.Text == word
	case TokenActionCall:
		return tok.Value == word && modifierOf(tok) == ""
	}
	return false
}

func (ts *TokenSpec) kindOf(tt lexer.TokenType) (TokenKind, bool) {
	kind, ok := ts.kinds[tt]
	return kind, ok
}

func (ts *TokenSpec) capture(kind TokenKind, text string) string {
	re := ts.captures[kind]
	if re == nil {
		return text
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return text
	}
	return m[1]
}

// modifierOf returns the modifier character prefixed to an action call.
func modifierOf(tok Token) string {
	if tok.Kind != TokenActionCall || tok.Text == "" {
		return ""
	}
	switch tok.Text[0] {
	case '!', '#', '*', '%':
		return tok.Text[:1]
	}
	return ""
}
