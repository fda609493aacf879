package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidInvocation is returned when neither code nor a file is given.
	ErrInvalidInvocation = errors.New("invalid invocation: no code and no file given")

	// ErrLex matches every *LexerError.
	ErrLex = errors.New("lexer error")

	// ErrParse matches every *ParserError.
	ErrParse = errors.New("parser error")
)

// excerptContext is the number of lines shown around the failing line.
const excerptContext = 3

// LexerError reports input that matched no token rule.
type LexerError struct {
	File     string
	Token    Token
	Location Location
	Excerpt  string
}

func (e *LexerError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "lexer error: unexpected input %q at %s:%s", e.Token.Text, e.File, e.Location)
	if e.Excerpt != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Excerpt)
	}
	return sb.String()
}

func (e *LexerError) Unwrap() error { return ErrLex }

// ParserError reports a token sequence that no derivation accepts.
type ParserError struct {
	File     string
	Token    Token
	Location Location
	Excerpt  string
	Trailing []Token  // up to three tokens accepted before the failure
	Expected []string // terminals that would have been accepted

	// Incomplete is set when the input ended in the middle of a statement.
	Incomplete bool
}

func (e *ParserError) Error() string {
	var sb strings.Builder
	if e.Incomplete {
		fmt.Fprintf(&sb, "parser error: unexpected end of input at %s:%s", e.File, e.Location)
	} else {
		fmt.Fprintf(&sb, "parser error: unexpected %s %q at %s:%s", e.Token.Kind, e.Token.Text, e.File, e.Location)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&sb, " (expected %s)", strings.Join(e.Expected, ", "))
	}
	if e.Excerpt != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Excerpt)
	}
	if len(e.Trailing) > 0 {
		parts := make([]string, len(e.Trailing))
		for i, tok := range e.Trailing {
			parts[i] = fmt.Sprintf("%s %q", tok.Kind, tok.Text)
		}
		sb.WriteString("\nlast tokens: ")
		sb.WriteString(strings.Join(parts, ", "))
	}
	return sb.String()
}

func (e *ParserError) Unwrap() error { return ErrParse }

// IsIncomplete reports whether the supplied error represents incomplete input.
func IsIncomplete(err error) bool {
	var perr *ParserError
	if errors.As(err, &perr) {
		return perr.Incomplete
	}
	return false
}

// Excerpt renders the lines around loc with zero-padded line numbers and
// marks the failing token underneath its line.
func Excerpt(src string, loc Location) string {
	if loc.Line < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if loc.Line > len(lines) {
		return ""
	}
	first := max(1, loc.Line-excerptContext)
	last := min(len(lines), loc.Line+excerptContext)
	digits := len(fmt.Sprint(last))

	var sb strings.Builder
	for n := first; n <= last; n++ {
		text := strings.TrimRight(lines[n-1], "\r")
		fmt.Fprintf(&sb, "%0*d | %s\n", digits, n, text)
		if n != loc.Line {
			continue
		}
		sb.WriteString(strings.Repeat(" ", digits+3+max(0, loc.Column-1)))
		sb.WriteString(marker(markerWidth(src, loc)))
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func markerWidth(src string, loc Location) int {
	if loc.Offset < 0 || loc.Offset+loc.Size > len(src) {
		return 1
	}
	text := src[loc.Offset : loc.Offset+loc.Size]
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return max(1, utf8.RuneCountInString(text))
}

func marker(width int) string {
	if width < 2 {
		return "^"
	}
	return "^" + strings.Repeat("-", width-2) + "^"
}

func newLexerError(file, src string, tok Token) *LexerError {
	loc := tok.Location()
	return &LexerError{
		File:     file,
		Token:    tok,
		Location: loc,
		Excerpt:  Excerpt(src, loc),
	}
}

func newParserError(file, src string, tok Token, accepted []Token, expected []string) *ParserError {
	loc := tok.Location()
	e := &ParserError{
		File:     file,
		Token:    tok,
		Location: loc,
		Expected: expected,
	}
	if tok.EOF() {
		e.Incomplete = true
		if n := len(accepted); n > 0 {
			e.Token = accepted[n-1]
			e.Location = e.Token.Location()
		} else {
			e.Location = Location{}
		}
	}
	e.Excerpt = Excerpt(src, e.Location)
	from := max(0, len(accepted)-3)
	e.Trailing = append([]Token(nil), accepted[from:]...)
	return e
}
