package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
)

var (
	lexerErrorPattern  = regexp.MustCompile(`^lexer error: unexpected input ".*" at .*:\d+:\d+`)
	parserErrorPattern = regexp.MustCompile(`^parser error: unexpected .* at .*:\d+:\d+`)
)

func TestLexerErrorClassification(t *testing.T) {
	_, err := ParseString("&%!;")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrLex) || errors.Is(err, ErrParse) {
		t.Fatalf("expected lexer error, got %v", err)
	}
	var lerr *LexerError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *LexerError, got %T", err)
	}
	if lerr.Token.Text != "&" || lerr.Location.Line != 1 || lerr.Location.Column != 1 {
		t.Fatalf("unexpected error token %+v", lerr.Token)
	}
	if !lexerErrorPattern.MatchString(err.Error()) {
		t.Fatalf("message does not look like a lexer error: %q", err.Error())
	}
	if !strings.Contains(lerr.Excerpt, "1 | &%!;") {
		t.Fatalf("expected excerpt of the failing line, got %q", lerr.Excerpt)
	}
}

func TestParserErrorClassification(t *testing.T) {
	_, err := ParseString("myVar module ;")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrParse) || errors.Is(err, ErrLex) {
		t.Fatalf("expected parser error, got %v", err)
	}
	var perr *ParserError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParserError, got %T", err)
	}
	if perr.Token.Text != "module" || perr.Location.String() != "1:7" {
		t.Fatalf("unexpected failing token %+v at %s", perr.Token, perr.Location)
	}
	if perr.Incomplete {
		t.Fatalf("error in the middle of input must not be incomplete")
	}
	if len(perr.Trailing) != 1 || perr.Trailing[0].Text != "myVar" {
		t.Fatalf("expected trailing myVar, got %v", perr.Trailing)
	}
	expected := strings.Join(perr.Expected, " ")
	if !strings.Contains(expected, "assign") || !strings.Contains(expected, "seperator") {
		t.Fatalf("expected assign and seperator hints, got %v", perr.Expected)
	}
	if !parserErrorPattern.MatchString(err.Error()) {
		t.Fatalf("message does not look like a parser error: %q", err.Error())
	}
	if !strings.Contains(err.Error(), `last tokens: identifier "myVar"`) {
		t.Fatalf("expected trailing tokens in message, got %q", err.Error())
	}
}

func TestParserErrorKeepsLastThreeTokens(t *testing.T) {
	_, err := ParseString("a = 1;\nb = 2 3;")
	var perr *ParserError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParserError, got %v", err)
	}
	if len(perr.Trailing) != 3 {
		t.Fatalf("expected 3 trailing tokens, got %d", len(perr.Trailing))
	}
	var texts []string
	for _, tok := range perr.Trailing {
		texts = append(texts, tok.Text)
	}
	if got := strings.Join(texts, " "); got != "b = 2" {
		t.Fatalf("unexpected trailing tokens %q", got)
	}
	if perr.Location.Line != 2 || perr.Location.Column != 7 {
		t.Fatalf("expected failure at 2:7, got %s", perr.Location)
	}
}

func TestIncompleteInput(t *testing.T) {
	for _, src := range []string{"module m() {", "cube(", "x = 1 +", "translate([1, 0, 0])"} {
		_, err := ParseString(src)
		if err == nil || !IsIncomplete(err) {
			t.Errorf("%q: expected incomplete error, got %v", src, err)
		}
		if err != nil && !errors.Is(err, ErrParse) {
			t.Errorf("%q: incomplete input must be a parser error", src)
		}
	}
	if _, err := ParseString("x = ];"); err == nil || IsIncomplete(err) {
		t.Fatalf("expected a complete parser error, got %v", err)
	}
	if IsIncomplete(errors.New("other")) {
		t.Fatalf("unrelated errors are never incomplete")
	}
}

func TestExcerpt(t *testing.T) {
	src := "a = 1;\nb = 2;\nc = ];\nd = 4;"
	loc := Location{Offset: 18, Size: 1, Line: 3, Column: 5}
	want := "1 | a = 1;\n" +
		"2 | b = 2;\n" +
		"3 | c = ];\n" +
		"        ^\n" +
		"4 | d = 4;"
	if got := Excerpt(src, loc); got != want {
		t.Fatalf("unexpected excerpt:\n%s\nwant:\n%s", got, want)
	}
}

func TestExcerptWindowAndPadding(t *testing.T) {
	var lines []string
	for i := 1; i <= 14; i++ {
		lines = append(lines, fmt.Sprintf("line%d", i))
	}
	src := strings.Join(lines, "\n")
	offset := strings.Index(src, "line10")
	got := Excerpt(src, Location{Offset: offset, Size: 6, Line: 10, Column: 1})
	out := strings.Split(got, "\n")
	if len(out) != 8 {
		t.Fatalf("expected 7 source lines and a marker, got %d:\n%s", len(out), got)
	}
	if out[0] != "07 | line7" || out[7] != "13 | line13" {
		t.Fatalf("expected zero-padded window 07..13, got %q .. %q", out[0], out[7])
	}
	if out[4] != "     ^----^" {
		t.Fatalf("unexpected marker %q", out[4])
	}
}

func TestExcerptOfZeroLocation(t *testing.T) {
	if got := Excerpt("x", Location{}); got != "" {
		t.Fatalf("expected no excerpt without a position, got %q", got)
	}
	if marker(1) != "^" || marker(2) != "^^" || marker(3) != "^-^" {
		t.Fatalf("unexpected markers %q %q %q", marker(1), marker(2), marker(3))
	}
}
