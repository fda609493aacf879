package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/sergev/scad/parser"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestParseCommandTags(t *testing.T) {
	path := writeSource(t, "a.scad", "module m() { cube(1); }\nm();\n")
	out, _, err := runCLI(t, "parse", path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, want := range []string{"<RootNode>", `<ModuleNode name="m"`, `<ActionNode name="cube"`, `<ActionNode name="m"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestParseCommandFormats(t *testing.T) {
	path := writeSource(t, "a.scad", "x = 1;\ncube(x);\n")

	out, _, err := runCLI(t, "parse", "--format", "json", path)
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	var doc parser.Exported
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("json output: %v\n%s", err, out)
	}
	if doc.Type != "RootNode" || len(doc.Children) != 2 || doc.Children[0].Attrs["name"] != "x" {
		t.Fatalf("unexpected json tree %+v", doc)
	}

	out, _, err = runCLI(t, "parse", "-f", "yaml", path)
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	doc = parser.Exported{}
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("yaml output: %v\n%s", err, out)
	}
	if len(doc.Children) != 2 || doc.Children[1].Type != "ActionNode" {
		t.Fatalf("unexpected yaml tree %+v", doc)
	}

	if _, _, err := runCLI(t, "parse", "--format", "xml", path); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestParseCommandReportsSyntaxErrors(t *testing.T) {
	good := writeSource(t, "good.scad", "cube(1);")
	bad := writeSource(t, "bad.scad", "cube(1;\n")
	out, errOut, err := runCLI(t, "parse", bad, good)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(errOut, "parser error") || !strings.Contains(errOut, "^") {
		t.Fatalf("expected styled parser error, got:\n%s", errOut)
	}
	if !strings.Contains(out, `name="cube"`) {
		t.Fatalf("later files must still be parsed, got:\n%s", out)
	}
}

func TestTokensCommand(t *testing.T) {
	path := writeSource(t, "a.scad", "cube(1);\nsphere(r = 2);\n")

	out, _, err := runCLI(t, "tokens", "--kind", "actionCall", path)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "1:1\tactionCall") || !strings.HasPrefix(lines[1], "2:1\tactionCall") {
		t.Fatalf("unexpected tokens:\n%s", out)
	}

	out, _, err = runCLI(t, "tokens", "--at", "2:8", path)
	if err != nil {
		t.Fatalf("tokens --at: %v", err)
	}
	if strings.TrimSpace(out) != "2:8\tidentifier\t\"r\"" {
		t.Fatalf("unexpected token at 2:8: %q", out)
	}

	if _, _, err := runCLI(t, "tokens", "--kind", "nonsense", path); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, _, err := runCLI(t, "tokens", "--at", "2", path); err == nil {
		t.Fatalf("expected error for malformed position")
	}
}

func TestTokensCommandAfterSyntaxError(t *testing.T) {
	path := writeSource(t, "a.scad", "cube(1;\n")
	out, _, err := runCLI(t, "tokens", "--value", ";", path)
	if err != nil {
		t.Fatalf("tokens must survive parse errors: %v", err)
	}
	if !strings.Contains(out, "eos") {
		t.Fatalf("expected eos token, got:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "version")
	if err != nil || out != "scad "+version+"\n" {
		t.Fatalf("version => %q, %v", out, err)
	}
}

func TestBufferedREPL(t *testing.T) {
	p, err := parser.New()
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	var stdout, stderr bytes.Buffer
	r := &repl{p: p, stdout: &stdout, stderr: &stderr}
	r.runBuffered(bufio.NewReader(strings.NewReader("cube(\n  1);\nx = 2;\n\nmodule m() {\n}\n")))

	if stderr.Len() != 0 {
		t.Fatalf("unexpected errors:\n%s", stderr.String())
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected three statements, got:\n%s", stdout.String())
	}
	if !strings.Contains(lines[0], `name="cube"`) || !strings.Contains(lines[1], `name="x"`) || !strings.Contains(lines[2], `name="m"`) {
		t.Fatalf("unexpected statements:\n%s", stdout.String())
	}
}

func TestBufferedREPLIncompleteAtEOF(t *testing.T) {
	p, err := parser.New()
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	var stdout, stderr bytes.Buffer
	r := &repl{p: p, stdout: &stdout, stderr: &stderr}
	r.runBuffered(bufio.NewReader(strings.NewReader("translate([1, 0, 0]) {\n  cube(1);\n")))

	if stdout.Len() != 0 {
		t.Fatalf("unexpected output:\n%s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "unexpected end of input") {
		t.Fatalf("expected end of input error, got:\n%s", stderr.String())
	}
}

func TestREPLEvalContinuation(t *testing.T) {
	p, err := parser.New()
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	var stdout, stderr bytes.Buffer
	r := &repl{p: p, stdout: &stdout, stderr: &stderr}
	if !r.eval("module m() {\n", false) {
		t.Fatalf("open block must ask for more input")
	}
	if r.eval("cube(1;\n", false) {
		t.Fatalf("syntax error must not ask for more input")
	}
	if stderr.Len() == 0 {
		t.Fatalf("expected error output")
	}
}

func TestFormatError(t *testing.T) {
	_, err := parser.ParseString("a = 1;\nb = ;\n")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	out := formatError(err)
	if !strings.Contains(out, "parser error") || !strings.Contains(out, "2 | b = ;") {
		t.Fatalf("unexpected formatting:\n%s", out)
	}
	if got := formatError(os.ErrNotExist); !strings.Contains(got, "error:") || !strings.Contains(got, "file does not exist") {
		t.Fatalf("unexpected plain error %q", got)
	}
	if formatError(nil) != "" {
		t.Fatalf("nil error must format as empty")
	}
}

func TestIsMarkerLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"      ^", true},
		{"   ^--^", true},
		{"^^", true},
		{"", false},
		{"    ", false},
		{"1 | x ^ y", false},
		{"  ^ x", false},
	}
	for _, tt := range tests {
		if got := isMarkerLine(tt.line); got != tt.want {
			t.Errorf("isMarkerLine(%q) => %v, want %v", tt.line, got, tt.want)
		}
	}
}
