package main

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sergev/scad/parser"
)

var (
	colorError  = lipgloss.Color("#EF4444")
	colorMarker = lipgloss.Color("#F59E0B")
	colorMuted  = lipgloss.Color("#6B7280")

	errorHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorError)

	markerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMarker)

	excerptStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// formatError styles a diagnostic for the terminal. Syntax errors get a
// red header and a highlighted marker under the offending token.
func formatError(err error) string {
	if err == nil {
		return ""
	}
	var lexErr *parser.LexerError
	var parseErr *parser.ParserError
	if !errors.As(err, &lexErr) && !errors.As(err, &parseErr) {
		return errorHeaderStyle.Render("error:") + " " + err.Error()
	}

	lines := strings.Split(err.Error(), "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			lines[i] = errorHeaderStyle.Render(line)
		case isMarkerLine(line):
			lines[i] = markerStyle.Render(line)
		case strings.Contains(line, " | "):
			lines[i] = excerptStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func isMarkerLine(line string) bool {
	s := strings.TrimLeft(line, " ")
	return s != "" && s[0] == '^' && strings.Trim(s, "^-") == ""
}
