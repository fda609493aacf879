package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/sergev/scad/parser"
)

const replFile = "<repl>"

type repl struct {
	p      *parser.Parser
	stdout io.Writer
	stderr io.Writer
}

func (r *repl) run(stdin *os.File) {
	if !isInteractive(stdin) {
		r.runBuffered(bufio.NewReader(stdin))
		return
	}
	r.runInteractive()
}

// eval parses one buffered chunk and prints its statements. It reports
// whether the chunk needs more input.
func (r *repl) eval(src string, final bool) (more bool) {
	tree, err := r.p.ParseAST(replFile, src)
	if err != nil {
		if parser.IsIncomplete(err) && !final {
			return true
		}
		fmt.Fprintln(r.stderr, formatError(err))
		return false
	}
	for _, n := range tree.Root.Children() {
		fmt.Fprintln(r.stdout, n)
	}
	return false
}

func (r *repl) runBuffered(reader *bufio.Reader) {
	var buffer strings.Builder

	for {
		line, err := reader.ReadString('\n')
		atEOF := errors.Is(err, io.EOF)
		if err != nil && !atEOF {
			fmt.Fprintf(r.stderr, "read error: %v\n", err)
			return
		}
		buffer.WriteString(line)
		if atEOF && strings.TrimSpace(buffer.String()) == "" {
			return
		}
		if r.eval(buffer.String(), atEOF) {
			continue
		}
		buffer.Reset()
		if atEOF {
			return
		}
	}
}

func (r *repl) runInteractive() {
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)

	historyPath := replHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(historyPath); err == nil {
				state.WriteHistory(f)
				f.Close()
			}
		}()
	}

	var buffer strings.Builder

	for {
		prompt := "scad> "
		if buffer.Len() > 0 {
			prompt = "....  "
		}
		input, err := state.Prompt(prompt)
		if err != nil {
			switch {
			case errors.Is(err, liner.ErrPromptAborted):
				fmt.Fprintln(r.stdout)
				buffer.Reset()
				continue
			case errors.Is(err, io.EOF):
				fmt.Fprintln(r.stdout)
				return
			default:
				fmt.Fprintf(r.stderr, "read error: %v\n", err)
				return
			}
		}
		buffer.WriteString(input)
		buffer.WriteString("\n")

		src := buffer.String()
		if strings.TrimSpace(src) == "" {
			buffer.Reset()
			continue
		}
		if r.eval(src, false) {
			continue
		}
		buffer.Reset()
		state.AppendHistory(strings.TrimSpace(src))
	}
}

func replHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".scad_history")
}

func isInteractive(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
