package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sergev/scad/parser"
	"github.com/sergev/scad/render"
	"github.com/sergev/scad/watch"
)

var version = "0.1.0"

type app struct {
	stdout  io.Writer
	stderr  io.Writer
	verbose bool
	log     *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "scad",
		Short: "Parser for the OpenSCAD modelling language",
		Long: `scad parses OpenSCAD sources into syntax trees.

Without arguments it starts an interactive shell that prints the tree
of every statement entered.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.parser()
			if err != nil {
				return a.fail(err)
			}
			(&repl{p: p, stdout: a.stdout, stderr: a.stderr}).run(os.Stdin)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return a.fail(err)
	})
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		a.parseCmd(),
		a.tokensCmd(),
		a.watchCmd(),
		a.renderCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *app) setupLogging() {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

func (a *app) parser() (*parser.Parser, error) {
	return parser.New(parser.WithLogger(a.log))
}

// fail prints err and hands it back so cobra sets the exit status.
func (a *app) fail(err error) error {
	fmt.Fprintln(a.stderr, formatError(err))
	return err
}

func (a *app) parseCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Print the syntax tree of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "tag" && format != "yaml" && format != "json" {
				return a.fail(fmt.Errorf("unknown format %q (want tag, yaml or json)", format))
			}
			p, err := a.parser()
			if err != nil {
				return a.fail(err)
			}
			var failed error
			for _, file := range args {
				tree, err := p.ParseAST(file)
				if err != nil {
					failed = a.fail(err)
					continue
				}
				if err := writeTree(a.stdout, tree, format); err != nil {
					return a.fail(err)
				}
			}
			return failed
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "tag", "output format: tag, yaml or json")
	return cmd
}

func writeTree(w io.Writer, tree *parser.Tree, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(parser.Export(tree.Root)); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(parser.Export(tree.Root))
	default:
		_, err := fmt.Fprintln(w, tree)
		return err
	}
}

func (a *app) tokensCmd() *cobra.Command {
	var kinds []string
	var value, at string
	cmd := &cobra.Command{
		Use:   "tokens FILE",
		Short: "List the tokens of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			var filter []parser.TokenKind
			for _, name := range kinds {
				k, ok := parser.KindByName(name)
				if !ok {
					return a.fail(fmt.Errorf("unknown token kind %q", name))
				}
				filter = append(filter, k)
			}
			p, err := a.parser()
			if err != nil {
				return a.fail(err)
			}
			// Tokens are kept even when the parse fails.
			if _, err := p.ParseAST(file); err != nil && !errors.Is(err, parser.ErrLex) && !errors.Is(err, parser.ErrParse) {
				return a.fail(err)
			}

			if at != "" {
				line, col, err := parsePosition(at)
				if err != nil {
					return a.fail(err)
				}
				tok, ok := p.TokenAt(file, line, col)
				if !ok {
					return a.fail(fmt.Errorf("no token at %s", at))
				}
				fmt.Fprintln(a.stdout, formatToken(tok))
				return nil
			}
			for _, tok := range p.Tokens(file, value, filter...) {
				fmt.Fprintln(a.stdout, formatToken(tok))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "keep only tokens of these kinds")
	cmd.Flags().StringVar(&value, "value", "", "keep only tokens with this text or value")
	cmd.Flags().StringVar(&at, "at", "", "print the token at LINE:COL")
	return cmd
}

func parsePosition(s string) (line, col int, err error) {
	ls, cs, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("position %q: want LINE:COL", s)
	}
	if line, err = strconv.Atoi(ls); err != nil {
		return 0, 0, fmt.Errorf("position %q: %w", s, err)
	}
	if col, err = strconv.Atoi(cs); err != nil {
		return 0, 0, fmt.Errorf("position %q: %w", s, err)
	}
	return line, col, nil
}

func formatToken(tok parser.Token) string {
	s := fmt.Sprintf("%d:%d\t%s\t%q", tok.Line, tok.Column, tok.Kind, tok.Text)
	if tok.Value != "" && tok.Value != tok.Text {
		s += fmt.Sprintf("\tvalue=%q", tok.Value)
	}
	return s
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE...",
		Short: "Re-parse files whenever they change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.parser()
			if err != nil {
				return a.fail(err)
			}
			w, err := watch.New(p, a.log)
			if err != nil {
				return a.fail(err)
			}
			defer w.Close()
			for _, file := range args {
				if err := w.Add(file); err != nil {
					return a.fail(err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			done := make(chan error, 1)
			go func() { done <- w.Run(ctx) }()

			for ev := range w.Events() {
				if ev.Err != nil {
					fmt.Fprintln(a.stderr, formatError(ev.Err))
					continue
				}
				fmt.Fprintf(a.stdout, "%s: %d statements, %d nodes\n", ev.File, len(ev.Tree.Root.Children()), ev.Tree.Len())
			}
			if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
				return a.fail(err)
			}
			return nil
		},
	}
}

func (a *app) renderCmd() *cobra.Command {
	var configPath, output string
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Check a file and render it with the external renderer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := render.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = render.LoadConfig(configPath); err != nil {
					return a.fail(err)
				}
			}

			p, err := a.parser()
			if err != nil {
				return a.fail(err)
			}
			if _, err := p.ParseAST(args[0]); err != nil {
				return a.fail(err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			r := render.NewExec(cfg, render.WithLogger(a.log))
			if err := r.CheckVersion(ctx); err != nil {
				return a.fail(err)
			}
			res := <-r.Start(ctx, render.Job{File: args[0], Output: output})
			if res.Err != nil {
				return a.fail(res.Err)
			}
			fmt.Fprintln(a.stdout, res.Output)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "renderer configuration file (TOML)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "scad %s\n", version)
		},
	}
}
