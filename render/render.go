// Package render runs an external renderer over model source. The parser
// never calls into this package.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNoInput is returned for a job with neither code nor a file.
var ErrNoInput = errors.New("render: job has no code and no file")

// Job is one rendering request. Exactly one of Code and File is used;
// Code wins when both are set.
type Job struct {
	Code   string
	File   string
	Output string // overrides Config.Output
}

// Result reports a finished job.
type Result struct {
	Job    Job
	Output string
	Err    error
}

// Renderer produces an output file from model source.
type Renderer interface {
	Render(ctx context.Context, job Job) (string, error)
}

// ExitError carries the diagnostics of a failed renderer run.
type ExitError struct {
	Executable string
	Stderr     string
	Err        error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Executable, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

type runFunc func(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)

func runCommand(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Exec renders by running the configured executable as a subprocess.
type Exec struct {
	cfg     Config
	log     *slog.Logger
	run     runFunc
	tempDir string
}

var _ Renderer = (*Exec)(nil)

// Option configures an Exec.
type Option func(*Exec)

// WithLogger sets the logger for subprocess diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(e *Exec) {
		if log != nil {
			e.log = log
		}
	}
}

// WithTempDir sets where inline code is written before rendering.
func WithTempDir(dir string) Option {
	return func(e *Exec) { e.tempDir = dir }
}

func withRunner(run runFunc) Option {
	return func(e *Exec) { e.run = run }
}

// NewExec creates a subprocess renderer.
func NewExec(cfg Config, opts ...Option) *Exec {
	e := &Exec{
		cfg:     cfg,
		log:     slog.New(slog.DiscardHandler),
		run:     runCommand,
		tempDir: os.TempDir(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Args builds the command line for rendering input into output.
func (e *Exec) Args(input, output string) []string {
	args := []string{"-o", output}
	if e.cfg.ViewAll {
		args = append(args, "--viewall")
	}
	if e.cfg.AutoCenter {
		args = append(args, "--autocenter")
	}
	if e.cfg.ColorScheme != "" {
		args = append(args, "--colorscheme="+e.cfg.ColorScheme)
	}
	args = append(args, e.cfg.ExtraArgs...)
	return append(args, input)
}

// OutputFor picks the output path of a job: the job's own, then the
// configured one, then the input name with a .png extension. Inline code
// gets a unique name in the temporary directory.
func (e *Exec) OutputFor(job Job) string {
	switch {
	case job.Output != "":
		return job.Output
	case e.cfg.Output != "":
		return e.cfg.Output
	case job.Code == "" && job.File != "":
		return strings.TrimSuffix(job.File, filepath.Ext(job.File)) + ".png"
	default:
		return filepath.Join(e.tempDir, "render-"+uuid.NewString()+".png")
	}
}

// Render runs the renderer synchronously and returns the output path.
func (e *Exec) Render(ctx context.Context, job Job) (string, error) {
	input := job.File
	if job.Code != "" {
		path, err := e.writeTemp(job.Code)
		if err != nil {
			return "", err
		}
		defer os.Remove(path)
		input = path
	} else if input == "" {
		return "", ErrNoInput
	}

	if e.cfg.Timeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout.Duration)
		defer cancel()
	}

	output := e.OutputFor(job)
	args := e.Args(input, output)
	e.log.Debug("render start", "executable", e.cfg.Executable, "args", args)
	_, stderr, err := e.run(ctx, e.cfg.Executable, args)
	if err != nil {
		e.log.Warn("render failed", "input", input, "error", err)
		return "", &ExitError{Executable: e.cfg.Executable, Stderr: string(stderr), Err: err}
	}
	e.log.Debug("render done", "output", output)
	return output, nil
}

// Start runs the job in the background. The channel receives exactly one
// Result and is then closed.
func (e *Exec) Start(ctx context.Context, job Job) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		out, err := e.Render(ctx, job)
		ch <- Result{Job: job, Output: out, Err: err}
	}()
	return ch
}

func (e *Exec) writeTemp(code string) (string, error) {
	path := filepath.Join(e.tempDir, "scad-"+uuid.NewString()+".scad")
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		return "", fmt.Errorf("render: write temp source: %w", err)
	}
	return path, nil
}
