// Package watch re-parses source files when they change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/sergev/scad/parser"
)

// Event is the outcome of parsing a watched file.
type Event struct {
	File string
	Tree *parser.Tree
	Err  error
}

// Watcher parses a set of files once and again after every write. It
// watches the parent directories so files replaced by editors are seen.
type Watcher struct {
	p   *parser.Parser
	fs  *fsnotify.Watcher
	log *slog.Logger

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool

	events chan Event
}

// New creates a watcher that parses with p.
func New(p *parser.Parser, log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		p:      p,
		fs:     fw,
		log:    log,
		files:  make(map[string]bool),
		dirs:   make(map[string]bool),
		events: make(chan Event, 16),
	}, nil
}

// Add starts watching file.
func (w *Watcher) Add(file string) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirs[dir] {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.files[abs] = true
	return nil
}

// Events delivers one Event per parse. The channel is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run parses every added file, then re-parses on write or create until
// ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	w.mu.Lock()
	initial := make([]string, 0, len(w.files))
	for f := range w.files {
		initial = append(initial, f)
	}
	w.mu.Unlock()
	for _, f := range initial {
		if !w.parse(ctx, f) {
			return ctx.Err()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !w.tracked(ev.Name) {
				continue
			}
			w.log.Debug("file changed", "file", ev.Name, "op", ev.Op.String())
			if !w.parse(ctx, filepath.Clean(ev.Name)) {
				return ctx.Err()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) tracked(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[filepath.Clean(name)]
}

// parse reports false when ctx ended before the event was delivered.
func (w *Watcher) parse(ctx context.Context, file string) bool {
	tree, err := w.p.ParseAST(file)
	select {
	case w.events <- Event{File: file, Tree: tree, Err: err}:
		return true
	case <-ctx.Done():
		return false
	}
}
