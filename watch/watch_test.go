package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sergev/scad/parser"
)

func nextEvent(t *testing.T, w *Watcher, accept func(Event) bool) Event {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				t.Fatalf("events closed early")
			}
			if accept(ev) {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event")
		}
	}
}

func TestWatcherReparsesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.scad")
	if err := os.WriteFile(path, []byte("cube(1);\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := parser.New()
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	w, err := New(p, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	first := nextEvent(t, w, func(Event) bool { return true })
	if first.Err != nil || len(first.Tree.Root.Children()) != 1 {
		t.Fatalf("unexpected initial event %+v", first)
	}

	if err := os.WriteFile(path, []byte("cube(1);\nsphere(2);\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	second := nextEvent(t, w, func(ev Event) bool {
		return ev.Err == nil && len(ev.Tree.Root.Children()) == 2
	})
	if cached, ok := p.Result(second.File); !ok || cached.Len() != second.Tree.Len() {
		t.Fatalf("expected parser cache to hold the latest tree")
	}

	if err := os.WriteFile(path, []byte("cube(;\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	nextEvent(t, w, func(ev Event) bool { return ev.Err != nil })

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.scad")
	if err := os.WriteFile(path, []byte("x = 1;"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p, err := parser.New()
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	w, err := New(p, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if w.tracked(filepath.Join(dir, "b.scad")) {
		t.Fatalf("sibling files must not be tracked")
	}
	if !w.tracked(path) {
		t.Fatalf("added file must be tracked")
	}
}
