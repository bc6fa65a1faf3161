package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsTemplateChanges(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 4)
	w := NewWatcher([]string{dir}, WithDebounce(50*time.Millisecond))

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, files []string) error {
			changes <- files
			return nil
		})
	}()

	select {
	case <-w.Started():
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not start")
	}

	// Non-template files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	target := filepath.Join(dir, "shelf.cue")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte(openShelfCUE), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	select {
	case files := <-changes:
		if len(files) != 1 || files[0] != target {
			t.Errorf("expected a single change for %s, got %v", target, files)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingPath(t *testing.T) {
	w := NewWatcher([]string{filepath.Join(t.TempDir(), "missing")})
	if err := w.Run(context.Background(), func(context.Context, []string) error { return nil }); err == nil {
		t.Fatal("expected error for missing path")
	}
}
