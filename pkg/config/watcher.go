package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before reporting it.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes to template files under a set of paths. A file
// filter lets other file kinds, such as policies, reuse it.
type Watcher struct {
	paths   []string
	delay   time.Duration
	logger  zerolog.Logger
	match   func(path string) bool
	started chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce delay.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.delay = d
	}
}

// WithWatchLogger sets the watcher's logger.
func WithWatchLogger(logger zerolog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithFileFilter replaces the template file filter. Events for paths that
// match returns false for are ignored.
func WithFileFilter(match func(path string) bool) WatcherOption {
	return func(w *Watcher) {
		if match != nil {
			w.match = match
		}
	}
}

// NewWatcher creates a watcher for the given files and directories.
func NewWatcher(paths []string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		paths:   paths,
		delay:   DefaultDebounce,
		logger:  zerolog.Nop(),
		match:   IsTemplateFile,
		started: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Started is closed once all paths are being watched.
func (w *Watcher) Started() <-chan struct{} {
	return w.started
}

// Run watches until ctx is cancelled. After each burst of writes to template
// files, onChange is called with the sorted set of changed files. Errors
// from onChange are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, files []string) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range w.paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat watch path %s: %w", path, err)
		}

		if info.IsDir() {
			if err := watchDirectory(watcher, path); err != nil {
				return fmt.Errorf("failed to watch directory %s: %w", path, err)
			}
		} else if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch file %s: %w", path, err)
		}
	}
	close(w.started)

	w.logger.Info().
		Strs("paths", w.paths).
		Dur("debounce", w.delay).
		Msg("Watching paths")

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = make(map[string]struct{})
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchDirectory(watcher, event.Name); err != nil {
						w.logger.Warn().Err(err).Str("path", event.Name).Msg("Failed to watch new directory")
					}
					continue
				}
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !w.match(event.Name) {
				continue
			}

			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Watched file changed")

			pending[event.Name] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.delay)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			files := make([]string, 0, len(pending))
			for name := range pending {
				files = append(files, name)
			}
			sort.Strings(files)
			pending = make(map[string]struct{})

			if err := onChange(ctx, files); err != nil {
				w.logger.Error().Err(err).Strs("files", files).Msg("Failed to apply file changes")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("File watcher error")
		}
	}
}

// watchDirectory adds a directory tree to the watcher.
func watchDirectory(watcher *fsnotify.Watcher, dirPath string) error {
	return filepath.WalkDir(dirPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return watcher.Add(path)
		}

		return nil
	})
}
