package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce absorbs the burst of events editors emit on save.
const DefaultWatchDebounce = 50 * time.Millisecond

// Change is one settled revision of a watched file.
type Change struct {
	Path    string
	Content []byte
	Err     error
}

// String implements lifecycle.Event.
func (c Change) String() string {
	if c.Err != nil {
		return fmt.Sprintf("change %s: %v", c.Path, c.Err)
	}
	return fmt.Sprintf("change %s (%d bytes)", c.Path, len(c.Content))
}

// WatchConfig configures WatchFile.
type WatchConfig struct {
	Logger   *slog.Logger
	Debounce time.Duration
	// OnActive, if set, is told when the watcher starts and stops.
	OnActive func(active bool)
}

// fileWatcher follows one file. It watches the parent directory because most
// editors save by renaming a temp file over the target.
type fileWatcher struct {
	path    string
	config  WatchConfig
	watcher *fsnotify.Watcher
	out     chan Change

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// WatchFile emits the content of path each time it settles after a change.
// The channel is closed when ctx is cancelled.
func WatchFile(ctx context.Context, path string, config WatchConfig) (<-chan Change, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultWatchDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w := &fileWatcher{
		path:    abs,
		config:  config,
		watcher: watcher,
		out:     make(chan Change),
	}
	if config.OnActive != nil {
		config.OnActive(true)
	}

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		config.Logger.Error("watcher stopped", "path", abs, "error", err)
	}))
	return w.out, nil
}

func (w *fileWatcher) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if w.config.Logger.Enabled(ctx, slog.LevelDebug) {
				w.config.Logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.config.Logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer func() {
		if w.config.OnActive != nil {
			w.config.OnActive(false)
		}
	}()
	defer close(w.out)
	defer w.stopAndWait()
	defer w.watcher.Close()

	return w.loop(ctx)
}

func (w *fileWatcher) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())
			w.schedule(ctx)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher errors channel closed")
			}
			w.config.Logger.Error("fsnotify error", "error", wErr)
		}
	}
}

// schedule (re)arms the settle timer.
func (w *fileWatcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil && w.timer.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	w.timer = time.AfterFunc(w.config.Debounce, func() {
		defer w.wg.Done()
		w.emit(ctx)
	})
}

func (w *fileWatcher) emit(ctx context.Context) {
	data, err := os.ReadFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		// Renamed away; a later Create brings it back.
		return
	}
	select {
	case w.out <- Change{Path: w.path, Content: data, Err: err}:
	case <-ctx.Done():
	}
}

// stopAndWait refuses new timers and waits for in-flight ones, so the output
// channel is never written after it is closed.
func (w *fileWatcher) stopAndWait() {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil && w.timer.Stop() {
		w.wg.Done()
	}
	w.mu.Unlock()
	w.wg.Wait()
}
