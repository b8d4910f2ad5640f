package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Debounce is the quiet period after the last change before reloading.
	Debounce time.Duration

	// Logger receives watcher errors (default: slog.Default()).
	Logger *slog.Logger
}

// Watcher reloads a configuration file whenever it changes.
type Watcher struct {
	path     string
	config   WatcherConfig
	mu       sync.Mutex
	onChange func(*Config, error)
	running  bool
	stopCh   chan struct{}
}

// NewWatcher creates a watcher for the configuration file at path.
func NewWatcher(path string, config WatcherConfig) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Watcher{
		path:   filepath.Clean(path),
		config: config,
	}
}

// OnChange sets the callback receiving each reload: the new configuration, or
// the error that loading it produced.
func (w *Watcher) OnChange(fn func(*Config, error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start begins watching. The file's directory is watched, so editors that
// replace the file on save are seen. Watching ends when ctx is done or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		w.mu.Unlock()
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	go w.loop(ctx, fw, stopCh)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, stopCh chan struct{}) {
	defer fw.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-stopCh:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
			} else {
				timer.Reset(w.config.Debounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.config.Logger.Warn("config watcher error", "path", w.path, "error", err)
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFile(w.path)

	w.mu.Lock()
	fn := w.onChange
	w.mu.Unlock()

	if fn != nil {
		fn(cfg, err)
	}
}
