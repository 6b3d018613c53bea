package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"drowse/pkg/logging"
)

// Watcher reloads the configuration file when it changes on disk and hands
// the validated result to a callback.
//
// The parent directory is watched rather than the file itself because most
// editors replace files by rename, which drops a watch on the old inode.
type Watcher struct {
	mu sync.Mutex

	path             string
	debounceInterval time.Duration
	onChange         func(Config)

	watcher *fsnotify.Watcher
	timer   *time.Timer
	stopCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher for the configuration file at path.
func NewWatcher(path string, debounceInterval time.Duration, onChange func(Config)) *Watcher {
	if debounceInterval == 0 {
		debounceInterval = 500 * time.Millisecond
	}
	return &Watcher{
		path:             filepath.Clean(path),
		debounceInterval: debounceInterval,
		onChange:         onChange,
		stopCh:           make(chan struct{}),
	}
}

// Start begins watching for changes.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}

	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})

	go w.processEvents(ctx, watcher, w.stopCh)

	logging.Info("Config", "Watching %s for sleep settings changes", w.path)
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher, stopCh chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return

		case <-stopCh:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.debounce()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Config", err, "Configuration watcher error")
		}
	}
}

func (w *Watcher) debounce() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceInterval, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		logging.Error("Config", err, "Ignoring invalid configuration change")
		return
	}
	logging.Info("Config", "Configuration file changed, applying sleep settings")
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			logging.Error("Config", err, "Error closing configuration watcher")
		}
		w.watcher = nil
	}
	return nil
}
