package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher keeps a catalog file loaded and reloads it when the file changes.
// A reload that fails keeps serving the last good catalog.
type Watcher struct {
	mu sync.RWMutex

	path          string
	debounceDelay time.Duration

	current atomic.Pointer[Registry]

	running   bool
	stopChan  chan struct{}
	callbacks []func(*Registry, error)

	logger *zap.Logger
}

// WatcherOption configures the Watcher
type WatcherOption func(*Watcher)

// WithDebounceDelay sets how long to wait for writes to settle before reloading.
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithWatcherLogger sets the logger for the watcher
func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher loads path once and returns a watcher serving it.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:          path,
		debounceDelay: 100 * time.Millisecond,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(zap.String("component", "catalog_watcher"))

	reg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	w.current.Store(reg)
	return w, nil
}

// Current returns the most recent catalog that loaded successfully.
func (w *Watcher) Current() *Registry {
	return w.current.Load()
}

// OnReload registers a callback invoked after each reload attempt. The
// registry is nil when the attempt failed.
func (w *Watcher) OnReload(callback func(*Registry, error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins watching. The directory is watched rather than the file so
// that editors replacing the file by rename are seen.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		w.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.running = true
	w.stopChan = make(chan struct{})
	stop := w.stopChan
	w.mu.Unlock()

	go w.loop(ctx, fw, stop)

	w.logger.Info("Catalog watcher started",
		zap.String("path", w.path),
		zap.Duration("debounce_delay", w.debounceDelay))
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.stopChan)
	w.running = false

	w.logger.Info("Catalog watcher stopped")
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, stop chan struct{}) {
	defer fw.Close()
	defer func() {
		// 上下文取消或事件通道关闭时同样复位，允许再次 Start
		w.mu.Lock()
		if w.stopChan == stop {
			w.running = false
		}
		w.mu.Unlock()
	}()

	target := filepath.Clean(w.path)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(w.debounceDelay, w.Reload)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fsnotify error", zap.Error(err))
		}
	}
}

// Reload loads the file now and notifies callbacks.
func (w *Watcher) Reload() {
	reg, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("Catalog reload failed, keeping previous catalog",
			zap.String("path", w.path), zap.Error(err))
	} else {
		w.current.Store(reg)
		w.logger.Info("Catalog reloaded",
			zap.String("path", w.path),
			zap.Int("classes", len(reg.classOrder)),
			zap.Int("enums", len(reg.enumOrder)),
			zap.Int("aliases", len(reg.aliasOrder)))
	}

	w.mu.RLock()
	callbacks := make([]func(*Registry, error), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(reg, err)
	}
}
