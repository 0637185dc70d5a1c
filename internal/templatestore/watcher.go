package templatestore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize
var ErrWatcherFailed = errors.New("templatestore: failed to initialize filesystem watcher")

// reloadDelay coalesces bursts of filesystem events into one reload.
// Editors and atomic saves produce several events per logical write.
const reloadDelay = 200 * time.Millisecond

// Watcher reloads the template store when its file changes and hands
// the fresh template set to a callback.
type Watcher struct {
	path     string
	onReload func(map[uint16]string)
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	stop     chan struct{}
}

// NewWatcher creates a watcher for the store at path. onReload runs on
// the watcher goroutine after every successful reload.
func NewWatcher(path string, onReload func(map[uint16]string), logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	return &Watcher{
		path:     path,
		onReload: onReload,
		logger:   logger,
		watcher:  fsw,
		stop:     make(chan struct{}),
	}, nil
}

// Start begins watching for store changes.
//
// The parent directory is watched rather than the file itself, so
// atomic rename-style rewrites keep being observed after the original
// inode disappears. Call Stop to clean up resources.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching template store directory: %w", err)
	}

	go w.processEvents(ctx)

	return nil
}

// Stop stops the watcher and cleans up resources.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		// Already stopped
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

// processEvents processes filesystem events and triggers reloads.
func (w *Watcher) processEvents(ctx context.Context) {
	var pending <-chan time.Time

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(reloadDelay)

		case <-pending:
			pending = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("template store watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	templates, err := Load(w.path)
	if err != nil {
		w.logger.Warn("template store reload failed, keeping current set",
			zap.String("path", w.path),
			zap.Error(err))
		return
	}

	w.logger.Info("template store reloaded",
		zap.String("path", w.path),
		zap.Int("count", len(templates)))
	w.onReload(templates)
}
