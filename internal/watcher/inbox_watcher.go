// Package watcher notices new inbox files and hands them on once they stop changing.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ideawalker-core/internal/pkg/logger"

	"github.com/fsnotify/fsnotify"
)

const defaultQuiet = 750 * time.Millisecond

// Handler receives the directory that was watched and the settled file path.
type Handler func(ctx context.Context, dir, path string)

type Option func(*InboxWatcher)

// WithQuietPeriod sets how long a file must stay untouched before it is reported.
func WithQuietPeriod(d time.Duration) Option {
	return func(w *InboxWatcher) { w.quiet = d }
}

type InboxWatcher struct {
	dirs    []string
	handler Handler
	logger  logger.ILogger
	quiet   time.Duration

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewInboxWatcher(dirs []string, handler Handler, log logger.ILogger, opts ...Option) (*InboxWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &InboxWatcher{
		dirs:    dirs,
		handler: handler,
		logger:  log,
		quiet:   defaultQuiet,
		watcher: fw,
		pending: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start adds the directories and returns; events are handled on a goroutine.
func (w *InboxWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
		w.logger.Info("Watcher", "Watching directory", map[string]interface{}{"dir": dir})
	}

	go w.run(ctx)
	return nil
}

// Stop ends the loop and releases the OS watcher.
func (w *InboxWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	return w.watcher.Close()
}

func (w *InboxWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.quiet / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.record(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher", "Watch error", map[string]interface{}{"error": err.Error()})
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *InboxWatcher) record(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *InboxWatcher) flush(ctx context.Context) {
	now := time.Now()
	var settled []string

	w.mu.Lock()
	for path, at := range w.pending {
		if now.Sub(at) >= w.quiet {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		w.handler(ctx, filepath.Dir(path), path)
	}
}
