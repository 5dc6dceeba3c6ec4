package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aussiebroadwan/tenantgate/internal/access/service"
)

const defaultReloadDebounce = 100 * time.Millisecond

// PolicyWatcher reloads the lockout policy when the config file changes.
// A file that fails to parse or validate is logged and the running policy
// stays in place.
type PolicyWatcher struct {
	path     string
	lockout  *service.LockoutService
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewPolicyWatcher watches the directory of path rather than the file
// itself, so editors that save by renaming a temp file are still seen.
func NewPolicyWatcher(path string, lockout *service.LockoutService, logger *slog.Logger) (*PolicyWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &PolicyWatcher{
		path:     abs,
		lockout:  lockout,
		logger:   logger,
		watcher:  watcher,
		debounce: defaultReloadDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

func (w *PolicyWatcher) Start() {
	go w.run()
	w.logger.Info("config watcher started", "path", w.path)
}

// Stop blocks until the watch loop has exited. It is safe to call twice.
func (w *PolicyWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
		<-w.doneCh
	})
}

func (w *PolicyWatcher) run() {
	defer close(w.doneCh)

	// Saves arrive as bursts of events, reload once they settle.
	var reload <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				reload = time.After(w.debounce)
			}

		case <-reload:
			reload = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (w *PolicyWatcher) reload() {
	policy, err := LoadPolicy(w.path)
	if err != nil {
		w.logger.Warn("ignoring invalid config file", "path", w.path, "error", err)
		return
	}

	if err := w.lockout.SetPolicy(policy.Lockout); err != nil {
		w.logger.Warn("ignoring invalid lockout policy", "path", w.path, "error", err)
		return
	}

	w.logger.Info("lockout policy reloaded",
		"threshold", policy.Lockout.Threshold,
		"window", policy.Lockout.Window,
		"auto_unlock", policy.Lockout.AutoUnlock,
	)
}
