package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/studysync/internal/logger"
)

// directoryProvider is implemented by strategies backed by a real directory.
// Backends without one (fallback blobs, S3) simply don't get a watcher.
type directoryProvider interface {
	Dir() string
}

// debounce is how long the watcher waits after the last write event before
// re-hydrating, so editors that write in bursts trigger one upload.
// Variable so tests can shorten it.
var debounce = 2 * time.Second

// Watch observes the connected directory for changes to tracked files and
// re-hydrates the server when they settle. It blocks until the context is
// cancelled.
//
// The watcher never prompts: hydration runs only while the manager is
// online. Returns an error when the strategy has no directory or the
// watcher cannot start.
func (m *Manager) Watch(ctx context.Context) error {
	provider, ok := m.strategy.(directoryProvider)
	if !ok || provider.Dir() == "" {
		return fmt.Errorf("storage strategy %q has no watchable directory", m.strategy.Name())
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := provider.Dir()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logger.Info("Watching %s for local changes", dir)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !m.files.Contains(filepath.Base(event.Name)) {
				continue
			}

			logger.Debug("Local change detected: %s", event.Name)
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if m.State() != StateOnline {
				continue
			}
			if err := m.HydrateServer(ctx); err != nil {
				logger.Warn("Re-hydration after local change failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}
