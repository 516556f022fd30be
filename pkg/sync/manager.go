package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/studysync/internal/logger"
	"github.com/marmos91/studysync/pkg/metrics"
	"github.com/marmos91/studysync/pkg/storage"
	"github.com/marmos91/studysync/pkg/study"
)

// SessionClient is the remote endpoint surface the manager consumes.
// pkg/remote provides the production implementation; tests substitute fakes.
type SessionClient interface {
	// SyncUp uploads local files as a single multipart payload.
	SyncUp(ctx context.Context, studyID study.ID, payload *storage.UploadPayload) error

	// SyncDown fetches one file. found is false when the server has no copy.
	SyncDown(ctx context.Context, studyID study.ID, filename string) (content []byte, found bool, err error)

	// CloseSession is the best-effort shutdown notification.
	CloseSession(ctx context.Context, studyID study.ID) error
}

// Config contains the collaborators and settings for a Manager.
type Config struct {
	// StudyID namespaces all storage and all server calls.
	StudyID study.ID

	// BaseFilename is the raw data file the tracked set derives from,
	// e.g. "data.csv".
	BaseFilename string

	// Strategy is the storage backend selected for this run.
	Strategy storage.Strategy

	// Client talks to the session server.
	Client SessionClient

	// Notifier receives status and toast feedback. Nil means no feedback.
	Notifier Notifier

	// Metrics records sync observations. Nil means no-op.
	Metrics metrics.SyncMetrics

	// AwaitingData marks that the frontend currently shows a waiting
	// placeholder and should reload once the first non-empty upload lands.
	AwaitingData bool
}

// Manager drives the storage connect/permission lifecycle and synchronizes
// the tracked file set against the remote session.
//
// Operations do not exclude each other: a periodic tick and a user-triggered
// sync may overlap, and concurrent writes to the same filename are
// last-write-wins. Only the state fields are mutex-protected.
type Manager struct {
	studyID  study.ID
	files    study.FileSet
	strategy storage.Strategy
	client   SessionClient
	notifier Notifier
	metrics  metrics.SyncMetrics

	mu           sync.Mutex
	state        State
	hydrated     bool
	awaitingData bool
}

// New creates a manager from the given configuration. The manager starts
// uninitialized; call Init to enter the lifecycle.
func New(cfg Config) (*Manager, error) {
	if cfg.StudyID == "" {
		return nil, fmt.Errorf("study ID is required")
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("storage strategy is required")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("session client is required")
	}

	files, err := study.DeriveFileSet(cfg.BaseFilename)
	if err != nil {
		return nil, fmt.Errorf("invalid base filename: %w", err)
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNoopSyncMetrics()
	}

	return &Manager{
		studyID:      cfg.StudyID,
		files:        files,
		strategy:     cfg.Strategy,
		client:       cfg.Client,
		notifier:     notifier,
		metrics:      m,
		state:        StateUninitialized,
		awaitingData: cfg.AwaitingData,
	}, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Files returns the tracked filename set.
func (m *Manager) Files() study.FileSet {
	return m.files
}

// setState records a transition and pushes the derived badge to the notifier.
func (m *Manager) setState(state State) {
	m.mu.Lock()
	changed := m.state != state
	m.state = state
	m.mu.Unlock()

	if changed {
		logger.Debug("Sync manager state: %s", state)
		m.metrics.SetSyncState(state.String())
		m.notifier.StatusChanged(state, BadgeFor(state))
	}
}

// Init restores the previous session without prompting.
//
// It reconnects the strategy, probes permission with requestIfMissing=false,
// and settles in disconnected, permission_needed or online. Entering online
// triggers the one-time hydration upload of the tracked set.
func (m *Manager) Init(ctx context.Context) error {
	ok, err := m.strategy.Reconnect(ctx)
	if err != nil {
		return fmt.Errorf("reconnect failed: %w", err)
	}
	if !ok {
		m.setState(StateDisconnected)
		return nil
	}

	granted, err := m.strategy.CheckPermission(ctx, false)
	if err != nil {
		return fmt.Errorf("permission probe failed: %w", err)
	}
	if !granted {
		m.setState(StatePermissionNeeded)
		return nil
	}

	m.setState(StateOnline)

	m.mu.Lock()
	hydrate := !m.hydrated
	m.hydrated = true
	m.mu.Unlock()

	if hydrate {
		if err := m.HydrateServer(ctx); err != nil {
			// Hydration failure does not demote the connection
			logger.Warn("Initial hydration failed: %v", err)
			m.notifier.Toast(fmt.Sprintf("Upload to session failed: %v", err), true)
		}
	}

	return nil
}

// AuthorizeStorage escalates write permission. It must be invoked from a
// direct user gesture; the strategy is allowed to prompt here.
//
// On grant the lifecycle re-runs Init and the frontend is asked to reload.
// On denial the manager stays in permission_needed and reports the denial.
func (m *Manager) AuthorizeStorage(ctx context.Context) error {
	granted, err := m.strategy.CheckPermission(ctx, true)
	if err != nil {
		if storage.IsCancelled(err) {
			return nil
		}
		return fmt.Errorf("permission request failed: %w", err)
	}

	m.metrics.RecordPermissionPrompt(granted)

	if !granted {
		m.notifier.Toast("Write access was declined", true)
		m.setState(StatePermissionNeeded)
		return nil
	}

	if err := m.Init(ctx); err != nil {
		return err
	}
	m.notifier.RequestReload()
	return nil
}

// ConnectStorage runs the strategy's connect prompt. It must be invoked from
// a direct user gesture. A user cancel is silent and leaves the state as-is.
func (m *Manager) ConnectStorage(ctx context.Context) error {
	if err := m.strategy.Connect(ctx); err != nil {
		if storage.IsCancelled(err) {
			logger.Debug("Storage connect cancelled by user")
			return nil
		}
		return fmt.Errorf("connect failed: %w", err)
	}

	if err := m.Init(ctx); err != nil {
		return err
	}
	m.notifier.RequestReload()
	return nil
}

// PullFromServerAndSave fetches one file and writes it to local storage.
//
// This path is always reached via a user click, so permission escalation is
// allowed. A server 404 means nothing to sync and is not an error. Unless
// silent, a save toast confirms a successful write.
func (m *Manager) PullFromServerAndSave(ctx context.Context, filename string, silent bool) error {
	written, err := m.pull(ctx, filename, true)
	if err != nil {
		m.notifier.Toast(fmt.Sprintf("Sync of %s failed: %v", filename, err), true)
		return err
	}
	if written && !silent {
		m.notifier.Toast(fmt.Sprintf("Saved %s", filename), false)
	}
	return nil
}

// pull is the shared download path. allowPrompt gates permission escalation:
// gesture paths pass true, timer and watcher paths pass false and skip
// silently when no grant exists.
func (m *Manager) pull(ctx context.Context, filename string, allowPrompt bool) (bool, error) {
	start := time.Now()

	if _, err := m.strategy.Reconnect(ctx); err != nil {
		return false, fmt.Errorf("reconnect failed: %w", err)
	}

	granted, err := m.strategy.CheckPermission(ctx, allowPrompt)
	if err != nil {
		if storage.IsCancelled(err) {
			return false, nil
		}
		return false, fmt.Errorf("permission check failed: %w", err)
	}
	if !granted {
		if !allowPrompt {
			logger.Debug("Skipping pull of %s: no permission grant", filename)
			return false, nil
		}
		return false, storage.NewPermissionDenied("write access is required to save files", filename)
	}

	content, found, err := m.client.SyncDown(ctx, m.studyID, filename)
	m.metrics.RecordPull(filename, time.Since(start), found, err)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if err := m.strategy.Write(ctx, filename, content); err != nil {
		return false, fmt.Errorf("local write of %s failed: %w", filename, err)
	}

	m.metrics.RecordFilesWritten(m.strategy.Name(), 1)
	return true, nil
}

// SyncProjectState pulls every tracked file sequentially and reports an
// aggregate toast. A failure abandons that file only; the remaining files
// still sync. Returns the number of files actually written.
func (m *Manager) SyncProjectState(ctx context.Context) (int, error) {
	var synced int
	var firstErr error

	for _, name := range m.files.Names() {
		written, err := m.pull(ctx, name, true)
		if err != nil {
			logger.Warn("Sync of %s failed: %v", name, err)
			m.notifier.Toast(fmt.Sprintf("Sync of %s failed: %v", name, err), true)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if written {
			synced++
		}
	}

	m.notifier.Toast(fmt.Sprintf("Synced %d file(s)", synced), false)
	return synced, firstErr
}

// HydrateServer collects the available local files and uploads them as one
// multipart payload so the session has working copies.
//
// When the frontend was showing a waiting placeholder, a successful
// non-empty upload triggers a reload request.
func (m *Manager) HydrateServer(ctx context.Context) error {
	payload, err := m.strategy.Collect(ctx, m.files.Names())
	if err != nil {
		return fmt.Errorf("failed to collect local files: %w", err)
	}

	start := time.Now()
	err = m.client.SyncUp(ctx, m.studyID, payload)
	m.metrics.RecordUpload(payload.Count(), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("hydration upload failed: %w", err)
	}

	logger.Info("Hydrated session %s with %d file(s)", m.studyID, payload.Count())

	if payload.Count() > 0 {
		m.mu.Lock()
		reload := m.awaitingData
		m.awaitingData = false
		m.mu.Unlock()
		if reload {
			m.notifier.RequestReload()
		}
	}

	return nil
}

// Run executes the periodic sync loop until the context is cancelled.
//
// Each tick pulls the base data file without prompting: if no permission
// grant exists the tick is skipped silently. interval <= 0 disables the
// loop and Run returns immediately.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		logger.Debug("Periodic sync disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Periodic sync every %s", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.State() != StateOnline {
				continue
			}
			if _, err := m.pull(ctx, m.files.Base, false); err != nil {
				logger.Warn("Periodic sync failed: %v", err)
			}
		}
	}
}

// Close sends the best-effort session close notification.
func (m *Manager) Close(ctx context.Context) {
	if err := m.client.CloseSession(ctx, m.studyID); err != nil {
		logger.Warn("Session close notification failed: %v", err)
	}
}
