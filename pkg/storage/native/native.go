// Package native implements the directory-backed storage strategy.
//
// The user picks a directory once; the strategy persists an opaque handle to
// it in the keystore and reconnects to the same directory on later runs
// without prompting. Write permission is session-scoped: reconnecting proves
// where the files live, not that the process may still write there, so every
// session re-derives the permission state and escalates only through a
// user-gesture prompt.
package native

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/studysync/internal/logger"
	"github.com/marmos91/studysync/pkg/keystore"
	"github.com/marmos91/studysync/pkg/storage"
	"github.com/marmos91/studysync/pkg/study"
)

// DirectoryHandle is the persisted capability referencing a chosen directory.
//
// The handle is owned by the keystore; the strategy holds a non-owning
// in-memory reference for the session. It is overwritten by a new connect and
// never deleted.
type DirectoryHandle struct {
	// ID is a random identifier minted at connect time. It lets two handles
	// for the same path be told apart across reconnects.
	ID string `json:"id"`

	// Path is the absolute directory path the user chose.
	Path string `json:"path"`

	// ChosenAt records when the user made the choice.
	ChosenAt time.Time `json:"chosen_at"`
}

// Strategy is the native directory storage strategy.
type Strategy struct {
	store   keystore.Store
	studyID study.ID
	dirs    storage.DirectoryPrompter
	perms   storage.PermissionPrompter

	mu      sync.Mutex
	handle  *DirectoryHandle
	granted bool
}

// New creates a native strategy for one study.
//
// dirs supplies the directory-picker prompt; perms supplies the write-access
// prompt. Either may be nil: a nil dirs makes the backend unsupported, a nil
// perms means permission can never be escalated (checks still work, requests
// are declined).
func New(store keystore.Store, studyID study.ID, dirs storage.DirectoryPrompter, perms storage.PermissionPrompter) *Strategy {
	return &Strategy{
		store:   store,
		studyID: studyID,
		dirs:    dirs,
		perms:   perms,
	}
}

// Name implements storage.Strategy.
func (s *Strategy) Name() string {
	return "native"
}

// Supported reports whether directory storage can work here: a prompter must
// be available to choose directories with. No side effects.
func (s *Strategy) Supported() bool {
	return s.dirs != nil
}

// Connect prompts the user for a directory and persists the resulting
// handle, overwriting any previous one for this study. Choosing a directory
// is itself the permission grant for the session.
func (s *Strategy) Connect(ctx context.Context) error {
	if s.dirs == nil {
		return storage.NewUnavailable("directory storage is not supported here", "")
	}

	dir, err := s.dirs.ChooseDirectory(ctx)
	if err != nil {
		// Cancel propagates as-is so callers can stay silent
		return err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return storage.NewUnavailable("chosen directory does not exist", abs)
	}
	if !info.IsDir() {
		return storage.NewUnavailable("chosen path is not a directory", abs)
	}

	handle := &DirectoryHandle{
		ID:       uuid.NewString(),
		Path:     abs,
		ChosenAt: time.Now(),
	}

	encoded, err := json.Marshal(handle)
	if err != nil {
		return fmt.Errorf("failed to encode directory handle: %w", err)
	}
	if err := s.store.Set(ctx, keystore.DirectoryHandleKey(s.studyID.String()), encoded); err != nil {
		return fmt.Errorf("failed to persist directory handle: %w", err)
	}

	s.mu.Lock()
	s.handle = handle
	s.granted = true
	s.mu.Unlock()

	logger.Info("Connected study %s to directory %s", s.studyID, abs)
	return nil
}

// Reconnect loads the persisted handle without prompting. Returns false when
// no handle has ever been saved for this study.
func (s *Strategy) Reconnect(ctx context.Context) (bool, error) {
	encoded, err := s.store.Get(ctx, keystore.DirectoryHandleKey(s.studyID.String()))
	if errors.Is(err, keystore.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load directory handle: %w", err)
	}

	var handle DirectoryHandle
	if err := json.Unmarshal(encoded, &handle); err != nil {
		return false, fmt.Errorf("failed to decode directory handle: %w", err)
	}

	s.mu.Lock()
	s.handle = &handle
	s.mu.Unlock()

	logger.Debug("Reconnected study %s to directory %s", s.studyID, handle.Path)
	return true, nil
}

// CheckPermission derives the session permission state.
//
// Tri-state: an in-memory grant is "granted"; a directory the process cannot
// write to is "denied"; otherwise "needs-request". Only the needs-request
// state can be escalated, and only when requestIfMissing is true — the
// non-prompting form exists so startup and timer code can probe safely.
func (s *Strategy) CheckPermission(ctx context.Context, requestIfMissing bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	handle := s.handle
	granted := s.granted
	s.mu.Unlock()

	if handle == nil {
		return false, storage.NewNotConnected("no directory connected")
	}
	if granted {
		return true, nil
	}

	if !dirWritable(handle.Path) {
		// OS-level denial; a prompt cannot fix it
		return false, nil
	}

	if !requestIfMissing {
		return false, nil
	}
	if s.perms == nil {
		return false, nil
	}

	approved, err := s.perms.RequestWriteAccess(ctx, handle.Path)
	if err != nil {
		return false, fmt.Errorf("permission prompt failed: %w", err)
	}
	if !approved {
		return false, nil
	}

	s.mu.Lock()
	s.granted = true
	s.mu.Unlock()

	return true, nil
}

// Write re-verifies permission (escalating if a prompter is available), then
// creates or truncates the named file and writes content fully.
func (s *Strategy) Write(ctx context.Context, filename string, content []byte) error {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()

	if handle == nil {
		return storage.NewNotConnected("no directory connected")
	}

	ok, err := s.CheckPermission(ctx, s.perms != nil)
	if err != nil {
		return err
	}
	if !ok {
		return storage.NewPermissionDenied("write permission not granted", filename)
	}

	path, err := s.entryPath(handle, filename)
	if err != nil {
		return err
	}

	if _, err := os.Stat(handle.Path); err != nil {
		return storage.NewUnavailable("connected directory is gone", handle.Path)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return &storage.StorageError{
			Code:    storage.ErrIO,
			Message: fmt.Sprintf("failed to write file: %v", err),
			Path:    filename,
		}
	}

	logger.Debug("Wrote %d bytes to %s", len(content), path)
	return nil
}

// Collect reads each named file that exists in the connected directory.
// Missing or unreadable files are skipped; reads never escalate permission.
func (s *Strategy) Collect(ctx context.Context, filenames []string) (*storage.UploadPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()

	if handle == nil {
		return nil, storage.NewNotConnected("no directory connected")
	}

	payload := &storage.UploadPayload{}
	for _, name := range filenames {
		path, err := s.entryPath(handle, name)
		if err != nil {
			logger.Warn("Skipping invalid filename %q: %v", name, err)
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("Skipping unreadable file %s: %v", path, err)
			}
			continue
		}

		payload.Files = append(payload.Files, storage.FilePayload{
			Name:    name,
			Content: content,
		})
	}

	return payload, nil
}

// Dir returns the connected directory path, or empty when no handle is
// active. Watchers use it to observe local file changes.
func (s *Strategy) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return ""
	}
	return s.handle.Path
}

// entryPath resolves filename inside the handle's directory, rejecting names
// that would escape it.
func (s *Strategy) entryPath(handle *DirectoryHandle, filename string) (string, error) {
	if filename == "" || filepath.Base(filename) != filename {
		return "", &storage.StorageError{
			Code:    storage.ErrIO,
			Message: "invalid filename",
			Path:    filename,
		}
	}
	return filepath.Join(handle.Path, filename), nil
}
