// Package fallback implements a storage strategy that keeps study files as
// blobs inside the key-value store instead of a user-chosen directory.
//
// It is the universal backend: it requires no directory picker and no
// permission grants, so Supported always reports true and CheckPermission
// always succeeds. Environments without a usable filesystem location (or
// where the user never picked one) fall back to this strategy so that
// synchronization keeps working.
package fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/studysync/internal/logger"
	"github.com/marmos91/studysync/pkg/keystore"
	"github.com/marmos91/studysync/pkg/storage"
	"github.com/marmos91/studysync/pkg/study"
)

// Strategy stores file content under keystore.FileBlobKey entries and marks
// the store active for the study via keystore.StoreActiveKey.
type Strategy struct {
	store   keystore.Store
	studyID study.ID
}

// New creates a fallback strategy over the given key-value store.
func New(store keystore.Store, studyID study.ID) *Strategy {
	return &Strategy{store: store, studyID: studyID}
}

// Name returns the strategy identifier used in configuration and logs.
func (s *Strategy) Name() string {
	return "fallback"
}

// Supported always reports true; the key-value store is always available.
func (s *Strategy) Supported() bool {
	return true
}

// Connect marks the key-value store active for this study. It never prompts
// and never fails for permission reasons.
func (s *Strategy) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.Set(ctx, keystore.StoreActiveKey(s.studyID.String()), []byte("true")); err != nil {
		return fmt.Errorf("failed to mark store active: %w", err)
	}

	logger.Debug("Fallback storage active for study %s", s.studyID)
	return nil
}

// Reconnect reports whether a previous session already activated the store
// for this study. Absence of the marker is not an error.
func (s *Strategy) Reconnect(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	value, err := s.store.Get(ctx, keystore.StoreActiveKey(s.studyID.String()))
	if errors.Is(err, keystore.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read store marker: %w", err)
	}

	return string(value) == "true", nil
}

// CheckPermission always reports granted: blob writes need no user consent.
func (s *Strategy) CheckPermission(ctx context.Context, requestIfMissing bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Write stores the file content as a blob keyed by study and filename.
func (s *Strategy) Write(ctx context.Context, filename string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := keystore.FileBlobKey(s.studyID.String(), filename)
	if err := s.store.Set(ctx, key, content); err != nil {
		return fmt.Errorf("failed to store blob for %s: %w", filename, err)
	}

	return nil
}

// Collect gathers the requested files that exist as blobs. Missing entries
// are skipped silently; an empty payload is a valid result.
func (s *Strategy) Collect(ctx context.Context, filenames []string) (*storage.UploadPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload := &storage.UploadPayload{}
	for _, name := range filenames {
		content, err := s.store.Get(ctx, keystore.FileBlobKey(s.studyID.String(), name))
		if errors.Is(err, keystore.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read blob for %s: %w", name, err)
		}

		payload.Files = append(payload.Files, storage.FilePayload{
			Name:    name,
			Content: content,
		})
	}

	return payload, nil
}
