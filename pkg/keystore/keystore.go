// Package keystore defines the local persistent key/value store that backs
// both storage strategies.
//
// The native strategy persists its directory handle here so a later session
// can reconnect without prompting; the fallback strategy stores whole file
// blobs. Both share one flat namespace, partitioned by key prefix and study
// identifier.
//
// Key Schema
// ==========
//
// Data Type          Key Format                        Value
// ----------------------------------------------------------------------
// Directory handle   dir_handle_<studyID>              handle (JSON)
// Fallback active    db_active_<studyID>               "true" / "false"
// File blob          file_<studyID>_<filename>         raw bytes
//
// Rationale:
//   - One entry per study for the handle: reconnect overwrites, never appends
//   - The active flag is stored as text so the database stays inspectable
//   - Blob keys embed the filename last so a prefix scan per study is possible
//     if a future maintenance command needs one
//
// Handles and the active flag are never deleted by the client, matching the
// overwrite-only lifecycle of the persisted capability.
package keystore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no value exists for the key.
// Callers that treat absence as a normal state (reconnect probing, blob
// collection) must check for it with errors.Is.
var ErrKeyNotFound = errors.New("keystore: key not found")

// Store is the minimal key/value contract the storage strategies need.
//
// Implementations must be safe for concurrent use. Writes are last-write-wins
// with no transactions: the client is single-user and the strategies never
// race on the same key by construction.
type Store interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Has reports whether key exists without reading its value.
	Has(ctx context.Context, key string) (bool, error)

	// Close releases the underlying resources. The store must not be used
	// after Close.
	Close() error
}

// DirectoryHandleKey returns the key holding the persisted directory handle
// for a study. Exactly one handle is active per study; connect overwrites it.
func DirectoryHandleKey(studyID string) string {
	return "dir_handle_" + studyID
}

// StoreActiveKey returns the key holding the fallback strategy's active flag.
func StoreActiveKey(studyID string) string {
	return "db_active_" + studyID
}

// FileBlobKey returns the key holding a fallback file blob.
func FileBlobKey(studyID, filename string) string {
	return "file_" + studyID + "_" + filename
}
