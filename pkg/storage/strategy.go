// Package storage defines the strategy abstraction over the places a study's
// files can live: a user-chosen local directory, the embedded key/value
// fallback store, or an S3 bucket.
//
// A session selects exactly one strategy at startup and uses it consistently;
// switching backends requires a fresh connect. The sync manager drives the
// strategy through the lifecycle below and never cares which backend is
// behind it.
package storage

import "context"

// ============================================================================
// Strategy Interface
// ============================================================================

// Strategy encapsulates how a study's files are connected, permission
// checked, read, and written.
//
// Permission Model:
//
// Permission is session-scoped and never persisted. A strategy re-derives it
// each run: the persisted handle says where files live, not that the process
// may still write there. CheckPermission with requestIfMissing=false is the
// only probe safe to call from startup code or timers; prompting variants
// must run strictly inside a user-triggered call path.
//
// Thread Safety:
// Implementations must be safe for concurrent use; the periodic runner and a
// user-triggered sync may overlap. Writes to the same filename are
// last-write-wins with no locking.
type Strategy interface {
	// Name returns the backend identifier ("native", "fallback", "s3") used
	// in logs and status badges.
	Name() string

	// Supported is the capability probe: it reports whether this backend can
	// work in the current environment. No side effects, no prompting.
	Supported() bool

	// Connect establishes a new connection to the backing storage in
	// response to an explicit user action. For the native backend this
	// prompts the user to choose a directory and persists the resulting
	// handle; a user cancel returns a StorageError with ErrCancelled and
	// must be treated as silent and retryable.
	Connect(ctx context.Context) error

	// Reconnect loads a previously persisted handle without prompting and
	// reports whether one exists. It never escalates permission.
	Reconnect(ctx context.Context) (bool, error)

	// CheckPermission reports whether the strategy may write to its storage.
	//
	// With requestIfMissing=false this never prompts: it returns true only
	// when permission is already granted for this session. With
	// requestIfMissing=true a missing permission is escalated to a prompt
	// and the outcome returned. Denial is reported as (false, nil); errors
	// are reserved for infrastructure failures.
	CheckPermission(ctx context.Context, requestIfMissing bool) (bool, error)

	// Write re-verifies (and where possible escalates) permission, then
	// creates or truncates the named entry and writes content fully before
	// returning. Without a permission grant it fails with ErrPermissionDenied,
	// never silently succeeds.
	Write(ctx context.Context, filename string, content []byte) error

	// Collect performs a best-effort read of each named file. Missing files
	// are skipped, not errors; the payload carries the successfully read
	// subset.
	Collect(ctx context.Context, filenames []string) (*UploadPayload, error)
}

// ============================================================================
// Upload Payload
// ============================================================================

// FilePayload is one file gathered for upload.
type FilePayload struct {
	Name    string
	Content []byte
}

// UploadPayload is the subset of tracked files a Collect call could read,
// ready to be shipped to the server's hydration endpoint.
type UploadPayload struct {
	Files []FilePayload
}

// Count returns how many files were gathered.
func (p *UploadPayload) Count() int {
	if p == nil {
		return 0
	}
	return len(p.Files)
}
