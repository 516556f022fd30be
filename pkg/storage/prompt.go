package storage

import "context"

// The prompter interfaces are the user-gesture boundary. Only code running
// inside a direct user action (a typed command, a pressed key) may invoke
// them; startup paths and timers must stay on the non-prompting variants of
// the strategy API. Implementations live next to the UI that owns the user's
// attention.

// DirectoryPrompter asks the user to choose a directory for the native
// strategy. A dismissed prompt returns a StorageError with ErrCancelled.
type DirectoryPrompter interface {
	ChooseDirectory(ctx context.Context) (string, error)
}

// PermissionPrompter asks the user to approve write access to a previously
// chosen directory. A decline is (false, nil); errors are reserved for
// prompt-infrastructure failures.
type PermissionPrompter interface {
	RequestWriteAccess(ctx context.Context, dir string) (bool, error)
}

// StaticDirectoryPrompter resolves every prompt to a fixed directory. It
// backs non-interactive runs where the directory is pinned in configuration,
// and most strategy tests.
type StaticDirectoryPrompter struct {
	Dir string
}

// ChooseDirectory returns the configured directory, or a cancel when none is
// configured.
func (p StaticDirectoryPrompter) ChooseDirectory(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Dir == "" {
		return "", NewCancelled("no directory configured")
	}
	return p.Dir, nil
}

// AutoApprovePermission grants every permission request. Non-interactive
// runs pair it with StaticDirectoryPrompter: pinning a directory in
// configuration is the standing approval.
type AutoApprovePermission struct{}

// RequestWriteAccess always approves.
func (AutoApprovePermission) RequestWriteAccess(ctx context.Context, dir string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}
