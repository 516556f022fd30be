// Package sync implements the manager that drives the storage connection
// lifecycle and the bidirectional file synchronization against a remote
// study session.
//
// The manager owns exactly one storage strategy per run. It moves through
// four states:
//
//	uninitialized → disconnected → permission_needed → online
//
// Prompting operations (directory pickers, permission requests) run only
// inside the gesture entry points AuthorizeStorage, ConnectStorage and
// PullFromServerAndSave. Startup, timers and watchers never prompt: they
// probe with CheckPermission(requestIfMissing=false) and skip silently when
// no grant exists.
package sync

// State is the manager's position in the connection lifecycle.
type State int

const (
	// StateUninitialized means Init has not run yet.
	StateUninitialized State = iota

	// StateDisconnected means no persisted handle could be restored; the
	// user must connect storage explicitly.
	StateDisconnected

	// StatePermissionNeeded means a handle exists but write permission has
	// not been granted this session.
	StatePermissionNeeded

	// StateOnline means the strategy is connected and permitted; sync
	// operations may run.
	StateOnline
)

// String returns the state name used in logs and metrics labels.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateDisconnected:
		return "disconnected"
	case StatePermissionNeeded:
		return "permission_needed"
	case StateOnline:
		return "online"
	default:
		return "unknown"
	}
}
