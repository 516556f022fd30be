package sync

// Badge is the declarative status rendering for a manager state. It replaces
// imperative status mutation: the view is derived from state wholesale, so a
// state change can never leave stale text or stale actions behind.
type Badge struct {
	// Text is the short status label, e.g. "Saving to local folder".
	Text string

	// Icon is a single-rune indicator for compact displays.
	Icon string

	// Action names the gesture that advances the state, empty when none
	// applies. Frontends map it to a click handler or command.
	Action string
}

// BadgeFor derives the badge for a state.
func BadgeFor(state State) Badge {
	switch state {
	case StateDisconnected:
		return Badge{Text: "Not connected", Icon: "○", Action: "connect"}
	case StatePermissionNeeded:
		return Badge{Text: "Permission needed", Icon: "◐", Action: "authorize"}
	case StateOnline:
		return Badge{Text: "Saving locally", Icon: "●"}
	default:
		return Badge{Text: "Initializing", Icon: "…"}
	}
}

// Notifier receives user-facing feedback from the manager. Implementations
// render toasts and badges however the frontend likes; the manager never
// touches a display directly.
type Notifier interface {
	// StatusChanged reports a state transition with its derived badge.
	StatusChanged(state State, badge Badge)

	// Toast shows a transient message. isError selects the error styling.
	Toast(message string, isError bool)

	// RequestReload asks the frontend to refresh its view, e.g. after the
	// first successful hydration replaced a waiting placeholder.
	RequestReload()
}

// NopNotifier discards all feedback. Used when no frontend is attached.
type NopNotifier struct{}

func (NopNotifier) StatusChanged(State, Badge) {}
func (NopNotifier) Toast(string, bool)         {}
func (NopNotifier) RequestReload()             {}
