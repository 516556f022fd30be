package main

import (
	"fmt"
	"io"

	syncpkg "github.com/marmos91/studysync/pkg/sync"
)

// terminalNotifier renders manager feedback on the terminal: the badge on
// state changes, toasts as one-liners, reload requests as a hint to re-check
// status.
type terminalNotifier struct {
	out io.Writer
}

func (n *terminalNotifier) StatusChanged(state syncpkg.State, badge syncpkg.Badge) {
	fmt.Fprintf(n.out, "%s %s\n", badge.Icon, badge.Text)
	if badge.Action != "" {
		fmt.Fprintf(n.out, "  (type %q to continue)\n", badge.Action)
	}
}

func (n *terminalNotifier) Toast(message string, isError bool) {
	if isError {
		fmt.Fprintf(n.out, "! %s\n", message)
		return
	}
	fmt.Fprintf(n.out, "✓ %s\n", message)
}

func (n *terminalNotifier) RequestReload() {
	fmt.Fprintln(n.out, "Study data changed, refresh your analysis view")
}
