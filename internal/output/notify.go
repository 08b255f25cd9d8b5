package output

import (
	"fmt"
	"io"

	"todoctl/internal/view"
)

// Notifier prints controller notifications as CLI output.
// Success and info messages go to Out (suppressed when Quiet); errors go to ErrOut.
type Notifier struct {
	Out    io.Writer
	ErrOut io.Writer
	Quiet  bool
}

var _ view.Notifier = (*Notifier)(nil)

// Notify implements view.Notifier.
func (n *Notifier) Notify(level view.Level, msg string) {
	switch level {
	case view.LevelError:
		fmt.Fprintf(n.ErrOut, "error: %s\n", msg)
	default:
		if !n.Quiet {
			fmt.Fprintln(n.Out, msg)
		}
	}
}
