package teczone

import (
	"errors"
	"fmt"
	"strings"
)

// NeedsHelpError is the designed "a human must intervene" signal. It is not a
// bug report: it means automation reached a point where continuing blind
// could corrupt application state. It always carries enough structure for an
// operator to see what was searched and what the screen actually showed.
type NeedsHelpError struct {
	Step     string
	Reason   string
	Searched []string // criteria or menu paths that were tried
	Windows  []string // visible top-level window titles at failure time
	Hint     string   // remediation hint for setup failures
}

func (e *NeedsHelpError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Step, e.Reason)
	if len(e.Searched) > 0 {
		fmt.Fprintf(&b, "; searched=%s", strings.Join(e.Searched, ", "))
	}
	if len(e.Windows) > 0 {
		fmt.Fprintf(&b, "; windows=%s", strings.Join(e.Windows, " | "))
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, "; hint: %s", e.Hint)
	}
	return b.String()
}

// AsNeedsHelp unwraps err into a NeedsHelpError if it carries one.
func AsNeedsHelp(err error) (*NeedsHelpError, bool) {
	var nh *NeedsHelpError
	if errors.As(err, &nh) {
		return nh, true
	}
	return nil, false
}
