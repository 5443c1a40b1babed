// Package overlay shows the worker's current activity to an operator
// watching the automation PC. The on-screen banner is a separate helper
// process fed JSON commands over stdin, so a wedged UI toolkit can never
// wedge the job loop.
package overlay

import (
	"fmt"
	"log/slog"
)

// Sink receives status text updates.
type Sink interface {
	SetText(text string)
	Stop()
}

// FormatText renders the banner line for one workflow position.
func FormatText(jobID string, index, total int, step, partName, hotkeyHint string, paused bool) string {
	pausedTxt := ""
	if paused {
		pausedTxt = "[paused] "
	}
	return fmt.Sprintf("WORKER: %s %s[%d/%d] %s %s | hint: %s",
		jobID, pausedTxt, index, total, step, partName, hotkeyHint)
}

// LogSink mirrors overlay updates into the log. Used when no overlay helper
// is configured or the helper failed to start.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) SetText(text string) {
	if s.Logger != nil {
		s.Logger.Debug("overlay", "text", text)
	}
}

func (s LogSink) Stop() {}
