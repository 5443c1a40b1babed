// internal/config/validate.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/quickfab/geoworker/internal/pause"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Jobs directory is the one thing the worker cannot run without
	if c.Worker.JobsDir == "" {
		errs = append(errs, "worker.jobs_dir: required")
	}

	if !validLogLevels[c.Worker.LogLevel] {
		errs = append(errs, fmt.Sprintf("worker.log_level: must be one of debug, info, warn, error; got %q", c.Worker.LogLevel))
	}

	if c.Worker.PollInterval != "" {
		if d, err := time.ParseDuration(c.Worker.PollInterval); err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("worker.poll_interval: must be a positive duration like \"2s\", got %q", c.Worker.PollInterval))
		}
	}

	if c.UI.HotkeyPause != "" && !c.UI.DisableHotkeys {
		if _, err := pause.ParseChord(c.UI.HotkeyPause); err != nil {
			errs = append(errs, fmt.Sprintf("ui.hotkey_pause: %v", err))
		}
	}

	if c.UI.NoOverlay && len(c.UI.OverlayCommand) > 0 {
		errs = append(errs, "ui.overlay_command: set together with no_overlay; remove one")
	}

	// Path warnings (non-fatal at runtime, surfaced here so a typo is
	// caught before the first job claims)
	if c.TecZone.ExePath != "" {
		if _, err := os.Stat(c.TecZone.ExePath); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("teczone.exe_path: warning: file %q does not exist", c.TecZone.ExePath))
		}
	}
	if c.TecZone.WorkflowConfig != "" {
		if _, err := os.Stat(c.TecZone.WorkflowConfig); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("teczone.workflow_config: warning: file %q does not exist", c.TecZone.WorkflowConfig))
		}
	}

	return errs
}
