// internal/config/validate_test.go
package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Worker: WorkerConfig{
			JobsDir:      t.TempDir(),
			PollInterval: "2s",
			LogLevel:     "info",
		},
		UI: UIConfig{HotkeyPause: "ctrl+alt+p"},
	}
}

func TestValidate_OK(t *testing.T) {
	if errs := validConfig(t).Validate(); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidate_JobsDirRequired(t *testing.T) {
	cfg := validConfig(t)
	cfg.Worker.JobsDir = ""

	errs := cfg.Validate()
	if len(errs) != 1 || !strings.Contains(errs[0], "worker.jobs_dir") {
		t.Errorf("expected jobs_dir error, got %v", errs)
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := validConfig(t)
	cfg.Worker.LogLevel = "verbose"

	errs := cfg.Validate()
	if len(errs) != 1 || !strings.Contains(errs[0], "worker.log_level") {
		t.Errorf("expected log_level error, got %v", errs)
	}
}

func TestValidate_PollInterval(t *testing.T) {
	for _, bad := range []string{"0s", "-1s", "soon"} {
		cfg := validConfig(t)
		cfg.Worker.PollInterval = bad

		errs := cfg.Validate()
		if len(errs) != 1 || !strings.Contains(errs[0], "worker.poll_interval") {
			t.Errorf("%q: expected poll_interval error, got %v", bad, errs)
		}
	}
}

func TestValidate_Hotkey(t *testing.T) {
	cfg := validConfig(t)
	cfg.UI.HotkeyPause = "ctrl+"

	errs := cfg.Validate()
	if len(errs) != 1 || !strings.Contains(errs[0], "ui.hotkey_pause") {
		t.Errorf("expected hotkey error, got %v", errs)
	}
}

func TestValidate_HotkeyIgnoredWhenDisabled(t *testing.T) {
	cfg := validConfig(t)
	cfg.UI.HotkeyPause = "ctrl+"
	cfg.UI.DisableHotkeys = true

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors with hotkeys disabled, got %v", errs)
	}
}

func TestValidate_OverlayConflict(t *testing.T) {
	cfg := validConfig(t)
	cfg.UI.NoOverlay = true
	cfg.UI.OverlayCommand = []string{"pythonw", "overlay.pyw"}

	errs := cfg.Validate()
	if len(errs) != 1 || !strings.Contains(errs[0], "ui.overlay_command") {
		t.Errorf("expected overlay conflict error, got %v", errs)
	}
}

func TestValidate_ExePathWarning(t *testing.T) {
	cfg := validConfig(t)
	cfg.TecZone.ExePath = filepath.Join(t.TempDir(), "Flux.exe")

	errs := cfg.Validate()
	if len(errs) != 1 || !strings.Contains(errs[0], "teczone.exe_path") {
		t.Errorf("expected exe_path warning, got %v", errs)
	}
}
