package teczone

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Timeouts are the per-phase wall-clock deadlines. UI response time is
// unpredictable, so every wait is bounded by these, never by retry counts.
type Timeouts struct {
	Connect        time.Duration `toml:"connect"`
	OpenDialog     time.Duration `toml:"open_dialog"`
	OpenComplete   time.Duration `toml:"open_complete"`
	MaterialDialog time.Duration `toml:"material_dialog"`
	EnterBend      time.Duration `toml:"enter_bend"`
	ExportMenu     time.Duration `toml:"export_menu"`
	SaveDialog     time.Duration `toml:"save_dialog"`
	ExportComplete time.Duration `toml:"export_complete"`
	Poll           time.Duration `toml:"poll"`
}

// Workflow configures the automation sequence for one session. Loaded once,
// immutable afterward.
type Workflow struct {
	EnterBendHotkey       string   `toml:"enter_bend_hotkey"`
	UseEnterBend          bool     `toml:"use_enter_bend"`
	CloseHotkey           string   `toml:"close_hotkey"`
	MaterialRequired      bool     `toml:"material_required"`
	MaterialMenuTitles    []string `toml:"material_menu_titles"`
	MaterialDialogPattern string   `toml:"material_dialog_pattern"`
	MenuExportPath        []string `toml:"menu_export_path"`
	ExportAccelerator     string   `toml:"export_accelerator"`
	MainTitlePattern      string   `toml:"main_title_pattern"`
	Timeouts              Timeouts `toml:"timeouts"`
}

// DefaultWorkflow returns the built-in configuration for current TecZone Bend
// builds.
func DefaultWorkflow() Workflow {
	return Workflow{
		EnterBendHotkey:       "b",
		UseEnterBend:          true,
		CloseHotkey:           "ctrl+f4",
		MaterialRequired:      true,
		MaterialMenuTitles:    []string{"Material", "Material..."},
		MaterialDialogPattern: `(?i).*material.*`,
		MenuExportPath:        []string{"File", "Export", "2D Geometry"},
		ExportAccelerator:     "alt+f",
		Timeouts: Timeouts{
			Connect:        60 * time.Second,
			OpenDialog:     5 * time.Second,
			OpenComplete:   90 * time.Second,
			MaterialDialog: 15 * time.Second,
			EnterBend:      120 * time.Second,
			ExportMenu:     10 * time.Second,
			SaveDialog:     20 * time.Second,
			ExportComplete: 30 * time.Second,
			Poll:           250 * time.Millisecond,
		},
	}
}

// LoadWorkflow merges an optional TOML override file over the defaults. A
// missing or unreadable file falls back to defaults with a warning; a broken
// workflow config must not take the worker down.
func LoadWorkflow(path string, logger *slog.Logger) Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := DefaultWorkflow()
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("workflow config not readable, using defaults", "path", path, "error", err)
		return DefaultWorkflow()
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		logger.Warn("workflow config invalid, using defaults", "path", path, "error", err)
		return DefaultWorkflow()
	}
	logger.Info("loaded workflow config", "path", path)
	return cfg
}

// ApplyTimeoutOverride replaces one named phase timeout. Unknown phases are
// rejected so a typo in a job descriptor surfaces instead of silently doing
// nothing.
func (w *Workflow) ApplyTimeoutOverride(phase string, d time.Duration) error {
	switch phase {
	case "connect":
		w.Timeouts.Connect = d
	case "open_dialog":
		w.Timeouts.OpenDialog = d
	case "open_complete":
		w.Timeouts.OpenComplete = d
	case "material_dialog":
		w.Timeouts.MaterialDialog = d
	case "enter_bend":
		w.Timeouts.EnterBend = d
	case "export_menu":
		w.Timeouts.ExportMenu = d
	case "save_dialog":
		w.Timeouts.SaveDialog = d
	case "export_complete":
		w.Timeouts.ExportComplete = d
	default:
		return fmt.Errorf("unknown timeout phase %q", phase)
	}
	return nil
}
