package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/quickfab/geoworker/internal/config"
	"github.com/quickfab/geoworker/internal/events"
	"github.com/quickfab/geoworker/internal/history"
	"github.com/quickfab/geoworker/internal/job"
	"github.com/quickfab/geoworker/internal/runner"
	"github.com/quickfab/geoworker/internal/teczone"
	"github.com/quickfab/geoworker/internal/uia"
)

// Worker flags shared by serve and job. Empty/zero means "use the config
// file value".
var (
	flagJobsDir        string
	flagStateDir       string
	flagPoll           time.Duration
	flagDBPath         string
	flagHotkeyPause    string
	flagDisableHotkeys bool
	flagDisableSounds  bool
	flagNoOverlay      bool
	flagTecZoneExe     string
	flagTecZoneTitle   string
	flagWorkflowConfig string
)

func registerWorkerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagJobsDir, "jobs-dir", "", "Directory watched for job descriptors")
	cmd.Flags().StringVar(&flagStateDir, "state-dir", "", "Claim/outcome marker directory (default: sibling of jobs-dir)")
	cmd.Flags().DurationVar(&flagPoll, "poll", 0, "Queue scan interval (default 2s)")
	cmd.Flags().StringVar(&flagDBPath, "db", "", "History database path")
	cmd.Flags().StringVar(&flagHotkeyPause, "hotkey-pause", "", "Global pause hotkey (default ctrl+alt+p)")
	cmd.Flags().BoolVar(&flagDisableHotkeys, "disable-hotkeys", false, "Disable the pause hotkey")
	cmd.Flags().BoolVar(&flagDisableSounds, "disable-sounds", false, "Disable audible job notifications")
	cmd.Flags().BoolVar(&flagNoOverlay, "no-overlay", false, "Disable the status overlay")
	cmd.Flags().StringVar(&flagTecZoneExe, "teczone-exe", "", "Explicit path to the TecZone Bend executable")
	cmd.Flags().StringVar(&flagTecZoneTitle, "teczone-title", "", "Main-window title pattern override")
	cmd.Flags().StringVar(&flagWorkflowConfig, "workflow-config", "", "Workflow tuning file (menu paths, timeouts)")
}

// worker is the fully wired processing stack.
type worker struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *history.Store
	bus    *events.Bus
	runner *runner.Runner
}

func (w *worker) close() {
	w.bus.Close()
	if err := w.store.Close(); err != nil {
		w.logger.Warn("history store close failed", "error", err)
	}
}

// buildWorker merges config file and flags and wires the stack together.
func buildWorker() (*worker, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cfg)

	if flagJobsDir != "" {
		cfg.Worker.JobsDir = flagJobsDir
	}
	if flagStateDir != "" {
		cfg.Worker.StateDir = flagStateDir
	}
	if flagPoll > 0 {
		cfg.Worker.PollInterval = flagPoll.String()
	}
	if flagDBPath != "" {
		cfg.History.Path = flagDBPath
	}
	if cfg.History.Path == "" {
		cfg.History.Path = "./data/geoworker.db"
	}
	if flagTecZoneExe != "" {
		cfg.TecZone.ExePath = flagTecZoneExe
	}
	if flagTecZoneTitle != "" {
		cfg.TecZone.MainTitlePattern = flagTecZoneTitle
	}
	if flagWorkflowConfig != "" {
		cfg.TecZone.WorkflowConfig = flagWorkflowConfig
	}
	if flagHotkeyPause != "" {
		cfg.UI.HotkeyPause = flagHotkeyPause
	}
	cfg.UI.DisableHotkeys = cfg.UI.DisableHotkeys || flagDisableHotkeys
	cfg.UI.DisableSounds = cfg.UI.DisableSounds || flagDisableSounds
	cfg.UI.NoOverlay = cfg.UI.NoOverlay || flagNoOverlay

	if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	bus := events.NewBus(store, logger)

	opts := runner.Options{
		HotkeyPause:       cfg.UI.HotkeyPause,
		DisableHotkeys:    cfg.UI.DisableHotkeys,
		DisableSounds:     cfg.UI.DisableSounds,
		NoOverlay:         cfg.UI.NoOverlay,
		OverlayCommand:    cfg.UI.OverlayCommand,
		ScreenshotCommand: cfg.UI.ScreenshotCommand,
		WorkflowConfig:    cfg.TecZone.WorkflowConfig,
	}
	factory := nativeFactory(cfg.TecZone.ExePath, cfg.TecZone.MainTitlePattern)
	r := runner.New(factory, opts, bus, store, logger)

	return &worker{cfg: cfg, logger: logger, store: store, bus: bus, runner: r}, nil
}

// nativeFactory builds per-job sessions against the live desktop.
func nativeFactory(exePath, titlePattern string) runner.WorkflowFactory {
	return func(j *job.Job, cfg teczone.Workflow, shots teczone.Snapper, logger *slog.Logger) (runner.Workflow, error) {
		desktop, err := uia.NativeDesktop()
		if err != nil {
			return nil, fmt.Errorf("desktop automation unavailable: %w", err)
		}
		opts := teczone.Options{ExePath: exePath, TitlePattern: titlePattern}
		return teczone.NewSession(desktop, teczone.NewLauncher(), cfg, opts, logger, shots), nil
	}
}
