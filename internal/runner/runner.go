// Package runner orchestrates one claimed job end to end: drive each work
// item through the open/material/export workflow, aggregate outcomes, emit
// progress, and leave result and diagnostic artifacts behind. The runner
// never talks to windows itself; everything UI-facing goes through the
// Workflow interface.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quickfab/geoworker/internal/catalog"
	"github.com/quickfab/geoworker/internal/events"
	"github.com/quickfab/geoworker/internal/job"
	"github.com/quickfab/geoworker/internal/overlay"
	"github.com/quickfab/geoworker/internal/pause"
	"github.com/quickfab/geoworker/internal/screenshot"
	"github.com/quickfab/geoworker/internal/sound"
	"github.com/quickfab/geoworker/internal/teczone"
)

// Workflow drives the target application for one job attempt.
type Workflow interface {
	Connect(ctx context.Context) error
	OpenFile(ctx context.Context, path string) error
	SetMaterial(ctx context.Context, material string) (applied, note string, err error)
	ExportGeometry(ctx context.Context, outputPath string) error
	CloseActiveDocument(ctx context.Context)
	ThicknessMm() *float64
	WindowTitles() []string
	ActiveWindowTitle() string
}

// WorkflowFactory builds the workflow driver for one job attempt.
type WorkflowFactory func(j *job.Job, cfg teczone.Workflow, shots teczone.Snapper, logger *slog.Logger) (Workflow, error)

// Recorder persists attempt history. Satisfied by history.Store.
type Recorder interface {
	StartAttempt(jobID string, items int) (string, error)
	FinishAttempt(attemptID string, res job.Result) error
}

// Options are worker-level settings; per-job descriptor settings override
// the overridable ones.
type Options struct {
	HotkeyPause       string // default ctrl+alt+p
	DisableHotkeys    bool
	DisableSounds     bool
	NoOverlay         bool
	OverlayCommand    []string
	ScreenshotCommand []string
	WorkflowConfig    string // default workflow tuning file; job settings win
}

const defaultPauseHotkey = "ctrl+alt+p"

// pausePollInterval is how often a paused worker rechecks the flag.
const pausePollInterval = 250 * time.Millisecond

// Runner processes jobs.
type Runner struct {
	opts    Options
	factory WorkflowFactory
	bus     *events.Bus // optional
	store   Recorder    // optional
	logger  *slog.Logger

	// Seams for tests.
	pausePoll    time.Duration
	listenHotkey func(ctx context.Context, spec string, ctrl *pause.Controller) error
	startOverlay func(argv []string, initial string, logger *slog.Logger) (overlay.Sink, error)
}

// New creates a Runner.
func New(factory WorkflowFactory, opts Options, bus *events.Bus, store Recorder, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HotkeyPause == "" {
		opts.HotkeyPause = defaultPauseHotkey
	}
	return &Runner{
		opts:      opts,
		factory:   factory,
		bus:       bus,
		store:     store,
		logger:    logger,
		pausePoll: pausePollInterval,
		listenHotkey: func(ctx context.Context, spec string, ctrl *pause.Controller) error {
			return pause.Listen(ctx, spec, ctrl)
		},
		startOverlay: func(argv []string, initial string, logger *slog.Logger) (overlay.Sink, error) {
			return overlay.StartPipe(argv, initial, logger)
		},
	}
}

// ProcessJob loads and runs the descriptor at path, returning the final job
// status string. Fits the queue's Processor signature.
func (r *Runner) ProcessJob(ctx context.Context, descriptorPath string) string {
	j, err := job.Load(descriptorPath)
	if err != nil {
		r.logger.Error("unusable job descriptor", "path", descriptorPath, "error", err)
		return string(job.StatusFailed)
	}
	return string(r.Run(ctx, j))
}

// Run processes one job and returns its final status.
func (r *Runner) Run(ctx context.Context, j *job.Job) job.Status {
	logDir := j.LogDir()
	logger, logPath, closeLog := r.jobLogger(j)
	defer closeLog()

	snd := sound.NewPlayer(r.opts.DisableSounds || j.Settings.DisableSounds, logger)
	snd.JobStarted()

	res := job.Result{
		JobID:          j.ID,
		Status:         job.StatusDone,
		Parts:          []job.PartResult{},
		ScreenshotsDir: j.ScreenshotsDir(),
		LogPath:        logPath,
	}

	shots := screenshot.New(j.ScreenshotsDir(), r.opts.ScreenshotCommand, logger)
	if err := os.MkdirAll(j.ExportDir(), 0o755); err != nil {
		logger.Warn("export dir not creatable", "dir", j.ExportDir(), "error", err)
	}

	total := len(j.InputFiles)
	hotkeysEnabled := !r.opts.DisableHotkeys && !j.Settings.DisableHotkeys
	hotkey := j.Settings.HotkeyPause
	if hotkey == "" {
		hotkey = r.opts.HotkeyPause
	}
	hint := hotkey
	if !hotkeysEnabled {
		hint = "hotkeys disabled"
	}

	ov := r.overlaySink(j.ID, total, hint, logger)
	defer ov.Stop()
	setOverlay := func(index int, step, partName string, paused bool) {
		ov.SetText(overlay.FormatText(j.ID, index, total, step, partName, hint, paused))
	}

	ctrl := pause.NewController(logger)
	ctrl.OnToggle(func(paused bool) {
		r.publish(ctx, events.PauseToggled{
			BaseEvent: events.NewBaseEvent(events.TypePauseToggled, j.ID),
			Paused:    paused,
		})
	})
	auxCtx, cancelAux := context.WithCancel(ctx)
	var aux errgroup.Group
	defer func() {
		cancelAux()
		_ = aux.Wait()
	}()
	if hotkeysEnabled {
		aux.Go(func() error {
			err := r.listenHotkey(auxCtx, hotkey, ctrl)
			if err != nil && err != context.Canceled {
				logger.Warn("pause hotkey unavailable", "hotkey", hotkey, "error", err)
			}
			return nil
		})
	}
	if every := j.Settings.ScreenshotsEverySeconds; every > 0 {
		aux.Go(func() error {
			shots.Periodic(auxCtx, time.Duration(every)*time.Second)
			return nil
		})
	}

	attemptID := r.startAttempt(j, total)
	r.publish(ctx, events.JobStarted{BaseEvent: events.NewBaseEvent(events.TypeJobStarted, j.ID), Items: total})

	finish := func(status job.Status) job.Status {
		res.Status = status
		if _, err := res.Write(logDir); err != nil {
			logger.Error("result not written", "error", err)
		}
		snd.JobFinished(string(status))
		r.publish(ctx, events.JobFinished{BaseEvent: events.NewBaseEvent(events.TypeJobFinished, j.ID), Status: string(status)})
		r.finishAttempt(attemptID, res)
		logger.Info("job finished", "status", status)
		return status
	}

	cat, catErr := r.loadCatalog(j, logger)

	cfg := r.workflowConfig(j, logger)
	wf, err := r.factory(j, cfg, shots, logger)
	if err != nil {
		logger.Error("workflow driver unavailable", "error", err)
		return finish(job.StatusFailed)
	}

	setOverlay(0, "CONNECT_TECZONE", "-", false)
	if err := wf.Connect(ctx); err != nil {
		if nh, ok := teczone.AsNeedsHelp(err); ok {
			shots.Snap("needs_help")
			r.writeNeedsHelp(j, wf, "CONNECT_TECZONE", nh, logger)
			r.publish(ctx, events.HelpNeeded{
				BaseEvent: events.NewBaseEvent(events.TypeHelpNeeded, j.ID),
				Step:      nh.Step, Reason: nh.Reason,
			})
			return finish(job.StatusNeedsHelp)
		}
		logger.Error("connect failed", "error", err)
		return finish(job.StatusFailed)
	}

	if j.Settings.DryRun {
		// A dry run proves connectivity and catalog health, nothing else.
		if catErr != nil {
			logger.Error("dry run: catalog unusable", "error", catErr)
			r.writeNeedsHelp(j, wf, "DRY_RUN",
				&teczone.NeedsHelpError{Step: "DRY_RUN", Reason: fmt.Sprintf("failed to parse material catalog: %v", catErr)},
				logger)
			return finish(job.StatusNeedsHelp)
		}
		setOverlay(0, "DRY_RUN", "-", false)
		shots.Snap("dryrun_connected")
		logger.Info("dry run completed: connected and material catalog parsed")
		return finish(job.StatusDone)
	}

	pauseShotTaken := false
	waitIfPaused := func(index int, step, partName string) {
		for ctrl.IsPaused() {
			setOverlay(index, step, partName, true)
			if !pauseShotTaken {
				shots.Snap("paused")
				pauseShotTaken = true
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.pausePoll):
			}
		}
		pauseShotTaken = false
	}

	for i, item := range j.InputFiles {
		index := i + 1
		partName := item.Name()
		material := cat.Material(item.PartID)

		pr := job.PartResult{
			PartID:              item.PartID,
			InputPath:           item.Path,
			MaterialFromCatalog: material,
			Status:              job.StatusDone,
		}
		r.publish(ctx, events.ItemStarted{
			BaseEvent: events.NewBaseEvent(events.TypeItemStarted, j.ID),
			PartName:  partName, InputPath: item.Path, Index: index, Total: total,
		})

		step := "OPEN_FILE"
		itemErr := func() error {
			waitIfPaused(index, step, partName)
			setOverlay(index, step, partName, false)
			r.publishStep(ctx, j.ID, partName, step)
			shots.Snap("open_file_start")
			if err := wf.OpenFile(ctx, item.Path); err != nil {
				return err
			}
			shots.Snap("open_file_done")

			step = "SET_MATERIAL"
			waitIfPaused(index, step, partName)
			setOverlay(index, step, partName, false)
			r.publishStep(ctx, j.ID, partName, step)
			shots.Snap("material_start")
			applied, note, err := wf.SetMaterial(ctx, material)
			if err != nil {
				return err
			}
			pr.MaterialApplied = applied
			pr.Notes += note
			shots.Snap("material_done")

			step = "EXPORT_GEO"
			waitIfPaused(index, step, partName)
			setOverlay(index, step, partName, false)
			r.publishStep(ctx, j.ID, partName, step)
			shots.Snap("export_start")
			exportPath := filepath.Join(j.ExportDir(), j.ExportName(item))
			if err := wf.ExportGeometry(ctx, exportPath); err != nil {
				return err
			}
			pr.GeoPath = &exportPath
			shots.Snap("export_done")
			pr.ThicknessMmDetected = wf.ThicknessMm()
			return nil
		}()

		wf.CloseActiveDocument(ctx)

		if itemErr != nil {
			if nh, ok := teczone.AsNeedsHelp(itemErr); ok {
				// A human is required: stop the whole job, leave the scene
				// untouched for inspection.
				pr.Status = job.StatusNeedsHelp
				pr.Notes += nh.Error()
				shots.Snap("needs_help")
				r.writeNeedsHelp(j, wf, step+" "+partName, nh, logger)
				r.publish(ctx, events.HelpNeeded{
					BaseEvent: events.NewBaseEvent(events.TypeHelpNeeded, j.ID),
					PartName:  partName, Step: nh.Step, Reason: nh.Reason,
				})
				r.publishItemFinished(ctx, j.ID, partName, pr)
				res.Parts = append(res.Parts, pr)
				break
			}
			// Anything else fails only this item; the next one still runs.
			pr.Status = job.StatusFailed
			pr.Notes += "Exception: " + itemErr.Error()
			logger.Error("work item failed", "part_id", item.PartID, "error", itemErr)
			shots.Snap("failed")
		}

		r.publishItemFinished(ctx, j.ID, partName, pr)
		res.Parts = append(res.Parts, pr)
	}

	return finish(job.Aggregate(res.Parts))
}

func (r *Runner) publish(ctx context.Context, e events.Event) {
	if r.bus != nil {
		_ = r.bus.Publish(ctx, e)
	}
}

func (r *Runner) publishStep(ctx context.Context, jobID, partName, step string) {
	r.publish(ctx, events.StepStarted{
		BaseEvent: events.NewBaseEvent(events.TypeStepStarted, jobID),
		PartName:  partName, Step: step,
	})
}

func (r *Runner) publishItemFinished(ctx context.Context, jobID, partName string, pr job.PartResult) {
	r.publish(ctx, events.ItemFinished{
		BaseEvent: events.NewBaseEvent(events.TypeItemFinished, jobID),
		PartName:  partName, Status: string(pr.Status), Note: pr.Notes,
	})
}

func (r *Runner) startAttempt(j *job.Job, items int) string {
	if r.store == nil {
		return ""
	}
	id, err := r.store.StartAttempt(j.ID, items)
	if err != nil {
		r.logger.Warn("history attempt not recorded", "job_id", j.ID, "error", err)
		return ""
	}
	return id
}

func (r *Runner) finishAttempt(attemptID string, res job.Result) {
	if r.store == nil || attemptID == "" {
		return
	}
	if err := r.store.FinishAttempt(attemptID, res); err != nil {
		r.logger.Warn("history attempt not finalized", "attempt_id", attemptID, "error", err)
	}
}

// jobLogger returns a per-job file logger. Falls back to the worker logger
// when the log file cannot be created.
func (r *Runner) jobLogger(j *job.Job) (*slog.Logger, string, func()) {
	logDir := j.LogDir()
	logPath := filepath.Join(logDir, j.ID+".log")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		r.logger.Warn("log dir not creatable", "dir", logDir, "error", err)
		return r.logger.With("job_id", j.ID), logPath, func() {}
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		r.logger.Warn("job log not creatable", "path", logPath, "error", err)
		return r.logger.With("job_id", j.ID), logPath, func() {}
	}
	logger := slog.New(slog.NewTextHandler(f, nil)).With("job_id", j.ID)
	return logger, logPath, func() { f.Close() }
}

func (r *Runner) overlaySink(jobID string, total int, hint string, logger *slog.Logger) overlay.Sink {
	if r.opts.NoOverlay || len(r.opts.OverlayCommand) == 0 {
		return overlay.LogSink{Logger: logger}
	}
	initial := overlay.FormatText(jobID, 0, total, "INIT", "-", hint, false)
	sink, err := r.startOverlay(r.opts.OverlayCommand, initial, logger)
	if err != nil {
		logger.Warn("overlay disabled due to startup error", "error", err)
		return overlay.LogSink{Logger: logger}
	}
	return sink
}

func (r *Runner) loadCatalog(j *job.Job, logger *slog.Logger) (catalog.Catalog, error) {
	if j.CatalogPath == "" {
		return nil, nil
	}
	cat, err := catalog.Load(j.CatalogPath)
	if err != nil {
		// Outside dry runs a broken catalog degrades to material fallbacks
		// instead of blocking the job.
		logger.Warn("material catalog unusable", "path", j.CatalogPath, "error", err)
		return nil, err
	}
	return cat, nil
}

func (r *Runner) workflowConfig(j *job.Job, logger *slog.Logger) teczone.Workflow {
	cfgPath := j.Settings.WorkflowConfig
	if cfgPath == "" {
		cfgPath = r.opts.WorkflowConfig
	}
	cfg := teczone.LoadWorkflow(cfgPath, logger)
	for phase := range j.Settings.TimeoutOverrides {
		d, ok := j.TimeoutOverride(phase)
		if !ok {
			logger.Warn("ignoring invalid timeout override", "phase", phase)
			continue
		}
		if err := cfg.ApplyTimeoutOverride(phase, d); err != nil {
			logger.Warn("ignoring unknown timeout override", "phase", phase, "error", err)
		}
	}
	return cfg
}

// writeNeedsHelp leaves the human-takeover artifact: a text file with the
// step, reason and the window scene, plus a machine-readable windows.json.
func (r *Runner) writeNeedsHelp(j *job.Job, wf Workflow, step string, nh *teczone.NeedsHelpError, logger *slog.Logger) {
	titles := wf.WindowTitles()
	if titles == nil {
		titles = []string{}
	}

	var b strings.Builder
	b.WriteString("NEEDS_HELP\n")
	fmt.Fprintf(&b, "active_window: %s\n", wf.ActiveWindowTitle())
	fmt.Fprintf(&b, "step: %s\n", step)
	fmt.Fprintf(&b, "found: %s\n", nh.Error())
	b.WriteString("window_titles:\n")
	for _, t := range titles {
		fmt.Fprintf(&b, "- %s\n", t)
	}

	logDir := j.LogDir()
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		logger.Error("needs-help artifact dir not creatable", "error", err)
		return
	}
	path := filepath.Join(logDir, j.ID+"_NEEDS_HELP.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		logger.Error("needs-help artifact not written", "path", path, "error", err)
	}

	sidecar, err := json.MarshalIndent(map[string][]string{"windows": titles}, "", "  ")
	if err == nil {
		if err := os.WriteFile(filepath.Join(logDir, "windows.json"), sidecar, 0o644); err != nil {
			logger.Error("windows.json not written", "error", err)
		}
	}
}
