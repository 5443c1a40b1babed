// Package job defines the work-order data model: the descriptor consumed from
// the queue directory and the result record persisted after every attempt.
package job

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WorkItem is one input file within a job.
type WorkItem struct {
	PartID   int    `json:"partId"`
	PartName string `json:"partName"`
	Path     string `json:"path"`
}

// Name returns the display name, falling back to the part id.
func (w WorkItem) Name() string {
	if w.PartName != "" {
		return w.PartName
	}
	if w.PartID != 0 {
		return fmt.Sprintf("%d", w.PartID)
	}
	return "unknown_part"
}

// Settings carries the free-form per-job options from the descriptor.
type Settings struct {
	ExportDir                string            `json:"exportDir"`
	ExportNameTemplate       string            `json:"exportNameTemplate"`
	DryRun                   bool              `json:"dryRun"`
	HotkeyPause              string            `json:"hotkeyPause"`
	DisableHotkeys           bool              `json:"disableHotkeys"`
	DisableSounds            bool              `json:"disableSounds"`
	ScreenshotsEverySeconds  int               `json:"screenshotsEverySeconds"`
	WorkflowConfig           string            `json:"workflowConfig"`
	TimeoutOverrides         map[string]string `json:"timeouts"`
}

// Job is a deserialized work order. Immutable during processing.
type Job struct {
	ID          string     `json:"jobId"`
	ProjectRoot string     `json:"projectRoot"`
	InputFiles  []WorkItem `json:"inputFiles"`
	Settings    Settings   `json:"settings"`
	CatalogPath string     `json:"xometryJson"`
}

// Load reads and validates a job descriptor.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job descriptor: %w", err)
	}
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parsing job descriptor: %w", err)
	}
	if j.ID == "" {
		j.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if j.ProjectRoot == "" {
		return nil, fmt.Errorf("job %s: projectRoot is required", j.ID)
	}
	return &j, nil
}

// ExportName expands the export name template for one work item. The default
// template is "<partName>.geo".
func (j *Job) ExportName(item WorkItem) string {
	tpl := j.Settings.ExportNameTemplate
	if tpl == "" {
		tpl = "<partName>.geo"
	}
	return strings.ReplaceAll(tpl, "<partName>", item.Name())
}

// ExportDir returns the configured export directory or the project default.
func (j *Job) ExportDir() string {
	if j.Settings.ExportDir != "" {
		return j.Settings.ExportDir
	}
	return filepath.Join(j.ProjectRoot, "WORK", "out", "flat")
}

// LogDir returns the per-project log directory.
func (j *Job) LogDir() string {
	return filepath.Join(j.ProjectRoot, "WORK", "logs")
}

// ScreenshotsDir returns the per-job screenshot directory.
func (j *Job) ScreenshotsDir() string {
	return filepath.Join(j.ProjectRoot, "WORK", "screenshots", j.ID)
}

// TimeoutOverride returns a per-job timeout override by phase name.
func (j *Job) TimeoutOverride(phase string) (time.Duration, bool) {
	raw, ok := j.Settings.TimeoutOverrides[phase]
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
