package job

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Status is a job or part outcome.
type Status string

const (
	StatusDone      Status = "DONE"
	StatusPartial   Status = "PARTIAL"
	StatusFailed    Status = "FAILED"
	StatusNeedsHelp Status = "NEEDS_HELP"
)

// PartResult is the per-work-item outcome. Finalized once, never mutated
// afterward.
type PartResult struct {
	PartID              int      `json:"partId"`
	InputPath           string   `json:"inputPath"`
	MaterialFromCatalog string   `json:"materialFromXometry"`
	MaterialApplied     string   `json:"materialUsedInTecZone"`
	ThicknessMmDetected *float64 `json:"thicknessMmDetected"`
	GeoPath             *string  `json:"geoPath"`
	Status              Status   `json:"status"`
	Notes               string   `json:"notes"`
}

// Result aggregates all part results for one job attempt.
type Result struct {
	JobID          string       `json:"jobId"`
	Status         Status       `json:"status"`
	Parts          []PartResult `json:"parts"`
	ScreenshotsDir string       `json:"screenshotsDir"`
	LogPath        string       `json:"logPath"`
}

// Aggregate derives the overall status from part outcomes.
//
// NEEDS_HELP dominates everything: once a human is required the job is not
// autonomous anymore, whatever else succeeded. Otherwise all-done is DONE, a
// mixture is PARTIAL, and no successes at all is FAILED. An empty part list
// (zero work items) is DONE.
func Aggregate(parts []PartResult) Status {
	var done, failed, needsHelp int
	for _, p := range parts {
		switch p.Status {
		case StatusDone:
			done++
		case StatusNeedsHelp:
			needsHelp++
		default:
			failed++
		}
	}
	switch {
	case needsHelp > 0:
		return StatusNeedsHelp
	case failed == 0:
		return StatusDone
	case done > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// Write persists the result to its per-job path and mirrors it to the fixed
// latest-result path in the same directory.
func (r *Result) Write(logDir string) (string, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	path := filepath.Join(logDir, r.JobID+".result.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(logDir, "result.json"), data, 0o644); err != nil {
		return "", fmt.Errorf("write latest result: %w", err)
	}
	return path, nil
}
