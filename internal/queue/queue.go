// Package queue turns a watched directory of job descriptors into a stream
// of exclusively-claimed work. Claiming is a filesystem primitive (exclusive
// marker creation), so multiple workers can share one jobs directory without
// any coordination service.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval bounds how stale the directory view may get when file
// notifications are unavailable or lost.
const DefaultPollInterval = 2 * time.Second

// Marker is a held claim on one job.
type Marker struct {
	path string
}

// Path returns the marker file location.
func (m *Marker) Path() string { return m.path }

// Claim atomically claims jobID by creating <jobID>.processing in stateDir.
// Returns ok=false when another worker holds or held the claim, or when a
// released status marker shows the job was already consumed.
func Claim(stateDir, jobID string) (*Marker, bool, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, false, fmt.Errorf("create state dir: %w", err)
	}
	spent, err := filepath.Glob(filepath.Join(stateDir, jobID+".*"))
	if err == nil && len(spent) > 0 {
		return nil, false, nil
	}
	path := filepath.Join(stateDir, jobID+".processing")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("create claim marker: %w", err)
	}
	_, werr := f.WriteString(time.Now().UTC().Format(time.RFC3339))
	cerr := f.Close()
	if werr != nil || cerr != nil {
		return nil, false, fmt.Errorf("write claim marker: %w", errors.Join(werr, cerr))
	}
	return &Marker{path: path}, true, nil
}

// Release renames the claim marker to <jobID>.<status>, recording the
// outcome durably. Best effort: a failed rename leaves the .processing
// marker, which an operator can see and clean up.
func (m *Marker) Release(status string) error {
	target := strings.TrimSuffix(m.path, ".processing") + "." + strings.ToLower(status)
	if err := os.Rename(m.path, target); err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}

// Processor handles one claimed job descriptor and returns its final status.
type Processor func(ctx context.Context, descriptorPath string) string

// Queue scans a jobs directory and dispatches claimed jobs to a Processor.
type Queue struct {
	jobsDir  string
	stateDir string
	poll     time.Duration
	logger   *slog.Logger
	process  Processor
}

// New creates a queue over jobsDir. State markers live in a sibling "state"
// directory unless stateDir is set explicitly.
func New(jobsDir, stateDir string, poll time.Duration, process Processor, logger *slog.Logger) *Queue {
	if stateDir == "" {
		stateDir = filepath.Join(filepath.Dir(jobsDir), "state")
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		jobsDir:  jobsDir,
		stateDir: stateDir,
		poll:     poll,
		logger:   logger,
		process:  process,
	}
}

// Run scans until the context ends. With once set it returns after the first
// scan that is allowed to complete, reporting whether any job was processed.
func (q *Queue) Run(ctx context.Context, once bool) (bool, error) {
	watcher, werr := fsnotify.NewWatcher()
	var wake <-chan fsnotify.Event
	if werr != nil {
		q.logger.Warn("file notifications unavailable, polling only", "error", werr)
	} else {
		defer watcher.Close()
		if err := watcher.Add(q.jobsDir); err != nil {
			q.logger.Warn("cannot watch jobs dir, polling only", "dir", q.jobsDir, "error", err)
		} else {
			wake = watcher.Events
		}
	}

	processedAny := false
	for {
		n := q.scan(ctx)
		processedAny = processedAny || n > 0

		if once {
			return processedAny, nil
		}

		select {
		case <-ctx.Done():
			return processedAny, ctx.Err()
		case ev := <-wake:
			// Only arrivals matter; rename/chmod noise falls through to the
			// next poll anyway.
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
		case <-time.After(q.poll):
		}
	}
}

// scan claims and processes every unclaimed descriptor, in name order.
func (q *Queue) scan(ctx context.Context) int {
	paths, err := filepath.Glob(filepath.Join(q.jobsDir, "*.json"))
	if err != nil {
		q.logger.Error("jobs dir scan failed", "error", err)
		return 0
	}
	sort.Strings(paths)

	processed := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			return processed
		}
		jobID, err := peekJobID(path)
		if err != nil {
			q.logger.Warn("skipping unreadable job descriptor", "path", path, "error", err)
			continue
		}

		marker, ok, err := Claim(q.stateDir, jobID)
		if err != nil {
			q.logger.Error("claim failed", "job_id", jobID, "error", err)
			continue
		}
		if !ok {
			continue
		}

		q.logger.Info("claimed job", "job_id", jobID, "path", path)
		status := q.process(ctx, path)
		if status == "" {
			status = "FAILED"
		}
		if err := marker.Release(status); err != nil {
			q.logger.Error("release failed", "job_id", jobID, "error", err)
		}
		processed++
	}
	return processed
}

// peekJobID reads just the job id from a descriptor, defaulting to the file
// name stem.
func peekJobID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var head struct {
		JobID string `json:"jobId"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", err
	}
	if head.JobID != "" {
		return head.JobID, nil
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), nil
}
