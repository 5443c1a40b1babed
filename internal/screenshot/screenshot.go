// Package screenshot captures audit images at workflow checkpoints. Capture
// failures are logged and swallowed: a missing picture must never fail a job.
package screenshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// pathPlaceholder in a capture command argv is replaced with the output file.
const pathPlaceholder = "{path}"

// Capturer writes timestamped screenshots into one directory.
type Capturer struct {
	dir    string
	logger *slog.Logger

	// capture produces the image file; swappable for tests. Nil disables
	// capturing while keeping path bookkeeping intact.
	capture func(path string) error

	now func() time.Time
}

// New creates a Capturer that shells out to the configured command for each
// shot. An empty command disables capturing.
func New(dir string, command []string, logger *slog.Logger) *Capturer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Capturer{dir: dir, logger: logger, now: time.Now}
	if len(command) > 0 {
		c.capture = func(path string) error { return runCaptureCommand(command, path) }
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("screenshot dir not writable", "dir", dir, "error", err)
	}
	return c
}

// Snap captures one screenshot named <utc-timestamp>_<name>.png and returns
// its path. The path is returned even when capturing is disabled or failed,
// so callers can reference it in artifacts unconditionally.
func (c *Capturer) Snap(name string) string {
	ts := c.now().UTC().Format("20060102-150405")
	path := filepath.Join(c.dir, fmt.Sprintf("%s_%s.png", ts, name))
	if c.capture == nil {
		return path
	}
	if err := c.capture(path); err != nil {
		c.logger.Warn("screenshot failed", "name", name, "error", err)
	}
	return path
}

// Periodic snaps every interval until the context ends. Intended to run in
// its own goroutine.
func (c *Capturer) Periodic(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Snap("periodic")
		}
	}
}

func runCaptureCommand(command []string, path string) error {
	argv := captureArgv(command, path)
	return exec.Command(argv[0], argv[1:]...).Run()
}

// captureArgv substitutes the output path into the command, appending it when
// the command carries no placeholder.
func captureArgv(command []string, path string) []string {
	argv := make([]string, len(command))
	replaced := false
	for i, a := range command {
		if strings.Contains(a, pathPlaceholder) {
			a = strings.ReplaceAll(a, pathPlaceholder, path)
			replaced = true
		}
		argv[i] = a
	}
	if !replaced {
		argv = append(argv, path)
	}
	return argv
}
