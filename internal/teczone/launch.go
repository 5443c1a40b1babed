package teczone

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// processImage is the target application's executable name. TecZone Bend
// ships as Flux.exe.
const processImage = "Flux.exe"

// envLaunchPath overrides launch-path discovery.
const envLaunchPath = "TECZONE_EXE"

// Launcher finds or starts the target application process.
type Launcher interface {
	// FindRunning returns the pid of a running target process, if any.
	FindRunning() (int, bool)
	// Start launches the executable at path and returns its pid.
	Start(path string) (int, error)
}

// NewLauncher returns the OS process launcher.
func NewLauncher() Launcher {
	return execLauncher{}
}

type execLauncher struct{}

func (execLauncher) FindRunning() (int, bool) {
	return findProcessPID(processImage)
}

func (execLauncher) Start(path string) (int, error) {
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting %s: %w", path, err)
	}
	// The process outlives the worker; we only need the pid.
	go func() { _ = cmd.Wait() }()
	return cmd.Process.Pid, nil
}

// ResolveLaunchPath finds the target executable, trying in priority order:
// explicit override, environment override, registry App Paths entry,
// filesystem probe under the known installation roots.
func ResolveLaunchPath(explicit string) (string, error) {
	candidates := []struct {
		source string
		path   string
	}{
		{"explicit override", explicit},
		{"env " + envLaunchPath, os.Getenv(envLaunchPath)},
		{"registry App Paths", registryLaunchPath()},
		{"installation root probe", programFilesLaunchPath()},
	}

	var tried []string
	for _, c := range candidates {
		if c.path == "" {
			tried = append(tried, c.source+"=<unset>")
			continue
		}
		if _, err := os.Stat(c.path); err == nil {
			return c.path, nil
		}
		tried = append(tried, c.source+"="+c.path)
	}
	return "", fmt.Errorf("%s not found; tried %s", processImage, strings.Join(tried, ", "))
}

// programFilesLaunchPath probes the usual installation directories, first the
// known direct locations, then a keyword-filtered walk.
func programFilesLaunchPath() string {
	bases := installationRoots()

	for _, base := range bases {
		for _, rel := range [][]string{
			{"TecZone Bend", processImage},
			{"TecZone", processImage},
			{"Flux", processImage},
			{"TRUMPF", "Flux", "Bin", processImage},
		} {
			p := filepath.Join(append([]string{base}, rel...)...)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}

	for _, base := range bases {
		if found := walkForExecutable(base); found != "" {
			return found
		}
	}
	return ""
}

func installationRoots() []string {
	var roots []string
	for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
		if v := os.Getenv(env); v != "" {
			roots = append(roots, v)
		}
	}
	return roots
}

func walkForExecutable(base string) string {
	var found string
	_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fs.SkipDir
		}
		if found != "" {
			return fs.SkipAll
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(d.Name(), processImage) {
			return nil
		}
		dir := strings.ToLower(filepath.Dir(path))
		for _, kw := range []string{"teczone", "flux", "trumpf"} {
			if strings.Contains(dir, kw) {
				found = path
				return fs.SkipAll
			}
		}
		return nil
	})
	return found
}
