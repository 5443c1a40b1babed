// Package teczone drives the TecZone Bend desktop application through its
// fixed open/material/export workflow using only observable window state.
// The application exposes no API and no completion signals, so every
// operation here is confirm-by-polling with layered fallbacks, and every
// dead end surfaces as a NeedsHelpError rich enough for a human to take over.
package teczone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/quickfab/geoworker/internal/dialog"
	"github.com/quickfab/geoworker/internal/uia"
)

// State tracks the per-item position in the workflow. Transitions are
// strictly ordered; primitives reject out-of-order calls.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateFileOpen
	StateMaterialSet
	StateExported
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateFileOpen:
		return "file-open"
	case StateMaterialSet:
		return "material-set"
	case StateExported:
		return "exported"
	default:
		return "disconnected"
	}
}

// ErrOutOfOrder is returned when a primitive is invoked out of sequence.
var ErrOutOfOrder = errors.New("teczone: operation out of order")

// Snapper captures audit screenshots at workflow checkpoints. Implementations
// must never fail the workflow.
type Snapper interface {
	Snap(name string) string
}

type noopSnapper struct{}

func (noopSnapper) Snap(string) string { return "" }

// Options are per-session overrides that take priority over the workflow
// config (CLI flags or job settings).
type Options struct {
	ExePath      string // explicit launch path
	TitlePattern string // explicit main-window title pattern
}

// maxCandidateTitles caps the window list carried in diagnostics.
const maxCandidateTitles = 30

// Session is the live connection to one target application instance.
type Session struct {
	desktop  uia.Desktop
	launcher Launcher
	cfg      Workflow
	opts     Options
	logger   *slog.Logger
	shots    Snapper

	// resolvePath is swappable for tests.
	resolvePath func(explicit string) (string, error)

	pid   int
	main  uia.Element
	state State
}

// NewSession creates a disconnected session.
func NewSession(desktop uia.Desktop, launcher Launcher, cfg Workflow, opts Options, logger *slog.Logger, shots Snapper) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if shots == nil {
		shots = noopSnapper{}
	}
	return &Session{
		desktop:     desktop,
		launcher:    launcher,
		cfg:         cfg,
		opts:        opts,
		logger:      logger,
		shots:       shots,
		resolvePath: ResolveLaunchPath,
	}
}

// State returns the current workflow state.
func (s *Session) State() State { return s.state }

// ProcessID returns the connected application's pid, or zero.
func (s *Session) ProcessID() int { return s.pid }

// ThicknessMm returns the detected sheet thickness. Current TecZone builds
// expose no readable thickness indicator, so this is always nil; kept as a
// method so the result schema does not change when a future build gains one.
func (s *Session) ThicknessMm() *float64 { return nil }

// WindowTitles lists the titles of all visible top-level windows. Used for
// needs-help artifacts.
func (s *Session) WindowTitles() []string {
	return uia.WindowTitles(s.desktop)
}

// ActiveWindowTitle returns the foreground window's title, or empty.
func (s *Session) ActiveWindowTitle() string {
	return uia.ActiveWindowTitle(s.desktop)
}

// classifier returns a dialog classifier bound to the session's process.
func (s *Session) classifier() dialog.Classifier {
	return dialog.Classifier{ProcessID: s.pid}
}

// titlePatterns compiles the prioritized main-window patterns: explicit
// override first, then the configured pattern, then the generic fallbacks.
// Invalid patterns are logged and skipped, never fatal.
func (s *Session) titlePatterns() []*regexp.Regexp {
	raw := []string{}
	if s.opts.TitlePattern != "" {
		raw = append(raw, s.opts.TitlePattern)
	}
	if s.cfg.MainTitlePattern != "" {
		raw = append(raw, s.cfg.MainTitlePattern)
	}
	raw = append(raw, `.*TecZone.*Bend.*`, `.*Flux.*`, `.*TecZone.*`)

	var out []*regexp.Regexp
	seen := map[string]bool{}
	for _, p := range raw {
		if seen[p] {
			continue
		}
		seen[p] = true
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			s.logger.Warn("ignoring invalid title pattern", "pattern", p, "error", err)
			continue
		}
		out = append(out, re)
	}
	return out
}

// Connect acquires the target application: finds it running or launches it,
// then waits for the main window. This is the only transition out of
// Disconnected.
func (s *Session) Connect(ctx context.Context) error {
	if s.state != StateDisconnected {
		return fmt.Errorf("%w: connect from %s", ErrOutOfOrder, s.state)
	}

	pid, running := s.launcher.FindRunning()
	if running {
		s.pid = pid
		s.logger.Info("target application already running", "pid", pid)
	} else {
		path, err := s.resolvePath(s.opts.ExePath)
		if err != nil {
			return &NeedsHelpError{
				Step:   "CONNECT",
				Reason: fmt.Sprintf("%s not running and no launch path resolved: %v", processImage, err),
				Hint:   `provide --teczone-exe "C:\Path\Flux.exe" or set ` + envLaunchPath,
			}
		}
		s.logger.Info("launching target application", "path", path)
		pid, err = s.launcher.Start(path)
		if err != nil {
			return &NeedsHelpError{
				Step:   "CONNECT",
				Reason: fmt.Sprintf("launch at %s failed: %v", path, err),
			}
		}
		s.pid = pid
	}

	win, err := s.waitForMainWindow(ctx)
	if err != nil {
		return err
	}
	s.main = win
	s.pid = win.ProcessID()
	s.state = StateConnected
	title, _ := win.Title()
	s.logger.Info("connected", "window", title, "pid", s.pid)
	return nil
}

func (s *Session) waitForMainWindow(ctx context.Context) (uia.Element, error) {
	patterns := s.titlePatterns()

	var found uia.Element
	err := s.poll(ctx, s.cfg.Timeouts.Connect, func() (bool, error) {
		for _, re := range patterns {
			if win, ok := s.findWindow(uia.Criteria{TitlePattern: re, ProcessID: s.pid}); ok {
				found = win
				return true, nil
			}
		}
		return false, nil
	})
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, errTimeout) {
		return nil, err
	}

	var searched []string
	for _, re := range patterns {
		searched = append(searched, "title~"+re.String())
	}
	return nil, &NeedsHelpError{
		Step:     "CONNECT",
		Reason:   fmt.Sprintf("main window not found within %s", s.cfg.Timeouts.Connect),
		Searched: searched,
		Windows:  s.candidateTitles(),
	}
}

// findWindow scans top-level windows for the first match.
func (s *Session) findWindow(c uia.Criteria) (uia.Element, bool) {
	wins, err := s.desktop.Windows()
	if err != nil {
		return nil, false
	}
	for _, w := range wins {
		if c.Matches(w) {
			return w, true
		}
	}
	return nil, false
}

// candidateTitles lists visible windows for diagnostics, capped.
func (s *Session) candidateTitles() []string {
	titles := uia.WindowTitles(s.desktop)
	if len(titles) > maxCandidateTitles {
		titles = titles[:maxCandidateTitles]
	}
	return titles
}

// CloseActiveDocument sends the close shortcut between work items. Best
// effort by design: it neither confirms nor fails, because a stuck close
// surfaces on the next OpenFile anyway.
func (s *Session) CloseActiveDocument(ctx context.Context) {
	if s.state == StateDisconnected || s.main == nil {
		return
	}
	if err := s.main.Focus(); err != nil {
		s.logger.Warn("close: focus failed", "error", err)
	}
	if err := s.main.TypeKeys(s.cfg.CloseHotkey); err != nil {
		s.logger.Warn("close shortcut failed", "error", err)
	}
	s.state = StateConnected
}

// errTimeout distinguishes deadline expiry from other poll failures.
var errTimeout = errors.New("teczone: timed out")

// poll runs fn at the configured interval until it reports done, the
// wall-clock deadline passes (errTimeout), or the context is canceled.
func (s *Session) poll(ctx context.Context, timeout time.Duration, fn func() (bool, error)) error {
	interval := s.cfg.Timeouts.Poll
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	for {
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return errTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// settle pauses briefly for UI catch-up, honoring cancellation.
func (s *Session) settle(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// findChooser scans top-level windows for a file chooser of the given kind.
func (s *Session) findChooser(kind dialog.ChooserKind) (uia.Element, bool) {
	wins, err := s.desktop.Windows()
	if err != nil {
		return nil, false
	}
	for _, w := range wins {
		if dialog.IsFileChooser(w, kind) {
			return w, true
		}
	}
	return nil, false
}

// checkUnexpected returns a NeedsHelpError when an unexpected dialog is on
// screen.
func (s *Session) checkUnexpected(step string) error {
	if text, found := s.classifier().FindUnexpected(s.desktop); found {
		s.shots.Snap("needs_help")
		return &NeedsHelpError{
			Step:    step,
			Reason:  "unexpected dialog: " + text,
			Windows: s.candidateTitles(),
		}
	}
	return nil
}
