// Package pause lets an operator freeze the worker between workflow steps.
// Pausing never interrupts a step in flight; the job loop polls IsPaused at
// step boundaries, which keeps the target application in a known state.
package pause

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// ErrUnsupported is returned by Listen on platforms without global hotkeys.
var ErrUnsupported = errors.New("pause: global hotkeys not supported on this platform")

// Controller holds the paused flag.
type Controller struct {
	mu       sync.Mutex
	paused   bool
	logger   *slog.Logger
	onToggle func(paused bool)
}

// NewController creates an unpaused controller.
func NewController(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{logger: logger}
}

// IsPaused reports the current state.
func (c *Controller) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// OnToggle registers a callback invoked after every toggle with the new
// state. The callback runs outside the lock.
func (c *Controller) OnToggle(fn func(paused bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onToggle = fn
}

// Toggle flips the state and returns the new value.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	c.paused = !c.paused
	paused := c.paused
	fn := c.onToggle
	if paused {
		c.logger.Info("PAUSED by hotkey")
	} else {
		c.logger.Info("RESUMED by hotkey")
	}
	c.mu.Unlock()

	if fn != nil {
		fn(paused)
	}
	return paused
}

// Chord is a parsed hotkey combination.
type Chord struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Win   bool
	Key   rune // lowercased, single character
}

// ParseChord parses specs like "ctrl+alt+p". Exactly one non-modifier key is
// required.
func ParseChord(spec string) (Chord, error) {
	var c Chord
	haveKey := false
	for _, tok := range strings.Split(spec, "+") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		switch tok {
		case "ctrl", "control":
			c.Ctrl = true
		case "alt":
			c.Alt = true
		case "shift":
			c.Shift = true
		case "win", "windows", "cmd":
			c.Win = true
		default:
			runes := []rune(tok)
			if len(runes) != 1 {
				return Chord{}, fmt.Errorf("hotkey %q: key %q is not a single character", spec, tok)
			}
			if haveKey {
				return Chord{}, fmt.Errorf("hotkey %q: more than one non-modifier key", spec)
			}
			c.Key = runes[0]
			haveKey = true
		}
	}
	if !haveKey {
		return Chord{}, fmt.Errorf("hotkey %q: no non-modifier key", spec)
	}
	return c, nil
}
