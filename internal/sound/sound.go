// Package sound plays short beep patterns so an operator near the machine
// hears job boundaries without watching the screen.
package sound

import (
	"log/slog"
	"time"
)

// Tone is one beep.
type Tone struct {
	FreqHz   int
	Duration time.Duration
}

// Pattern is a beep sequence.
type Pattern []Tone

// Patterns are distinct per outcome so the ending is recognizable by ear.
var (
	jobStart   = Pattern{{880, 110 * time.Millisecond}, {1175, 130 * time.Millisecond}}
	endDone    = Pattern{{1318, 120 * time.Millisecond}, {1760, 140 * time.Millisecond}}
	endPartial = Pattern{{988, 120 * time.Millisecond}, {784, 160 * time.Millisecond}}
	endTrouble = Pattern{{740, 150 * time.Millisecond}, {587, 180 * time.Millisecond}}
)

// Player emits job boundary signals. Implementations must never fail the job.
type Player interface {
	JobStarted()
	JobFinished(status string)
}

// NewPlayer returns the platform beeper, or a silent player when disabled.
func NewPlayer(disabled bool, logger *slog.Logger) Player {
	if logger == nil {
		logger = slog.Default()
	}
	if disabled {
		return Noop{}
	}
	return &beepPlayer{logger: logger}
}

// Noop is a silent Player.
type Noop struct{}

func (Noop) JobStarted() {}

func (Noop) JobFinished(string) {}

type beepPlayer struct {
	logger *slog.Logger
}

func (p *beepPlayer) JobStarted() {
	p.play(jobStart)
}

func (p *beepPlayer) JobFinished(status string) {
	switch status {
	case "DONE":
		p.play(endDone)
	case "PARTIAL":
		p.play(endPartial)
	default:
		p.play(endTrouble)
	}
}

func (p *beepPlayer) play(pattern Pattern) {
	for _, t := range pattern {
		if err := beep(t.FreqHz, t.Duration); err != nil {
			p.logger.Debug("sound playback skipped", "error", err)
			return
		}
	}
}
