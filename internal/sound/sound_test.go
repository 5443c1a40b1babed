package sound

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPlayer_DisabledIsSilent(t *testing.T) {
	p := NewPlayer(true, nil)
	assert.IsType(t, Noop{}, p)

	// Must be safe to call.
	p.JobStarted()
	p.JobFinished("DONE")
}

func TestPatternsAreDistinctPerOutcome(t *testing.T) {
	outcomes := map[string]Pattern{
		"DONE":       endDone,
		"PARTIAL":    endPartial,
		"NEEDS_HELP": endTrouble,
	}
	seen := map[int]string{}
	for status, pattern := range outcomes {
		assert.NotEmpty(t, pattern, status)
		first := pattern[0].FreqHz
		if prev, dup := seen[first]; dup {
			t.Fatalf("patterns for %s and %s share leading tone %d", prev, status, first)
		}
		seen[first] = status
	}
}

func TestBeepPlayerSurvivesPlatformErrors(t *testing.T) {
	// On platforms without a beeper the first tone fails and the rest of the
	// pattern is skipped; the call itself must never error or panic.
	p := NewPlayer(false, nil)
	p.JobStarted()
	p.JobFinished("FAILED")
}
