//go:build !windows

package sound

import (
	"errors"
	"time"
)

func beep(int, time.Duration) error {
	return errors.New("beep not supported on this platform")
}
