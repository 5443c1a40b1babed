//go:build windows

package sound

import (
	"time"

	"golang.org/x/sys/windows"
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	procBeep = kernel32.NewProc("Beep")
)

func beep(freqHz int, d time.Duration) error {
	r, _, err := procBeep.Call(uintptr(freqHz), uintptr(d.Milliseconds()))
	if r == 0 {
		return err
	}
	return nil
}
