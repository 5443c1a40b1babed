//go:build windows

package pause

import (
	"context"
	"fmt"
	"runtime"
	"unicode"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procRegisterHotKey    = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey  = user32.NewProc("UnregisterHotKey")
	procGetMessageW       = user32.NewProc("GetMessageW")
	procPostThreadMessage = user32.NewProc("PostThreadMessageW")
)

const (
	modAlt     = 0x0001
	modControl = 0x0002
	modShift   = 0x0004
	modWin     = 0x0008

	wmHotkey = 0x0312
	wmQuit   = 0x0012

	hotkeyID = 1
)

type msg struct {
	hwnd    uintptr
	message uint32
	wparam  uintptr
	lparam  uintptr
	time    uint32
	ptX     int32
	ptY     int32
}

// Listen registers the chord as a global hotkey and toggles ctrl on each
// press until the context ends. Blocks; run it in its own goroutine.
func Listen(ctx context.Context, spec string, ctrl *Controller) error {
	chord, err := ParseChord(spec)
	if err != nil {
		return err
	}

	// RegisterHotKey binds to the calling thread's message queue.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var mods uintptr
	if chord.Ctrl {
		mods |= modControl
	}
	if chord.Alt {
		mods |= modAlt
	}
	if chord.Shift {
		mods |= modShift
	}
	if chord.Win {
		mods |= modWin
	}
	vk := uintptr(unicode.ToUpper(chord.Key))

	r, _, callErr := procRegisterHotKey.Call(0, hotkeyID, mods, vk)
	if r == 0 {
		return fmt.Errorf("register hotkey %q: %w", spec, callErr)
	}
	defer procUnregisterHotKey.Call(0, hotkeyID)

	tid := windows.GetCurrentThreadId()
	go func() {
		<-ctx.Done()
		procPostThreadMessage.Call(uintptr(tid), wmQuit, 0, 0)
	}()

	var m msg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			return ctx.Err()
		}
		if m.message == wmHotkey {
			ctrl.Toggle()
		}
	}
}
