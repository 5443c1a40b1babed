//go:build windows

package uia

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procEnumWindows              = user32.NewProc("EnumWindows")
	procEnumChildWindows         = user32.NewProc("EnumChildWindows")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow      = user32.NewProc("SetForegroundWindow")
	procIsWindow                 = user32.NewProc("IsWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procSendMessageW             = user32.NewProc("SendMessageW")
	procPostMessageW             = user32.NewProc("PostMessageW")
	procGetDlgCtrlID             = user32.NewProc("GetDlgCtrlID")
	procGetMenu                  = user32.NewProc("GetMenu")
	procGetSubMenu               = user32.NewProc("GetSubMenu")
	procGetMenuItemCount         = user32.NewProc("GetMenuItemCount")
	procGetMenuItemID            = user32.NewProc("GetMenuItemID")
	procGetMenuStringW           = user32.NewProc("GetMenuStringW")
	procKeybdEvent               = user32.NewProc("keybd_event")
	procVkKeyScanW               = user32.NewProc("VkKeyScanW")
)

const (
	wmSetText      = 0x000C
	wmGetText      = 0x000D
	wmGetTextLen   = 0x000E
	wmCommand      = 0x0111
	wmLButtonDown  = 0x0201
	wmLButtonUp    = 0x0202
	bmClick        = 0x00F5
	lbGetCount     = 0x018B
	lbGetTextLen   = 0x018A
	lbGetText      = 0x0189
	lbSetCurSel    = 0x0186
	mfByPosition   = 0x0400
	keyEventFKeyUp = 0x0002

	vkControl = 0x11
	vkMenu    = 0x12 // alt
	vkShift   = 0x10
	vkReturn  = 0x0D
	vkEscape  = 0x1B
)

// NativeDesktop returns the Win32 control-tree driver.
func NativeDesktop() (Desktop, error) {
	return winDesktop{}, nil
}

type winDesktop struct{}

func (winDesktop) Windows() ([]Element, error) {
	var out []Element
	cb := windows.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		visible, _, _ := procIsWindowVisible.Call(hwnd)
		if visible != 0 {
			out = append(out, &winElement{hwnd: hwnd})
		}
		return 1 // continue
	})
	procEnumWindows.Call(cb, 0)
	return out, nil
}

func (winDesktop) ActiveWindow() (Element, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return nil, nil
	}
	return &winElement{hwnd: hwnd}, nil
}

// winElement wraps an HWND. Menu items and list-box entries have no HWND of
// their own and are synthesized in Children.
type winElement struct {
	hwnd uintptr
}

func (e *winElement) Exists() bool {
	ok, _, _ := procIsWindow.Call(e.hwnd)
	return ok != 0
}

func (e *winElement) className() string {
	var buf [256]uint16
	n, _, _ := procGetClassNameW.Call(e.hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:n])
}

func (e *winElement) ClassName() string { return e.className() }

func (e *winElement) Role() Role {
	switch strings.ToLower(e.className()) {
	case "button":
		return RoleButton
	case "edit":
		return RoleEdit
	case "combobox", "comboboxex32":
		return RoleComboBox
	case "static":
		return RoleText
	default:
		return RoleWindow
	}
}

func (e *winElement) Title() (string, error) {
	if !e.Exists() {
		return "", ErrVanished
	}
	var buf [512]uint16
	n, _, _ := procGetWindowTextW.Call(e.hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:n]), nil
}

func (e *winElement) AutomationID() string {
	// Dialog control ids double as stable identifiers; the common file dialog
	// uses 1148 for the file-name field, 1 for the primary button, 2 for
	// cancel.
	id, _, _ := procGetDlgCtrlID.Call(e.hwnd)
	if id == 0 {
		return ""
	}
	return strconv.Itoa(int(id))
}

func (e *winElement) ProcessID() int {
	var pid uint32
	procGetWindowThreadProcessId.Call(e.hwnd, uintptr(unsafe.Pointer(&pid)))
	return int(pid)
}

func (e *winElement) Children() ([]Element, error) {
	if !e.Exists() {
		return nil, ErrVanished
	}
	var out []Element
	cb := windows.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		out = append(out, &winElement{hwnd: hwnd})
		return 1
	})
	procEnumChildWindows.Call(e.hwnd, cb, 0)

	if strings.EqualFold(e.className(), "listbox") {
		out = append(out, e.listItems()...)
	}
	if hmenu, _, _ := procGetMenu.Call(e.hwnd); hmenu != 0 {
		out = append(out, menuItems(e.hwnd, hmenu)...)
	}
	return out, nil
}

func (e *winElement) listItems() []Element {
	count, _, _ := procSendMessageW.Call(e.hwnd, lbGetCount, 0, 0)
	if int(count) <= 0 {
		return nil
	}
	var out []Element
	for i := uintptr(0); i < count; i++ {
		length, _, _ := procSendMessageW.Call(e.hwnd, lbGetTextLen, i, 0)
		buf := make([]uint16, length+1)
		procSendMessageW.Call(e.hwnd, lbGetText, i, uintptr(unsafe.Pointer(&buf[0])))
		out = append(out, &listItem{list: e, index: int(i), text: windows.UTF16ToString(buf)})
	}
	return out
}

func (e *winElement) Focus() error {
	if !e.Exists() {
		return ErrVanished
	}
	procSetForegroundWindow.Call(e.hwnd)
	return nil
}

func (e *winElement) Click() error {
	if !e.Exists() {
		return ErrVanished
	}
	if e.Role() == RoleButton {
		procSendMessageW.Call(e.hwnd, bmClick, 0, 0)
		return nil
	}
	procSendMessageW.Call(e.hwnd, wmLButtonDown, 1, 0)
	procSendMessageW.Call(e.hwnd, wmLButtonUp, 0, 0)
	return nil
}

func (e *winElement) SetText(value string) error {
	if !e.Exists() {
		return ErrVanished
	}
	ptr, err := windows.UTF16PtrFromString(value)
	if err != nil {
		return fmt.Errorf("encode text: %w", err)
	}
	procSendMessageW.Call(e.hwnd, wmSetText, 0, uintptr(unsafe.Pointer(ptr)))
	return nil
}

func (e *winElement) Text() (string, error) {
	if !e.Exists() {
		return "", ErrVanished
	}
	length, _, _ := procSendMessageW.Call(e.hwnd, wmGetTextLen, 0, 0)
	buf := make([]uint16, length+1)
	procSendMessageW.Call(e.hwnd, wmGetText, uintptr(len(buf)), uintptr(unsafe.Pointer(&buf[0])))
	return windows.UTF16ToString(buf), nil
}

// TypeKeys sends a key chord in "ctrl+alt+x" notation to the element's window.
func (e *winElement) TypeKeys(spec string) error {
	if err := e.Focus(); err != nil {
		return err
	}
	codes, mods, err := parseChord(spec)
	if err != nil {
		return err
	}
	for _, m := range mods {
		procKeybdEvent.Call(uintptr(m), 0, 0, 0)
	}
	for _, c := range codes {
		procKeybdEvent.Call(uintptr(c), 0, 0, 0)
		procKeybdEvent.Call(uintptr(c), 0, keyEventFKeyUp, 0)
	}
	for i := len(mods) - 1; i >= 0; i-- {
		procKeybdEvent.Call(uintptr(mods[i]), 0, keyEventFKeyUp, 0)
	}
	time.Sleep(50 * time.Millisecond)
	return nil
}

// parseChord splits "ctrl+alt+p" into modifier and key virtual-key codes.
func parseChord(spec string) (keys []uint16, mods []uint16, err error) {
	for _, token := range strings.Split(spec, "+") {
		token = strings.ToLower(strings.TrimSpace(token))
		switch token {
		case "":
			continue
		case "ctrl", "control":
			mods = append(mods, vkControl)
		case "alt":
			mods = append(mods, vkMenu)
		case "shift":
			mods = append(mods, vkShift)
		case "enter", "return":
			keys = append(keys, vkReturn)
		case "esc", "escape":
			keys = append(keys, vkEscape)
		default:
			if len(token) != 1 {
				return nil, nil, fmt.Errorf("unknown key %q in chord %q", token, spec)
			}
			r, _, _ := procVkKeyScanW.Call(uintptr(token[0]))
			vk := uint16(r & 0xFF)
			if vk == 0xFF {
				return nil, nil, fmt.Errorf("no virtual key for %q", token)
			}
			keys = append(keys, vk)
		}
	}
	if len(keys) == 0 {
		return nil, nil, fmt.Errorf("chord %q has no key", spec)
	}
	return keys, mods, nil
}

// listItem is a synthesized element for one list-box entry.
type listItem struct {
	list  *winElement
	index int
	text  string
}

func (l *listItem) Role() Role              { return RoleListItem }
func (l *listItem) Title() (string, error)  { return l.text, nil }
func (l *listItem) AutomationID() string    { return "" }
func (l *listItem) ClassName() string       { return "ListItem" }
func (l *listItem) ProcessID() int          { return l.list.ProcessID() }
func (l *listItem) Children() ([]Element, error) { return nil, nil }
func (l *listItem) Exists() bool            { return l.list.Exists() }
func (l *listItem) Focus() error            { return l.list.Focus() }
func (l *listItem) SetText(string) error    { return fmt.Errorf("list item is read-only") }
func (l *listItem) Text() (string, error)   { return l.text, nil }
func (l *listItem) TypeKeys(s string) error { return l.list.TypeKeys(s) }

func (l *listItem) Click() error {
	if !l.list.Exists() {
		return ErrVanished
	}
	procSendMessageW.Call(l.list.hwnd, lbSetCurSel, uintptr(l.index), 0)
	return nil
}

// menuItems synthesizes elements for a window's menu bar, recursively through
// submenus. Clicking an item posts WM_COMMAND with its id.
func menuItems(hwnd, hmenu uintptr) []Element {
	count, _, _ := procGetMenuItemCount.Call(hmenu)
	if int(count) <= 0 {
		return nil
	}
	var out []Element
	for i := uintptr(0); i < count; i++ {
		var buf [256]uint16
		n, _, _ := procGetMenuStringW.Call(hmenu, i, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)), mfByPosition)
		text := strings.ReplaceAll(windows.UTF16ToString(buf[:n]), "&", "")
		id, _, _ := procGetMenuItemID.Call(hmenu, i)
		sub, _, _ := procGetSubMenu.Call(hmenu, i)
		out = append(out, &menuItem{hwnd: hwnd, hmenu: hmenu, sub: sub, pos: int(i), id: uint32(id), text: text})
	}
	return out
}

// menuItem is a synthesized element for one menu entry.
type menuItem struct {
	hwnd  uintptr
	hmenu uintptr
	sub   uintptr
	pos   int
	id    uint32
	text  string
}

func (m *menuItem) Role() Role             { return RoleMenuItem }
func (m *menuItem) Title() (string, error) { return m.text, nil }
func (m *menuItem) AutomationID() string   { return "" }
func (m *menuItem) ClassName() string      { return "MenuItem" }

func (m *menuItem) ProcessID() int {
	var pid uint32
	procGetWindowThreadProcessId.Call(m.hwnd, uintptr(unsafe.Pointer(&pid)))
	return int(pid)
}

func (m *menuItem) Children() ([]Element, error) {
	if m.sub == 0 {
		return nil, nil
	}
	return menuItems(m.hwnd, m.sub), nil
}

func (m *menuItem) Exists() bool {
	ok, _, _ := procIsWindow.Call(m.hwnd)
	return ok != 0
}

func (m *menuItem) Focus() error { return (&winElement{hwnd: m.hwnd}).Focus() }

func (m *menuItem) Click() error {
	if !m.Exists() {
		return ErrVanished
	}
	if m.sub != 0 {
		// Submenus open on navigation; commands live on leaf items.
		return nil
	}
	procPostMessageW.Call(m.hwnd, wmCommand, uintptr(m.id), 0)
	return nil
}

func (m *menuItem) SetText(string) error    { return fmt.Errorf("menu item is read-only") }
func (m *menuItem) Text() (string, error)   { return m.text, nil }
func (m *menuItem) TypeKeys(s string) error { return (&winElement{hwnd: m.hwnd}).TypeKeys(s) }
