// Package uia abstracts the UI tree of an external desktop application.
//
// The target application exposes no API; everything above this package works
// against observable window structure only. Element and Desktop are the seam
// between the automation logic and the OS-level driver, which keeps the whole
// stack testable with a fake tree.
package uia

import "errors"

// ErrVanished is returned when an element disappears between enumeration and
// use. Lookups treat it as not-found and never propagate it.
var ErrVanished = errors.New("uia: element vanished")

// ErrUnsupported is returned by drivers on platforms without native UI
// automation support.
var ErrUnsupported = errors.New("uia: no native driver on this platform")

// Role classifies an element the way the OS control tree does.
type Role string

const (
	RoleWindow   Role = "Window"
	RoleButton   Role = "Button"
	RoleEdit     Role = "Edit"
	RoleComboBox Role = "ComboBox"
	RoleText     Role = "Text"
	RoleMenuItem Role = "MenuItem"
	RoleListItem Role = "ListItem"
	RoleUnknown  Role = ""
)

// Element is one node of the target application's control tree.
//
// Accessors may return ErrVanished at any time; callers that cannot act on a
// vanished element treat it as absent.
type Element interface {
	Role() Role
	Title() (string, error)
	AutomationID() string
	ClassName() string
	ProcessID() int
	Children() ([]Element, error)
	Exists() bool

	Focus() error
	Click() error
	SetText(value string) error
	Text() (string, error)
	TypeKeys(spec string) error
}

// Desktop enumerates top-level windows.
type Desktop interface {
	Windows() ([]Element, error)
	ActiveWindow() (Element, error)
}

// WindowTitles returns the titles of all currently visible top-level windows.
// Used for NeedsHelp diagnostics; enumeration errors yield an empty list.
func WindowTitles(d Desktop) []string {
	wins, err := d.Windows()
	if err != nil {
		return nil
	}
	var titles []string
	for _, w := range wins {
		t, err := w.Title()
		if err != nil || t == "" {
			continue
		}
		titles = append(titles, t)
	}
	return titles
}

// ActiveWindowTitle returns the title of the foreground window, or "".
func ActiveWindowTitle(d Desktop) string {
	w, err := d.ActiveWindow()
	if err != nil || w == nil {
		return ""
	}
	t, err := w.Title()
	if err != nil {
		return ""
	}
	return t
}
