// Package uiatest provides a scriptable in-memory control tree implementing
// the uia interfaces. Tests build the window structure they expect the target
// application to show and attach hooks that mutate it the way the real
// application would (dialogs closing on click, text fields accepting input).
package uiatest

import (
	"sync"

	"github.com/quickfab/geoworker/internal/uia"
)

// Node is a fake uia.Element.
type Node struct {
	mu sync.Mutex

	NodeRole  uia.Role
	NodeTitle string
	AutoID    string
	Class     string
	PID       int

	children []*Node
	vanished bool

	// Recorded interactions.
	Clicks    int
	Focused   int
	TypedKeys []string
	SetTexts  []string
	textValue string

	// Hooks run after the corresponding interaction is recorded.
	OnClick   func(*Node)
	OnSetText func(*Node, string)
	OnType    func(*Node, string)
}

// NewNode creates a node with the given role, title and automation id.
func NewNode(role uia.Role, title, autoID string) *Node {
	return &Node{NodeRole: role, NodeTitle: title, AutoID: autoID}
}

// NewWindow creates a top-level window node owned by pid.
func NewWindow(title string, pid int) *Node {
	return &Node{NodeRole: uia.RoleWindow, NodeTitle: title, PID: pid}
}

// Add appends children and propagates the window's process id to any child
// that has none set. Returns n for chaining.
func (n *Node) Add(children ...*Node) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range children {
		if ch.PID == 0 {
			ch.PID = n.PID
		}
		n.children = append(n.children, ch)
	}
	return n
}

// Vanish makes the node (and its subtree) report uia.ErrVanished.
func (n *Node) Vanish() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.vanished = true
}

// SetTitle changes the node title.
func (n *Node) SetTitle(title string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.NodeTitle = title
}

func (n *Node) Role() uia.Role       { return n.NodeRole }
func (n *Node) AutomationID() string { return n.AutoID }
func (n *Node) ClassName() string    { return n.Class }
func (n *Node) ProcessID() int       { return n.PID }

func (n *Node) Title() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.vanished {
		return "", uia.ErrVanished
	}
	return n.NodeTitle, nil
}

func (n *Node) Children() ([]uia.Element, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.vanished {
		return nil, uia.ErrVanished
	}
	out := make([]uia.Element, len(n.children))
	for i, ch := range n.children {
		out[i] = ch
	}
	return out, nil
}

func (n *Node) Exists() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return !n.vanished
}

func (n *Node) Focus() error {
	n.mu.Lock()
	n.Focused++
	vanished := n.vanished
	n.mu.Unlock()
	if vanished {
		return uia.ErrVanished
	}
	return nil
}

func (n *Node) Click() error {
	n.mu.Lock()
	if n.vanished {
		n.mu.Unlock()
		return uia.ErrVanished
	}
	n.Clicks++
	hook := n.OnClick
	n.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return nil
}

func (n *Node) SetText(value string) error {
	n.mu.Lock()
	if n.vanished {
		n.mu.Unlock()
		return uia.ErrVanished
	}
	n.SetTexts = append(n.SetTexts, value)
	n.textValue = value
	hook := n.OnSetText
	n.mu.Unlock()
	if hook != nil {
		hook(n, value)
	}
	return nil
}

func (n *Node) Text() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.vanished {
		return "", uia.ErrVanished
	}
	return n.textValue, nil
}

func (n *Node) TypeKeys(spec string) error {
	n.mu.Lock()
	if n.vanished {
		n.mu.Unlock()
		return uia.ErrVanished
	}
	n.TypedKeys = append(n.TypedKeys, spec)
	hook := n.OnType
	n.mu.Unlock()
	if hook != nil {
		hook(n, spec)
	}
	return nil
}

// Desktop is a fake uia.Desktop with a mutable window list.
type Desktop struct {
	mu           sync.Mutex
	windows      []*Node
	active       *Node
	WindowsCalls int
}

// NewDesktop creates a desktop showing the given windows.
func NewDesktop(windows ...*Node) *Desktop {
	return &Desktop{windows: windows}
}

// AddWindow makes a window appear.
func (d *Desktop) AddWindow(w *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.windows = append(d.windows, w)
}

// RemoveWindow makes a window disappear.
func (d *Desktop) RemoveWindow(w *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, win := range d.windows {
		if win == w {
			d.windows = append(d.windows[:i], d.windows[i+1:]...)
			return
		}
	}
}

// SetActive marks w as the foreground window.
func (d *Desktop) SetActive(w *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = w
}

func (d *Desktop) Windows() ([]uia.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.WindowsCalls++
	out := make([]uia.Element, 0, len(d.windows))
	for _, w := range d.windows {
		if w.Exists() {
			out = append(out, w)
		}
	}
	return out, nil
}

func (d *Desktop) ActiveWindow() (uia.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil {
		return d.active, nil
	}
	if len(d.windows) > 0 {
		return d.windows[0], nil
	}
	return nil, nil
}
