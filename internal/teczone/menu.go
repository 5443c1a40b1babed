package teczone

import (
	"context"
	"strings"
	"time"

	"github.com/quickfab/geoworker/internal/dialog"
	"github.com/quickfab/geoworker/internal/uia"
)

// labelMatches compares a menu caption to a wanted label, fold-insensitive.
// "Open" matches "Open..." but not "Open Recent" backwards: exact match wins,
// then prefix, then containment.
func labelMatches(caption, wanted string) bool {
	c := dialog.Fold(strings.TrimSpace(caption))
	w := dialog.Fold(strings.TrimSpace(wanted))
	if c == "" || w == "" {
		return false
	}
	return c == w || strings.HasPrefix(c, w) || strings.Contains(c, w)
}

// findMenuItem searches root's subtree for a menu item labeled like wanted.
func findMenuItem(root uia.Element, wanted string) (uia.Element, bool) {
	for _, el := range uia.ListDescendants(root, uia.Criteria{Role: uia.RoleMenuItem}) {
		caption, err := el.Title()
		if err != nil {
			continue
		}
		if labelMatches(caption, wanted) {
			return el, true
		}
	}
	return nil, false
}

// menuSelect walks a label path through the main window's menu tree and
// clicks the leaf. The driver exposes submenus as children, so the walk needs
// no intermediate clicks.
func (s *Session) menuSelect(path []string) bool {
	node := s.main
	for i, label := range path {
		var next uia.Element
		for _, el := range uia.ListDescendants(node, uia.Criteria{Role: uia.RoleMenuItem}) {
			caption, err := el.Title()
			if err != nil {
				continue
			}
			if labelMatches(caption, label) {
				next = el
				break
			}
		}
		if next == nil {
			return false
		}
		if i == len(path)-1 {
			return next.Click() == nil
		}
		node = next
	}
	return false
}

// clickMenuItemAnywhere polls every window of the owning process for a menu
// item labeled like wanted and clicks it. Used when the main menu tree is not
// walkable (detached popup windows).
func (s *Session) clickMenuItemAnywhere(ctx context.Context, wanted string, timeout time.Duration) bool {
	err := s.poll(ctx, timeout, func() (bool, error) {
		wins, err := s.desktop.Windows()
		if err != nil {
			return false, nil
		}
		for _, win := range wins {
			if s.pid != 0 && win.ProcessID() != s.pid {
				continue
			}
			item, found := findMenuItem(win, wanted)
			if !found {
				continue
			}
			if item.Click() == nil {
				return true, nil
			}
		}
		return false, nil
	})
	return err == nil
}
