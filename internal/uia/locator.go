package uia

import (
	"fmt"
	"regexp"
	"strings"
)

// Criteria is a conjunction of element filters. Zero values are wildcards.
type Criteria struct {
	Role         Role
	Title        string
	TitlePattern *regexp.Regexp
	AutomationID string
	ProcessID    int
}

// String renders the criteria for diagnostics ("what was searched").
func (c Criteria) String() string {
	var parts []string
	if c.Role != RoleUnknown {
		parts = append(parts, "role="+string(c.Role))
	}
	if c.Title != "" {
		parts = append(parts, "title="+c.Title)
	}
	if c.TitlePattern != nil {
		parts = append(parts, "title~"+c.TitlePattern.String())
	}
	if c.AutomationID != "" {
		parts = append(parts, "auto_id="+c.AutomationID)
	}
	if c.ProcessID != 0 {
		parts = append(parts, fmt.Sprintf("pid=%d", c.ProcessID))
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, " ")
}

// Matches reports whether el satisfies every set filter. A vanished element
// never matches.
func (c Criteria) Matches(el Element) bool {
	if c.Role != RoleUnknown && el.Role() != c.Role {
		return false
	}
	if c.AutomationID != "" && el.AutomationID() != c.AutomationID {
		return false
	}
	if c.ProcessID != 0 && el.ProcessID() != c.ProcessID {
		return false
	}
	if c.Title != "" || c.TitlePattern != nil {
		title, err := el.Title()
		if err != nil {
			return false
		}
		if c.Title != "" && title != c.Title {
			return false
		}
		if c.TitlePattern != nil && !c.TitlePattern.MatchString(title) {
			return false
		}
	}
	return true
}

// Descendants returns root's subtree in breadth-first order, excluding root.
// Subtrees that vanish mid-walk are skipped.
func Descendants(root Element) []Element {
	var out []Element
	queue := []Element{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		children, err := cur.Children()
		if err != nil {
			continue
		}
		for _, ch := range children {
			out = append(out, ch)
			queue = append(queue, ch)
		}
	}
	return out
}

// FindDescendant returns the first descendant of root matching c.
func FindDescendant(root Element, c Criteria) (Element, bool) {
	for _, el := range Descendants(root) {
		if c.Matches(el) {
			return el, true
		}
	}
	return nil, false
}

// ListDescendants returns every descendant of root matching c, possibly none.
func ListDescendants(root Element, c Criteria) []Element {
	var out []Element
	for _, el := range Descendants(root) {
		if c.Matches(el) {
			out = append(out, el)
		}
	}
	return out
}

// DescribeControls renders up to limit descendants of root for diagnostics,
// one "Role|title=...|auto_id=..." line per control.
func DescribeControls(root Element, limit int) []string {
	var out []string
	for _, el := range Descendants(root) {
		if len(out) >= limit {
			break
		}
		title, err := el.Title()
		if err != nil {
			title = ""
		}
		out = append(out, fmt.Sprintf("%s|title=%s|auto_id=%s", el.Role(), title, el.AutomationID()))
	}
	return out
}
