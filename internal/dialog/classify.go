// Package dialog classifies top-level windows of the target application by
// structure rather than by exact title text. The application may run in any of
// several UI languages, so title vocabulary alone is never trusted: a window
// only counts as a file chooser when the expected controls are present too.
package dialog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/quickfab/geoworker/internal/uia"
)

// Kind is the classification outcome for one window.
type Kind int

const (
	KindNone Kind = iota
	KindFileChooser
	KindConfirmation
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindFileChooser:
		return "file-chooser"
	case KindConfirmation:
		return "confirmation"
	case KindUnexpected:
		return "unexpected"
	default:
		return "none"
	}
}

// ChooserKind distinguishes open from save/export choosers.
type ChooserKind int

const (
	ChooserNone ChooserKind = iota
	ChooserOpen
	ChooserSave
)

// Classification describes one window.
type Classification struct {
	Kind    Kind
	Chooser ChooserKind
	// Text carries the offending title and visible text for unexpected
	// dialogs, and the matched keyword context for confirmations.
	Text string
}

// Multilingual vocabulary (en/de/fr/ro). Matching runs on lowercased,
// accent-folded text, so "Salvează" matches "salveaza".
var (
	openTitleRe     = regexp.MustCompile(`\bopen\b|deschide|oeffnen|offnen|ouvrir`)
	saveTitleRe     = regexp.MustCompile(`\bsave\b|\bexport\b|salveaza|speichern|enregistrer`)
	fileNameLabelRe = regexp.MustCompile(`file\s*name|nume\s*fisier|dateiname|nom\s*du\s*fichier`)

	overwriteKeywords = []string{"overwrite", "replace", "already exists", "inlocui", "ersetzen", "remplacer"}
	yesButtonRe       = regexp.MustCompile(`^(yes|ok|overwrite|replace|da|ja|oui)$`)

	unexpectedKeywords = []string{
		"warning", "error", "confirm", "invalid", "not valid", "cannot",
		"failed", "does not exist", "attention", "question",
	}
)

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases and strips diacritics for language-tolerant matching.
func Fold(s string) string {
	out, _, err := transform.String(foldChain, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Classifier inspects windows, optionally restricted to one owning process.
type Classifier struct {
	// ProcessID restricts unexpected-dialog detection to windows owned by the
	// target application. Zero means no restriction.
	ProcessID int
}

// Classify decides what kind of dialog win is.
//
// Order matters: a chooser or overwrite confirmation must never be reported as
// unexpected, even though its vocabulary ("Save As", "Confirm") overlaps with
// the unexpected keyword set.
func (c Classifier) Classify(win uia.Element) Classification {
	if chooser := chooserKind(win); chooser != ChooserNone {
		return Classification{Kind: KindFileChooser, Chooser: chooser}
	}
	if text, ok := confirmationText(win); ok {
		return Classification{Kind: KindConfirmation, Text: text}
	}
	if c.ProcessID != 0 && win.ProcessID() != c.ProcessID {
		return Classification{Kind: KindNone}
	}
	if text, ok := unexpectedText(win); ok {
		return Classification{Kind: KindUnexpected, Text: text}
	}
	return Classification{Kind: KindNone}
}

// FindUnexpected scans all top-level windows and returns the first unexpected
// dialog's text, if any.
func (c Classifier) FindUnexpected(d uia.Desktop) (string, bool) {
	wins, err := d.Windows()
	if err != nil {
		return "", false
	}
	for _, win := range wins {
		if cl := c.Classify(win); cl.Kind == KindUnexpected {
			return cl.Text, true
		}
	}
	return "", false
}

// IsFileChooser reports whether win is structurally a file chooser of the
// given kind.
func IsFileChooser(win uia.Element, kind ChooserKind) bool {
	got := chooserKind(win)
	if got == ChooserNone {
		return false
	}
	return kind == ChooserNone || got == kind
}

// FileNameField returns the editable file-name control of a chooser dialog.
// Preference order: the stable control id, then a field adjacent to a
// localized "file name" label, then the first edit control.
func FileNameField(win uia.Element) (uia.Element, bool) {
	if el, ok := uia.FindDescendant(win, uia.Criteria{AutomationID: "1148"}); ok {
		return editable(el), true
	}
	if combo, ok := uia.FindDescendant(win, uia.Criteria{Role: uia.RoleComboBox, TitlePattern: foldedPattern(fileNameLabelRe)}); ok {
		return editable(combo), true
	}
	if el, ok := uia.FindDescendant(win, uia.Criteria{Role: uia.RoleEdit}); ok {
		return el, true
	}
	return nil, false
}

// PrimaryButton returns the chooser's default action button (control id 1 or
// a localized Open/Save caption).
func PrimaryButton(win uia.Element) (uia.Element, bool) {
	if el, ok := uia.FindDescendant(win, uia.Criteria{Role: uia.RoleButton, AutomationID: "1"}); ok {
		return el, true
	}
	for _, re := range []*regexp.Regexp{openTitleRe, saveTitleRe} {
		if el, ok := uia.FindDescendant(win, uia.Criteria{Role: uia.RoleButton, TitlePattern: foldedPattern(re)}); ok {
			return el, true
		}
	}
	return nil, false
}

func editable(el uia.Element) uia.Element {
	if el.Role() == uia.RoleComboBox {
		if edit, ok := uia.FindDescendant(el, uia.Criteria{Role: uia.RoleEdit}); ok {
			return edit
		}
	}
	return el
}

// foldedPattern wraps a lowercase vocabulary pattern for matching raw titles.
// Diacritic alternatives are baked into the vocabulary itself; Fold handles
// free text at the remaining call sites.
func foldedPattern(re *regexp.Regexp) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + re.String())
}

// ConfirmYes clicks the default affirmative button of a confirmation dialog.
func ConfirmYes(win uia.Element) bool {
	for _, btn := range uia.ListDescendants(win, uia.Criteria{Role: uia.RoleButton}) {
		t, err := btn.Title()
		if err != nil {
			continue
		}
		if yesButtonRe.MatchString(Fold(t)) {
			return btn.Click() == nil
		}
	}
	return false
}

func chooserKind(win uia.Element) ChooserKind {
	if win.Role() != uia.RoleWindow {
		return ChooserNone
	}
	title, err := win.Title()
	if err != nil {
		return ChooserNone
	}
	folded := Fold(title)

	// Structure first: a chooser has a primary action and a file-name entry.
	_, hasName := FileNameField(win)
	_, hasPrimary := uia.FindDescendant(win, uia.Criteria{Role: uia.RoleButton, AutomationID: "1"})
	if !hasPrimary {
		_, hasPrimary = PrimaryButton(win)
	}
	if !hasName || !hasPrimary {
		return ChooserNone
	}

	switch {
	case saveTitleRe.MatchString(folded):
		return ChooserSave
	case openTitleRe.MatchString(folded):
		return ChooserOpen
	}

	// Structure matched but the title is in an unknown language; a cancel
	// button (control id 2) is enough corroboration to call it a chooser.
	if _, hasCancel := uia.FindDescendant(win, uia.Criteria{Role: uia.RoleButton, AutomationID: "2"}); hasCancel {
		return ChooserOpen
	}
	return ChooserNone
}

func confirmationText(win uia.Element) (string, bool) {
	text := visibleText(win)
	folded := Fold(text)
	matched := false
	for _, kw := range overwriteKeywords {
		if strings.Contains(folded, kw) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}
	// Needs a default "Yes"-equivalent action to be confirmable.
	for _, btn := range uia.ListDescendants(win, uia.Criteria{Role: uia.RoleButton}) {
		t, err := btn.Title()
		if err != nil {
			continue
		}
		if yesButtonRe.MatchString(Fold(t)) {
			return text, true
		}
	}
	return "", false
}

func unexpectedText(win uia.Element) (string, bool) {
	title, err := win.Title()
	if err != nil || strings.TrimSpace(title) == "" {
		return "", false
	}
	text := visibleText(win)
	folded := Fold(text)
	for _, kw := range unexpectedKeywords {
		if strings.Contains(folded, kw) {
			if len(text) > 300 {
				text = text[:300]
			}
			return text, true
		}
	}
	return "", false
}

// visibleText joins the window title with every static text descendant.
func visibleText(win uia.Element) string {
	parts := []string{}
	if title, err := win.Title(); err == nil && strings.TrimSpace(title) != "" {
		parts = append(parts, strings.TrimSpace(title))
	}
	for _, el := range uia.ListDescendants(win, uia.Criteria{Role: uia.RoleText}) {
		t, err := el.Title()
		if err != nil {
			continue
		}
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " | ")
}
