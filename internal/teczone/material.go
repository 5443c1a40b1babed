package teczone

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/quickfab/geoworker/internal/dialog"
	"github.com/quickfab/geoworker/internal/uia"
)

// materialMenuKeywords identify the material entry when scanning menus
// exhaustively (localized builds rename it).
var materialMenuKeywords = []string{"material", "stock", "werkstoff", "materiale", "matiere"}

// SetMaterial applies the requested material to the open document.
//
// Material selection is deliberately forgiving: if the exact name is not in
// the list, the closest thing the operator can audit is "which entry was
// picked and why", so the primitive falls back to the first entry and records
// a note instead of failing. Missing input is the one configurable hard stop.
func (s *Session) SetMaterial(ctx context.Context, material string) (applied, note string, err error) {
	if s.state != StateFileOpen {
		return "", "", fmt.Errorf("%w: set-material from %s", ErrOutOfOrder, s.state)
	}

	if material == "" {
		if s.cfg.MaterialRequired {
			return "", "", &NeedsHelpError{
				Step:   "SET_MATERIAL",
				Reason: "material missing from catalog and workflow marks material required",
			}
		}
		s.state = StateMaterialSet
		return "", "material not specified; material step skipped; ", nil
	}

	if err := s.main.Focus(); err != nil {
		return "", "", fmt.Errorf("focus main window: %w", err)
	}

	if !s.openMaterialDialog(ctx) {
		return "", "", &NeedsHelpError{
			Step:     "SET_MATERIAL",
			Reason:   "material menu item not found",
			Searched: append([]string{}, s.cfg.MaterialMenuTitles...),
			Windows:  s.candidateTitles(),
		}
	}

	pattern, err := regexp.Compile(s.cfg.MaterialDialogPattern)
	if err != nil {
		return "", "", fmt.Errorf("material dialog pattern: %w", err)
	}
	var dlg uia.Element
	werr := s.poll(ctx, s.cfg.Timeouts.MaterialDialog, func() (bool, error) {
		if w, ok := s.findWindow(uia.Criteria{TitlePattern: pattern, ProcessID: s.pid}); ok {
			dlg = w
			return true, nil
		}
		return false, nil
	})
	if werr != nil {
		if errors.Is(werr, errTimeout) {
			return "", "", &NeedsHelpError{
				Step:     "SET_MATERIAL",
				Reason:   "material selection dialog not found",
				Searched: []string{"title~" + s.cfg.MaterialDialogPattern},
				Windows:  s.candidateTitles(),
			}
		}
		return "", "", werr
	}

	items := uia.ListDescendants(dlg, uia.Criteria{Role: uia.RoleListItem})
	if len(items) == 0 {
		return "", "", &NeedsHelpError{
			Step:     "SET_MATERIAL",
			Reason:   "material list items not found",
			Windows:  uia.DescribeControls(dlg, 35),
			Searched: []string{"role=ListItem under material dialog"},
		}
	}

	chosen, fallback := pickMaterial(items, material)
	if err := chosen.Click(); err != nil {
		return "", "", fmt.Errorf("select material entry: %w", err)
	}
	applied, _ = chosen.Title()
	if fallback {
		note = fmt.Sprintf("material fallback to: %s; requested: %s; ", applied, material)
		s.logger.Warn("material fallback", "requested", material, "applied", applied)
	}

	s.confirmDialog(dlg)

	if err := s.checkUnexpected("SET_MATERIAL"); err != nil {
		return "", "", err
	}

	s.state = StateMaterialSet
	s.logger.Info("material set", "requested", material, "applied", applied)
	return applied, note, nil
}

// openMaterialDialog clicks the material menu entry: the configured captions
// first, then an exhaustive scan of every menu for the material keywords.
func (s *Session) openMaterialDialog(ctx context.Context) bool {
	for _, title := range s.cfg.MaterialMenuTitles {
		if item, ok := findMenuItem(s.main, title); ok {
			if item.Click() == nil {
				return true
			}
		}
	}
	for _, kw := range materialMenuKeywords {
		if s.clickMenuItemAnywhere(ctx, kw, s.cfg.Timeouts.Poll) {
			return true
		}
	}
	return false
}

// pickMaterial selects the list entry for the requested material. All
// case-insensitive substring matches are candidates; with several, the one
// closest to the request (Jaro-Winkler) wins. With none, the first entry is
// the audited fallback.
func pickMaterial(items []uia.Element, requested string) (chosen uia.Element, fallback bool) {
	want := dialog.Fold(requested)

	var best uia.Element
	bestScore := float32(-1)
	for _, item := range items {
		title, err := item.Title()
		if err != nil {
			continue
		}
		if !strings.Contains(dialog.Fold(title), want) {
			continue
		}
		score := edlib.JaroWinklerSimilarity(want, dialog.Fold(title))
		if score > bestScore {
			best = item
			bestScore = score
		}
	}
	if best != nil {
		return best, false
	}
	return items[0], true
}

// confirmDialog clicks OK or falls back to Enter.
func (s *Session) confirmDialog(dlg uia.Element) {
	okRe := regexp.MustCompile(`(?i)^ok$`)
	if btn, ok := uia.FindDescendant(dlg, uia.Criteria{Role: uia.RoleButton, TitlePattern: okRe}); ok {
		if btn.Click() == nil {
			return
		}
	}
	_ = dlg.TypeKeys("enter")
}
