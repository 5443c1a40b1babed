package teczone

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quickfab/geoworker/internal/dialog"
	"github.com/quickfab/geoworker/internal/uia"
)

// acceptedExtensions are the only geometry inputs TecZone Bend understands.
var acceptedExtensions = map[string]bool{".stp": true, ".step": true}

const openChooserSearched = "open dialog by structure (primary button auto_id=1 + file name field auto_id=1148/label)"

// OpenFile loads one input file. Input validation happens before any UI
// interaction; a bad path must not leave a half-open dialog behind.
func (s *Session) OpenFile(ctx context.Context, path string) error {
	if s.state != StateConnected {
		return fmt.Errorf("%w: open-file from %s", ErrOutOfOrder, s.state)
	}

	if _, err := os.Stat(path); err != nil {
		return &NeedsHelpError{Step: "OPEN_FILE", Reason: fmt.Sprintf("input file not found: %s", path)}
	}
	if !acceptedExtensions[strings.ToLower(filepath.Ext(path))] {
		return &NeedsHelpError{Step: "OPEN_FILE", Reason: fmt.Sprintf("unsupported input extension: %s", path)}
	}

	if err := s.main.Focus(); err != nil {
		return fmt.Errorf("focus main window: %w", err)
	}
	if err := s.main.TypeKeys("ctrl+o"); err != nil {
		return fmt.Errorf("send open shortcut: %w", err)
	}

	dlg, err := s.waitForChooser(ctx, dialog.ChooserOpen, s.cfg.Timeouts.OpenDialog)
	if err != nil {
		if !errors.Is(err, errTimeout) {
			return err
		}
		// Shortcut did not bring up the dialog; fall back to the menu.
		s.logger.Debug("open dialog not shown after shortcut, trying menu")
		if !s.menuSelect([]string{"File", "Open"}) &&
			!s.clickMenuItemAnywhere(ctx, "Open", s.cfg.Timeouts.OpenDialog) {
			return &NeedsHelpError{
				Step:     "OPEN_FILE",
				Reason:   "open dialog not found and menu fallback failed",
				Searched: []string{openChooserSearched, "menu File->Open"},
				Windows:  s.candidateTitles(),
			}
		}
		dlg, err = s.waitForChooser(ctx, dialog.ChooserOpen, s.cfg.Timeouts.OpenDialog)
		if err != nil {
			if !errors.Is(err, errTimeout) {
				return err
			}
			return &NeedsHelpError{
				Step:     "OPEN_FILE",
				Reason:   "open dialog not found after menu fallback",
				Searched: []string{openChooserSearched, "menu File->Open"},
				Windows:  s.candidateTitles(),
			}
		}
	}

	if err := s.fillChooser(ctx, dlg, path, "OPEN_FILE"); err != nil {
		return err
	}

	// Confirmed closed without an unexpected dialog means the file is in.
	err = s.poll(ctx, s.cfg.Timeouts.OpenComplete, func() (bool, error) {
		if err := s.checkUnexpected("OPEN_FILE"); err != nil {
			return false, err
		}
		_, present := s.findChooser(dialog.ChooserOpen)
		return !present, nil
	})
	if err != nil {
		if errors.Is(err, errTimeout) {
			return &NeedsHelpError{
				Step:     "OPEN_FILE",
				Reason:   fmt.Sprintf("open dialog did not close within %s", s.cfg.Timeouts.OpenComplete),
				Searched: []string{openChooserSearched},
				Windows:  s.candidateTitles(),
			}
		}
		return err
	}

	s.state = StateFileOpen
	s.logger.Info("file opened", "path", path)
	return nil
}

// waitForChooser polls for a structurally-recognized file chooser.
func (s *Session) waitForChooser(ctx context.Context, kind dialog.ChooserKind, timeout time.Duration) (uia.Element, error) {
	var dlg uia.Element
	err := s.poll(ctx, timeout, func() (bool, error) {
		if d, ok := s.findChooser(kind); ok {
			dlg = d
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return dlg, nil
}

// fillChooser sets the target path in a chooser and confirms it, using the
// layered strategy: full path into the name field first, and if the field
// did not take it, navigate to the directory and enter the bare name.
func (s *Session) fillChooser(ctx context.Context, dlg uia.Element, path, step string) error {
	field, ok := dialog.FileNameField(dlg)
	if !ok {
		return &NeedsHelpError{
			Step:     step,
			Reason:   "file name field not found in chooser",
			Searched: []string{"file_name_edit(auto_id=1148/label File name)"},
			Windows:  uia.DescribeControls(dlg, 35),
		}
	}

	if err := field.SetText(path); err != nil {
		return &NeedsHelpError{
			Step:    step,
			Reason:  fmt.Sprintf("file name field not settable: %v", err),
			Windows: uia.DescribeControls(dlg, 35),
		}
	}

	if content, err := field.Text(); err == nil && !plausiblyHolds(content, path) {
		// The field rejected or mangled the full path; navigate instead.
		s.logger.Debug("direct path entry not accepted, navigating", "field", content)
		if err := field.SetText(filepath.Dir(path)); err == nil {
			s.pressPrimary(dlg)
			s.settle(ctx, s.cfg.Timeouts.Poll)
			if redlg, ok := s.findChooser(dialog.ChooserNone); ok {
				dlg = redlg
			}
			if refield, ok := dialog.FileNameField(dlg); ok {
				field = refield
			}
			if err := field.SetText(filepath.Base(path)); err != nil {
				return &NeedsHelpError{
					Step:    step,
					Reason:  fmt.Sprintf("navigate-then-name fallback failed: %v", err),
					Windows: uia.DescribeControls(dlg, 35),
				}
			}
		}
	}

	s.pressPrimary(dlg)
	return nil
}

// pressPrimary triggers the chooser's default action, falling back to Enter.
func (s *Session) pressPrimary(dlg uia.Element) {
	if btn, ok := dialog.PrimaryButton(dlg); ok {
		if err := btn.Click(); err == nil {
			return
		}
	}
	_ = dlg.TypeKeys("enter")
}

// plausiblyHolds reports whether the field content looks like it accepted the
// path (full path or at least the file name).
func plausiblyHolds(content, path string) bool {
	c := strings.ToLower(strings.TrimSpace(content))
	if c == "" {
		return false
	}
	if strings.Contains(c, strings.ToLower(path)) {
		return true
	}
	return strings.Contains(c, strings.ToLower(filepath.Base(path)))
}
