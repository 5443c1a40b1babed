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

// ExportGeometry unfolds and exports the open document to outputPath.
// Success requires agreement between UI state (save dialog gone, no
// unexpected dialog) and filesystem state (output file present, non-empty);
// the application reports nothing itself.
func (s *Session) ExportGeometry(ctx context.Context, outputPath string) error {
	if s.state != StateMaterialSet {
		return fmt.Errorf("%w: export from %s", ErrOutOfOrder, s.state)
	}

	if err := s.main.Focus(); err != nil {
		return fmt.Errorf("focus main window: %w", err)
	}
	if err := s.enterBendMode(ctx); err != nil {
		return err
	}

	if err := s.openExportMenu(ctx); err != nil {
		s.shots.Snap("export_failed")
		return err
	}
	s.shots.Snap("export_menu_open")

	dlg, err := s.waitForChooser(ctx, dialog.ChooserSave, s.cfg.Timeouts.SaveDialog)
	if err != nil {
		s.shots.Snap("export_failed")
		if errors.Is(err, errTimeout) {
			return &NeedsHelpError{
				Step:     "EXPORT_GEO",
				Reason:   fmt.Sprintf("save dialog not found within %s", s.cfg.Timeouts.SaveDialog),
				Searched: []string{"save dialog by structure (primary button auto_id=1 + file name field auto_id=1148/label)"},
				Windows:  s.candidateTitles(),
			}
		}
		return err
	}
	s.shots.Snap("saveas_dialog")

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := s.fillChooser(ctx, dlg, outputPath, "EXPORT_GEO"); err != nil {
		s.shots.Snap("export_failed")
		return err
	}

	err = s.poll(ctx, s.cfg.Timeouts.ExportComplete, func() (bool, error) {
		// An overwrite prompt is part of the normal flow: confirm and keep
		// waiting. Anything else unexpected aborts.
		if win, ok := s.findConfirmation(); ok {
			if dialog.ConfirmYes(win) {
				s.logger.Info("confirmed overwrite prompt")
			}
			return false, nil
		}
		if err := s.checkUnexpected("EXPORT_GEO"); err != nil {
			return false, err
		}
		if _, present := s.findChooser(dialog.ChooserSave); present {
			return false, nil
		}
		return fileReady(outputPath), nil
	})
	if err != nil {
		s.shots.Snap("export_failed")
		if errors.Is(err, errTimeout) {
			return &NeedsHelpError{
				Step:    "EXPORT_GEO",
				Reason:  fmt.Sprintf("export failed: file missing or empty after %s; export_path=%s", s.cfg.Timeouts.ExportComplete, outputPath),
				Windows: s.candidateTitles(),
			}
		}
		return err
	}

	s.shots.Snap("export_done")
	s.state = StateExported
	s.logger.Info("geometry exported", "path", outputPath)
	return nil
}

// enterBendMode engages the specialized editing mode via hotkey. There is no
// observable signal that the mode was entered in current TecZone builds, so
// this settles and proceeds; a wrong mode surfaces later as a failed export.
// Known reliability gap, preferred over an invented detection heuristic.
func (s *Session) enterBendMode(ctx context.Context) error {
	if !s.cfg.UseEnterBend {
		return nil
	}
	if err := s.main.TypeKeys(s.cfg.EnterBendHotkey); err != nil {
		return fmt.Errorf("send bend hotkey: %w", err)
	}
	s.shots.Snap("enter_bend")

	if err := s.checkUnexpected("ENTER_BEND"); err != nil {
		return err
	}
	s.settle(ctx, settleDelay(s.cfg.Timeouts.EnterBend))
	return nil
}

// settleDelay bounds the blind post-hotkey wait.
func settleDelay(max time.Duration) time.Duration {
	const d = 500 * time.Millisecond
	if max > 0 && max < d {
		return max
	}
	return d
}

// openExportMenu invokes the configured export menu path, falling back to
// the keyboard accelerator and then to text-matching menu items anywhere in
// the process's windows.
func (s *Session) openExportMenu(ctx context.Context) error {
	path := s.cfg.MenuExportPath
	if len(path) < 2 {
		return &NeedsHelpError{
			Step:   "EXPORT_GEO",
			Reason: fmt.Sprintf("invalid workflow menu_export_path: %v", path),
			Hint:   "configure menu_export_path with at least a menu and an entry",
		}
	}

	if s.menuSelect(path) {
		return nil
	}

	// Accelerator fallback opens the first menu, then the remaining labels
	// are clicked wherever they show up.
	if item, ok := findMenuItem(s.main, path[0]); ok {
		_ = item.Click()
	} else if err := s.main.TypeKeys(s.cfg.ExportAccelerator); err != nil {
		s.logger.Warn("export accelerator failed", "error", err)
	}
	for _, label := range path[1:] {
		if !s.clickMenuItemAnywhere(ctx, label, s.cfg.Timeouts.ExportMenu) {
			return &NeedsHelpError{
				Step:     "EXPORT_GEO",
				Reason:   fmt.Sprintf("export menu item %q not found via fallback", label),
				Searched: []string{"menu " + strings.Join(path, "->")},
				Windows:  s.candidateTitles(),
			}
		}
	}
	return nil
}

// findConfirmation scans for an overwrite/confirmation dialog.
func (s *Session) findConfirmation() (uia.Element, bool) {
	wins, err := s.desktop.Windows()
	if err != nil {
		return nil, false
	}
	c := s.classifier()
	for _, w := range wins {
		if cl := c.Classify(w); cl.Kind == dialog.KindConfirmation {
			return w, true
		}
	}
	return nil, false
}

// fileReady reports a present, non-empty output file.
func fileReady(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
