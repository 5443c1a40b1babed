package teczone

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickfab/geoworker/internal/uia"
	"github.com/quickfab/geoworker/internal/uia/uiatest"
)

const appPID = 42

type fakeLauncher struct {
	pid      int
	running  bool
	startPID int
	startErr error
	started  []string
}

func (f *fakeLauncher) FindRunning() (int, bool) { return f.pid, f.running }

func (f *fakeLauncher) Start(path string) (int, error) {
	f.started = append(f.started, path)
	return f.startPID, f.startErr
}

// testWorkflow shrinks every deadline so failure paths run in milliseconds.
func testWorkflow() Workflow {
	cfg := DefaultWorkflow()
	cfg.Timeouts = Timeouts{
		Connect:        200 * time.Millisecond,
		OpenDialog:     100 * time.Millisecond,
		OpenComplete:   500 * time.Millisecond,
		MaterialDialog: 200 * time.Millisecond,
		EnterBend:      10 * time.Millisecond,
		ExportMenu:     100 * time.Millisecond,
		SaveDialog:     200 * time.Millisecond,
		ExportComplete: 500 * time.Millisecond,
		Poll:           10 * time.Millisecond,
	}
	return cfg
}

func mainWindow() *uiatest.Node {
	return uiatest.NewWindow("TecZone Bend V5.0 - Flux", appPID)
}

func newTestSession(t *testing.T, desktop *uiatest.Desktop, launcher Launcher) *Session {
	t.Helper()
	if launcher == nil {
		launcher = &fakeLauncher{pid: appPID, running: true}
	}
	return NewSession(desktop, launcher, testWorkflow(), Options{}, testLogger(), nil)
}

// openChooser builds a structurally-valid open dialog whose primary button
// removes it from the desktop.
func openChooser(d *uiatest.Desktop, title string) (*uiatest.Node, *uiatest.Node) {
	dlg := uiatest.NewWindow(title, appPID)
	field := uiatest.NewNode(uia.RoleEdit, "", "1148")
	open := uiatest.NewNode(uia.RoleButton, "Open", "1")
	open.OnClick = func(*uiatest.Node) { d.RemoveWindow(dlg) }
	dlg.Add(
		uiatest.NewNode(uia.RoleText, "File name:", ""),
		field,
		open,
		uiatest.NewNode(uia.RoleButton, "Cancel", "2"),
	)
	return dlg, field
}

func connect(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Connect(context.Background()))
	require.Equal(t, StateConnected, s.State())
}

func TestConnect_AlreadyRunning(t *testing.T) {
	d := uiatest.NewDesktop(mainWindow())
	s := newTestSession(t, d, nil)

	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, StateConnected, s.State())
	assert.Equal(t, appPID, s.ProcessID())
}

func TestConnect_WindowAppearsLate(t *testing.T) {
	d := uiatest.NewDesktop()
	s := newTestSession(t, d, nil)

	go func() {
		time.Sleep(50 * time.Millisecond)
		d.AddWindow(mainWindow())
	}()

	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, StateConnected, s.State())
}

func TestConnect_TimeoutNeedsHelp(t *testing.T) {
	// Windows exist but none belongs to the target process / title patterns.
	d := uiatest.NewDesktop(uiatest.NewWindow("Notepad", 7), uiatest.NewWindow("Excel", 8))
	s := newTestSession(t, d, nil)

	err := s.Connect(context.Background())
	nh, ok := AsNeedsHelp(err)
	require.True(t, ok, "expected NeedsHelp, got %v", err)
	assert.Equal(t, "CONNECT", nh.Step)
	assert.NotEmpty(t, nh.Searched)
	assert.Equal(t, []string{"Notepad", "Excel"}, nh.Windows)
	assert.Equal(t, StateDisconnected, s.State())
}

func TestConnect_NoLaunchPath(t *testing.T) {
	d := uiatest.NewDesktop()
	s := newTestSession(t, d, &fakeLauncher{running: false})
	s.resolvePath = func(string) (string, error) {
		return "", errors.New("Flux.exe not found; tried explicit override=<unset>")
	}

	err := s.Connect(context.Background())
	nh, ok := AsNeedsHelp(err)
	require.True(t, ok)
	assert.Equal(t, "CONNECT", nh.Step)
	assert.Contains(t, nh.Hint, "--teczone-exe")
}

func TestConnect_LaunchesWhenNotRunning(t *testing.T) {
	d := uiatest.NewDesktop()
	launcher := &fakeLauncher{running: false, startPID: appPID}
	s := newTestSession(t, d, launcher)
	s.resolvePath = func(string) (string, error) { return `C:\TecZone Bend\Flux.exe`, nil }

	go func() {
		time.Sleep(30 * time.Millisecond)
		d.AddWindow(mainWindow())
	}()

	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, []string{`C:\TecZone Bend\Flux.exe`}, launcher.started)
}

func TestConnect_Twice(t *testing.T) {
	d := uiatest.NewDesktop(mainWindow())
	s := newTestSession(t, d, nil)
	connect(t, s)

	err := s.Connect(context.Background())
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func stepFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bracket.stp")
	require.NoError(t, os.WriteFile(path, []byte("ISO-10303-21;"), 0o644))
	return path
}

func TestOpenFile_RejectsBadInputBeforeUI(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	s := newTestSession(t, d, nil)
	connect(t, s)
	d.WindowsCalls = 0

	bad := filepath.Join(t.TempDir(), "part.iges")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))

	err := s.OpenFile(context.Background(), bad)
	nh, ok := AsNeedsHelp(err)
	require.True(t, ok)
	assert.Contains(t, nh.Reason, "unsupported input extension")

	// Fail-fast contract: no dialog search, no keystrokes.
	assert.Zero(t, d.WindowsCalls)
	assert.Empty(t, main.TypedKeys)
}

func TestOpenFile_MissingFile(t *testing.T) {
	d := uiatest.NewDesktop(mainWindow())
	s := newTestSession(t, d, nil)
	connect(t, s)

	err := s.OpenFile(context.Background(), filepath.Join(t.TempDir(), "ghost.stp"))
	nh, ok := AsNeedsHelp(err)
	require.True(t, ok)
	assert.Contains(t, nh.Reason, "not found")
}

func TestOpenFile_ViaShortcut(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	dlg, field := openChooser(d, "Open")
	main.OnType = func(_ *uiatest.Node, spec string) {
		if spec == "ctrl+o" {
			d.AddWindow(dlg)
		}
	}
	s := newTestSession(t, d, nil)
	connect(t, s)

	path := stepFile(t)
	require.NoError(t, s.OpenFile(context.Background(), path))

	assert.Equal(t, StateFileOpen, s.State())
	require.NotEmpty(t, field.SetTexts)
	assert.Equal(t, path, field.SetTexts[0])
}

func TestOpenFile_MenuFallback(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	dlg, _ := openChooser(d, "Open")

	// The shortcut does nothing; only the File->Open menu brings up the
	// dialog.
	openItem := uiatest.NewNode(uia.RoleMenuItem, "Open...", "")
	openItem.OnClick = func(*uiatest.Node) { d.AddWindow(dlg) }
	fileMenu := uiatest.NewNode(uia.RoleMenuItem, "File", "")
	fileMenu.Add(openItem)
	main.Add(fileMenu)

	s := newTestSession(t, d, nil)
	connect(t, s)

	require.NoError(t, s.OpenFile(context.Background(), stepFile(t)))
	assert.Equal(t, 1, openItem.Clicks)
	assert.Equal(t, StateFileOpen, s.State())
}

func TestOpenFile_NoDialogNeedsHelp(t *testing.T) {
	d := uiatest.NewDesktop(mainWindow())
	s := newTestSession(t, d, nil)
	connect(t, s)

	err := s.OpenFile(context.Background(), stepFile(t))
	nh, ok := AsNeedsHelp(err)
	require.True(t, ok)
	assert.Equal(t, "OPEN_FILE", nh.Step)
	assert.NotEmpty(t, nh.Searched)
	assert.Contains(t, nh.Windows, "TecZone Bend V5.0 - Flux")
}

func TestOpenFile_UnexpectedDialogWhileClosing(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)

	dlg := uiatest.NewWindow("Open", appPID)
	field := uiatest.NewNode(uia.RoleEdit, "", "1148")
	open := uiatest.NewNode(uia.RoleButton, "Open", "1")
	errWin := uiatest.NewWindow("Error", appPID)
	errWin.Add(uiatest.NewNode(uia.RoleText, "Cannot read file", ""))
	open.OnClick = func(*uiatest.Node) {
		d.RemoveWindow(dlg)
		d.AddWindow(errWin)
	}
	dlg.Add(field, open, uiatest.NewNode(uia.RoleButton, "Cancel", "2"))
	main.OnType = func(_ *uiatest.Node, spec string) {
		if spec == "ctrl+o" {
			d.AddWindow(dlg)
		}
	}

	s := newTestSession(t, d, nil)
	connect(t, s)

	err := s.OpenFile(context.Background(), stepFile(t))
	nh, ok := AsNeedsHelp(err)
	require.True(t, ok)
	assert.Contains(t, nh.Reason, "unexpected dialog")
	assert.Contains(t, nh.Reason, "Cannot read file")
}

// materialSetup wires the Material menu to a selection dialog listing the
// given entries.
func materialSetup(main *uiatest.Node, d *uiatest.Desktop, entries ...string) *uiatest.Node {
	dlg := uiatest.NewWindow("Material selection", appPID)
	for _, e := range entries {
		dlg.Add(uiatest.NewNode(uia.RoleListItem, e, ""))
	}
	okBtn := uiatest.NewNode(uia.RoleButton, "OK", "")
	okBtn.OnClick = func(*uiatest.Node) { d.RemoveWindow(dlg) }
	dlg.Add(okBtn)

	item := uiatest.NewNode(uia.RoleMenuItem, "Material...", "")
	item.OnClick = func(*uiatest.Node) { d.AddWindow(dlg) }
	main.Add(item)
	return dlg
}

func openedSession(t *testing.T, main *uiatest.Node, d *uiatest.Desktop) *Session {
	t.Helper()
	dlg, _ := openChooser(d, "Open")
	prev := main.OnType
	main.OnType = func(n *uiatest.Node, spec string) {
		if prev != nil {
			prev(n, spec)
		}
		if spec == "ctrl+o" {
			d.AddWindow(dlg)
		}
	}
	s := newTestSession(t, d, nil)
	connect(t, s)
	require.NoError(t, s.OpenFile(context.Background(), stepFile(t)))
	return s
}

func TestSetMaterial_ExactMatch(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	dlg := materialSetup(main, d, "Aluminum 5754", "Stainless Steel 304 (1.4301)")
	_ = dlg
	s := openedSession(t, main, d)

	applied, note, err := s.SetMaterial(context.Background(), "stainless steel 304")
	require.NoError(t, err)
	assert.Equal(t, "Stainless Steel 304 (1.4301)", applied)
	assert.Empty(t, note)
	assert.Equal(t, StateMaterialSet, s.State())
}

func TestSetMaterial_FallbackToFirstEntry(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	materialSetup(main, d, "Mild Steel S235", "Copper Cu-DHP")
	s := openedSession(t, main, d)

	applied, note, err := s.SetMaterial(context.Background(), "Titanium Grade 5")
	require.NoError(t, err)
	assert.Equal(t, "Mild Steel S235", applied)
	assert.Contains(t, note, "Titanium Grade 5")
	assert.Contains(t, note, "fallback")
}

func TestSetMaterial_BestOfMultipleMatches(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	materialSetup(main, d, "Steel 3041 coated", "steel 304")
	s := openedSession(t, main, d)

	applied, note, err := s.SetMaterial(context.Background(), "Steel 304")
	require.NoError(t, err)
	assert.Equal(t, "steel 304", applied)
	assert.Empty(t, note)
}

func TestSetMaterial_MissingMaterialRequired(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	materialSetup(main, d, "Mild Steel S235")
	s := openedSession(t, main, d)

	_, _, err := s.SetMaterial(context.Background(), "")
	nh, ok := AsNeedsHelp(err)
	require.True(t, ok)
	assert.Equal(t, "SET_MATERIAL", nh.Step)
}

func TestSetMaterial_MissingMaterialOptional(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	materialSetup(main, d, "Mild Steel S235")
	s := openedSession(t, main, d)
	s.cfg.MaterialRequired = false

	applied, note, err := s.SetMaterial(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.Contains(t, note, "skipped")
	assert.Equal(t, StateMaterialSet, s.State())
}

func TestSetMaterial_MenuMissing(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	s := openedSession(t, main, d)

	_, _, err := s.SetMaterial(context.Background(), "Steel")
	nh, ok := AsNeedsHelp(err)
	require.True(t, ok)
	assert.Contains(t, nh.Reason, "material menu")
}

// exportSetup wires File->Export->2D Geometry to a save dialog whose save
// button writes the output file (when write is true) and closes the dialog.
func exportSetup(t *testing.T, main *uiatest.Node, d *uiatest.Desktop, write bool) {
	t.Helper()
	dlg := uiatest.NewWindow("Export 2D Geometry", appPID)
	field := uiatest.NewNode(uia.RoleEdit, "", "1148")
	save := uiatest.NewNode(uia.RoleButton, "Save", "1")
	save.OnClick = func(*uiatest.Node) {
		if write {
			text, err := field.Text()
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(text, []byte("GEO 1.03\n"), 0o644))
		}
		d.RemoveWindow(dlg)
	}
	dlg.Add(field, save, uiatest.NewNode(uia.RoleButton, "Cancel", "2"))

	leaf := uiatest.NewNode(uia.RoleMenuItem, "2D Geometry", "")
	leaf.OnClick = func(*uiatest.Node) { d.AddWindow(dlg) }
	export := uiatest.NewNode(uia.RoleMenuItem, "Export", "")
	export.Add(leaf)
	file := uiatest.NewNode(uia.RoleMenuItem, "File", "")
	file.Add(export)
	main.Add(file)
}

func materialSession(t *testing.T, main *uiatest.Node, d *uiatest.Desktop) *Session {
	t.Helper()
	materialSetup(main, d, "Mild Steel S235")
	s := openedSession(t, main, d)
	_, _, err := s.SetMaterial(context.Background(), "Mild Steel S235")
	require.NoError(t, err)
	return s
}

func TestExportGeometry_HappyPath(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	exportSetup(t, main, d, true)
	s := materialSession(t, main, d)

	out := filepath.Join(t.TempDir(), "flat", "Bracket_L.geo")
	require.NoError(t, s.ExportGeometry(context.Background(), out))

	assert.Equal(t, StateExported, s.State())
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	// Bend mode hotkey was sent before the export menu.
	assert.Contains(t, main.TypedKeys, "b")
}

func TestExportGeometry_FileMissingNeedsHelp(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	exportSetup(t, main, d, false) // dialog closes, file never written
	s := materialSession(t, main, d)

	err := s.ExportGeometry(context.Background(), filepath.Join(t.TempDir(), "missing.geo"))
	nh, ok := AsNeedsHelp(err)
	require.True(t, ok)
	assert.Equal(t, "EXPORT_GEO", nh.Step)
	assert.Contains(t, nh.Reason, "file missing or empty")
}

func TestExportGeometry_MenuMissingNeedsHelp(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	s := materialSession(t, main, d)

	err := s.ExportGeometry(context.Background(), filepath.Join(t.TempDir(), "out.geo"))
	nh, ok := AsNeedsHelp(err)
	require.True(t, ok)
	assert.Contains(t, nh.Reason, "not found")
}

func TestExportGeometry_ConfirmsOverwrite(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)

	out := filepath.Join(t.TempDir(), "Bracket_L.geo")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0o644))

	dlg := uiatest.NewWindow("Export 2D Geometry", appPID)
	field := uiatest.NewNode(uia.RoleEdit, "", "1148")
	save := uiatest.NewNode(uia.RoleButton, "Save", "1")
	confirm := uiatest.NewWindow("Confirm Save As", appPID)
	confirm.Add(uiatest.NewNode(uia.RoleText, "Bracket_L.geo already exists. Replace it?", ""))
	yes := uiatest.NewNode(uia.RoleButton, "Yes", "")
	yes.OnClick = func(*uiatest.Node) {
		require.NoError(t, os.WriteFile(out, []byte("GEO 1.03 new\n"), 0o644))
		d.RemoveWindow(confirm)
		d.RemoveWindow(dlg)
	}
	confirm.Add(yes)
	save.OnClick = func(*uiatest.Node) { d.AddWindow(confirm) }
	dlg.Add(field, save, uiatest.NewNode(uia.RoleButton, "Cancel", "2"))

	leaf := uiatest.NewNode(uia.RoleMenuItem, "2D Geometry", "")
	leaf.OnClick = func(*uiatest.Node) { d.AddWindow(dlg) }
	export := uiatest.NewNode(uia.RoleMenuItem, "Export", "")
	export.Add(leaf)
	file := uiatest.NewNode(uia.RoleMenuItem, "File", "")
	file.Add(export)
	main.Add(file)

	s := materialSession(t, main, d)
	require.NoError(t, s.ExportGeometry(context.Background(), out))
	assert.Equal(t, 1, yes.Clicks)
}

func TestPrimitives_OutOfOrder(t *testing.T) {
	d := uiatest.NewDesktop(mainWindow())
	s := newTestSession(t, d, nil)

	err := s.OpenFile(context.Background(), "x.stp")
	assert.ErrorIs(t, err, ErrOutOfOrder)
	_, _, err = s.SetMaterial(context.Background(), "Steel")
	assert.ErrorIs(t, err, ErrOutOfOrder)
	err = s.ExportGeometry(context.Background(), "out.geo")
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestCloseActiveDocument(t *testing.T) {
	main := mainWindow()
	d := uiatest.NewDesktop(main)
	materialSetup(main, d, "Mild Steel S235")
	s := openedSession(t, main, d)

	s.CloseActiveDocument(context.Background())
	assert.Equal(t, StateConnected, s.State())
	assert.Contains(t, main.TypedKeys, "ctrl+f4")
}

func TestCandidateTitlesCapped(t *testing.T) {
	d := uiatest.NewDesktop()
	for i := 0; i < maxCandidateTitles+10; i++ {
		d.AddWindow(uiatest.NewWindow(fmt.Sprintf("win-%d", i), 7))
	}
	s := newTestSession(t, d, nil)
	assert.Len(t, s.candidateTitles(), maxCandidateTitles)
}
