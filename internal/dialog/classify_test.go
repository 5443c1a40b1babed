package dialog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickfab/geoworker/internal/dialog"
	"github.com/quickfab/geoworker/internal/uia"
	"github.com/quickfab/geoworker/internal/uia/uiatest"
)

const targetPID = 42

func chooserWindow(title string) *uiatest.Node {
	win := uiatest.NewWindow(title, targetPID)
	win.Add(
		uiatest.NewNode(uia.RoleText, "File name:", ""),
		uiatest.NewNode(uia.RoleComboBox, "", "1148").Add(
			uiatest.NewNode(uia.RoleEdit, "", ""),
		),
		uiatest.NewNode(uia.RoleButton, "Open", "1"),
		uiatest.NewNode(uia.RoleButton, "Cancel", "2"),
	)
	return win
}

func TestClassify_FileChooser(t *testing.T) {
	c := dialog.Classifier{ProcessID: targetPID}

	tests := []struct {
		name    string
		title   string
		chooser dialog.ChooserKind
	}{
		{"english open", "Open", dialog.ChooserOpen},
		{"english save", "Save As", dialog.ChooserSave},
		{"english export", "Export 2D Geometry", dialog.ChooserSave},
		{"german", "Öffnen", dialog.ChooserOpen},
		{"german save", "Speichern unter", dialog.ChooserSave},
		{"romanian save with diacritics", "Salvează ca", dialog.ChooserSave},
		{"french open", "Ouvrir", dialog.ChooserOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := c.Classify(chooserWindow(tt.title))
			assert.Equal(t, dialog.KindFileChooser, cl.Kind)
			assert.Equal(t, tt.chooser, cl.Chooser)
		})
	}
}

func TestClassify_TitleAloneIsNotAChooser(t *testing.T) {
	// Vocabulary matches but the window has no file-name field: an ordinary
	// message box titled "Save changes?" must not classify as a chooser.
	win := uiatest.NewWindow("Save changes?", targetPID)
	win.Add(
		uiatest.NewNode(uia.RoleText, "Save changes to Part_001?", ""),
		uiatest.NewNode(uia.RoleButton, "Yes", ""),
		uiatest.NewNode(uia.RoleButton, "No", ""),
	)

	cl := dialog.Classifier{ProcessID: targetPID}.Classify(win)
	assert.NotEqual(t, dialog.KindFileChooser, cl.Kind)
}

func TestClassify_StructureWithoutKnownTitleNeedsCancel(t *testing.T) {
	// Unknown language: structure plus cancel button is accepted.
	win := chooserWindow("Avaa tiedosto")
	cl := dialog.Classifier{}.Classify(win)
	assert.Equal(t, dialog.KindFileChooser, cl.Kind)
}

func TestClassify_Confirmation(t *testing.T) {
	win := uiatest.NewWindow("Confirm Save As", targetPID)
	win.Add(
		uiatest.NewNode(uia.RoleText, "Part_001.geo already exists. Do you want to replace it?", ""),
		uiatest.NewNode(uia.RoleButton, "Yes", ""),
		uiatest.NewNode(uia.RoleButton, "No", ""),
	)

	cl := dialog.Classifier{ProcessID: targetPID}.Classify(win)
	require.Equal(t, dialog.KindConfirmation, cl.Kind)
	assert.Contains(t, cl.Text, "already exists")
}

func TestClassify_ConfirmationWithoutYesButton(t *testing.T) {
	win := uiatest.NewWindow("Notice", targetPID)
	win.Add(uiatest.NewNode(uia.RoleText, "File will be overwritten automatically", ""))

	cl := dialog.Classifier{ProcessID: targetPID}.Classify(win)
	// Overwrite vocabulary without an affirmative button is not confirmable.
	assert.Equal(t, dialog.KindNone, cl.Kind)
}

func TestClassify_Unexpected(t *testing.T) {
	c := dialog.Classifier{ProcessID: targetPID}

	tests := []struct {
		name  string
		title string
		body  string
	}{
		{"error title", "Error", "Something broke"},
		{"warning body", "TecZone", "Warning: file is read only"},
		{"missing file", "TecZone", "The file does not exist"},
		{"invalid input", "Attention", "Value is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			win := uiatest.NewWindow(tt.title, targetPID)
			win.Add(uiatest.NewNode(uia.RoleText, tt.body, ""))

			cl := c.Classify(win)
			require.Equal(t, dialog.KindUnexpected, cl.Kind)
			assert.NotEmpty(t, cl.Text)
		})
	}
}

func TestClassify_ChooserIsNotUnexpected(t *testing.T) {
	// A normal Save dialog shares vocabulary with the unexpected keyword set
	// ("Confirm Save As" contains "confirm"); structure wins.
	win := chooserWindow("Save As")
	cl := dialog.Classifier{ProcessID: targetPID}.Classify(win)
	assert.Equal(t, dialog.KindFileChooser, cl.Kind)
}

func TestClassify_UnexpectedRestrictedToProcess(t *testing.T) {
	foreign := uiatest.NewWindow("Error", 7)
	foreign.Add(uiatest.NewNode(uia.RoleText, "Unrelated application error", ""))

	cl := dialog.Classifier{ProcessID: targetPID}.Classify(foreign)
	assert.Equal(t, dialog.KindNone, cl.Kind)
}

func TestFindUnexpected(t *testing.T) {
	errWin := uiatest.NewWindow("Error", targetPID)
	errWin.Add(uiatest.NewNode(uia.RoleText, "Cannot open file", ""))
	d := uiatest.NewDesktop(uiatest.NewWindow("TecZone Bend", targetPID), errWin)

	text, found := dialog.Classifier{ProcessID: targetPID}.FindUnexpected(d)
	require.True(t, found)
	assert.Contains(t, text, "Cannot open file")
}

func TestFileNameField_PrefersStableID(t *testing.T) {
	win := chooserWindow("Open")
	field, ok := dialog.FileNameField(win)
	require.True(t, ok)
	assert.Equal(t, uia.RoleEdit, field.Role())
}

func TestFileNameField_FallsBackToLabeledField(t *testing.T) {
	win := uiatest.NewWindow("Open", targetPID)
	edit := uiatest.NewNode(uia.RoleEdit, "", "")
	win.Add(
		uiatest.NewNode(uia.RoleComboBox, "Dateiname", "").Add(edit),
		uiatest.NewNode(uia.RoleButton, "Öffnen", "1"),
	)

	field, ok := dialog.FileNameField(win)
	require.True(t, ok)
	assert.Same(t, edit, field.(*uiatest.Node))
}

func TestConfirmYes(t *testing.T) {
	yes := uiatest.NewNode(uia.RoleButton, "Yes", "")
	win := uiatest.NewWindow("Confirm", targetPID)
	win.Add(uiatest.NewNode(uia.RoleText, "Replace existing file?", ""), yes)

	require.True(t, dialog.ConfirmYes(win))
	assert.Equal(t, 1, yes.Clicks)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "salveaza", dialog.Fold("Salvează"))
	assert.Equal(t, "offnen", dialog.Fold("Öffnen"))
}
