package job

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDescriptor(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeDescriptor(t, "job-7.json", `{
		"jobId": "job-7",
		"projectRoot": "/srv/proj",
		"inputFiles": [
			{"partId": 101, "partName": "Bracket_L", "path": "/srv/proj/in/bracket.stp"}
		],
		"settings": {
			"exportDir": "/srv/proj/out",
			"exportNameTemplate": "<partName>_flat.geo",
			"dryRun": true,
			"timeouts": {"connect": "90s", "bogus": "nope"}
		},
		"xometryJson": "/srv/proj/xometry.json"
	}`)

	j, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "job-7", j.ID)
	assert.Equal(t, "/srv/proj", j.ProjectRoot)
	require.Len(t, j.InputFiles, 1)
	assert.Equal(t, 101, j.InputFiles[0].PartID)
	assert.True(t, j.Settings.DryRun)
	assert.Equal(t, "/srv/proj/xometry.json", j.CatalogPath)

	d, ok := j.TimeoutOverride("connect")
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, d)

	_, ok = j.TimeoutOverride("bogus")
	assert.False(t, ok)
	_, ok = j.TimeoutOverride("missing")
	assert.False(t, ok)
}

func TestLoad_IDDefaultsToFileName(t *testing.T) {
	path := writeDescriptor(t, "batch-3.json", `{"projectRoot": "/srv/proj"}`)
	j, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "batch-3", j.ID)
}

func TestLoad_MissingProjectRoot(t *testing.T) {
	path := writeDescriptor(t, "bad.json", `{"jobId": "bad"}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projectRoot")
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeDescriptor(t, "broken.json", `{"jobId": `)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestExportName(t *testing.T) {
	j := &Job{Settings: Settings{ExportNameTemplate: "<partName>_flat.geo"}}
	assert.Equal(t, "Bracket_L_flat.geo", j.ExportName(WorkItem{PartName: "Bracket_L"}))

	// Default template.
	j = &Job{}
	assert.Equal(t, "Bracket_L.geo", j.ExportName(WorkItem{PartName: "Bracket_L"}))
	assert.Equal(t, "101.geo", j.ExportName(WorkItem{PartID: 101}))
	assert.Equal(t, "unknown_part.geo", j.ExportName(WorkItem{}))
}

func TestExportDirDefault(t *testing.T) {
	j := &Job{ProjectRoot: "/srv/proj"}
	assert.Equal(t, filepath.Join("/srv/proj", "WORK", "out", "flat"), j.ExportDir())

	j.Settings.ExportDir = "/elsewhere"
	assert.Equal(t, "/elsewhere", j.ExportDir())
}
