package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AllSections(t *testing.T) {
	jobs := filepath.ToSlash(t.TempDir())
	path := writeConfig(t, `
[worker]
jobs_dir = "`+jobs+`"
state_dir = "D:/state"
poll_interval = "5s"
log_level = "debug"

[history]
path = "D:/data/worker.db"

[teczone]
main_title_pattern = "TecZone.*Bend"

[ui]
hotkey_pause = "ctrl+shift+q"
disable_sounds = true
overlay_command = ["pythonw", "overlay.pyw"]
screenshot_command = ["nircmd", "savescreenshot", "{path}"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, jobs, cfg.Worker.JobsDir)
	assert.Equal(t, "D:/state", cfg.Worker.StateDir)
	assert.Equal(t, 5*time.Second, cfg.Worker.Poll())
	assert.Equal(t, "debug", cfg.Worker.LogLevel)
	assert.Equal(t, "D:/data/worker.db", cfg.History.Path)
	assert.Equal(t, "TecZone.*Bend", cfg.TecZone.MainTitlePattern)
	assert.Equal(t, "ctrl+shift+q", cfg.UI.HotkeyPause)
	assert.True(t, cfg.UI.DisableSounds)
	assert.Equal(t, []string{"pythonw", "overlay.pyw"}, cfg.UI.OverlayCommand)
	assert.Equal(t, []string{"nircmd", "savescreenshot", "{path}"}, cfg.UI.ScreenshotCommand)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[worker]
jobs_dir = "`+filepath.ToSlash(t.TempDir())+`"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "2s", cfg.Worker.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Worker.Poll())
	assert.Equal(t, "info", cfg.Worker.LogLevel)
	assert.Equal(t, "./data/geoworker.db", cfg.History.Path)
	assert.Equal(t, "ctrl+alt+p", cfg.UI.HotkeyPause)
}

func TestWorkerConfig_PollFallsBackOnGarbage(t *testing.T) {
	w := WorkerConfig{PollInterval: "often"}
	assert.Equal(t, 2*time.Second, w.Poll())
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoad_BadTOML(t *testing.T) {
	path := writeConfig(t, `[worker`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}
