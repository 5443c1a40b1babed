// internal/config/write_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefault(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "geoworker", "config.toml")

	err := WriteDefault(path)
	require.NoError(t, err, "WriteDefault failed")

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read written file")

	// Check for key sections
	assert.Contains(t, string(content), "[worker]")
	assert.Contains(t, string(content), "[teczone]")
	assert.Contains(t, string(content), "${GEOWORKER_JOBS_DIR")
}

func TestWriteDefault_CreatesDir(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "deep", "config.toml")

	err := WriteDefault(path)
	require.NoError(t, err, "WriteDefault failed")

	_, err = os.Stat(path)
	assert.False(t, os.IsNotExist(err), "file was not created")
}

func TestConfig_Write(t *testing.T) {
	cfg := &Config{
		Worker:  WorkerConfig{JobsDir: `C:\geoworker\jobs`, PollInterval: "3s"},
		History: HistoryConfig{Path: "./data/worker.db"},
	}

	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")

	err := cfg.Write(path)
	require.NoError(t, err, "Write failed")

	content, _ := os.ReadFile(path)
	assert.Contains(t, string(content), `geoworker\\jobs`)
	assert.Contains(t, string(content), "3s")
}

func TestFullSetupRoundTrip(t *testing.T) {
	tmp := t.TempDir()

	// 1. Write default config
	cfgPath := filepath.Join(tmp, "geoworker", "config.toml")
	require.NoError(t, WriteDefault(cfgPath))

	// 2. Point the jobs dir at a real location (t.Setenv auto-restores)
	jobs := filepath.ToSlash(t.TempDir())
	t.Setenv("GEOWORKER_JOBS_DIR", jobs)

	// 3. Load without validation (referenced tools may not exist yet)
	cfg, err := LoadWithoutValidation(cfgPath)
	require.NoError(t, err)

	// 4. Verify env substitution and defaults
	assert.Equal(t, jobs, cfg.Worker.JobsDir)
	assert.Equal(t, "2s", cfg.Worker.PollInterval)
	assert.Equal(t, "ctrl+alt+p", cfg.UI.HotkeyPause)
}
