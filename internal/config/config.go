// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Worker  WorkerConfig  `toml:"worker"`
	History HistoryConfig `toml:"history"`
	TecZone TecZoneConfig `toml:"teczone"`
	UI      UIConfig      `toml:"ui"`
}

type WorkerConfig struct {
	JobsDir      string `toml:"jobs_dir"`
	StateDir     string `toml:"state_dir"`
	PollInterval string `toml:"poll_interval"`
	LogLevel     string `toml:"log_level"`
}

// Poll returns the parsed poll interval, falling back to the default when
// unset or unparsable. Validate reports the parse error separately.
func (w WorkerConfig) Poll() time.Duration {
	if d, err := time.ParseDuration(w.PollInterval); err == nil && d > 0 {
		return d
	}
	return 2 * time.Second
}

type HistoryConfig struct {
	Path string `toml:"path"`
}

type TecZoneConfig struct {
	ExePath          string `toml:"exe_path"`
	MainTitlePattern string `toml:"main_title_pattern"`
	WorkflowConfig   string `toml:"workflow_config"`
}

type UIConfig struct {
	HotkeyPause       string   `toml:"hotkey_pause"`
	DisableHotkeys    bool     `toml:"disable_hotkeys"`
	DisableSounds     bool     `toml:"disable_sounds"`
	NoOverlay         bool     `toml:"no_overlay"`
	OverlayCommand    []string `toml:"overlay_command"`
	ScreenshotCommand []string `toml:"screenshot_command"`
}

// Load reads, substitutes, and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}
	cfgErr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return cfg, nil
}

// LoadWithoutValidation reads and substitutes the configuration file but
// skips semantic validation. Used by setup tooling where referenced paths
// may not exist yet. Unresolved environment variables still fail.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}
	cfgErr := &ConfigError{Path: path, Missing: missing}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return cfg, nil
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply defaults
	if cfg.Worker.PollInterval == "" {
		cfg.Worker.PollInterval = "2s"
	}
	if cfg.Worker.LogLevel == "" {
		cfg.Worker.LogLevel = "info"
	}
	if cfg.History.Path == "" {
		cfg.History.Path = "./data/geoworker.db"
	}
	if cfg.UI.HotkeyPause == "" {
		cfg.UI.HotkeyPause = "ctrl+alt+p"
	}

	return &cfg, missing, nil
}

// substituteEnvVars replaces ${VAR} references with environment values.
// Supported forms:
//
//	${VAR}           substituted when set, reported missing otherwise
//	${VAR:-default}  default used when VAR is unset or empty
//	${VAR:?message}  reported missing with message when unset or empty
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		expr := match[2 : len(match)-1] // Strip ${ and }

		if name, def, ok := strings.Cut(expr, ":-"); ok {
			if value := os.Getenv(name); value != "" {
				return value
			}
			return def
		}
		if name, msg, ok := strings.Cut(expr, ":?"); ok {
			if value := os.Getenv(name); value != "" {
				return value
			}
			missing = append(missing, name+": "+msg)
			return match
		}

		if value, ok := os.LookupEnv(expr); ok {
			return value
		}
		missing = append(missing, expr)
		return match // Leave unchanged so the error shows the reference
	})
	return out, missing
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
