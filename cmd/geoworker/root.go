package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quickfab/geoworker/internal/config"
)

var version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "geoworker",
	Short: "Resilient UI-automation worker for TecZone Bend",
	Long: `geoworker - job-driven automation for TecZone Bend

Watches a jobs directory for work orders, drives TecZone Bend through
the open / set-material / export workflow, and leaves results, logs,
and screenshots next to each project.

Run 'geoworker serve' to start processing jobs.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: discover)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("geoworker {{.Version}}\n")
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig resolves the effective configuration: the --config flag, then
// the discovery search path, then built-in defaults when no file exists.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			// No config file is fine; flags carry the required settings.
			return &config.Config{}, nil
		}
		path = found
	}
	return config.Load(path)
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Worker.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}
