// internal/config/error_test.go
package config

import (
	"strings"
	"testing"
)

func TestConfigError_Error_Empty(t *testing.T) {
	e := &ConfigError{Path: "/etc/geoworker/config.toml"}
	got := e.Error()
	if got != "" {
		t.Errorf("expected empty string for no errors, got %q", got)
	}
}

func TestConfigError_Error_MissingVars(t *testing.T) {
	e := &ConfigError{
		Path:    "/etc/geoworker/config.toml",
		Missing: []string{"API_KEY", "SECRET"},
	}
	got := e.Error()
	if !strings.Contains(got, "missing environment variables") {
		t.Errorf("expected 'missing environment variables', got %q", got)
	}
	if !strings.Contains(got, "API_KEY") || !strings.Contains(got, "SECRET") {
		t.Errorf("expected var names in error, got %q", got)
	}
}

func TestConfigError_Error_ValidationErrors(t *testing.T) {
	e := &ConfigError{
		Path:   "/etc/geoworker/config.toml",
		Errors: []string{"worker.poll_interval: must be a positive duration", "worker.log_level: invalid"},
	}
	got := e.Error()
	if !strings.Contains(got, "validation failed") {
		t.Errorf("expected 'validation failed', got %q", got)
	}
	if !strings.Contains(got, "worker.poll_interval") {
		t.Errorf("expected field name in error, got %q", got)
	}
}

func TestConfigError_Error_Both(t *testing.T) {
	e := &ConfigError{
		Path:    "/etc/geoworker/config.toml",
		Missing: []string{"API_KEY"},
		Errors:  []string{"worker.jobs_dir: required"},
	}
	got := e.Error()
	if !strings.Contains(got, "missing environment variables") {
		t.Errorf("expected missing vars section, got %q", got)
	}
	if !strings.Contains(got, "validation failed") {
		t.Errorf("expected validation section, got %q", got)
	}
}
