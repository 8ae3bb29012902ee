package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the panel service.
type Config struct {
	HTTPPort       int
	APIBaseURL     string
	SQLiteDSN      string
	VaultSecret    string
	PollInterval   time.Duration
	BackendTimeout time.Duration
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// required values and reporting localized error messages for missing entries.
// PANEL_API_BASE_URL falls back to the development backend address used by
// the original deployment.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		APIBaseURL:     "http://localhost:8000",
		SQLiteDSN:      "file:panel.db?_foreign_keys=on",
		PollInterval:   30 * time.Second,
		BackendTimeout: 30 * time.Second,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("PANEL_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "PANEL_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if base := strings.TrimSpace(os.Getenv("PANEL_API_BASE_URL")); base != "" {
		cfg.APIBaseURL = strings.TrimRight(base, "/")
	}

	if dsn := strings.TrimSpace(os.Getenv("PANEL_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("PANEL_VAULT_SECRET")); secret == "" {
		missing = append(missing, "PANEL_VAULT_SECRET")
	} else {
		cfg.VaultSecret = secret
	}

	if pollValue := strings.TrimSpace(os.Getenv("PANEL_POLL_INTERVAL")); pollValue != "" {
		interval, err := time.ParseDuration(pollValue)
		if err != nil || interval <= 0 {
			invalid = append(invalid, "PANEL_POLL_INTERVAL")
		} else {
			cfg.PollInterval = interval
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("PANEL_BACKEND_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "PANEL_BACKEND_TIMEOUT")
		} else {
			cfg.BackendTimeout = timeout
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("faltan variables de entorno obligatorias: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("variables de entorno con valores inválidos: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
