// Package config handles XDG configuration directory, environment and file paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "todoctl"

	// SessionFile is the stored session filename.
	SessionFile = "session.json"

	// EnvFile is the optional dotenv file read from the config directory and the working directory.
	EnvFile = ".env"
)

// Environment variables.
const (
	EnvAPIURL      = "TODO_API_URL"
	EnvConfigDir   = "TODO_CONFIG_DIR"
	EnvRateLimit   = "TODO_RATE_LIMIT"
	EnvMetricsFile = "TODO_METRICS_FILE"
	EnvLogFormat   = "TODO_LOG_FORMAT"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the API base URL without trailing slash. Empty if unset.
	APIURL string

	// RateLimit caps API requests per second. Zero means unlimited.
	RateLimit float64

	// MetricsFile, when set, receives Prometheus metrics at exit.
	MetricsFile string

	// LogFormat is "text" or "json".
	LogFormat string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a Config with the default or specified config directory and
// reads the environment. Dotenv files never override variables already set.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = os.Getenv(EnvConfigDir)
	}
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}

	if err := loadEnvFiles(filepath.Join(dir, EnvFile), EnvFile); err != nil {
		return nil, err
	}
	if err := cfg.readEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("invalid %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) readEnv() error {
	c.APIURL = NormalizeURL(os.Getenv(EnvAPIURL))
	c.MetricsFile = os.Getenv(EnvMetricsFile)

	c.LogFormat = strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogFormat)))
	switch c.LogFormat {
	case "":
		c.LogFormat = "text"
	case "text", "json":
	default:
		return fmt.Errorf("invalid %s: %s", EnvLogFormat, c.LogFormat)
	}

	if v := strings.TrimSpace(os.Getenv(EnvRateLimit)); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r < 0 {
			return fmt.Errorf("invalid %s: %s", EnvRateLimit, v)
		}
		c.RateLimit = r
	}
	return nil
}

// NormalizeURL trims whitespace and trailing slashes.
func NormalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// HasAPIURL reports whether an API base URL is configured.
func (c *Config) HasAPIURL() bool {
	return c.APIURL != ""
}
