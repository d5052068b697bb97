// Package config loads the bridge configuration: engine tuning, logger output
// and metrics. Values come from built-in defaults, then an optional YAML or
// TOML file named by SMOLDOT_CONFIG, then SMOLDOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadFromEnv and ApplyEnvOverrides.
const (
	EnvConfigPath     = "SMOLDOT_CONFIG"
	EnvClientName     = "SMOLDOT_CLIENT_NAME"
	EnvClientVersion  = "SMOLDOT_CLIENT_VERSION"
	EnvResponseBuffer = "SMOLDOT_RESPONSE_BUFFER"
	EnvRPCRate        = "SMOLDOT_RPC_RATE"
	EnvRPCBurst       = "SMOLDOT_RPC_BURST"
	EnvLogFormat      = "SMOLDOT_LOG_FORMAT"
	EnvLogOutput      = "SMOLDOT_LOG_OUTPUT"
	EnvMetricsEnabled = "SMOLDOT_METRICS_ENABLED"
)

// ErrUnsupportedFormat is returned for a config file that is neither YAML nor
// TOML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config is the complete bridge configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine" toml:"engine"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
}

// EngineConfig tunes the reference engine.
type EngineConfig struct {
	ClientName     string `yaml:"clientName" toml:"client_name"`
	ClientVersion  string `yaml:"clientVersion" toml:"client_version"`
	ResponseBuffer int    `yaml:"responseBuffer" toml:"response_buffer"`
	// RequestsPerSecond limits requests per chain; zero means unlimited.
	RequestsPerSecond float64 `yaml:"requestsPerSecond" toml:"requests_per_second"`
	RequestBurst      int     `yaml:"requestBurst" toml:"request_burst"`
}

// LoggingConfig selects the log format (text or json) and stream (stderr or
// stdout).
type LoggingConfig struct {
	Format string `yaml:"format" toml:"format"`
	Output string `yaml:"output" toml:"output"`
}

// Writer returns the stream named by Output.
func (c LoggingConfig) Writer() io.Writer {
	if c.Output == "stdout" {
		return os.Stdout
	}
	return os.Stderr
}

// MetricsConfig controls the registry's Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Namespace string `yaml:"namespace" toml:"namespace"`
}

// fileConfig mirrors Config with pointer fields so a file can leave values unset.
type fileConfig struct {
	Engine struct {
		ClientName        string   `yaml:"clientName" toml:"client_name"`
		ClientVersion     string   `yaml:"clientVersion" toml:"client_version"`
		ResponseBuffer    int      `yaml:"responseBuffer" toml:"response_buffer"`
		RequestsPerSecond *float64 `yaml:"requestsPerSecond" toml:"requests_per_second"`
		RequestBurst      int      `yaml:"requestBurst" toml:"request_burst"`
	} `yaml:"engine" toml:"engine"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Metrics struct {
		Enabled   *bool  `yaml:"enabled" toml:"enabled"`
		Namespace string `yaml:"namespace" toml:"namespace"`
	} `yaml:"metrics" toml:"metrics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			ClientName:     "smolder-c-ffi",
			ClientVersion:  "0.1.0",
			ResponseBuffer: 64,
		},
		Logging: LoggingConfig{
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "smoldot",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		parsed, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		merge(&cfg, parsed)
	}
	ApplyEnvOverrides(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by SMOLDOT_CONFIG. A path that does not
// exist is ignored; a file that exists but cannot be parsed is an error.
func LoadFromEnv() (Config, error) {
	path := strings.TrimSpace(os.Getenv(EnvConfigPath))
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	return Load(path)
}

func readFile(path string) (fileConfig, error) {
	var parsed fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return parsed, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &parsed)
	case ".toml":
		err = toml.Unmarshal(data, &parsed)
	default:
		return parsed, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return parsed, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return parsed, nil
}

func merge(dst *Config, src fileConfig) {
	if src.Engine.ClientName != "" {
		dst.Engine.ClientName = src.Engine.ClientName
	}
	if src.Engine.ClientVersion != "" {
		dst.Engine.ClientVersion = src.Engine.ClientVersion
	}
	if src.Engine.ResponseBuffer != 0 {
		dst.Engine.ResponseBuffer = src.Engine.ResponseBuffer
	}
	if src.Engine.RequestsPerSecond != nil {
		dst.Engine.RequestsPerSecond = *src.Engine.RequestsPerSecond
	}
	if src.Engine.RequestBurst != 0 {
		dst.Engine.RequestBurst = src.Engine.RequestBurst
	}
	if src.Logging.Format != "" {
		dst.Logging.Format = src.Logging.Format
	}
	if src.Logging.Output != "" {
		dst.Logging.Output = src.Logging.Output
	}
	if src.Metrics.Enabled != nil {
		dst.Metrics.Enabled = *src.Metrics.Enabled
	}
	if src.Metrics.Namespace != "" {
		dst.Metrics.Namespace = src.Metrics.Namespace
	}
}

// ApplyEnvOverrides replaces fields of cfg with the SMOLDOT_* variables that
// are set. Values that do not parse are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvClientName)); v != "" {
		cfg.Engine.ClientName = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvClientVersion)); v != "" {
		cfg.Engine.ClientVersion = v
	}
	if v, ok := parseIntEnv(EnvResponseBuffer); ok {
		cfg.Engine.ResponseBuffer = v
	}
	if raw := strings.TrimSpace(os.Getenv(EnvRPCRate)); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed >= 0 {
			cfg.Engine.RequestsPerSecond = parsed
		}
	}
	if v, ok := parseIntEnv(EnvRPCBurst); ok {
		cfg.Engine.RequestBurst = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogOutput)); v != "" {
		cfg.Logging.Output = strings.ToLower(v)
	}
	if raw := strings.TrimSpace(os.Getenv(EnvMetricsEnabled)); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.Metrics.Enabled = v
		}
	}
}

// Validate reports the first field of cfg that is out of range.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Engine.ClientName) == "" {
		return fmt.Errorf("engine config missing client name")
	}
	if cfg.Engine.ResponseBuffer < 0 {
		return fmt.Errorf("engine response buffer must not be negative")
	}
	if cfg.Engine.RequestsPerSecond < 0 {
		return fmt.Errorf("engine requests per second must not be negative")
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging format %q must be text or json", cfg.Logging.Format)
	}
	switch cfg.Logging.Output {
	case "stderr", "stdout":
	default:
		return fmt.Errorf("logging output %q must be stderr or stdout", cfg.Logging.Output)
	}
	return nil
}

func parseIntEnv(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
