package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/viktoriya-kutsarova/project-gravity/internal/logger"
)

// Config holds the settings shared by the alarm service and its clients.
type Config struct {
	// ServerAddress is the gRPC address the service listens on and clients dial.
	ServerAddress string `yaml:"server_addr" env:"GRAVITY_SERVER_ADDR"`
	// Timeout bounds RPC calls and graceful shutdown.
	Timeout time.Duration `yaml:"timeout" env:"GRAVITY_TIMEOUT"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"GRAVITY_LOG_LEVEL"`
	// JournalFile is the SQLite database storing finished countdown runs.
	JournalFile string `yaml:"journal_file" env:"GRAVITY_JOURNAL_FILE"`
	// UICommand is started when a countdown begins. Empty disables it.
	UICommand []string `yaml:"ui_command,omitempty" env:"GRAVITY_UI_COMMAND" envSeparator:" "`
	// DisableWakeLock skips the idle/sleep inhibitor.
	DisableWakeLock bool `yaml:"disable_wake_lock" env:"GRAVITY_DISABLE_WAKE_LOCK"`
	// AllowMultipleInstances skips the single instance check.
	AllowMultipleInstances bool `yaml:"allow_multiple_instances" env:"GRAVITY_ALLOW_MULTIPLE_INSTANCES"`
	// OTelEndpoint is the OTLP/HTTP collector URL. Empty disables tracing.
	OTelEndpoint string `yaml:"otel_endpoint,omitempty" env:"GRAVITY_OTEL_ENDPOINT"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "gravity-settings.yaml"

	// DefaultServerAddress is used when no address is configured.
	DefaultServerAddress = "127.0.0.1:50051"

	// DefaultJournalFilename is the default run journal database.
	DefaultJournalFilename = "gravity-journal.db"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownLogLevel is returned for an unparsable log level.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns settings with every default applied.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from path, applies GRAVITY_* overrides and
// validates the result. A missing file is not an error: defaults and
// environment values are used instead.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	var cfg Config

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	default:
		if err := yaml.Unmarshal(contents, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings and fills in defaults for empty fields.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		settings.ServerAddress = DefaultServerAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	if settings.JournalFile == "" {
		settings.JournalFile = DefaultJournalFilename
	}

	if settings.OTelEndpoint == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(settings.OTelEndpoint); err != nil {
		return fmt.Errorf("invalid otel endpoint URI: %w", err)
	}

	return nil
}
