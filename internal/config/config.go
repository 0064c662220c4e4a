// ABOUTME: Configuration loading and parsing for the foxvoid launcher
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete launcher configuration
type Config struct {
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Projects ProjectsConfig `yaml:"projects"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AuthConfig holds authorization server configuration
type AuthConfig struct {
	ServerURL    string        `yaml:"server_url"`
	PollInterval time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	PollIntervalRaw string `yaml:"poll_interval"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ProjectsConfig holds project scaffolding configuration
type ProjectsConfig struct {
	TemplateURL string `yaml:"template_url"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultServerURL is used when auth.server_url is not configured.
const DefaultServerURL = "http://localhost:8000"

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in values the config file may omit.
func (c *Config) applyDefaults() {
	if c.Auth.ServerURL == "" {
		c.Auth.ServerURL = DefaultServerURL
	}
	if c.Auth.PollInterval == 0 {
		c.Auth.PollInterval = 2 * time.Second
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(DataPath(), "foxvoid.db")
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Auth.ServerURL == "" {
		return fmt.Errorf("auth.server_url is required")
	}
	if c.Auth.PollInterval < 0 {
		return fmt.Errorf("auth.poll_interval must not be negative")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Auth.PollIntervalRaw != "" {
		interval, err := time.ParseDuration(cfg.Auth.PollIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing poll_interval %q: %w", cfg.Auth.PollIntervalRaw, err)
		}
		cfg.Auth.PollInterval = interval
	}
	return nil
}

// Path returns the path to the launcher config file.
// Priority: FOXVOID_CONFIG env var > XDG_CONFIG_HOME/foxvoid/launcher.yaml > ~/.config/foxvoid/launcher.yaml
func Path() string {
	if envPath := os.Getenv("FOXVOID_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "launcher.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "foxvoid", "launcher.yaml")
}

// DataPath returns the path to the launcher data directory.
// Priority: XDG_DATA_HOME/foxvoid > ~/.local/share/foxvoid
func DataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "foxvoid")
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}
