package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"250ms\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all application configuration.
type Config struct {
	LogLevel     string         `yaml:"log_level"`
	SettingsPath string         `yaml:"settings_path"`
	BLE          BLEConfig      `yaml:"ble"`
	Protocol     ProtocolConfig `yaml:"protocol"`
}

// BLEConfig holds transport and session settings.
type BLEConfig struct {
	DeviceName  string          `yaml:"device_name"` // advertisement name filter, empty matches any
	ScanTimeout Duration        `yaml:"scan_timeout"`
	Reconnect   ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig is the policy applied after an unexpected link loss. The
// attempt count is deliberately a parameter: the reference behavior is a
// single retry, but repeated-retry deployments only change this config.
type ReconnectConfig struct {
	MaxAttempts int      `yaml:"max_attempts"`
	Delay       Duration `yaml:"delay"`
}

// ProtocolConfig holds frame timing settings.
type ProtocolConfig struct {
	ProgressInterval Duration `yaml:"progress_interval"` // playbackProgress cadence
	PageDelay        Duration `yaml:"page_delay"`        // delay between response pages
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "amperfy-link")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		SettingsPath: filepath.Join(DefaultConfigDir(), "settings.yaml"),
		BLE: BLEConfig{
			ScanTimeout: Duration(30 * time.Second),
			Reconnect: ReconnectConfig{
				MaxAttempts: 1,
				Delay:       Duration(2 * time.Second),
			},
		},
		Protocol: ProtocolConfig{
			ProgressInterval: Duration(250 * time.Millisecond),
			PageDelay:        Duration(50 * time.Millisecond),
		},
	}
}

// Load reads and parses a YAML config file. Missing fields are filled with
// defaults. Tilde (~) in settings_path is expanded to the user's home
// directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.SettingsPath = expandTilde(cfg.SettingsPath)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	if c.SettingsPath == "" {
		return fmt.Errorf("settings_path must not be empty")
	}

	if c.BLE.ScanTimeout <= 0 {
		return fmt.Errorf("ble.scan_timeout must be > 0")
	}

	if c.BLE.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("ble.reconnect.max_attempts must be >= 0")
	}

	if c.BLE.Reconnect.MaxAttempts > 0 && c.BLE.Reconnect.Delay <= 0 {
		return fmt.Errorf("ble.reconnect.delay must be > 0 when reconnection is enabled")
	}

	if c.Protocol.ProgressInterval <= 0 {
		return fmt.Errorf("protocol.progress_interval must be > 0")
	}

	if c.Protocol.PageDelay < 0 {
		return fmt.Errorf("protocol.page_delay must be >= 0")
	}

	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
