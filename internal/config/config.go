// Package config provides persistent configuration for the jadwal-sholat CLI.
//
// Configuration is stored as JSON at ~/.config/jadwal-sholat/config.json
// (XDG-compliant). Environment variables prefixed JADWAL_SHOLAT_ override the
// file. The merge priority is: CLI flags > env > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/viper"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/logging"
)

const (
	configDirName  = "jadwal-sholat"
	configFileName = "config.json"

	// EnvPrefix is prepended to upper-cased keys, e.g. JADWAL_SHOLAT_LOCATION.
	EnvPrefix = "JADWAL_SHOLAT"

	// LocationAuto selects the directory record nearest to the IP
	// geolocation.
	LocationAuto = "auto"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"location",
	"locations_file",
	"cache_dir",
	"cache_backend",
	"time_format",
	"asr_factor",
	"remote",
	"remote_url",
	"remote_timeout",
	"adzan",
	"mqtt_broker",
	"mqtt_topic",
	"log_level",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults).
type Config struct {
	Location      string `json:"location,omitempty" mapstructure:"location"`
	LocationsFile string `json:"locations_file,omitempty" mapstructure:"locations_file"`
	CacheDir      string `json:"cache_dir,omitempty" mapstructure:"cache_dir"`
	CacheBackend  string `json:"cache_backend,omitempty" mapstructure:"cache_backend"` // "file" or "sqlite"
	TimeFormat    string `json:"time_format,omitempty" mapstructure:"time_format"`     // "12h" or "24h"
	AsrFactor     int    `json:"asr_factor,omitempty" mapstructure:"asr_factor"`       // 1 or 2
	Remote        string `json:"remote,omitempty" mapstructure:"remote"`               // "on" or "off"
	RemoteURL     string `json:"remote_url,omitempty" mapstructure:"remote_url"`
	RemoteTimeout string `json:"remote_timeout,omitempty" mapstructure:"remote_timeout"`
	Adzan         string `json:"adzan,omitempty" mapstructure:"adzan"`
	MQTTBroker    string `json:"mqtt_broker,omitempty" mapstructure:"mqtt_broker"`
	MQTTTopic     string `json:"mqtt_topic,omitempty" mapstructure:"mqtt_topic"`
	LogLevel      string `json:"log_level,omitempty" mapstructure:"log_level"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	return Config{
		CacheBackend:  "file",
		TimeFormat:    "24h",
		AsrFactor:     1,
		Remote:        "on",
		RemoteTimeout: "5s",
		Adzan:         "Adzan Makkah.mp3",
		MQTTTopic:     "jadwal-sholat/events",
		LogLevel:      "warn",
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk, without defaults or environment.
// If the file does not exist, it returns an empty Config (not an error).
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path. Only values present
// in the file are set; this is what `config set` edits and saves back.
func LoadFrom(path string) (*Config, error) {
	return read(path, false)
}

// Effective returns defaults overlaid by the file at path and then by
// JADWAL_SHOLAT_* environment variables.
func Effective(path string) (*Config, error) {
	return read(path, true)
}

func read(path string, layered bool) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if layered {
		d := Defaults()
		for _, key := range ValidKeys {
			val, _ := d.Get(key)
			v.SetDefault(key, val)
		}
		v.SetEnvPrefix(EnvPrefix)
		v.AutomaticEnv()
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := sonic.ConfigStd.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "location":
		c.Location = strings.TrimSpace(value)
	case "locations_file":
		c.LocationsFile = value
	case "cache_dir":
		c.CacheDir = value
	case "cache_backend":
		if value != "file" && value != "sqlite" {
			return fmt.Errorf("invalid cache_backend %q: must be \"file\" or \"sqlite\"", value)
		}
		c.CacheBackend = value
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "asr_factor":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid asr_factor %q: must be an integer", value)
		}
		if v != 1 && v != 2 {
			return fmt.Errorf("invalid asr_factor %q: must be 1 (Shafi'i) or 2 (Hanafi)", value)
		}
		c.AsrFactor = v
	case "remote":
		if value != "on" && value != "off" {
			return fmt.Errorf("invalid remote %q: must be \"on\" or \"off\"", value)
		}
		c.Remote = value
	case "remote_url":
		if value != "" && !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("invalid remote_url %q: must start with http:// or https://", value)
		}
		c.RemoteURL = strings.TrimRight(value, "/")
	case "remote_timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid remote_timeout %q: must be a positive duration like \"5s\"", value)
		}
		c.RemoteTimeout = value
	case "adzan":
		c.Adzan = value
	case "mqtt_broker":
		if value != "" && !hasBrokerScheme(value) {
			return fmt.Errorf("invalid mqtt_broker %q: must start with tcp://, ssl://, ws:// or wss://", value)
		}
		c.MQTTBroker = value
	case "mqtt_topic":
		if strings.ContainsAny(value, "#+") {
			return fmt.Errorf("invalid mqtt_topic %q: wildcards are not allowed", value)
		}
		c.MQTTTopic = value
	case "log_level":
		if _, err := logging.ParseLevel(value); err != nil {
			return fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", value)
		}
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "location":
		return c.Location, nil
	case "locations_file":
		return c.LocationsFile, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "cache_backend":
		return c.CacheBackend, nil
	case "time_format":
		return c.TimeFormat, nil
	case "asr_factor":
		if c.AsrFactor == 0 {
			return "", nil
		}
		return strconv.Itoa(c.AsrFactor), nil
	case "remote":
		return c.Remote, nil
	case "remote_url":
		return c.RemoteURL, nil
	case "remote_timeout":
		return c.RemoteTimeout, nil
	case "adzan":
		return c.Adzan, nil
	case "mqtt_broker":
		return c.MQTTBroker, nil
	case "mqtt_topic":
		return c.MQTTTopic, nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

func hasBrokerScheme(s string) bool {
	for _, p := range []string{"tcp://", "ssl://", "ws://", "wss://", "mqtt://", "mqtts://"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// RemoteEnabled reports whether the remote tier should be used.
func (c *Config) RemoteEnabled() bool {
	return c.Remote != "off"
}

// Timeout returns remote_timeout, falling back to def when unset or invalid.
func (c *Config) Timeout(def time.Duration) time.Duration {
	d, err := time.ParseDuration(c.RemoteTimeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// AsrFactorOrDefault returns asr_factor, falling back to def.
func (c *Config) AsrFactorOrDefault(def int) int {
	if c.AsrFactor == 1 || c.AsrFactor == 2 {
		return c.AsrFactor
	}
	return def
}
