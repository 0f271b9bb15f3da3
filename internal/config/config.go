package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Joseda-hg/lazysched/internal/model"
)

type BasicAuth struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

type Config struct {
	DBPath     string `json:"db_path" yaml:"db_path"`
	WebEnabled bool   `json:"web_enabled" yaml:"web_enabled"`
	WebPort    int    `json:"web_port" yaml:"web_port"`

	// WeekStart is "sunday" or "monday".
	WeekStart string `json:"week_start" yaml:"week_start"`
	// Variant is "calendar" (dates required) or "minimal" (dates optional).
	Variant string `json:"variant" yaml:"variant"`
	// DefaultView is the view the TUI opens in: "calendar" or "list".
	DefaultView string `json:"default_view" yaml:"default_view"`

	LogPath  string `json:"log_path" yaml:"log_path"`
	LogLevel string `json:"log_level" yaml:"log_level"`

	// BasicAuth, when both fields are set, protects the web server.
	BasicAuth *BasicAuth `json:"basic_auth,omitempty" yaml:"basic_auth,omitempty"`
}

func Default() Config {
	return Config{
		WebPort:     8080,
		WeekStart:   "sunday",
		Variant:     string(model.VariantCalendar),
		DefaultView: "calendar",
		LogLevel:    "info",
	}
}

// Normalize replaces missing or unknown values with defaults.
func (c *Config) Normalize() {
	defaults := Default()
	if c.WebPort <= 0 {
		c.WebPort = defaults.WebPort
	}
	switch strings.ToLower(strings.TrimSpace(c.WeekStart)) {
	case "monday":
		c.WeekStart = "monday"
	default:
		c.WeekStart = defaults.WeekStart
	}
	c.Variant = string(model.ParseVariant(c.Variant))
	switch strings.ToLower(strings.TrimSpace(c.DefaultView)) {
	case "list":
		c.DefaultView = "list"
	default:
		c.DefaultView = defaults.DefaultView
	}
	switch level := strings.ToLower(strings.TrimSpace(c.LogLevel)); level {
	case "debug", "info", "warn", "error":
		c.LogLevel = level
	default:
		c.LogLevel = defaults.LogLevel
	}
}

func (c Config) FirstWeekday() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazysched", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Load reads path as YAML when it ends in .yaml or .yml and as JSON
// otherwise. A missing file yields the defaults.
func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	config.Normalize()
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
