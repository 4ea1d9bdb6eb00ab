package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"scheduleall/internal/domain"
)

type Config struct {
	Runtime RuntimeConfig  `toml:"runtime"`
	Raw     map[string]any `toml:"-"`
	Path    string         `toml:"-"`
}

type RuntimeConfig struct {
	Addr               string `toml:"addr"`
	DBPath             string `toml:"db_path"`
	SavePath           string `toml:"save_path"`
	ScenarioPath       string `toml:"scenario_path"`
	SettingsPath       string `toml:"settings_path"`
	StepIntervalMS     int    `toml:"step_interval_ms"`
	TicksPerStep       int    `toml:"ticks_per_step"`
	AutosaveIntervalMS int    `toml:"autosave_interval_ms"`
	PollIntervalTicks  int    `toml:"poll_interval_ticks"`
	LogLevel           string `toml:"log_level"`
}

func (c RuntimeConfig) WithDefaults() RuntimeConfig {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8091"
	}
	if c.DBPath == "" {
		c.DBPath = "scheduleall.db"
	}
	if c.SavePath == "" {
		c.SavePath = "colony.sav"
	}
	if c.SettingsPath == "" {
		c.SettingsPath = "slots.toml"
	}
	if c.StepIntervalMS <= 0 {
		c.StepIntervalMS = 50
	}
	if c.TicksPerStep <= 0 {
		c.TicksPerStep = 25
	}
	if c.AutosaveIntervalMS <= 0 {
		c.AutosaveIntervalMS = 60000
	}
	if c.PollIntervalTicks <= 0 {
		c.PollIntervalTicks = domain.PollIntervalTicks
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.DBPath = ExpandPath(c.DBPath)
	c.SavePath = ExpandPath(c.SavePath)
	c.SettingsPath = ExpandPath(c.SettingsPath)
	if c.ScenarioPath != "" {
		c.ScenarioPath = ExpandPath(c.ScenarioPath)
	}
	return c
}

func Default() Config {
	return Config{Runtime: RuntimeConfig{}.WithDefaults()}
}

func Load(path string) (Config, error) {
	resolved := path
	if resolved == "" {
		resolved = defaultConfigPath()
	}
	resolved = ExpandPath(resolved)

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %s: %w", resolved, err)
	}

	var cfg Config
	if _, err := toml.Decode(string(bytes), &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config file: %w", err)
	}
	var raw map[string]any
	if _, err := toml.Decode(string(bytes), &raw); err != nil {
		return Config{}, fmt.Errorf("decode raw config: %w", err)
	}
	cfg.Raw = raw
	cfg.Path = resolved
	cfg.Runtime = cfg.Runtime.WithDefaults()
	return cfg, nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			trimmed := strings.TrimPrefix(p, "~")
			trimmed = strings.TrimPrefix(trimmed, "\\")
			trimmed = strings.TrimPrefix(trimmed, "/")
			p = filepath.Join(home, trimmed)
		}
	}
	return filepath.Clean(p)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scheduleall/config.toml"
	}
	return filepath.Join(home, ".scheduleall", "config.toml")
}
