// Package config loads matchcolor settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "MATCHCOLOR_"

type SessionConfig struct {
	TimeLimit time.Duration `yaml:"time_limit"`
	Lives     int           `yaml:"lives"`
}

type NotificationConfig struct {
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	DisplayDuration time.Duration `yaml:"display_duration"`
}

type PowerUpConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Config holds every user-tunable setting
type Config struct {
	LogLevel            string             `yaml:"log_level"`
	StorePath           string             `yaml:"store"` // empty means the default data dir
	SchedulerResolution time.Duration      `yaml:"scheduler_resolution"`
	Session             SessionConfig      `yaml:"session"`
	Notifications       NotificationConfig `yaml:"notifications"`
	PowerUps            PowerUpConfig      `yaml:"powerups"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		LogLevel:            "info",
		SchedulerResolution: 50 * time.Millisecond,
		Session: SessionConfig{
			TimeLimit: 60 * time.Second,
			Lives:     3,
		},
		Notifications: NotificationConfig{
			SweepInterval:   100 * time.Millisecond,
			DisplayDuration: 3 * time.Second,
		},
		PowerUps: PowerUpConfig{
			SweepInterval: 100 * time.Millisecond,
		},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from MATCHCOLOR_* variables found by lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvPrefix + "STORE"); ok {
		c.StorePath = v
	}
	if v, ok := lookup(EnvPrefix + "LIVES"); ok {
		lives, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sLIVES: %w", EnvPrefix, err)
		}
		c.Session.Lives = lives
	}

	durations := []struct {
		name   string
		target *time.Duration
	}{
		{"TIME_LIMIT", &c.Session.TimeLimit},
		{"DISPLAY_DURATION", &c.Notifications.DisplayDuration},
		{"SCHEDULER_RESOLUTION", &c.SchedulerResolution},
	}
	for _, d := range durations {
		v, ok := lookup(EnvPrefix + d.name)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, d.name, err)
		}
		*d.target = parsed
	}

	return nil
}

// Validate rejects settings the engine cannot run with
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Session.Lives < 1 {
		return fmt.Errorf("session.lives must be at least 1, got %d", c.Session.Lives)
	}
	if c.Session.TimeLimit <= 0 {
		return fmt.Errorf("session.time_limit must be positive")
	}
	if c.SchedulerResolution <= 0 || c.Notifications.SweepInterval <= 0 || c.PowerUps.SweepInterval <= 0 {
		return fmt.Errorf("scheduler resolution and sweep intervals must be positive")
	}
	if c.Notifications.DisplayDuration < 0 {
		return fmt.Errorf("notifications.display_duration must not be negative")
	}
	return nil
}

// Level parses LogLevel
func (c Config) Level() (zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return level, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
