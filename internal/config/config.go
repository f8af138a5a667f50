// Package config loads daemon configuration from YAML and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fentz26/dosewatch/internal/models"
	"github.com/fentz26/dosewatch/internal/reminder"
	"github.com/fentz26/dosewatch/internal/scheduler"
	"github.com/fentz26/dosewatch/internal/store"
	"gopkg.in/yaml.v3"
)

// DefaultListen is the control plane address used when none is configured.
const DefaultListen = "127.0.0.1:7470"

// Config defines daemon configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Store     StoreConfig      `yaml:"store"`
	Log       LogConfig        `yaml:"log"`
	Scheduler scheduler.Config `yaml:"scheduler"`
	Reminder  ReminderConfig   `yaml:"reminder"`
	Schedule  ScheduleConfig   `yaml:"schedule"`
	Alert     AlertConfig      `yaml:"alert"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ReminderConfig struct {
	Snooze    time.Duration `yaml:"snooze"`
	CatchUp   time.Duration `yaml:"catch_up"`
	FeedLimit int           `yaml:"feed_limit"`
	Timezone  string        `yaml:"timezone"`
}

// AlertConfig selects how SOS alerts are delivered. With no command they
// are only logged.
type AlertConfig struct {
	Command []string `yaml:"command"`
}

// ScheduleConfig is seed data loaded into the session at start-up. The same
// shape is accepted by schedule files given to the CLI.
type ScheduleConfig struct {
	Medicines []models.Medicine `yaml:"medicines"`
	Contacts  []models.Contact  `yaml:"contacts"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:    ServerConfig{Listen: DefaultListen},
		Store:     StoreConfig{DSN: store.MemoryDSN},
		Log:       LogConfig{Level: "info"},
		Scheduler: *scheduler.DefaultConfig(),
		Reminder: ReminderConfig{
			Snooze:    reminder.DefaultSnooze,
			CatchUp:   reminder.DefaultCatchUp,
			FeedLimit: reminder.DefaultFeedLimit,
			Timezone:  "Local",
		},
	}
}

// Load reads configuration from an optional YAML file and environment
// variables. An empty path falls back to DOSEWATCH_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("DOSEWATCH_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if listen := os.Getenv("DOSEWATCH_LISTEN"); listen != "" {
		cfg.Server.Listen = listen
	}
	if dsn := os.Getenv("DOSEWATCH_DB"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if level := os.Getenv("DOSEWATCH_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if tz := os.Getenv("DOSEWATCH_TIMEZONE"); tz != "" {
		cfg.Reminder.Timezone = tz
	}
	if cmd := os.Getenv("DOSEWATCH_ALERT_COMMAND"); cmd != "" {
		cfg.Alert.Command = strings.Fields(cmd)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if c.Reminder.Snooze <= 0 {
		return fmt.Errorf("reminder.snooze must be positive, got %s", c.Reminder.Snooze)
	}
	if c.Reminder.CatchUp < c.Scheduler.ReminderInterval {
		return fmt.Errorf("reminder.catch_up %s is shorter than scheduler.reminder_interval %s",
			c.Reminder.CatchUp, c.Scheduler.ReminderInterval)
	}
	if c.Reminder.FeedLimit <= 0 {
		return fmt.Errorf("reminder.feed_limit must be positive, got %d", c.Reminder.FeedLimit)
	}
	if _, err := c.Reminder.Location(); err != nil {
		return err
	}
	if _, err := reminder.NormalizeMedicines(c.Schedule.Medicines); err != nil {
		return fmt.Errorf("schedule.medicines: %w", err)
	}
	if _, err := reminder.NormalizeContacts(c.Schedule.Contacts); err != nil {
		return fmt.Errorf("schedule.contacts: %w", err)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level %q: want debug, info, warn or error", l.Level)
}

// Location resolves the configured time zone. "Local" and "" select the
// host zone.
func (r ReminderConfig) Location() (*time.Location, error) {
	switch r.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("reminder.timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// LoadSchedule reads a schedule file holding medicines and/or contacts.
func LoadSchedule(path string) (ScheduleConfig, error) {
	var sc ScheduleConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("read schedule file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("parse schedule file: %w", err)
	}
	return sc, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
