// Package scheduler runs the periodic checks that drive the reminder engine.
package scheduler

import (
	"fmt"
	"time"
)

// Config defines the scheduler configuration.
type Config struct {
	// ReminderInterval is how often due doses and expired snoozes are checked.
	ReminderInterval time.Duration `yaml:"reminder_interval"`
	// RolloverInterval is how often the date-change check runs.
	RolloverInterval time.Duration `yaml:"rollover_interval"`
	// Resolution is the period of the single ticker that drives all jobs.
	Resolution time.Duration `yaml:"resolution"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		ReminderInterval: time.Minute,
		RolloverInterval: time.Hour,
		Resolution:       time.Second,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("scheduler.reminder_interval must be positive, got %s", c.ReminderInterval)
	}
	if c.RolloverInterval <= 0 {
		return fmt.Errorf("scheduler.rollover_interval must be positive, got %s", c.RolloverInterval)
	}
	if c.Resolution <= 0 {
		return fmt.Errorf("scheduler.resolution must be positive, got %s", c.Resolution)
	}
	if c.Resolution > c.ReminderInterval {
		return fmt.Errorf("scheduler.resolution %s exceeds reminder_interval %s", c.Resolution, c.ReminderInterval)
	}
	return nil
}
