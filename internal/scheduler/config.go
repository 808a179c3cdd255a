package scheduler

import (
	"time"

	appconfig "github.com/fakturo/fakturo/internal/config"
)

// Config controls the billing batch cadence and run-lock lifetime.
type Config struct {
	RunInterval time.Duration
	LockTTL     time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: 24 * time.Hour,
		LockTTL:     time.Hour,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}

func ProvideConfig(cfg appconfig.Config) Config {
	return Config{
		RunInterval: cfg.SchedulerInterval,
		LockTTL:     cfg.SchedulerLockTTL,
	}.withDefaults()
}
