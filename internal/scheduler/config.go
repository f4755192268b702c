package scheduler

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/config"
)

// Config controls the background job loop.
type Config struct {
	Enabled     bool
	RunInterval time.Duration
	JobTimeout  time.Duration
	// LimitAlertPct is the share of the daily limit (0-100) that triggers a usage alert.
	LimitAlertPct decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		RunInterval:   5 * time.Minute,
		JobTimeout:    30 * time.Second,
		LimitAlertPct: decimal.NewFromInt(90),
	}
}

func ProvideConfig(cfg config.Config) Config {
	out := DefaultConfig()
	out.Enabled = cfg.SchedulerEnabled
	if cfg.SchedulerIntervalSec > 0 {
		out.RunInterval = time.Duration(cfg.SchedulerIntervalSec) * time.Second
	}
	return out
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if !c.LimitAlertPct.IsPositive() {
		c.LimitAlertPct = defaults.LimitAlertPct
	}
	return c
}
