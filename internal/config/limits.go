package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	DefaultDailyLimit = "50000"
	DefaultRatePct    = "2.9"
)

// Limits holds the ledger ceilings and the fallback advance rate.
type Limits struct {
	DailyDefault decimal.Decimal
	DefaultRate  decimal.Decimal
	// Partners maps partner id to its daily ceiling override.
	Partners map[string]decimal.Decimal
}

// DailyFor returns the daily ceiling that applies to partnerID.
func (l Limits) DailyFor(partnerID string) decimal.Decimal {
	if v, ok := l.Partners[partnerID]; ok {
		return v
	}
	return l.DailyDefault
}

func DefaultLimits() Limits {
	return Limits{
		DailyDefault: decimal.RequireFromString(DefaultDailyLimit),
		DefaultRate:  decimal.RequireFromString(DefaultRatePct),
		Partners:     map[string]decimal.Decimal{},
	}
}

type rawLimits struct {
	DailyDefault string            `mapstructure:"dailyDefault"`
	DefaultRate  string            `mapstructure:"defaultRate"`
	Partners     map[string]string `mapstructure:"partners"`
}

type LimitsHolder struct {
	current atomic.Value // holds Limits
}

// NewStaticLimits returns a holder that never reloads. Used by tests.
func NewStaticLimits(l Limits) *LimitsHolder {
	h := &LimitsHolder{}
	h.current.Store(l)
	return h
}

func NewLimitsHolder(cfg Config, log *zap.Logger) (*LimitsHolder, error) {
	log = log.Named("config.limits")
	v := viper.New()

	if cfg.LimitsFile != "" {
		v.SetConfigFile(cfg.LimitsFile)
	} else {
		v.SetConfigName("limits")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/nel3")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("NEL3")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("limits.dailyDefault", DefaultDailyLimit)
	v.SetDefault("limits.defaultRate", DefaultRatePct)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfg.LimitsFile == "" {
			return nil, err
		}
		if cfg.LimitsFile != "" && !errors.As(err, &notFound) {
			log.Warn("limits file unreadable, using defaults", zap.String("path", cfg.LimitsFile), zap.Error(err))
		}
		found = false
	}

	limits, err := decodeLimits(v)
	if err != nil {
		return nil, err
	}

	holder := &LimitsHolder{}
	holder.current.Store(limits)

	if found {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeLimits(v)
			if err != nil {
				log.Warn("invalid limits ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("limits reloaded", zap.String("file", e.Name), zap.Int("partner_overrides", len(updated.Partners)))
		})
	}

	return holder, nil
}

func (h *LimitsHolder) Get() Limits {
	return h.current.Load().(Limits)
}

func decodeLimits(v *viper.Viper) (Limits, error) {
	var raw rawLimits
	if err := v.UnmarshalKey("limits", &raw); err != nil {
		return Limits{}, err
	}

	out := DefaultLimits()
	if s := strings.TrimSpace(raw.DailyDefault); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Limits{}, fmt.Errorf("limits.dailyDefault: %w", err)
		}
		out.DailyDefault = d
	}
	if s := strings.TrimSpace(raw.DefaultRate); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Limits{}, fmt.Errorf("limits.defaultRate: %w", err)
		}
		out.DefaultRate = d
	}
	for partnerID, s := range raw.Partners {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return Limits{}, fmt.Errorf("limits.partners.%s: %w", partnerID, err)
		}
		out.Partners[partnerID] = d
	}
	return out, validateLimits(out)
}

func validateLimits(l Limits) error {
	if l.DailyDefault.IsNegative() {
		return errors.New("limits.dailyDefault cannot be negative")
	}
	if l.DefaultRate.IsNegative() {
		return errors.New("limits.defaultRate cannot be negative")
	}
	for id, v := range l.Partners {
		if v.IsNegative() {
			return fmt.Errorf("limits.partners.%s cannot be negative", id)
		}
	}
	return nil
}
