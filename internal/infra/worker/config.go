// Package worker runs scheduled availability probes: on a cron schedule it sends the
// configured watchlist of (category, location) queries through the aggregator and
// records how each provider answered. Nothing is stored.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newshub/internal/config"

	"github.com/robfig/cron/v3"
)

// Watch is one (category, location) pair probed on every run.
type Watch struct {
	Category string
	Location string
}

func (w Watch) String() string {
	if w.Location == "" {
		return w.Category
	}
	return w.Category + ":" + w.Location
}

// Config holds the worker settings.
type Config struct {
	// CronSchedule is a standard 5-field cron expression.
	CronSchedule string
	// Timezone is the IANA zone the schedule is evaluated in.
	Timezone string
	// Watchlist is probed in order on every run.
	Watchlist []Watch
	// RunTimeout bounds one whole run across the watchlist.
	RunTimeout time.Duration
	// Port serves /health, /health/ready and /metrics.
	Port int
	// RunOnStart triggers one run immediately after startup.
	RunOnStart bool
}

// DefaultConfig returns the worker defaults: every 15 minutes, UTC, general news.
func DefaultConfig() Config {
	return Config{
		CronSchedule: "*/15 * * * *",
		Timezone:     "UTC",
		Watchlist:    []Watch{{Category: "general"}},
		RunTimeout:   2 * time.Minute,
		Port:         9090,
	}
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := cronParser.Parse(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule %q: %w", c.CronSchedule, err))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if len(c.Watchlist) == 0 {
		errs = append(errs, errors.New("watchlist is empty"))
	}
	if c.RunTimeout <= 0 {
		errs = append(errs, fmt.Errorf("run timeout must be positive, got %s", c.RunTimeout))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	return errors.Join(errs...)
}

// ParseWatchlist parses "technology:us, sports, business:gb".
// A bare category means no location filter.
func ParseWatchlist(raw string) ([]Watch, error) {
	var out []Watch
	seen := make(map[Watch]bool)
	for _, item := range strings.Split(raw, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		category, location, _ := strings.Cut(item, ":")
		w := Watch{Category: strings.TrimSpace(category), Location: strings.TrimSpace(location)}
		if w.Category == "" {
			return nil, fmt.Errorf("watchlist entry %q: missing category", item)
		}
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out, nil
}

// LoadConfigFromEnv reads the worker settings. Each invalid value falls back to its
// default with a warning, so the result is always usable.
//
// Environment variables: CRON_SCHEDULE, WORKER_TIMEZONE, WORKER_WATCHLIST,
// WORKER_RUN_TIMEOUT, METRICS_PORT, WORKER_RUN_ON_START.
func LoadConfigFromEnv(logger *slog.Logger) Config {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	cfg := Config{
		CronSchedule: config.GetEnvString("CRON_SCHEDULE", def.CronSchedule),
		Timezone:     config.GetEnvString("WORKER_TIMEZONE", def.Timezone),
		Watchlist:    def.Watchlist,
		RunTimeout:   config.GetEnvDuration("WORKER_RUN_TIMEOUT", def.RunTimeout),
		Port:         config.GetEnvInt("METRICS_PORT", def.Port),
		RunOnStart:   config.GetEnvBool("WORKER_RUN_ON_START", def.RunOnStart),
	}

	fallback := func(field, envKey string, value any, err error) {
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("env_key", envKey),
			slog.Any("invalid_value", value),
			slog.String("error", err.Error()))
	}

	if raw := config.GetEnvString("WORKER_WATCHLIST", ""); raw != "" {
		list, err := ParseWatchlist(raw)
		switch {
		case err != nil:
			fallback("Watchlist", "WORKER_WATCHLIST", raw, err)
		case len(list) == 0:
			fallback("Watchlist", "WORKER_WATCHLIST", raw, errors.New("no entries"))
		default:
			cfg.Watchlist = list
		}
	}
	if _, err := cronParser.Parse(cfg.CronSchedule); err != nil {
		fallback("CronSchedule", "CRON_SCHEDULE", cfg.CronSchedule, err)
		cfg.CronSchedule = def.CronSchedule
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		fallback("Timezone", "WORKER_TIMEZONE", cfg.Timezone, err)
		cfg.Timezone = def.Timezone
	}
	if cfg.RunTimeout <= 0 {
		fallback("RunTimeout", "WORKER_RUN_TIMEOUT", cfg.RunTimeout, errors.New("must be positive"))
		cfg.RunTimeout = def.RunTimeout
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		fallback("Port", "METRICS_PORT", cfg.Port, errors.New("out of range"))
		cfg.Port = def.Port
	}
	return cfg
}
