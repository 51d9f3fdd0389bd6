package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the service.
type Config struct {
	DatabaseURL         string
	Timezone            *time.Location
	MaterializeInterval time.Duration
	Lookahead           time.Duration
	LogLevel            string
}

// Load reads configuration from environment variables with sane defaults.
//
// TASKMILL_TZ is the reporting timezone: due times, completion-day
// bucketing, streaks, and heatmaps all use it uniformly.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:         strings.TrimSpace(os.Getenv("TASKMILL_DB")),
		MaterializeInterval: parseDuration(strings.TrimSpace(os.Getenv("MATERIALIZE_INTERVAL"))),
		Lookahead:           parseLookahead(strings.TrimSpace(os.Getenv("LOOKAHEAD_DAYS"))),
		LogLevel:            strings.TrimSpace(os.Getenv("LOG_LEVEL")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskmill.db"
	}
	if cfg.MaterializeInterval == 0 {
		cfg.MaterializeInterval = time.Hour
	}
	if cfg.Lookahead == 0 {
		cfg.Lookahead = 7 * 24 * time.Hour
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	tz := strings.TrimSpace(os.Getenv("TASKMILL_TZ"))
	if tz == "" {
		cfg.Timezone = time.Local
	} else {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("TASKMILL_TZ: %w", err)
		}
		cfg.Timezone = loc
	}

	return cfg, nil
}

func parseDuration(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

func parseLookahead(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0
	}
	return time.Duration(days) * 24 * time.Hour
}
