package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken string
	DatabaseURL   string
	Timezone      *time.Location
	UndoWindow    time.Duration // delay before a staged completion commits
	AlarmTick     time.Duration // how often the alarm/sweep tick fires
	ReportTime    string        // HH:MM local time for the daily report
	LogLevel      string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		UndoWindow:    parseSeconds(os.Getenv("UNDO_WINDOW_SECONDS"), 5*time.Second),
		AlarmTick:     parseSeconds(os.Getenv("ALARM_TICK_SECONDS"), 20*time.Second),
		ReportTime:    strings.TrimSpace(os.Getenv("REPORT_TIME")),
		LogLevel:      strings.TrimSpace(os.Getenv("LOG_LEVEL")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "dotodo.db"
	}

	if cfg.ReportTime == "" {
		cfg.ReportTime = "08:00"
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	loc := time.Local
	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("TIMEZONE %q: %w", tz, err)
		}
		loc = parsed
	}
	cfg.Timezone = loc

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseSeconds(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
