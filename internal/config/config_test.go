package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("token required", func(t *testing.T) {
		t.Setenv("TELEGRAM_TOKEN", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("TELEGRAM_TOKEN", "123:abc")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("TIMEZONE", "")
		t.Setenv("UNDO_WINDOW_SECONDS", "")
		t.Setenv("ALARM_TICK_SECONDS", "")
		t.Setenv("REPORT_TIME", "")
		t.Setenv("LOG_LEVEL", "")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "dotodo.db", cfg.DatabaseURL)
		assert.Equal(t, 5*time.Second, cfg.UndoWindow)
		assert.Equal(t, 20*time.Second, cfg.AlarmTick)
		assert.Equal(t, "08:00", cfg.ReportTime)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("TELEGRAM_TOKEN", "123:abc")
		t.Setenv("UNDO_WINDOW_SECONDS", "12")
		t.Setenv("TIMEZONE", "UTC")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 12*time.Second, cfg.UndoWindow)
		assert.Equal(t, time.UTC, cfg.Timezone)
	})

	t.Run("bad timezone rejected", func(t *testing.T) {
		t.Setenv("TELEGRAM_TOKEN", "123:abc")
		t.Setenv("TIMEZONE", "Mars/Olympus")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("garbage durations fall back", func(t *testing.T) {
		t.Setenv("TELEGRAM_TOKEN", "123:abc")
		t.Setenv("TIMEZONE", "")
		t.Setenv("UNDO_WINDOW_SECONDS", "soon")
		t.Setenv("ALARM_TICK_SECONDS", "-3")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, cfg.UndoWindow)
		assert.Equal(t, 20*time.Second, cfg.AlarmTick)
	})
}
