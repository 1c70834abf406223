package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/config"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/storage/memory"
)

func TestNewLoggerHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, log.ComponentCLI, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"component":"cli"`)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&config.Config{LogLevel: "loud"}, log.ComponentCLI, &buf)
	logger.Info("still logged")

	assert.Contains(t, buf.String(), "Unknown log level")
	assert.Contains(t, buf.String(), "still logged")
}

func TestNewRecurringScheduler(t *testing.T) {
	store := memory.New()

	t.Run("valid", func(t *testing.T) {
		s, err := NewRecurringScheduler(&config.Config{SchedulerRunAt: "03:00", SchedulerTimezone: "UTC"}, store, nil)
		require.NoError(t, err)
		n, err := s.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("bad run time", func(t *testing.T) {
		_, err := NewRecurringScheduler(&config.Config{SchedulerRunAt: "25:00", SchedulerTimezone: "UTC"}, store, nil)
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	})

	t.Run("bad timezone", func(t *testing.T) {
		_, err := NewRecurringScheduler(&config.Config{SchedulerRunAt: "03:00", SchedulerTimezone: "Mars/Olympus"}, store, nil)
		assert.Error(t, err)
	})
}
