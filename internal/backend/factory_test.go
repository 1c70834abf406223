package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/config"
	"ledger/internal/storage/memory"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", PostgresURL: "postgres://x"})
	require.NoError(t, err)
	assert.Equal(t, PostgresBackend, cfg.Type)
	assert.Equal(t, "postgres://x", cfg.PostgresURL)
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, res.Store)
		assert.Nil(t, res.Publisher)
		require.NoError(t, res.Cleanup())
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{
			Type:         SQLiteBackend,
			SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db"),
		})
		require.NoError(t, err)
		require.NoError(t, res.Store.Ping(ctx))
		require.NoError(t, res.Cleanup())
	})

	t.Run("missing settings", func(t *testing.T) {
		_, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend})
		assert.Error(t, err)
		_, err = f.CreateBackend(ctx, Config{Type: PostgresBackend})
		assert.Error(t, err)
		_, err = f.CreateBackend(ctx, Config{Type: "sheets"})
		assert.Error(t, err)
	})
}
