package cli

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerSetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug")
	require.NotNil(t, logger)
	assert.Equal(t, "app", logger.Component())
	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelDebug))
}

func TestInitLedgerStoreFallsBackToSamples(t *testing.T) {
	logger := SetupLogger("error")
	store := InitLedgerStore(logger, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 3, store.Len())
}

func TestInitAMQPDisabled(t *testing.T) {
	assert.Nil(t, InitAMQP(SetupLogger("error"), "", "finmood"))
}
