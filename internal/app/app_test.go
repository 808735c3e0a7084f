package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raine/skybet/internal/config"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.History.Backend = backend
	cfg.History.Path = filepath.Join(dir, "history.json")
	cfg.Storage.DBPath = filepath.Join(dir, "skybet.db")
	return cfg
}

func TestOpen_FileBackend(t *testing.T) {
	a, err := Open(testConfig(t, config.HistoryBackendFile))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Watcher)
	assert.Equal(t, []string{"1.5"}, a.Ledger.Merge(context.Background(), "1.5x"))
	assert.FileExists(t, a.Config.History.Path)
}

func TestOpen_SQLiteBackend(t *testing.T) {
	cfg := testConfig(t, config.HistoryBackendSQLite)
	a, err := Open(cfg)
	require.NoError(t, err)

	assert.Nil(t, a.Watcher)
	a.Ledger.Merge(context.Background(), "2.5x 3x")
	require.NoError(t, a.Close())

	// History survives a reopen
	a, err = Open(cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, []string{"2.5", "3"}, a.Ledger.Snapshot(context.Background()))
	assert.NoFileExists(t, cfg.History.Path)
}

func TestInitPipeline_UnsupportedProvider(t *testing.T) {
	cfg := testConfig(t, config.HistoryBackendFile)
	cfg.LLM.Provider = "mystery"
	a, err := Open(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.ErrorContains(t, a.InitPipeline(context.Background()), "unsupported llm provider")
	assert.Nil(t, a.Pipeline)
}

func TestInitPipeline_OpenAI(t *testing.T) {
	cfg := testConfig(t, config.HistoryBackendFile)
	cfg.LLM.Provider = "openai"
	a, err := Open(cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.InitPipeline(context.Background()))
	assert.Same(t, a.Ledger, a.Pipeline.Ledger())
}
