// Package app assembles stores, the history ledger and the analysis pipeline
// from configuration. The server binary and the CLI tools share it.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/raine/skybet/internal/analysis"
	"github.com/raine/skybet/internal/config"
	"github.com/raine/skybet/internal/history"
	"github.com/raine/skybet/internal/llm"
	"github.com/raine/skybet/internal/storage"
)

// App holds the long-lived components.
type App struct {
	Config   *config.Config
	DB       *storage.SQLiteStore
	Ledger   *history.Ledger
	Pipeline *analysis.Pipeline

	// Watcher is set for the file history backend only.
	Watcher *history.Watcher
}

// Open opens the database and the configured history backend. The pipeline is
// not built; call InitPipeline when model calls are needed.
func Open(cfg *config.Config) (*App, error) {
	db, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	log.Info().Str("dbPath", cfg.Storage.DBPath).Msg("store initialized")

	a := &App{Config: cfg, DB: db}

	switch cfg.History.Backend {
	case config.HistoryBackendSQLite:
		a.Ledger = history.NewLedger(db.History(), cfg.History.Label)
	default:
		fileStore := history.NewFileStore(cfg.History.Path)
		a.Ledger = history.NewLedger(fileStore, cfg.History.Label)
		a.Watcher = history.NewWatcher(fileStore, a.Ledger)
	}
	log.Info().Str("backend", cfg.History.Backend).Str("label", a.Ledger.Label()).Msg("history store initialized")

	return a, nil
}

// InitPipeline creates the provider client, wraps it with the analysis cache
// and builds the pipeline.
func (a *App) InitPipeline(ctx context.Context) error {
	completer, err := llm.NewCompleter(ctx, a.Config.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize llm provider: %w", err)
	}
	log.Info().Str("provider", a.Config.LLM.Provider).Str("model", a.Config.LLM.Model).Msg("llm provider initialized")

	analyzer := llm.NewCachedAnalyzer(llm.NewPromptAnalyzer(completer), a.DB)
	a.Pipeline = analysis.NewPipeline(analyzer, a.Ledger)
	return nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}
