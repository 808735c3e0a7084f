package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Ledger is the single writer for the history list. It caches the persisted
// list in memory and serializes every read-modify-write against the Store.
type Ledger struct {
	store Store
	label string

	mu     sync.Mutex
	cache  []string
	loaded bool
}

// NewLedger creates a Ledger over store. An empty label falls back to DefaultLabel.
func NewLedger(store Store, label string) *Ledger {
	if label == "" {
		label = DefaultLabel
	}
	return &Ledger{store: store, label: label}
}

// Label returns the prefix used by Formatted.
func (l *Ledger) Label() string {
	return l.label
}

// load fills the cache from the store. Unreadable or invalid content counts as
// an empty history. Caller must hold l.mu.
func (l *Ledger) load(ctx context.Context) []string {
	if l.loaded {
		return l.cache
	}
	values, err := l.store.Read(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("history unreadable, treating as empty")
		values = []string{}
	}
	l.cache = values
	l.loaded = true
	return l.cache
}

// Merge folds the tokens found in text into the history and persists the result
// when something was added. A failed write is logged and the prior list is
// returned unchanged.
func (l *Ledger) Merge(ctx context.Context, text string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	prior := l.load(ctx)
	merged, changed := Merge(prior, text)
	if !changed {
		return clone(prior)
	}

	if err := l.store.Write(ctx, merged); err != nil {
		log.Error().Err(err).Int("tokens", len(merged)).Msg("failed to persist history")
		return clone(prior)
	}

	log.Info().
		Int("added", len(merged)-len(prior)).
		Int("total", len(merged)).
		Msg("history updated")
	l.cache = merged
	return clone(merged)
}

// Snapshot returns a copy of the current history.
func (l *Ledger) Snapshot(ctx context.Context) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return clone(l.load(ctx))
}

// Formatted renders the current history with the ledger's label.
func (l *Ledger) Formatted(ctx context.Context) string {
	return Format(l.label, l.Snapshot(ctx))
}

// Clear empties the persisted history. On failure the prior state is kept and
// the error is returned.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	l.cache = []string{}
	l.loaded = true
	log.Info().Msg("history cleared")
	return nil
}

// Invalidate drops the in-memory copy so the next call re-reads the store.
func (l *Ledger) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = nil
	l.loaded = false
}

func clone(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
