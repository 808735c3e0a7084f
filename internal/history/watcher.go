package history

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher invalidates a Ledger whenever the JSON history file is changed on disk,
// for example when an operator edits or deletes it by hand.
type Watcher struct {
	path   string
	ledger *Ledger
}

// NewWatcher creates a watcher for the file behind store.
func NewWatcher(store *FileStore, ledger *Ledger) *Watcher {
	return &Watcher{path: filepath.Clean(store.Path()), ledger: ledger}
}

// Run blocks until ctx is cancelled. The parent directory is watched instead of
// the file itself because atomic writes replace the inode.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Info().Str("path", w.path).Msg("watching history file")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("history watcher stopped")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				log.Debug().Str("op", ev.Op.String()).Msg("history file changed")
				w.ledger.Invalidate()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("history watcher error")
		}
	}
}
