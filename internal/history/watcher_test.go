package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_InvalidatesOnExternalEdit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "history.json")
	store := NewFileStore(path)
	require.NoError(t, store.Write(ctx, []string{"1.1"}))

	ledger := NewLedger(store, "")
	assert.Equal(t, []string{"1.1"}, ledger.Snapshot(ctx))

	done := make(chan error, 1)
	go func() { done <- NewWatcher(store, ledger).Run(ctx) }()

	// Give the watcher time to register before editing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`["1.1","9.9"]`), 0644))

	assert.Eventually(t, func() bool {
		return len(ledger.Snapshot(ctx)) == 2
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
