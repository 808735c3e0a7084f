package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/raine/skybet/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_AnalysisCache(t *testing.T) {
	store := newTestStore(t)

	entry, err := store.GetAnalysisCache("missing")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, store.SetAnalysisCache("abc", &CacheEntry{Kind: "rounds", Payload: []byte(`{"analysis":"a"}`)}))
	entry, err = store.GetAnalysisCache("abc")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "rounds", entry.Kind)
	assert.JSONEq(t, `{"analysis":"a"}`, string(entry.Payload))

	// Overwrite
	require.NoError(t, store.SetAnalysisCache("abc", &CacheEntry{Kind: "fairness", Payload: []byte(`{}`)}))
	entry, err = store.GetAnalysisCache("abc")
	require.NoError(t, err)
	assert.Equal(t, "fairness", entry.Kind)
}

func TestSQLiteStore_AllowedUsers(t *testing.T) {
	store := newTestStore(t)

	allowed, err := store.IsUserAllowed(42)
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, store.AddAllowedUser(42, 1))
	require.NoError(t, store.AddAllowedUser(43, 1))

	allowed, err = store.IsUserAllowed(42)
	require.NoError(t, err)
	assert.True(t, allowed)

	users, err := store.GetAllowedUsers()
	require.NoError(t, err)
	assert.Len(t, users, 2)

	// Re-adding keeps the original entry
	require.NoError(t, store.AddAllowedUser(42, 99))
	users, err = store.GetAllowedUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(42), users[0].TelegramID)
	assert.Equal(t, int64(1), users[0].AddedBy)

	require.NoError(t, store.RemoveAllowedUser(42))
	allowed, err = store.IsUserAllowed(42)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Unknown users are not an error
	require.NoError(t, store.RemoveAllowedUser(1234))
}

func TestNewSQLiteStore_MigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skybet.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	version, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)
	require.NoError(t, store.AddAllowedUser(7, 1))
	require.NoError(t, store.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Reopening applies nothing and keeps data
	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
	allowed, err := store.IsUserAllowed(7)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewSQLiteStore_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skybet.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewSQLiteStore(path)
	assert.ErrorContains(t, err, "newer than this build")
}

func TestSQLiteHistory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	hs := newTestStore(t).History()

	values, err := hs.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{}, values)

	require.NoError(t, hs.Write(ctx, []string{"4.5", "1.23", "10"}))
	values, err = hs.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"4.5", "1.23", "10"}, values)

	require.NoError(t, hs.Clear(ctx))
	values, err = hs.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestSQLiteHistory_FailedWriteKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	hs := newTestStore(t).History()

	require.NoError(t, hs.Write(ctx, []string{"1.1"}))
	// Duplicate tokens violate the UNIQUE constraint and abort the transaction.
	require.Error(t, hs.Write(ctx, []string{"2.2", "2.2"}))

	values, err := hs.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1"}, values)
}

func TestSQLiteHistory_WithLedger(t *testing.T) {
	ctx := context.Background()
	ledger := history.NewLedger(newTestStore(t).History(), "")

	assert.Equal(t, []string{"1.23", "4.5"}, ledger.Merge(ctx, "1.23x 4.5x"))
	assert.Equal(t, []string{"1.23", "4.5", "2.00"}, ledger.Merge(ctx, "2.00x and 1.23x"))

	ledger.Invalidate()
	assert.Equal(t, "Historical Data: 1.23x, 4.5x, 2.00x", ledger.Formatted(ctx))
}
