package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	storage, err := NewSQLiteStorage(context.Background(), filepath.Join(t.TempDir(), "snippets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snippets.db")

	storage, err := NewSQLiteStorage(ctx, path)
	require.NoError(t, err)

	require.NoError(t, storage.Write(ctx, CurrentKey, []byte(`[{"id":"a"}]`)))
	require.NoError(t, storage.Close())

	reopened, err := NewSQLiteStorage(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	data, err := reopened.Read(ctx, CurrentKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(data))
}

func TestNewSQLiteStorage_CreatesParentDir(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "nested", "snippets.db")

	storage, err := NewSQLiteStorage(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	require.NoError(t, storage.Write(ctx, CurrentKey, []byte(`[]`)))
	assert.FileExists(t, path)
}
