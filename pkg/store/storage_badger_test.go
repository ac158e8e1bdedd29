package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestBadgerStorage(t *testing.T) *BadgerStorage {
	t.Helper()
	storage, err := NewBadgerStorage(zaptest.NewLogger(t), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestBadgerStorage_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	storage, err := NewBadgerStorage(zaptest.NewLogger(t), dir)
	require.NoError(t, err)

	require.NoError(t, storage.Write(ctx, CurrentKey, []byte(`[{"id":"a"}]`)))
	require.NoError(t, storage.Close())

	reopened, err := NewBadgerStorage(zaptest.NewLogger(t), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	data, err := reopened.Read(ctx, CurrentKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(data))
}
