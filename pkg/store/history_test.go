package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestHistory(t *testing.T, opts ...HistoryOption) *History {
	t.Helper()
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	history, err := NewHistory(zaptest.NewLogger(t), append([]HistoryOption{HistoryWithStorage(storage)}, opts...)...)
	require.NoError(t, err)
	return history
}

func TestHistory_Add(t *testing.T) {
	ctx := context.Background()
	history := newTestHistory(t)

	require.NoError(t, history.Add(ctx, []byte(`[{"id":"a"}]`)))

	data, err := history.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(data))

	backups, err := history.backups(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestHistory_Add_UpdatesCurrent(t *testing.T) {
	ctx := context.Background()
	history := newTestHistory(t)

	require.NoError(t, history.Add(ctx, []byte(`[]`)))
	require.NoError(t, history.Add(ctx, []byte(`[{"id":"b"}]`)))

	data, err := history.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"b"}]`, string(data))
}

func TestHistory_Add_CleansUp(t *testing.T) {
	ctx := context.Background()
	history := newTestHistory(t, HistoryWithHistoryLimit(2))

	for i := 0; i < 5; i++ {
		require.NoError(t, history.Add(ctx, []byte(`[]`)))
	}

	backups, err := history.backups(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 2)

	// the current slot never falls victim to the cleanup
	_, err = history.GetCurrent(ctx)
	require.NoError(t, err)
}

func TestHistory_GetCurrent_NotFound(t *testing.T) {
	ctx := context.Background()
	history := newTestHistory(t)

	_, err := history.GetCurrent(ctx)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestNewHistory_DefaultStorage(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "history")

	history, err := NewHistory(zaptest.NewLogger(t), HistoryWithHistoryDir(dir))
	require.NoError(t, err)

	require.NoError(t, history.Add(ctx, []byte(`[]`)))
	assert.FileExists(t, filepath.Join(dir, CurrentKey))
}
