package mock

import (
	"context"
	"testing"

	"github.com/dipin13k/code-snippets/pkg/store"
	"github.com/dipin13k/code-snippets/snippet"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MakeStore a loaded store over a temporary filesystem storage
func MakeStore(tb testing.TB) *store.Store {
	tb.Helper()
	storage, err := store.NewFilesystemStorage(tb.TempDir())
	require.NoError(tb, err)
	return MakeStoreWithStorage(tb, storage)
}

// MakeStoreWithStorage a loaded store over the given storage
func MakeStoreWithStorage(tb testing.TB, storage store.Storage) *store.Store {
	tb.Helper()
	l := zaptest.NewLogger(tb)

	history, err := store.NewHistory(l, store.HistoryWithStorage(storage))
	require.NoError(tb, err)

	s := store.New(l, history)

	ctx, cancel := context.WithCancel(context.Background())

	up := make(chan bool, 1)
	s.OnLoaded(func() {
		up <- true
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Start(ctx)
	}()
	<-up

	tb.Cleanup(func() {
		cancel()
		<-done
		_ = history.Close()
	})

	return s
}

// MakeFields fields for a valid snippet
func MakeFields() snippet.Fields {
	return snippet.Fields{
		Title:       "Hello World",
		Language:    "go",
		Tags:        []string{"go", "basics"},
		Description: "Prints hello world",
		Code:        `fmt.Println("hello world")`,
	}
}

// MakeSearchFields fields for snippets covering title, tag and code matches
func MakeSearchFields() []snippet.Fields {
	return []snippet.Fields{
		{
			Title:       "Array Map",
			Language:    "javascript",
			Tags:        []string{"javascript"},
			Description: "Map over an array",
			Code:        "const x=1",
		},
		{
			Title:    "Binary Search",
			Language: "go",
			Tags:     []string{"go", "algorithms"},
			Code:     "func search(haystack []int, needle int) int {\n\treturn sort.SearchInts(haystack, needle)\n}",
		},
		{
			Title:       "Multi Stage Build",
			Language:    "dockerfile",
			Tags:        []string{"docker"},
			Description: "Keep the final image small",
			Code:        "FROM golang:1.25 AS build",
		},
	}
}

// BrokenStorage wraps a Storage and lets writes fail on demand.
type BrokenStorage struct {
	store.Storage
	FailWrites bool
}

func (b *BrokenStorage) Write(ctx context.Context, key string, data []byte) error {
	if b.FailWrites {
		return errors.New("write failed")
	}
	return b.Storage.Write(ctx, key, data)
}
