package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// tmpSuffix marks in-flight slot writes, List never reports them
const tmpSuffix = ".tmp"

// FilesystemStorage keeps every slot as a plain file below a base
// directory, the default backend for a local installation.
type FilesystemStorage struct {
	baseDir string
	mu      sync.RWMutex
}

func NewFilesystemStorage(baseDir string) (*FilesystemStorage, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create storage directory")
	}
	return &FilesystemStorage{baseDir: baseDir}, nil
}

// Write replaces the slot atomically. The data goes to a temp file next to
// the target first, a crash mid write never leaves a torn slot behind.
func (f *FilesystemStorage) Write(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := filepath.Join(f.baseDir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrapf(err, "failed to create directory for slot %q", key)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*"+tmpSuffix)
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file for slot %q", key)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "failed to write slot %q", key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "failed to close slot %q", key)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "failed to move slot %q into place", key)
	}
	return nil
}

// Read returns the raw os error for a missing slot so callers can test it
// with os.IsNotExist.
func (f *FilesystemStorage) Read(_ context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return os.ReadFile(filepath.Join(f.baseDir, key))
}

// List returns the keys with the given prefix, newest first for the
// timestamped history keys. Only the base directory itself is listed, slot
// keys containing path separators will not show up.
func (f *FilesystemStorage) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list storage directory")
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasSuffix(name, tmpSuffix) {
			// leftover from an interrupted write, not a slot
			continue
		}
		keys = append(keys, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func (f *FilesystemStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(filepath.Join(f.baseDir, key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete slot %q", key)
	}
	return nil
}

func (f *FilesystemStorage) Close() error {
	return nil
}
