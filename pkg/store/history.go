package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	HistoryKeyPrefix = "snippets-collection-"
	HistoryKeySuffix = ".json"
	// CurrentKey is the backend slot holding the authoritative collection
	CurrentKey = HistoryKeyPrefix + "current" + HistoryKeySuffix
)

type (
	// History owns the backend slots, the current collection plus a limited
	// number of timestamped backups of earlier states.
	History struct {
		l            *zap.Logger
		storage      Storage
		historyDir   string // directory used for the default filesystem storage
		historyLimit int
		mu           sync.RWMutex
	}
	HistoryOption func(*History)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func HistoryWithHistoryLimit(v int) HistoryOption {
	return func(o *History) {
		o.historyLimit = v
	}
}

func HistoryWithHistoryDir(v string) HistoryOption {
	return func(o *History) {
		o.historyDir = v
	}
}

func HistoryWithStorage(s Storage) HistoryOption {
	return func(o *History) {
		o.storage = s
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewHistory(l *zap.Logger, opts ...HistoryOption) (*History, error) {
	inst := &History{
		l:            l,
		historyDir:   "/var/lib/snippets",
		historyLimit: 2,
	}

	for _, opt := range opts {
		opt(inst)
	}

	if inst.storage == nil {
		storage, err := NewFilesystemStorage(inst.historyDir)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create default filesystem storage")
		}
		inst.storage = storage
	}

	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Add persists a collection state, first as a timestamped backup, then as
// the current slot. Backups beyond the limit are removed afterwards. When
// the backup write fails the current slot stays untouched.
func (h *History) Add(ctx context.Context, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	backupKey := HistoryKeyPrefix + time.Now().Format(time.RFC3339Nano) + HistoryKeySuffix
	h.l.Debug("persisting collection state",
		zap.String("backup", backupKey),
		zap.Int("num_bytes", len(data)),
	)

	if err := h.storage.Write(ctx, backupKey, data); err != nil {
		return errors.Wrap(err, "failed to write backup")
	}
	if err := h.storage.Write(ctx, CurrentKey, data); err != nil {
		return errors.Wrap(err, "failed to write current slot")
	}
	return errors.Wrap(h.cleanup(ctx), "failed to clean up history")
}

// GetCurrent returns the bytes of the current slot.
func (h *History) GetCurrent(ctx context.Context) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.storage.Read(ctx, CurrentKey)
}

// Close releases the underlying storage.
func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.storage != nil {
		return h.storage.Close()
	}
	return nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// backups returns the backup keys, newest first. The current slot is not a
// backup.
func (h *History) backups(ctx context.Context) ([]string, error) {
	keys, err := h.storage.List(ctx, HistoryKeyPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list backups")
	}

	backups := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == CurrentKey || !strings.HasSuffix(key, HistoryKeySuffix) {
			continue
		}
		backups = append(backups, key)
	}
	return backups, nil
}

// cleanup drops the oldest backups until the limit holds.
func (h *History) cleanup(ctx context.Context) error {
	backups, err := h.backups(ctx)
	if err != nil {
		return err
	}
	if len(backups) <= h.historyLimit {
		return nil
	}

	for _, key := range backups[h.historyLimit:] {
		h.l.Debug("removing outdated backup", zap.String("key", key))
		if err := h.storage.Delete(ctx, key); err != nil {
			return errors.Wrapf(err, "failed to remove backup %q", key)
		}
	}
	return nil
}
