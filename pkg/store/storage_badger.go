package store

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const badgerGCInterval = 10 * time.Minute

// BadgerStorage implements Storage using an embedded Badger key value
// database, the all-local alternative to blob storage.
type BadgerStorage struct {
	l      *zap.Logger
	db     *badger.DB
	stopGC chan struct{}
	doneGC chan struct{}
}

// NewBadgerStorage opens or creates a Badger database in dir.
func NewBadgerStorage(l *zap.Logger, dir string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = badgerLogger{l: l.Named("badger").Sugar()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open badger db")
	}

	inst := &BadgerStorage{
		l:      l,
		db:     db,
		stopGC: make(chan struct{}),
		doneGC: make(chan struct{}),
	}
	go inst.gcLoop()

	return inst, nil
}

func (b *BadgerStorage) Write(_ context.Context, key string, data []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (b *BadgerStorage) Read(_ context.Context, key string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return os.ErrNotExist
			}
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *BadgerStorage) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func (b *BadgerStorage) Delete(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *BadgerStorage) Close() error {
	close(b.stopGC)
	<-b.doneGC
	return b.db.Close()
}

// gcLoop reclaims value log space in the background until Close.
func (b *BadgerStorage) gcLoop() {
	defer close(b.doneGC)

	ticker := time.NewTicker(badgerGCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopGC:
			return
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				b.l.Warn("badger value log gc failed", zap.Error(err))
			}
		}
	}
}

// badgerLogger adapts zap to the badger.Logger interface.
type badgerLogger struct {
	l *zap.SugaredLogger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Errorf(format, args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warnf(format, args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debugf(format, args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debugf(format, args...)
}
