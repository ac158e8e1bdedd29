package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dipin13k/code-snippets/pkg/store"
)

// blobProviders maps the supported bucket URL schemes to a name for the logs
var blobProviders = map[string]string{
	"gs://":     "Google Cloud Storage",
	"s3://":     "AWS S3",
	"azblob://": "Azure Blob Storage",
}

// createStorage creates a storage backend based on the configuration
func createStorage(ctx context.Context, v *viper.Viper, l *zap.Logger) (store.Storage, error) {
	storageType := storageTypeFlag(v)
	blobBucket := storageBlobBucketFlag(v)
	blobPrefix := storageBlobPrefixFlag(v)

	// Warn about ignored blob config
	if storageType != "blob" && (blobBucket != "" || blobPrefix != "") {
		l.Warn("blob storage flags are set but storage-type is not 'blob'; blob config will be ignored",
			zap.String("storage-type", storageType),
			zap.String("blob-bucket", blobBucket),
			zap.String("blob-prefix", blobPrefix),
		)
	}

	l.Info("creating storage", zap.String("type", storageType))

	switch storageType {
	case "blob":
		if blobBucket == "" {
			return nil, fmt.Errorf("blob bucket URL is required when storage-type is 'blob' (supported schemes: gs://, s3://, azblob://)")
		}
		provider, ok := blobProvider(blobBucket)
		if !ok {
			return nil, fmt.Errorf("unsupported blob storage URL scheme in %q; supported schemes: gs://, s3://, azblob://", blobBucket)
		}
		l.Info("using blob storage",
			zap.String("bucket", blobBucket),
			zap.String("prefix", blobPrefix),
			zap.String("provider", provider),
		)
		return store.NewBlobStorage(ctx, blobBucket, blobPrefix)
	case "badger":
		dir := storageBadgerDirFlag(v)
		if dir == "" {
			dir = filepath.Join(historyDirFlag(v), "badger")
		}
		l.Info("using badger storage", zap.String("dir", dir))
		return store.NewBadgerStorage(l.Named("inst.storage"), dir)
	case "sqlite":
		path := storageSQLitePathFlag(v)
		if path == "" {
			path = filepath.Join(historyDirFlag(v), "snippets.db")
		}
		l.Info("using sqlite storage", zap.String("path", path))
		return store.NewSQLiteStorage(ctx, path)
	case "filesystem", "":
		dir := historyDirFlag(v)
		l.Info("using filesystem storage", zap.String("dir", dir))
		return store.NewFilesystemStorage(dir)
	default:
		return nil, fmt.Errorf("unknown storage type: %s (supported: filesystem, blob, badger, sqlite)", storageType)
	}
}

// blobProvider resolves the bucket URL scheme to a provider name
func blobProvider(bucketURL string) (string, bool) {
	for scheme, provider := range blobProviders {
		if strings.HasPrefix(bucketURL, scheme) {
			return provider, true
		}
	}
	return "", false
}

// newStore wires storage, history and store from the flags. The caller owns
// the store routine and has to close the history.
func newStore(ctx context.Context, v *viper.Viper, l *zap.Logger) (*store.Store, *store.History, error) {
	storage, err := createStorage(ctx, v, l)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage: %w", err)
	}

	history, err := store.NewHistory(l.Named("inst.history"),
		store.HistoryWithStorage(storage),
		store.HistoryWithHistoryDir(historyDirFlag(v)),
		store.HistoryWithHistoryLimit(historyLimitFlag(v)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create history: %w", err)
	}

	return store.New(l.Named("inst.store"), history), history, nil
}

// addStorageFlags registers the storage selection flags shared by the
// commands that open the collection
func addStorageFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addHistoryDirFlag(flags, v)
	addHistoryLimitFlag(flags, v)
	addStorageTypeFlag(flags, v)
	addStorageBlobBucketFlag(flags, v)
	addStorageBlobPrefixFlag(flags, v)
	addStorageBadgerDirFlag(flags, v)
	addStorageSQLitePathFlag(flags, v)
}

// openStore loads the collection for the one shot commands. The returned
// closer stops the store routine and closes the history.
func openStore(ctx context.Context, v *viper.Viper, l *zap.Logger) (*store.Store, func(), error) {
	s, history, err := newStore(ctx, v, l)
	if err != nil {
		return nil, nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)

	up := make(chan bool, 1)
	s.OnLoaded(func() {
		up <- true
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Start(runCtx)
	}()
	<-up

	closer := func() {
		cancel()
		<-done
		if err := history.Close(); err != nil {
			l.Warn("failed to close history", zap.Error(err))
		}
	}
	return s, closer, nil
}
