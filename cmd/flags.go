package cmd

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "json", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", ":8080", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "SNIPPETS_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "/snippets", "Base path to export the webserver on")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "SNIPPETS_BASE_PATH")
}

func historyDirFlag(v *viper.Viper) string {
	return v.GetString("history.dir")
}

func addHistoryDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("history-dir", "/var/lib/snippets", "Where to put my data")
	_ = v.BindPFlag("history.dir", flags.Lookup("history-dir"))
	_ = v.BindEnv("history.dir", "SNIPPETS_HISTORY_DIR")
}

func historyLimitFlag(v *viper.Viper) int {
	return v.GetInt("history.limit")
}

func addHistoryLimitFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("history-limit", 2, "Number of collection backups to keep")
	_ = v.BindPFlag("history.limit", flags.Lookup("history-limit"))
	_ = v.BindEnv("history.limit", "SNIPPETS_HISTORY_LIMIT")
}

func gracefulPeriodFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("graceful_period")
}

func addGracefulPeriodFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("graceful-period", 30*time.Second, "Grace period for shutdown")
	_ = v.BindPFlag("graceful_period", flags.Lookup("graceful-period"))
	_ = v.BindEnv("graceful_period", "SNIPPETS_GRACEFUL_PERIOD")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func servicePProfEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.pprof.enabled")
}

func addServicePProfEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-pprof-enabled", false, "Enable pprof service")
	_ = v.BindPFlag("service.pprof.enabled", flags.Lookup("service-pprof-enabled"))
}

func otelEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("otel.enabled")
}

func addOtelEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("otel-enabled", false, "Enable otel service")
	_ = v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	_ = v.BindEnv("otel.enabled", "OTEL_ENABLED")
}

func storageTypeFlag(v *viper.Viper) string {
	return v.GetString("storage.type")
}

func addStorageTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-type", "filesystem", "Storage backend (filesystem, blob, badger, sqlite)")
	_ = v.BindPFlag("storage.type", flags.Lookup("storage-type"))
	_ = v.BindEnv("storage.type", "SNIPPETS_STORAGE_TYPE")
}

func storageBlobBucketFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.bucket")
}

func addStorageBlobBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-bucket", "", "Bucket URL for blob storage (gs://, s3://, azblob://)")
	_ = v.BindPFlag("storage.blob.bucket", flags.Lookup("storage-blob-bucket"))
	_ = v.BindEnv("storage.blob.bucket", "SNIPPETS_STORAGE_BLOB_BUCKET")
}

func storageBlobPrefixFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.prefix")
}

func addStorageBlobPrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-prefix", "", "Key prefix inside the blob bucket")
	_ = v.BindPFlag("storage.blob.prefix", flags.Lookup("storage-blob-prefix"))
	_ = v.BindEnv("storage.blob.prefix", "SNIPPETS_STORAGE_BLOB_PREFIX")
}

func storageBadgerDirFlag(v *viper.Viper) string {
	return v.GetString("storage.badger.dir")
}

func addStorageBadgerDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-badger-dir", "", "Directory for badger storage, defaults to <history-dir>/badger")
	_ = v.BindPFlag("storage.badger.dir", flags.Lookup("storage-badger-dir"))
	_ = v.BindEnv("storage.badger.dir", "SNIPPETS_STORAGE_BADGER_DIR")
}

func storageSQLitePathFlag(v *viper.Viper) string {
	return v.GetString("storage.sqlite.path")
}

func addStorageSQLitePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-sqlite-path", "", "Database file for sqlite storage, defaults to <history-dir>/snippets.db")
	_ = v.BindPFlag("storage.sqlite.path", flags.Lookup("storage-sqlite-path"))
	_ = v.BindEnv("storage.sqlite.path", "SNIPPETS_STORAGE_SQLITE_PATH")
}

func gzipLevelFlag(v *viper.Viper) int {
	return v.GetInt("gzip.level")
}

func addGzipLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("gzip-level", -1, "GZip compression level, -1 for the default")
	_ = v.BindPFlag("gzip.level", flags.Lookup("gzip-level"))
}

func outputFlag(v *viper.Viper) string {
	return v.GetString("output")
}

func addOutputFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.StringP("output", "o", "-", "File to write to, - for stdout")
	_ = v.BindPFlag("output", flags.Lookup("output"))
}
