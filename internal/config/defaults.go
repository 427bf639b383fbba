package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "intel"
	DefaultDBMaxConns = 25

	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisTTL    = 5 * time.Minute
	DefaultRedisPrefix = "intel:"
	DefaultLockTTL     = 10 * time.Second

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "intel-resolution"
	DefaultTopicPrefix  = "intel"

	DefaultOpenSearchAddr   = "http://localhost:9200"
	DefaultOpenSearchPrefix = "intel"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultReportBucket  = "intel-reports"

	DefaultWorkerConcurrency = 4

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisPrefix
	}
	if cfg.Redis.LockTTL == 0 {
		cfg.Redis.LockTTL = DefaultLockTTL
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}
	if cfg.Kafka.TopicPrefix == "" {
		cfg.Kafka.TopicPrefix = DefaultTopicPrefix
	}

	// ── OpenSearch ────────────────────────────────────────────────────────────
	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddr}
	}
	if cfg.OpenSearch.IndexPrefix == "" {
		cfg.OpenSearch.IndexPrefix = DefaultOpenSearchPrefix
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultReportBucket
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = 2 * time.Second
	}
	if cfg.Worker.CommitInterval == 0 {
		cfg.Worker.CommitInterval = time.Second
	}

	// ── Refresh ───────────────────────────────────────────────────────────────
	if cfg.Refresh.Timeout == 0 {
		cfg.Refresh.Timeout = 30 * time.Minute
	}
	if cfg.Refresh.ReportBucket == "" {
		cfg.Refresh.ReportBucket = DefaultReportBucket
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
