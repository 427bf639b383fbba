// Package config defines all configuration structures for the intelligence
// platform.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/poi"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// DSN renders the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
}

// KafkaConfig holds Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	BatchSize       int           `mapstructure:"batch_size"`
	TopicPrefix     string        `mapstructure:"topic_prefix"`
}

// OpenSearchConfig holds OpenSearch cluster connection parameters.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// WorkerConfig holds the Kafka worker's execution parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	CommitInterval time.Duration `mapstructure:"commit_interval"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "text"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
}

// MatchingConfig holds the entity-resolution thresholds and keyword lists.
// Values left unset fall back to the engine defaults.
type MatchingConfig struct {
	MatchThreshold          float64  `mapstructure:"match_threshold"`
	StrongNameThreshold     float64  `mapstructure:"strong_name_threshold"`
	VariantEnglishThreshold float64  `mapstructure:"variant_english_threshold"`
	VariantChineseFloor     float64  `mapstructure:"variant_chinese_floor"`
	CompanyBonus            float64  `mapstructure:"company_bonus"`
	CompanyBonusThreshold   float64  `mapstructure:"company_bonus_threshold"`
	Honorifics              []string `mapstructure:"honorifics"`
	CompanyKeywords         []string `mapstructure:"company_keywords"`
}

// ToMatchConfig merges the configured values over the engine defaults.
func (m MatchingConfig) ToMatchConfig() poi.MatchConfig {
	cfg := poi.DefaultMatchConfig()
	if m.MatchThreshold > 0 {
		cfg.MatchThreshold = m.MatchThreshold
	}
	if m.StrongNameThreshold > 0 {
		cfg.StrongNameThreshold = m.StrongNameThreshold
	}
	if m.VariantEnglishThreshold > 0 {
		cfg.VariantEnglishThreshold = m.VariantEnglishThreshold
	}
	if m.VariantChineseFloor > 0 {
		cfg.VariantChineseFloor = m.VariantChineseFloor
	}
	if m.CompanyBonus > 0 {
		cfg.CompanyBonus = m.CompanyBonus
	}
	if m.CompanyBonusThreshold > 0 {
		cfg.CompanyBonusThreshold = m.CompanyBonusThreshold
	}
	if len(m.Honorifics) > 0 {
		cfg.Honorifics = m.Honorifics
	}
	if len(m.CompanyKeywords) > 0 {
		cfg.CompanyKeywords = m.CompanyKeywords
	}
	return cfg
}

// RefreshConfig holds batch-refresh tunables.
type RefreshConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	ReportBucket  string        `mapstructure:"report_bucket"`
	ArchiveReport bool          `mapstructure:"archive_report"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the entire platform.
// Every infrastructure component and application service reads its settings
// from the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Log        LogConfig        `mapstructure:"log"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Refresh    RefreshConfig    `mapstructure:"refresh"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	// Matching: thresholds, when set, must be sensible probabilities.
	for name, v := range map[string]float64{
		"matching.match_threshold":           c.Matching.MatchThreshold,
		"matching.strong_name_threshold":     c.Matching.StrongNameThreshold,
		"matching.variant_english_threshold": c.Matching.VariantEnglishThreshold,
		"matching.variant_chinese_floor":     c.Matching.VariantChineseFloor,
		"matching.company_bonus_threshold":   c.Matching.CompanyBonusThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: %s %g is out of range [0, 1]", name, v)
		}
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|text", c.Log.Format)
	}

	return nil
}
