package config

import (
	"time"

	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultServerMode      = "release"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultRequestTimeout  = 20 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodySize     = 4 << 20
	DefaultRateLimitRPS    = 50
	DefaultRateLimitBurst  = 100

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "recidivism"
	DefaultDBMaxConns = 20
	DefaultDBSSLMode  = "disable"

	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisTTL    = 24 * time.Hour
	DefaultRedisPrefix = "risk:"

	DefaultKafkaBroker          = "localhost:9092"
	DefaultKafkaGroupID         = "risk-worker"
	DefaultKafkaAssessmentTopic = "risk.assessment.completed"
	DefaultKafkaReassessTopic   = "risk.reassess.requested"
	DefaultKafkaTimeoutMS       = 5000

	DefaultMetricsNamespace = "recidivism"
	DefaultMetricsPath      = "/metrics"

	DefaultEngineBatchLimit   = 100
	DefaultEngineBatchWorkers = 8
	DefaultEngineTopN         = 3

	DefaultLogLevel  = logging.LevelInfo
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency    = 4
	DefaultWorkerMaxRetries     = 3
	DefaultWorkerRetryBackoff   = 500 * time.Millisecond
	DefaultWorkerHistoryLimit   = 500
	DefaultWorkerProcessTimeout = 30 * time.Second
)

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields that have already been set (non-zero values) are left unchanged so
// that explicit configuration always wins.  It must run after unmarshalling
// and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Server.RateLimitRPS == 0 {
		cfg.Server.RateLimitRPS = DefaultRateLimitRPS
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultRateLimitBurst
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
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30 * time.Minute
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
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	// DB is an int; 0 is a valid explicit value and also the default.

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AssessmentTopic == "" {
		cfg.Kafka.AssessmentTopic = DefaultKafkaAssessmentTopic
	}
	if cfg.Kafka.ReassessTopic == "" {
		cfg.Kafka.ReassessTopic = DefaultKafkaReassessTopic
	}
	if cfg.Kafka.TimeoutMS == 0 {
		cfg.Kafka.TimeoutMS = DefaultKafkaTimeoutMS
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	if cfg.Engine.BatchLimit == 0 {
		cfg.Engine.BatchLimit = DefaultEngineBatchLimit
	}
	if cfg.Engine.BatchWorkers == 0 {
		cfg.Engine.BatchWorkers = DefaultEngineBatchWorkers
	}
	if cfg.Engine.TopN == 0 {
		cfg.Engine.TopN = DefaultEngineTopN
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = DefaultWorkerMaxRetries
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = DefaultWorkerRetryBackoff
	}
	if cfg.Worker.HistoryLimit == 0 {
		cfg.Worker.HistoryLimit = DefaultWorkerHistoryLimit
	}
	if cfg.Worker.ProcessTimeout == 0 {
		cfg.Worker.ProcessTimeout = DefaultWorkerProcessTimeout
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

//Personal.AI order the ending
