// Package bootstrap opens the infrastructure shared by the API server, the
// reassessment worker and the CLI, and assembles the assessment service on
// top of it.  Every backing service is optional and only opened when enabled
// in configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	appassessment "github.com/turtacn/recidivism-forecast/internal/application/assessment"
	"github.com/turtacn/recidivism-forecast/internal/config"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/database/postgres"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/database/postgres/repositories"
	redisinfra "github.com/turtacn/recidivism-forecast/internal/infrastructure/database/redis"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/prometheus"
)

// Infrastructure holds the opened clients.  Nil fields are disabled.
type Infrastructure struct {
	Pool      *pgxpool.Pool
	Redis     *redisinfra.Client
	Producer  *kafka.Producer
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	cfg    *config.Config
	logger logging.Logger
}

// Open connects every enabled component.  On error everything opened so far
// is closed again.
func Open(cfg *config.Config, logger logging.Logger) (*Infrastructure, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	infra := &Infrastructure{cfg: cfg, logger: logger}

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfigFrom(cfg.Metrics), logger)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		infra.Collector = collector
		infra.Metrics = prometheus.NewAppMetrics(collector)
	}

	if cfg.Database.Enabled {
		pool, err := postgres.NewConnectionPool(cfg.Database, logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		infra.Pool = pool
	}

	if cfg.Redis.Enabled {
		client, err := redisinfra.NewClient(cfg.Redis, logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		infra.Redis = client
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("kafka: %w", err)
		}
		infra.Producer = producer
	}

	logger.Info("infrastructure initialized",
		logging.Bool("postgres", infra.Pool != nil),
		logging.Bool("redis", infra.Redis != nil),
		logging.Bool("kafka", infra.Producer != nil),
		logging.Bool("metrics", infra.Metrics != nil))
	return infra, nil
}

// Close releases every opened client.  It is safe to call more than once.
func (i *Infrastructure) Close() {
	if i.Producer != nil {
		if err := i.Producer.Close(); err != nil {
			i.logger.Warn("kafka producer close failed", logging.Err(err))
		}
		i.Producer = nil
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			i.logger.Warn("redis close failed", logging.Err(err))
		}
		i.Redis = nil
	}
	if i.Pool != nil {
		postgres.Close(i.Pool)
		i.Pool = nil
	}
}

// Migrate applies pending schema migrations when the database is enabled.
func (i *Infrastructure) Migrate() error {
	if !i.cfg.Database.Enabled {
		return nil
	}
	if err := postgres.RunMigrations(i.cfg.Database.DSN()); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Ping reports the health of every opened component, keyed by name.
func (i *Infrastructure) Ping(ctx context.Context) map[string]error {
	out := make(map[string]error)
	if i.Pool != nil {
		out["postgres"] = postgres.HealthCheck(ctx, i.Pool, i.logger)
	}
	if i.Redis != nil {
		out["redis"] = i.Redis.Ping(ctx)
	}
	return out
}

// NewEngine loads the constants table and builds the risk engine.
func NewEngine(cfg config.EngineConfig, logger logging.Logger) (*risk.Assembler, error) {
	c, err := risk.LoadConstants(cfg.ConstantsPath)
	if err != nil {
		return nil, err
	}
	return risk.NewAssembler(c, risk.WithLogger(logger), risk.WithTopN(cfg.TopN)), nil
}

// NewService assembles the assessment service over engine and whatever
// infrastructure is open.
func (i *Infrastructure) NewService(engine *risk.Assembler) (*appassessment.Service, error) {
	cfg := appassessment.DefaultConfig()
	cfg.BatchLimit = i.cfg.Engine.BatchLimit
	cfg.BatchWorkers = i.cfg.Engine.BatchWorkers

	opts := []appassessment.Option{appassessment.WithMetrics(i.Metrics)}
	if i.Pool != nil {
		opts = append(opts,
			appassessment.WithRepository(repositories.NewAssessmentRepository(i.Pool, i.logger)),
			appassessment.WithPersonRepository(repositories.NewPersonRepository(i.Pool, i.logger)))
	}
	if i.Redis != nil {
		cache := redisinfra.NewRedisCache(i.Redis, i.logger,
			redisinfra.WithPrefix(i.cfg.Redis.KeyPrefix),
			redisinfra.WithDefaultTTL(i.cfg.Redis.DefaultTTL))
		opts = append(opts,
			appassessment.WithReportCache(redisinfra.NewReportCache(cache, i.cfg.Redis.DefaultTTL, i.logger)),
			appassessment.WithPersonLocker(redisinfra.NewLockFactory(i.Redis, i.logger)))
	}
	if i.Producer != nil {
		opts = append(opts, appassessment.WithPublisher(kafka.NewEventPublisher(i.Producer, i.cfg.Kafka, i.logger)))
	}
	return appassessment.NewService(engine, cfg, i.logger, opts...)
}

//Personal.AI order the ending
