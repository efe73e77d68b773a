// Reassessment worker entry point.  It consumes reassessment requests from
// Kafka, rescoring each person from stored history and publishing the
// completed assessment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/recidivism-forecast/internal/bootstrap"
	"github.com/turtacn/recidivism-forecast/internal/config"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/recidivism-forecast/internal/interfaces/http"
	"github.com/turtacn/recidivism-forecast/internal/interfaces/http/handlers"
)

var version = "dev"

const defaultHealthPort = 8081

func main() {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	workers := flag.Int("workers", 0, "number of consumers in the group (overrides worker.concurrency)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for /healthz, /readyz and /metrics")
	createTopics := flag.Bool("create-topics", false, "create the service topics before consuming")
	flag.Parse()

	if err := run(*configPath, *workers, *healthPort, *createTopics); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, workers, healthPort int, createTopics bool) error {
	cfg, err := config.LoadOrEnv(configPath)
	if err != nil {
		return err
	}
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka must be enabled for the worker")
	}
	if workers > 0 {
		cfg.Worker.Concurrency = workers
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	logger.Info("starting reassessment worker",
		logging.String("version", version),
		logging.Int("consumers", cfg.Worker.Concurrency),
		logging.String("topic", cfg.Kafka.ReassessTopic))

	if createTopics {
		if err := ensureTopics(cfg.Kafka, logger); err != nil {
			return err
		}
	}

	infra, err := bootstrap.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	engine, err := bootstrap.NewEngine(cfg.Engine, logger.Named("engine"))
	if err != nil {
		return err
	}
	svc, err := infra.NewService(engine)
	if err != nil {
		return err
	}
	if !svc.Storage() {
		logger.Warn("database disabled; every reassessment will fail and be dead-lettered")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := newReassessHandler(svc, cfg.Worker.ProcessTimeout, logger.Named("reassess"))
	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	defer func() {
		for _, c := range consumers {
			if err := c.Close(); err != nil {
				logger.Warn("consumer close failed", logging.Err(err))
			}
		}
	}()
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		c, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(cfg.Kafka, cfg.Worker), logger)
		if err != nil {
			return err
		}
		consumers = append(consumers, c)
		c.Subscribe(cfg.Kafka.ReassessTopic, handler)
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	healthCfg := cfg.Server
	healthCfg.Port = healthPort
	health := handlers.NewHealthHandler(version, handlers.NewChecker("storage", func(ctx context.Context) error {
		for name, err := range infra.Ping(ctx) {
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	})).WithMetrics(infra.Metrics)
	srv := httpserver.NewServer(healthCfg, httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    health,
		Logger:           logger,
		MetricsCollector: infra.Collector,
	}), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("health server: %w", err)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	}

	cancel()
	var processed, deadLettered int64
	for _, c := range consumers {
		processed += c.Processed()
		deadLettered += c.DeadLettered()
	}
	logger.Info("reassessment worker stopping",
		logging.Int64("processed", processed),
		logging.Int64("dead_lettered", deadLettered))
	return srv.Stop(context.Background())
}

func ensureTopics(cfg config.KafkaConfig, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		return err
	}
	defer func() { _ = tm.Close() }()
	return tm.EnsureTopics(context.Background(), kafka.DefaultTopics(cfg))
}

//Personal.AI order the ending
