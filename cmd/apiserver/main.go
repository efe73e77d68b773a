// API server entry point for the recidivism forecast service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/recidivism-forecast/internal/bootstrap"
	"github.com/turtacn/recidivism-forecast/internal/config"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/recidivism-forecast/internal/interfaces/http"
	"github.com/turtacn/recidivism-forecast/internal/interfaces/http/handlers"
	"github.com/turtacn/recidivism-forecast/internal/interfaces/http/middleware"
	"github.com/turtacn/recidivism-forecast/internal/interfaces/http/validation"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const rateLimitCleanup = 5 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	migrate := flag.Bool("migrate", false, "apply database migrations before serving")
	flag.Parse()

	if err := run(*configPath, *port, *migrate); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int, migrate bool) error {
	cfg, err := config.LoadOrEnv(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	logger.Info("starting recidivism forecast API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("addr", cfg.Server.Addr()))

	infra, err := bootstrap.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	if migrate {
		if err := infra.Migrate(); err != nil {
			return err
		}
	}

	engine, err := bootstrap.NewEngine(cfg.Engine, logger.Named("engine"))
	if err != nil {
		return err
	}
	svc, err := infra.NewService(engine)
	if err != nil {
		return err
	}

	validator, err := validation.New()
	if err != nil {
		return err
	}
	limiter := middleware.NewTokenBucketLimiter(float64(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst, rateLimitCleanup)
	defer limiter.Stop()

	router := httpserver.NewRouter(httpserver.RouterConfig{
		RiskHandler:       handlers.NewRiskHandler(svc, validator, logger),
		AssessmentHandler: handlers.NewAssessmentHandler(svc, logger),
		HealthHandler:     handlers.NewHealthHandler(version, healthCheckers(infra, logger)...).WithMetrics(infra.Metrics),
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimiter:       limiter,
		RequestTimeout:    cfg.Server.RequestTimeout,
		MaxBodySize:       cfg.Server.MaxBodySize,
		Logger:            logger,
		Metrics:           infra.Metrics,
		MetricsCollector:  infra.Collector,
	})
	srv := httpserver.NewServer(cfg.Server, router, logger)

	if configPath != "" {
		watchConfig(configPath, logger)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	}

	return srv.Stop(context.Background())
}

// watchConfig applies log level changes without a restart.
func watchConfig(path string, logger logging.Logger) {
	setter, ok := logger.(logging.LevelSetter)
	if !ok {
		return
	}
	err := config.Watch(path, func(cfg *config.Config) {
		setter.SetLevel(cfg.Log.Level)
		logger.Info("configuration reloaded", logging.String("log_level", cfg.Log.Level.String()))
	}, func(err error) {
		logger.Warn("ignoring invalid configuration change", logging.Err(err))
	})
	if err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}
}

//Personal.AI order the ending
