package main

import (
	"context"

	"github.com/turtacn/recidivism-forecast/internal/bootstrap"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/database/postgres"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/internal/interfaces/http/handlers"
)

// healthCheckers adapts every opened backing service for the readiness probe.
func healthCheckers(infra *bootstrap.Infrastructure, logger logging.Logger) []handlers.HealthChecker {
	var checkers []handlers.HealthChecker
	if infra.Pool != nil {
		pool := infra.Pool
		checkers = append(checkers, handlers.NewChecker("postgres", func(ctx context.Context) error {
			return postgres.HealthCheck(ctx, pool, logger)
		}))
	}
	if infra.Redis != nil {
		client := infra.Redis
		checkers = append(checkers, handlers.NewChecker("redis", client.Ping))
	}
	return checkers
}

//Personal.AI order the ending
