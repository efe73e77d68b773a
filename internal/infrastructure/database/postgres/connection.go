// Package postgres manages the PostgreSQL connection pool, transactions and
// schema migrations for stored assessments and violation histories.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/recidivism-forecast/internal/config"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

const (
	defaultConnectTimeout = 5 * time.Second
	poolUsageWarnRatio    = 0.8
)

// ─────────────────────────────────────────────────────────────────────────────
// Pool lifecycle
// ─────────────────────────────────────────────────────────────────────────────

// NewConnectionPool parses the configuration, opens a pgx pool and verifies it
// with a ping.
func NewConnectionPool(cfg config.DatabaseConfig, log logging.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "invalid database configuration")
	}
	configurePool(poolCfg, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open database pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "database connection failed")
	}

	log.Info("Connected to PostgreSQL database",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.DBName),
		logging.Int("max_conns", int(poolCfg.MaxConns)),
	)
	return pool, nil
}

func buildConnString(cfg config.DatabaseConfig) string {
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	return cfg.DSN()
}

// configurePool copies non-zero pool settings onto the parsed pgx config.
func configurePool(poolCfg *pgxpool.Config, cfg config.DatabaseConfig) {
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
}

// HealthCheck pings the pool and warns when most connections are busy.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool, log logging.Logger) error {
	if pool == nil {
		return errors.New(errors.ErrCodeServiceUnavailable, "database is not configured")
	}
	if err := pool.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "database health check failed")
	}
	stat := pool.Stat()
	if maxConns := stat.MaxConns(); maxConns > 0 {
		usage := float64(stat.AcquiredConns()) / float64(maxConns)
		if usage > poolUsageWarnRatio {
			log.Warn("High database connection pool usage",
				logging.Int("acquired", int(stat.AcquiredConns())),
				logging.Int("max", int(maxConns)),
				logging.Float64("usage", usage),
			)
		}
	}
	return nil
}

// Close releases the pool; a nil pool is ignored.
func Close(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Transactions
// ─────────────────────────────────────────────────────────────────────────────

type txKey struct{}

// TxFromContext returns the transaction started by an enclosing
// WithTransaction call.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// WithTransaction runs fn inside a transaction.  When ctx already carries a
// transaction the work runs in a savepoint of it.  The transaction is rolled
// back when fn returns an error or panics; the panic is re-raised.
func WithTransaction(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx, txCtx context.Context) error) (err error) {
	var tx pgx.Tx
	if outer, ok := TxFromContext(ctx); ok {
		tx, err = outer.Begin(ctx)
	} else {
		tx, err = pool.Begin(ctx)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
			return
		}
		if cmErr := tx.Commit(ctx); cmErr != nil {
			err = errors.Wrap(cmErr, errors.ErrCodeDatabaseError, "failed to commit transaction")
		}
	}()

	return fn(tx, context.WithValue(ctx, txKey{}, tx))
}

//Personal.AI order the ending
