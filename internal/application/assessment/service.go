// Package assessment orchestrates the risk engine with the service's
// infrastructure: report caching, persistence, event publishing and metrics.
// Every collaborator except the engine is optional; a Service built with only
// an Assembler behaves as a pure calculator.
package assessment

import (
	"context"
	"time"

	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/database/redis"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// ReportCache stores assembled reports by profile hash.
type ReportCache interface {
	Fetch(ctx context.Context, hash string, compute func(ctx context.Context) (*risk.Report, error)) (*risk.Report, bool, error)
	Purge(ctx context.Context) (int64, error)
}

// PersonLocker hands out a lock that serializes work on one person.
type PersonLocker interface {
	PersonLock(personID string, ttl time.Duration) redis.DistributedLock
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

const (
	defaultBatchLimit   = 100
	defaultBatchWorkers = 8
	defaultLockTTL      = 30 * time.Second
)

// Config tunes the service.
type Config struct {
	BatchLimit   int
	BatchWorkers int
	LockTTL      time.Duration
	Clock        risk.Clock
}

// DefaultConfig returns the configuration used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		BatchLimit:   defaultBatchLimit,
		BatchWorkers: defaultBatchWorkers,
		LockTTL:      defaultLockTTL,
		Clock:        risk.SystemClock,
	}
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.BatchLimit <= 0 {
		c.BatchLimit = d.BatchLimit
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = d.BatchWorkers
	}
	if c.LockTTL <= 0 {
		c.LockTTL = d.LockTTL
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	return c
}

// Option attaches an optional collaborator.
type Option func(*Service)

// WithRepository enables assessment persistence.
func WithRepository(r domainassessment.Repository) Option {
	return func(s *Service) { s.repo = r }
}

// WithPersonRepository enables person-based assessment and history.
func WithPersonRepository(r domainassessment.PersonRepository) Option {
	return func(s *Service) { s.persons = r }
}

// WithReportCache enables report caching.
func WithReportCache(c ReportCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithPublisher enables assessment events.
func WithPublisher(p domainassessment.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics records service metrics.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPersonLocker serializes reassessment of the same person across workers.
func WithPersonLocker(l PersonLocker) Option {
	return func(s *Service) { s.locker = l }
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service is the application entry point shared by the HTTP API, the worker
// and the CLI.
type Service struct {
	engine    *risk.Assembler
	cfg       Config
	logger    logging.Logger
	repo      domainassessment.Repository
	persons   domainassessment.PersonRepository
	cache     ReportCache
	publisher domainassessment.EventPublisher
	metrics   *prometheus.AppMetrics
	locker    PersonLocker
}

// NewService builds a Service around engine.  The Clock in cfg should be the
// one the engine was built with so that cache keys and forecast dates agree.
func NewService(engine *risk.Assembler, cfg Config, logger logging.Logger, opts ...Option) (*Service, error) {
	if engine == nil {
		return nil, errors.New(errors.ErrCodeInternal, "risk engine is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Service{
		engine: engine,
		cfg:    cfg.normalize(),
		logger: logger.Named("assessment"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Constants returns a copy of the active constants table.
func (s *Service) Constants() *risk.Constants { return s.engine.Constants().Clone() }

// BatchLimit returns the maximum accepted batch size.
func (s *Service) BatchLimit() int { return s.cfg.BatchLimit }

// Storage reports whether assessments are persisted.
func (s *Service) Storage() bool { return s.repo != nil }

func (s *Service) now() time.Time { return s.cfg.Clock() }

func featureDisabled(feature string) error {
	return errors.New(errors.ErrCodeFeatureDisabled, feature+" is not configured")
}

// observe records the duration and outcome of one engine operation.
func (s *Service) observe(op string, start time.Time, err error) {
	prometheus.RecordEngineOperation(s.metrics, op, time.Since(start), err)
	if err != nil {
		prometheus.RecordError(s.metrics, "engine", string(errors.GetCode(err)))
	}
}

//Personal.AI order the ending
