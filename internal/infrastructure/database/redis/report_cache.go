package redis

import (
	"context"
	"time"

	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
)

const reportKeyPrefix = "report:"

// ReportCache stores assembled risk reports keyed by profile hash.
type ReportCache struct {
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
}

// NewReportCache wraps cache.  A zero ttl uses the cache default.
func NewReportCache(cache Cache, ttl time.Duration, log logging.Logger) *ReportCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ReportCache{cache: cache, ttl: ttl, logger: log.Named("report_cache")}
}

// Fetch returns the cached report for hash.  On a miss compute runs once per
// hash across concurrent callers and its result is stored.  The boolean
// reports whether the value came from the cache.  When Redis is unreachable
// the report is computed without caching.
func (r *ReportCache) Fetch(ctx context.Context, hash string, compute func(ctx context.Context) (*risk.Report, error)) (*risk.Report, bool, error) {
	key := reportKeyPrefix + hash

	var cached risk.Report
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, true, nil
	}
	if err != ErrCacheMiss {
		r.logger.Warn("Report cache read failed, computing directly",
			logging.String("hash", hash), logging.Err(err))
		report, cerr := compute(ctx)
		return report, false, cerr
	}

	var loaded risk.Report
	err = r.cache.GetOrSet(ctx, key, &loaded, r.ttl, func(ctx context.Context) (interface{}, error) {
		return compute(ctx)
	})
	if err != nil {
		return nil, false, err
	}
	return &loaded, false, nil
}

// Invalidate drops the report stored for hash.
func (r *ReportCache) Invalidate(ctx context.Context, hash string) error {
	return r.cache.Delete(ctx, reportKeyPrefix+hash)
}

// Purge drops every cached report and returns how many were removed.
func (r *ReportCache) Purge(ctx context.Context) (int64, error) {
	return r.cache.DeleteByPrefix(ctx, reportKeyPrefix)
}

//Personal.AI order the ending
