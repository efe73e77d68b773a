package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/recidivism-forecast/pkg/errors"
)

type sample struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type CacheTestSuite struct {
	suite.Suite
	client *Client
	cache  Cache
	ctx    context.Context
}

func (s *CacheTestSuite) SetupTest() {
	s.client, _ = newTestClient(s.T())
	s.cache = NewRedisCache(s.client, logging.NewNopLogger(), WithPrefix("test:"), WithDefaultTTL(time.Minute))
	s.ctx = context.Background()
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func (s *CacheTestSuite) TestSetGet() {
	require.NoError(s.T(), s.cache.Set(s.ctx, "k", sample{Name: "a", Score: 4.5}, 0))

	var got sample
	require.NoError(s.T(), s.cache.Get(s.ctx, "k", &got))
	s.Equal(sample{Name: "a", Score: 4.5}, got)

	// Stored under the prefix with a jittered default TTL.
	ttl := s.client.rdb.TTL(s.ctx, "test:k").Val()
	s.InDelta(float64(time.Minute), float64(ttl), float64(7*time.Second))
}

func (s *CacheTestSuite) TestGet_Miss() {
	var got sample
	err := s.cache.Get(s.ctx, "absent", &got)
	s.Equal(ErrCacheMiss, err)
}

func (s *CacheTestSuite) TestGet_CorruptValue() {
	require.NoError(s.T(), s.client.rdb.Set(s.ctx, "test:bad", "{not json", 0).Err())
	var got sample
	err := s.cache.Get(s.ctx, "bad", &got)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestDelete() {
	require.NoError(s.T(), s.cache.Set(s.ctx, "a", 1, 0))
	require.NoError(s.T(), s.cache.Set(s.ctx, "b", 2, 0))
	require.NoError(s.T(), s.cache.Delete(s.ctx, "a", "b"))
	require.NoError(s.T(), s.cache.Delete(s.ctx))

	var v int
	s.Equal(ErrCacheMiss, s.cache.Get(s.ctx, "a", &v))
	s.Equal(ErrCacheMiss, s.cache.Get(s.ctx, "b", &v))
}

func (s *CacheTestSuite) TestGetOrSet_LoadsOnce() {
	var calls int32
	loader := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return sample{Name: "loaded", Score: 7}, nil
	}

	var first, second sample
	require.NoError(s.T(), s.cache.GetOrSet(s.ctx, "lazy", &first, 0, loader))
	require.NoError(s.T(), s.cache.GetOrSet(s.ctx, "lazy", &second, 0, loader))

	s.Equal("loaded", first.Name)
	s.Equal(first, second)
	s.Equal(int32(1), atomic.LoadInt32(&calls))
}

func (s *CacheTestSuite) TestGetOrSet_ConcurrentMissesShareLoader() {
	var calls int32
	release := make(chan struct{})
	loader := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return sample{Name: "shared"}, nil
	}

	var wg sync.WaitGroup
	results := make([]sample, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.cache.GetOrSet(s.ctx, "hot", &results[i], 0, loader)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	s.LessOrEqual(atomic.LoadInt32(&calls), int32(5))
	s.GreaterOrEqual(atomic.LoadInt32(&calls), int32(1))
	for _, r := range results {
		s.Equal("shared", r.Name)
	}
}

func (s *CacheTestSuite) TestGetOrSet_LoaderError() {
	boom := pkgerrors.Internal("boom")
	var got sample
	err := s.cache.GetOrSet(s.ctx, "fail", &got, 0, func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	s.Equal(boom, err)
	s.Equal(ErrCacheMiss, s.cache.Get(s.ctx, "fail", &got), "failures are not cached")
}

func (s *CacheTestSuite) TestDeleteByPrefix() {
	for _, k := range []string{"report:1", "report:2", "report:3", "other"} {
		require.NoError(s.T(), s.cache.Set(s.ctx, k, k, 0))
	}
	n, err := s.cache.DeleteByPrefix(s.ctx, "report:")
	require.NoError(s.T(), err)
	s.Equal(int64(3), n)

	var v string
	s.NoError(s.cache.Get(s.ctx, "other", &v))
}

func (s *CacheTestSuite) TestPing() {
	s.NoError(s.cache.Ping(s.ctx))
}

// ─────────────────────────────────────────────────────────────────────────────
// ReportCache
// ─────────────────────────────────────────────────────────────────────────────

func testReport() *risk.Report {
	return &risk.Report{
		Profile: risk.Profile{PersonID: "p-1", Age: 30},
		Risk:    risk.Result{Score: 6.5, Level: risk.LevelHigh},
	}
}

func TestReportCache_Fetch(t *testing.T) {
	client, _ := newTestClient(t)
	rc := NewReportCache(NewRedisCache(client, nil), time.Minute, nil)
	ctx := context.Background()

	var computed int
	compute := func(ctx context.Context) (*risk.Report, error) {
		computed++
		return testReport(), nil
	}

	r, hit, err := rc.Fetch(ctx, "abc", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 6.5, r.Risk.Score)

	r, hit, err = rc.Fetch(ctx, "abc", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, risk.LevelHigh, r.Risk.Level)
	assert.Equal(t, 1, computed)

	require.NoError(t, rc.Invalidate(ctx, "abc"))
	_, hit, err = rc.Fetch(ctx, "abc", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, computed)

	n, err := rc.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReportCache_FallsBackWhenRedisDown(t *testing.T) {
	client, mr := newTestClient(t)
	rc := NewReportCache(NewRedisCache(client, nil), time.Minute, nil)
	mr.Close()

	r, hit, err := rc.Fetch(context.Background(), "abc", func(ctx context.Context) (*risk.Report, error) {
		return testReport(), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "p-1", r.Profile.PersonID)
}

//Personal.AI order the ending
