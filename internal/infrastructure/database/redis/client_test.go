package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/config"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// newTestClient starts an in-memory Redis and returns a connected client.
func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_Success(t *testing.T) {
	client, _ := newTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
	assert.NotNil(t, client.GetUnderlyingClient())
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	client, err := NewClient(config.RedisConfig{Addr: "127.0.0.1:1"}, nil)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheError))
}

func TestApplyDefaults(t *testing.T) {
	cfg := config.RedisConfig{}
	applyDefaults(&cfg)
	assert.Positive(t, cfg.PoolSize)
	assert.Equal(t, 2, cfg.MinIdleConns)
	assert.NotZero(t, cfg.DialTimeout)
	assert.NotZero(t, cfg.ReadTimeout)
	assert.NotZero(t, cfg.WriteTimeout)

	cfg = config.RedisConfig{PoolSize: 3}
	applyDefaults(&cfg)
	assert.Equal(t, 3, cfg.PoolSize)
}

func TestClient_Close(t *testing.T) {
	client, _ := newTestClient(t)
	require.NoError(t, client.Close())
	assert.NoError(t, client.Close(), "second close is a no-op")

	err := client.Ping(context.Background())
	assert.Equal(t, ErrClientClosed, err)
}

//Personal.AI order the ending
