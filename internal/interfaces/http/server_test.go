package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/config"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
)

func TestNewServer(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 8080, ReadTimeout: time.Second, WriteTimeout: 2 * time.Second}
	mux := http.NewServeMux()
	server := NewServer(cfg, mux, nil)

	require.NotNil(t, server)
	assert.Equal(t, "127.0.0.1:8080", server.srv.Addr)
	assert.Equal(t, 2*time.Second, server.srv.WriteTimeout)
	assert.Equal(t, defaultShutdownTimeout, server.shutdownTimeout)
	assert.Equal(t, http.Handler(mux), server.Handler())
}

func TestServer_ServeAndStop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, "pong") })
	server := NewServer(config.ServerConfig{ShutdownTimeout: time.Second}, mux, logging.NewNopLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- server.Serve(ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/ping", ln.Addr()))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body) == "pong"
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, server.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}

func TestServer_StopBeforeStart(t *testing.T) {
	server := NewServer(config.ServerConfig{Port: 0}, http.NewServeMux(), nil)
	assert.NoError(t, server.Stop(context.Background()))
}

//Personal.AI order the ending
