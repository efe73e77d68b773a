package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
)

func newObservedLogger() (logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logging.NewLoggerFromCore(core), logs
}

func statusHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("body"))
	})
}

func TestRequestContext_PropagatesRequestID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	})
	handler := chimw.RequestID(RequestContext(inner))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "req-42")
	handler.ServeHTTP(w, r)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestRequestContext_WithoutRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	RequestContext(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestLogging_Levels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  zapcore.Level
		msg    string
	}{
		{"success", http.StatusOK, zapcore.InfoLevel, "request completed"},
		{"client error", http.StatusUnprocessableEntity, zapcore.WarnLevel, "request rejected"},
		{"server error", http.StatusInternalServerError, zapcore.ErrorLevel, "request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := newObservedLogger()
			handler := RequestLogging(logger, DefaultLoggingConfig())(statusHandler(tt.status))

			r := httptest.NewRequest(http.MethodPost, "/api/v1/risk/score?x=1", nil)
			r.Header.Set("User-Agent", "rfctl")
			handler.ServeHTTP(httptest.NewRecorder(), r)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, tt.msg, entry.Message)
			fields := entry.ContextMap()
			assert.Equal(t, "/api/v1/risk/score", fields["path"])
			assert.EqualValues(t, tt.status, fields["status"])
			assert.EqualValues(t, 4, fields["bytes"])
			assert.Equal(t, "x=1", fields["query"])
			assert.Equal(t, "rfctl", fields["user_agent"])
		})
	}
}

func TestRequestLogging_SlowRequest(t *testing.T) {
	logger, logs := newObservedLogger()
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
	})
	handler := RequestLogging(logger, LoggingConfig{SlowThreshold: time.Millisecond})(slow)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/risk/windows", nil))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "slow request", logs.All()[0].Message)
	assert.EqualValues(t, http.StatusOK, logs.All()[0].ContextMap()["status"])
}

func TestRequestLogging_SkipPaths(t *testing.T) {
	logger, logs := newObservedLogger()
	handler := RequestLogging(logger, DefaultLoggingConfig())(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Zero(t, logs.Len())
}

//Personal.AI order the ending
