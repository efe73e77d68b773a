package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	appassessment "github.com/turtacn/recidivism-forecast/internal/application/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/internal/interfaces/http/validation"
)

var fixedNow = time.Date(2025, time.March, 10, 15, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// criticalBody scores 8.2 under the default constants.
const criticalBody = `{
	"person_id": "p-7",
	"pattern_type": "chronic_criminal",
	"total_cases": 10,
	"criminal_count": 7,
	"admin_count": 3,
	"days_since_last": 5,
	"current_age": 24,
	"substance_abuse": 1,
	"has_escalation": 1
}`

func newTestService(t *testing.T, opts ...appassessment.Option) *appassessment.Service {
	t.Helper()
	engine := risk.NewAssembler(risk.MustDefaultConstants(), risk.WithClock(fixedClock))
	cfg := appassessment.DefaultConfig()
	cfg.Clock = fixedClock
	cfg.BatchLimit = 3
	svc, err := appassessment.NewService(engine, cfg, logging.NewNopLogger(), opts...)
	require.NoError(t, err)
	return svc
}

func newRiskRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewRiskHandler(newTestService(t), validation.MustNew(), logging.NewNopLogger())
	r := chi.NewRouter()
	r.Post("/risk/score", h.Score)
	r.Post("/risk/quick", h.Quick)
	r.Post("/risk/assess", h.Assess)
	r.Post("/risk/batch", h.Batch)
	r.Get("/risk/statistics", h.Statistics)
	r.Post("/forecast", h.Forecast)
	r.Post("/forecast/priority", h.Priority)
	r.Post("/forecast/calendar", h.Calendar)
	r.Get("/forecast/windows", h.Windows)
	r.Post("/interventions/plan", h.Plan)
	r.Get("/constants", h.Constants)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

//Personal.AI order the ending
