package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

type fakeAssessmentService struct {
	assessment  *domainassessment.Assessment
	summaries   []domainassessment.Summary
	history     *risk.HistoryAnalysis
	err         error
	gotOffset   int
	gotLimit    int
	gotReason   string
	gotPersonID string
}

func (f *fakeAssessmentService) GetAssessment(_ context.Context, id string) (*domainassessment.Assessment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.assessment, nil
}

func (f *fakeAssessmentService) AssessPerson(_ context.Context, personID string) (*domainassessment.Assessment, error) {
	f.gotPersonID = personID
	return f.assessment, f.err
}

func (f *fakeAssessmentService) ListPersonAssessments(_ context.Context, personID string, offset, limit int) ([]domainassessment.Summary, error) {
	f.gotPersonID, f.gotOffset, f.gotLimit = personID, offset, limit
	return f.summaries, f.err
}

func (f *fakeAssessmentService) History(_ context.Context, personID string) (*risk.HistoryAnalysis, error) {
	f.gotPersonID = personID
	return f.history, f.err
}

func (f *fakeAssessmentService) RequestReassessment(_ context.Context, personID, reason string) (domainassessment.ReassessRequest, error) {
	f.gotPersonID, f.gotReason = personID, reason
	if f.err != nil {
		return domainassessment.ReassessRequest{}, f.err
	}
	return domainassessment.ReassessRequest{PersonID: personID, Reason: reason, RequestedAt: fixedNow}, nil
}

func newAssessmentRouter(svc AssessmentService) http.Handler {
	h := NewAssessmentHandler(svc, logging.NewNopLogger())
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Get("/assessments/{assessmentID}", h.GetAssessment)
	r.Post("/persons/{personID}/assess", h.AssessPerson)
	r.Get("/persons/{personID}/assessments", h.ListAssessments)
	r.Get("/persons/{personID}/history", h.History)
	r.Post("/persons/{personID}/reassess", h.Reassess)
	return r
}

func TestAssessmentHandler_GetAssessment(t *testing.T) {
	svc := &fakeAssessmentService{assessment: &domainassessment.Assessment{ID: "a-1", PersonID: "p-1"}}
	w := do(t, newAssessmentRouter(svc), http.MethodGet, "/assessments/a-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a-1", decode[map[string]any](t, w)["id"])
}

func TestAssessmentHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		detail string
	}{
		{"not found", errors.New(errors.ErrCodeAssessmentNotFound, "assessment not found").WithDetail("a-9"), http.StatusNotFound, "ASM_001", "a-9"},
		{"storage disabled", errors.New(errors.ErrCodeFeatureDisabled, "assessment storage is not configured"), http.StatusServiceUnavailable, "COMMON_015", ""},
		{"internal detail hidden", errors.New(errors.ErrCodeDatabaseError, "query failed").WithDetail("dsn=secret"), http.StatusInternalServerError, "COMMON_012", ""},
		{"foreign error masked", context.DeadlineExceeded, http.StatusInternalServerError, "COMMON_001", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, newAssessmentRouter(&fakeAssessmentService{err: tt.err}), http.MethodGet, "/assessments/a-9", "")
			assert.Equal(t, tt.status, w.Code)
			res := decode[ErrorResponse](t, w)
			assert.Equal(t, tt.code, res.Code)
			assert.Equal(t, tt.detail, res.Detail)
			assert.NotEmpty(t, res.RequestID)
			assert.NotContains(t, w.Body.String(), "secret")
		})
	}
}

func TestAssessmentHandler_AssessPerson(t *testing.T) {
	svc := &fakeAssessmentService{assessment: &domainassessment.Assessment{ID: "a-2", PersonID: "p-1"}}
	w := do(t, newAssessmentRouter(svc), http.MethodPost, "/persons/p-1/assess", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p-1", svc.gotPersonID)
}

func TestAssessmentHandler_ListAssessments(t *testing.T) {
	svc := &fakeAssessmentService{}
	router := newAssessmentRouter(svc)

	w := do(t, router, http.MethodGet, "/persons/p-1/assessments", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[AssessmentList](t, w)
	assert.Equal(t, "p-1", list.PersonID)
	assert.NotNil(t, list.Items)
	assert.Equal(t, defaultPageSize, svc.gotLimit)
	assert.Contains(t, w.Body.String(), `"items":[]`)

	w = do(t, router, http.MethodGet, "/persons/p-1/assessments?offset=10&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, svc.gotOffset)
	assert.Equal(t, 5, svc.gotLimit)

	for _, q := range []string{"limit=101", "offset=-1", "limit=x"} {
		w = do(t, router, http.MethodGet, "/persons/p-1/assessments?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestAssessmentHandler_History(t *testing.T) {
	svc := &fakeAssessmentService{history: &risk.HistoryAnalysis{TotalViolations: 6, Trend: risk.Trend("accelerating")}}
	w := do(t, newAssessmentRouter(svc), http.MethodGet, "/persons/p-1/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 6, decode[map[string]any](t, w)["total_violations"])
}

func TestAssessmentHandler_Reassess(t *testing.T) {
	svc := &fakeAssessmentService{}
	router := newAssessmentRouter(svc)

	w := do(t, router, http.MethodPost, "/persons/p-1/reassess", `{"reason":"new violation"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "new violation", svc.gotReason)
	assert.Equal(t, "p-1", decode[map[string]any](t, w)["person_id"])

	w = do(t, router, http.MethodPost, "/persons/p-2/reassess", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, svc.gotReason)

	w = do(t, router, http.MethodPost, "/persons/p-2/reassess", `{"reason":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

//Personal.AI order the ending
