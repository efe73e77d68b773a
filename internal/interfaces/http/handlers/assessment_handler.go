package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AssessmentService is the storage-backed part of the assessment service.
type AssessmentService interface {
	GetAssessment(ctx context.Context, id string) (*domainassessment.Assessment, error)
	AssessPerson(ctx context.Context, personID string) (*domainassessment.Assessment, error)
	ListPersonAssessments(ctx context.Context, personID string, offset, limit int) ([]domainassessment.Summary, error)
	History(ctx context.Context, personID string) (*risk.HistoryAnalysis, error)
	RequestReassessment(ctx context.Context, personID, reason string) (domainassessment.ReassessRequest, error)
}

// AssessmentHandler serves stored assessments and person-based flows.
type AssessmentHandler struct {
	svc    AssessmentService
	logger logging.Logger
}

// NewAssessmentHandler creates an AssessmentHandler.
func NewAssessmentHandler(svc AssessmentService, logger logging.Logger) *AssessmentHandler {
	return &AssessmentHandler{svc: svc, logger: logger}
}

// AssessmentList is the body of GET /persons/{personID}/assessments.
type AssessmentList struct {
	PersonID string                     `json:"person_id"`
	Items    []domainassessment.Summary `json:"items"`
	Offset   int                        `json:"offset"`
	Limit    int                        `json:"limit"`
}

// ReassessBody is the optional body of POST /persons/{personID}/reassess.
type ReassessBody struct {
	Reason string `json:"reason"`
}

// GetAssessment handles GET /assessments/{assessmentID}.
func (h *AssessmentHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.GetAssessment(r.Context(), chi.URLParam(r, "assessmentID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// AssessPerson handles POST /persons/{personID}/assess.
func (h *AssessmentHandler) AssessPerson(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.AssessPerson(r.Context(), chi.URLParam(r, "personID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ListAssessments handles GET /persons/{personID}/assessments?offset=&limit=.
func (h *AssessmentHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if offset < 0 || limit < 0 || limit > maxPageSize {
		writeError(w, r, h.logger, errors.InvalidParam("offset must be >= 0 and limit within 1..100"))
		return
	}
	if limit == 0 {
		limit = defaultPageSize
	}

	personID := chi.URLParam(r, "personID")
	items, err := h.svc.ListPersonAssessments(r.Context(), personID, offset, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if items == nil {
		items = []domainassessment.Summary{}
	}
	writeJSON(w, http.StatusOK, AssessmentList{PersonID: personID, Items: items, Offset: offset, Limit: limit})
}

// History handles GET /persons/{personID}/history.
func (h *AssessmentHandler) History(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.History(r.Context(), chi.URLParam(r, "personID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reassess handles POST /persons/{personID}/reassess.  The request is queued
// for the worker and answered with 202.
func (h *AssessmentHandler) Reassess(w http.ResponseWriter, r *http.Request) {
	var body ReassessBody
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeError(w, r, h.logger, errors.New(errors.ErrCodePayloadTooLarge, "request body too large"))
				return
			}
			writeError(w, r, h.logger, errors.Wrap(err, errors.CodeInvalidParam, "request body is not valid JSON"))
			return
		}
	}
	req, err := h.svc.RequestReassessment(r.Context(), chi.URLParam(r, "personID"), body.Reason)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, req)
}

//Personal.AI order the ending
