package handlers

import (
	"context"
	"net/http"
	"strings"

	appassessment "github.com/turtacn/recidivism-forecast/internal/application/assessment"
	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/internal/interfaces/http/validation"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// RiskService is the engine-facing part of the assessment service.
type RiskService interface {
	Score(ctx context.Context, in risk.ProfileInput) (*appassessment.ScoreResult, error)
	Quick(ctx context.Context, in risk.ProfileInput) (*risk.QuickAssessment, error)
	Assess(ctx context.Context, in risk.ProfileInput) (*domainassessment.Assessment, error)
	AssessBatch(ctx context.Context, inputs []risk.ProfileInput) (*appassessment.BatchResult, error)
	Statistics(ctx context.Context) (*appassessment.StatisticsView, error)
	Forecast(ctx context.Context, in risk.ProfileInput, limit int) (*appassessment.ForecastResult, error)
	PriorityOffenses(ctx context.Context, in risk.ProfileInput, minProbability float64) (*risk.PriorityList, error)
	PreventionCalendar(ctx context.Context, in risk.ProfileInput, months int) (*appassessment.CalendarResult, error)
	BaseWindows(ctx context.Context) risk.BaseWindows
	Plan(ctx context.Context, req appassessment.PlanRequest) (*risk.Plan, error)
	Constants() *risk.Constants
}

// RiskHandler serves the scoring, forecasting and planning endpoints.
type RiskHandler struct {
	svc       RiskService
	validator *validation.Validator
	logger    logging.Logger
}

// NewRiskHandler creates a RiskHandler.
func NewRiskHandler(svc RiskService, v *validation.Validator, logger logging.Logger) *RiskHandler {
	return &RiskHandler{svc: svc, validator: v, logger: logger}
}

// BatchRequest is the body of POST /risk/batch.
type BatchRequest struct {
	Profiles []risk.ProfileInput `json:"profiles"`
}

func (h *RiskHandler) profile(r *http.Request) (risk.ProfileInput, error) {
	var in risk.ProfileInput
	err := decodeValidated(r, h.validator, validation.Profile, errors.ErrCodeInvalidProfile, &in)
	return in, err
}

// Score handles POST /risk/score.
func (h *RiskHandler) Score(w http.ResponseWriter, r *http.Request) {
	in, err := h.profile(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Score(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Quick handles POST /risk/quick.
func (h *RiskHandler) Quick(w http.ResponseWriter, r *http.Request) {
	in, err := h.profile(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Quick(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Assess handles POST /risk/assess and returns the full report.
func (h *RiskHandler) Assess(w http.ResponseWriter, r *http.Request) {
	in, err := h.profile(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	a, err := h.svc.Assess(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Batch handles POST /risk/batch.  Items are validated one by one so that a
// bad profile fails only its own result.
func (h *RiskHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeValidated(r, h.validator, validation.Batch, errors.CodeInvalidParam, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.AssessBatch(r.Context(), req.Profiles)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Statistics handles GET /risk/statistics.
func (h *RiskHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Statistics(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Forecast handles POST /forecast?limit=.
func (h *RiskHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in, err := h.profile(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Forecast(r.Context(), in, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Priority handles POST /forecast/priority?min_probability=.
func (h *RiskHandler) Priority(w http.ResponseWriter, r *http.Request) {
	minProb, err := queryFloat(r, "min_probability")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in, err := h.profile(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.PriorityOffenses(r.Context(), in, minProb)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Calendar handles POST /forecast/calendar?months=.
func (h *RiskHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in, err := h.profile(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.PreventionCalendar(r.Context(), in, months)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Windows handles GET /forecast/windows.
func (h *RiskHandler) Windows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.BaseWindows(r.Context()))
}

// Plan handles POST /interventions/plan.
func (h *RiskHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req appassessment.PlanRequest
	if err := decodeValidated(r, h.validator, validation.Plan, errors.CodeInvalidParam, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	plan, err := h.svc.Plan(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// Constants handles GET /constants?format=json|yaml|toml.
func (h *RiskHandler) Constants(w http.ResponseWriter, r *http.Request) {
	c := h.svc.Constants()
	format := strings.ToLower(r.URL.Query().Get("format"))

	var contentType string
	switch format {
	case "", "json":
		writeJSON(w, http.StatusOK, c)
		return
	case string(risk.FormatYAML):
		contentType = "application/yaml"
	case string(risk.FormatTOML):
		contentType = "application/toml"
	default:
		writeError(w, r, h.logger, errors.InvalidParam("format must be json, yaml or toml").WithDetail(format))
		return
	}

	body, err := c.Encode(risk.Format(format))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

//Personal.AI order the ending
