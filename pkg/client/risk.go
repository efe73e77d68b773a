package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	appassessment "github.com/turtacn/recidivism-forecast/internal/application/assessment"
	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
)

// Request and response bodies are the server's own types.
type (
	Profile        = risk.ProfileInput
	ScoreResult    = appassessment.ScoreResult
	BatchResult    = appassessment.BatchResult
	Statistics     = appassessment.StatisticsView
	PlanRequest    = appassessment.PlanRequest
	ForecastResult = appassessment.ForecastResult
	CalendarResult = appassessment.CalendarResult
	Assessment     = domainassessment.Assessment
)

// ---------------------------------------------------------------------------
// Risk
// ---------------------------------------------------------------------------

// RiskClient covers scoring, reports and intervention plans.
type RiskClient struct {
	client *Client
}

// Score returns the risk score of p.
func (r *RiskClient) Score(ctx context.Context, p Profile) (*ScoreResult, error) {
	var out ScoreResult
	if err := r.client.post(ctx, "/risk/score", nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Quick returns the condensed assessment of p.
func (r *RiskClient) Quick(ctx context.Context, p Profile) (*risk.QuickAssessment, error) {
	var out risk.QuickAssessment
	if err := r.client.post(ctx, "/risk/quick", nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Assess returns the full report of p.  Servers with storage also persist it.
func (r *RiskClient) Assess(ctx context.Context, p Profile) (*Assessment, error) {
	var out Assessment
	if err := r.client.post(ctx, "/risk/assess", nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Batch assesses several profiles; per-item failures are in the result.
func (r *RiskClient) Batch(ctx context.Context, profiles []Profile) (*BatchResult, error) {
	if profiles == nil {
		profiles = []Profile{}
	}
	var out BatchResult
	body := struct {
		Profiles []Profile `json:"profiles"`
	}{profiles}
	if err := r.client.post(ctx, "/risk/batch", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Statistics returns the research statistics of the server's constants.
func (r *RiskClient) Statistics(ctx context.Context) (*Statistics, error) {
	var out Statistics
	if err := r.client.get(ctx, "/risk/statistics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Plan builds an intervention plan from a level, forecasts or a profile.
func (r *RiskClient) Plan(ctx context.Context, req PlanRequest) (*risk.Plan, error) {
	var out risk.Plan
	if err := r.client.post(ctx, "/interventions/plan", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Constants returns the constants table the server scores with.
func (r *RiskClient) Constants(ctx context.Context) (*risk.Constants, error) {
	var out risk.Constants
	if err := r.client.get(ctx, "/constants", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConstantsDocument returns the constants table encoded as yaml or toml.
func (r *RiskClient) ConstantsDocument(ctx context.Context, format risk.Format) ([]byte, error) {
	var out []byte
	err := r.client.doRaw(ctx, http.MethodGet, apiPrefix+"/constants",
		url.Values{"format": {string(format)}}, nil,
		func(body []byte) error {
			out = body
			return nil
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Forecasts
// ---------------------------------------------------------------------------

// ForecastClient covers offense forecasts and prevention calendars.
type ForecastClient struct {
	client *Client
}

// Forecast returns at most limit forecasts, nearest first.  Zero selects
// the server default.
func (f *ForecastClient) Forecast(ctx context.Context, p Profile, limit int) (*ForecastResult, error) {
	var out ForecastResult
	if err := f.client.post(ctx, "/forecast", intQuery("limit", limit), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Priority lists the offenses whose probability is at least minProbability.
func (f *ForecastClient) Priority(ctx context.Context, p Profile, minProbability float64) (*risk.PriorityList, error) {
	var q url.Values
	if minProbability > 0 {
		q = url.Values{"min_probability": {strconv.FormatFloat(minProbability, 'f', -1, 64)}}
	}
	var out risk.PriorityList
	if err := f.client.post(ctx, "/forecast/priority", q, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Calendar lays the forecasts of p out over months.
func (f *ForecastClient) Calendar(ctx context.Context, p Profile, months int) (*CalendarResult, error) {
	var out CalendarResult
	if err := f.client.post(ctx, "/forecast/calendar", intQuery("months", months), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Windows returns the base prediction window of every offense type.
func (f *ForecastClient) Windows(ctx context.Context) (*risk.BaseWindows, error) {
	var out risk.BaseWindows
	if err := f.client.get(ctx, "/forecast/windows", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func intQuery(name string, v int) url.Values {
	if v == 0 {
		return nil
	}
	return url.Values{name: {strconv.Itoa(v)}}
}

//Personal.AI order the ending
