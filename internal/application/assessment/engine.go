package assessment

import (
	"context"
	"time"

	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// DefaultForecastLimit covers every offense type; MaxForecastLimit bounds the
// forecast limit parameter.
const (
	DefaultForecastLimit = 8
	MaxForecastLimit     = 20
)

// ScoreResult is the scorer output for one profile.
type ScoreResult struct {
	PersonID string `json:"person_id,omitempty"`
	risk.Result
}

// Score validates in and returns its risk score.
func (s *Service) Score(ctx context.Context, in risk.ProfileInput) (*ScoreResult, error) {
	p, err := in.ToProfile()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := s.engine.Scorer().Score(p)
	s.observe("score", start, err)
	if err != nil {
		return nil, err
	}
	prometheus.RecordRiskResult(s.metrics, res.Score, string(res.Level))
	if res.UnknownPattern {
		prometheus.RecordUnrecognizedPattern(s.metrics)
	}
	return &ScoreResult{PersonID: p.PersonID, Result: *res}, nil
}

// ForecastResult lists forecasts nearest first.
type ForecastResult struct {
	PersonID     string               `json:"person_id,omitempty"`
	Forecasts    []risk.ForecastEntry `json:"forecasts"`
	Total        int                  `json:"total_forecasts"`
	CalculatedAt time.Time            `json:"calculated_at"`
}

// Forecast validates in and returns at most limit forecasts ordered by days
// until the offense.  A limit of 0 selects DefaultForecastLimit.
func (s *Service) Forecast(ctx context.Context, in risk.ProfileInput, limit int) (*ForecastResult, error) {
	if limit == 0 {
		limit = DefaultForecastLimit
	}
	if limit < 1 || limit > MaxForecastLimit {
		return nil, errors.InvalidParam("limit out of range").WithDetail("expected 1..20")
	}
	forecasts, p, err := s.forecast(in)
	if err != nil {
		return nil, err
	}
	sorted := risk.SortByDays(forecasts)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return &ForecastResult{
		PersonID:     p.PersonID,
		Forecasts:    sorted,
		Total:        len(sorted),
		CalculatedAt: s.now(),
	}, nil
}

func (s *Service) forecast(in risk.ProfileInput) ([]risk.ForecastEntry, risk.Profile, error) {
	p, err := in.ToProfile()
	if err != nil {
		return nil, risk.Profile{}, err
	}
	start := time.Now()
	forecasts, err := s.engine.Forecaster().Forecast(p)
	s.observe("forecast", start, err)
	if err != nil {
		return nil, p, err
	}
	for _, f := range forecasts {
		prometheus.RecordForecast(s.metrics, string(f.Offense), f.Probability)
	}
	return forecasts, p, nil
}

// PlanRequest asks for an intervention plan.  Either Level and Forecasts are
// given directly, or Profile supplies whichever of the two is missing.
type PlanRequest struct {
	Level     string               `json:"risk_level,omitempty"`
	Forecasts []risk.ForecastEntry `json:"forecasts,omitempty"`
	Profile   *risk.ProfileInput   `json:"profile,omitempty"`
}

// Plan builds an intervention plan.
func (s *Service) Plan(ctx context.Context, req PlanRequest) (*risk.Plan, error) {
	var level risk.Level
	if req.Level != "" {
		l, ok := risk.ParseLevel(req.Level)
		if !ok {
			return nil, errors.New(errors.ErrCodeUnknownRiskLevel, "unknown risk level").WithDetail(req.Level)
		}
		level = l
	}
	forecasts := req.Forecasts

	if req.Profile != nil && (level == "" || len(forecasts) == 0) {
		p, err := req.Profile.ToProfile()
		if err != nil {
			return nil, err
		}
		if level == "" {
			res, err := s.engine.Scorer().Score(p)
			if err != nil {
				return nil, err
			}
			level = res.Level
		}
		if len(forecasts) == 0 {
			if forecasts, err = s.engine.Forecaster().Forecast(p); err != nil {
				return nil, err
			}
		}
	}
	if level == "" {
		return nil, errors.InvalidParam("risk_level or profile is required")
	}
	if len(forecasts) == 0 {
		return nil, errors.InvalidParam("forecasts or profile is required")
	}

	start := time.Now()
	plan, err := s.engine.Planner().Plan(level, forecasts)
	s.observe("plan", start, err)
	if err != nil {
		return nil, err
	}
	prometheus.RecordPlan(s.metrics, string(plan.Level), plan.ExpectedReduction)
	return plan, nil
}

// Quick returns the score and the most likely offense of in.
func (s *Service) Quick(ctx context.Context, in risk.ProfileInput) (*risk.QuickAssessment, error) {
	p, err := in.ToProfile()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	q, err := s.engine.Quick(p)
	s.observe("quick", start, err)
	return q, err
}

// PriorityOffenses forecasts in and keeps the offenses at or above
// minProbability.  Zero selects risk.DefaultPriorityMinProbability.
func (s *Service) PriorityOffenses(ctx context.Context, in risk.ProfileInput, minProbability float64) (*risk.PriorityList, error) {
	if minProbability == 0 {
		minProbability = risk.DefaultPriorityMinProbability
	}
	forecasts, _, err := s.forecast(in)
	if err != nil {
		return nil, err
	}
	return risk.PriorityOffenses(forecasts, minProbability)
}

// CalendarResult is a prevention calendar for one profile.
type CalendarResult struct {
	PersonID string               `json:"person_id,omitempty"`
	Months   []risk.CalendarMonth `json:"calendar"`
	Start    time.Time            `json:"start_date"`
}

// PreventionCalendar forecasts in and lays the forecasts out over months
// 30-day slots.  Zero selects risk.DefaultCalendarMonths.
func (s *Service) PreventionCalendar(ctx context.Context, in risk.ProfileInput, months int) (*CalendarResult, error) {
	if months == 0 {
		months = risk.DefaultCalendarMonths
	}
	forecasts, p, err := s.forecast(in)
	if err != nil {
		return nil, err
	}
	start := s.now()
	cal, err := risk.PreventionCalendar(forecasts, months, start)
	if err != nil {
		return nil, err
	}
	return &CalendarResult{PersonID: p.PersonID, Months: cal, Start: start}, nil
}

// ---------------------------------------------------------------------------
// Read side
// ---------------------------------------------------------------------------

// StatisticsView is the research summary plus, when storage is enabled, the
// distribution of stored assessments by level.
type StatisticsView struct {
	risk.Statistics
	StoredByLevel map[risk.Level]int64 `json:"stored_assessments_by_level,omitempty"`
}

// Statistics returns the research statistics of the active constants.
func (s *Service) Statistics(ctx context.Context) (*StatisticsView, error) {
	view := &StatisticsView{Statistics: risk.NewStatistics(s.engine.Constants())}
	if s.repo == nil {
		return view, nil
	}
	counts, err := s.repo.CountByLevel(ctx)
	if err != nil {
		s.logger.WithContext(ctx).Warn("level distribution unavailable", logging.Err(err))
		return view, nil
	}
	view.StoredByLevel = counts
	return view, nil
}

// BaseWindows returns the base forecast window of every offense type.
func (s *Service) BaseWindows(ctx context.Context) risk.BaseWindows {
	return risk.NewBaseWindows(s.engine.Constants())
}

// GetAssessment loads a stored assessment.
func (s *Service) GetAssessment(ctx context.Context, id string) (*domainassessment.Assessment, error) {
	if s.repo == nil {
		return nil, featureDisabled("assessment storage")
	}
	if id == "" {
		return nil, errors.InvalidParam("assessment id is required")
	}
	start := time.Now()
	a, err := s.repo.FindByID(ctx, id)
	prometheus.RecordDBQuery(s.metrics, "find_assessment", time.Since(start), err)
	return a, err
}

// ListPersonAssessments returns the newest assessments of a person.
func (s *Service) ListPersonAssessments(ctx context.Context, personID string, offset, limit int) ([]domainassessment.Summary, error) {
	if s.repo == nil {
		return nil, featureDisabled("assessment storage")
	}
	if personID == "" {
		return nil, errors.InvalidParam("person id is required")
	}
	start := time.Now()
	list, err := s.repo.FindByPerson(ctx, personID, domainassessment.WithPagination(offset, limit))
	prometheus.RecordDBQuery(s.metrics, "list_assessments", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	out := make([]domainassessment.Summary, 0, len(list))
	for _, a := range list {
		out = append(out, a.Summarize())
	}
	return out, nil
}

// History analyses the stored violation history of a person.
func (s *Service) History(ctx context.Context, personID string) (*risk.HistoryAnalysis, error) {
	_, records, err := s.loadPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	a := risk.AnalyzeHistory(records, s.now())
	return &a, nil
}

// PurgeCache drops every cached report, for use after the constants change.
func (s *Service) PurgeCache(ctx context.Context) (int64, error) {
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.Purge(ctx)
}

//Personal.AI order the ending
