package risk_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

func newPlanner(opts ...risk.Option) *risk.Planner {
	return risk.NewPlanner(risk.MustDefaultConstants(), append([]risk.Option{risk.WithClock(fixedClock)}, opts...)...)
}

func sampleForecasts() []risk.ForecastEntry {
	return []risk.ForecastEntry{
		{Offense: risk.OffenseMurder, DaysUntil: 150, Probability: 10},
		{Offense: risk.OffenseFraud, DaysUntil: 80, Probability: 60},
		{Offense: risk.OffenseTheft, DaysUntil: 50, Probability: 80},
		{Offense: risk.OffenseRobbery, DaysUntil: 100, Probability: 70},
	}
}

func programIDs(p *risk.Plan) []string {
	ids := make([]string, 0, len(p.Programs))
	for _, prog := range p.Programs {
		ids = append(ids, prog.ID)
	}
	return ids
}

func TestPlan_BaseAndTopNPrograms(t *testing.T) {
	plan, err := newPlanner().Plan(risk.LevelMedium, sampleForecasts())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"case_management_standard",
		"employment_assistance",
		"social_adaptation",
		"legal_education",
	}, programIDs(plan))

	assert.Equal(t, risk.IntensityMedium, plan.Programs[0].Intensity)
	assert.Equal(t, risk.OffenseTheft, plan.Programs[1].Offense)
	assert.Equal(t, risk.IntensityMedium, plan.Programs[1].Intensity, "theft urgency high maps to medium")
	assert.Equal(t, 90, plan.Programs[1].DurationDays)
	assert.Equal(t, risk.IntensityHigh, plan.Programs[3].Intensity, "fraud urgency critical maps to high")
	assert.Equal(t, 60, plan.Programs[3].DurationDays)

	assert.Equal(t, 270, plan.TotalDurationDays)
	assert.InDelta(t, 49.0, plan.ExpectedReduction, 1e-9)
	assert.Equal(t, "weekly", plan.Monitoring)
	assert.Equal(t, risk.LevelMedium, plan.Level)
}

func TestPlan_Dates(t *testing.T) {
	plan, err := newPlanner().Plan(risk.LevelMedium, sampleForecasts())
	require.NoError(t, err)

	start := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start, plan.StartDate)
	assert.Equal(t, start.AddDate(0, 0, 270), plan.EndDate)
}

func TestPlan_SkipsAlreadySelectedPrograms(t *testing.T) {
	forecasts := []risk.ForecastEntry{
		{Offense: risk.OffenseTheft, Probability: 90},
		{Offense: risk.OffenseTheft, Probability: 80},
	}
	plan, err := newPlanner().Plan(risk.LevelLow, forecasts)
	require.NoError(t, err)
	assert.Equal(t, []string{"community_check_in", "employment_assistance", "financial_counseling"}, programIDs(plan))
}

func TestPlan_TopNOption(t *testing.T) {
	plan, err := newPlanner(risk.WithTopN(1)).Plan(risk.LevelMedium, sampleForecasts())
	require.NoError(t, err)
	assert.Equal(t, []string{"case_management_standard", "employment_assistance"}, programIDs(plan))
}

func TestPlan_CriticalPullsMorePrograms(t *testing.T) {
	critical, err := newPlanner().Plan(risk.LevelCritical, sampleForecasts())
	require.NoError(t, err)
	low, err := newPlanner().Plan(risk.LevelLow, sampleForecasts())
	require.NoError(t, err)

	assert.Greater(t, len(critical.Programs), len(low.Programs))
	assert.Equal(t, risk.IntensityHigh, critical.Programs[0].Intensity)
	assert.Equal(t, "daily", critical.Monitoring)
	assert.Greater(t, critical.ExpectedReduction, low.ExpectedReduction)
}

func TestPlan_ReductionIsCapped(t *testing.T) {
	c := risk.MustDefaultConstants()
	c.Interventions.MaxReduction = 20
	plan, err := risk.NewPlanner(c, risk.WithClock(fixedClock)).Plan(risk.LevelCritical, sampleForecasts())
	require.NoError(t, err)
	assert.Equal(t, 20.0, plan.ExpectedReduction)
}

func TestPlan_Errors(t *testing.T) {
	p := newPlanner()

	_, err := p.Plan(risk.LevelHigh, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyForecast))

	_, err = p.Plan(risk.Level("extreme"), sampleForecasts())
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownRiskLevel))

	_, err = p.Plan(risk.LevelHigh, []risk.ForecastEntry{{Offense: "arson", Probability: 50}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownOffenseType))
}

//Personal.AI order the ending
