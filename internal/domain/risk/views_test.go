package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

func TestPriorityOffenses(t *testing.T) {
	forecasts := []risk.ForecastEntry{
		{Offense: risk.OffenseMurder, DaysUntil: 150, Probability: 10},
		{Offense: risk.OffenseFraud, DaysUntil: 200, Probability: 60},
		{Offense: risk.OffenseTheft, DaysUntil: 50, Probability: 80},
		{Offense: risk.OffenseRobbery, DaysUntil: 100, Probability: 70},
	}
	list, err := risk.PriorityOffenses(forecasts, risk.DefaultPriorityMinProbability)
	require.NoError(t, err)

	require.Len(t, list.Offenses, 3)
	assert.Equal(t, 3, list.TotalFound)
	assert.Equal(t, 4, list.TotalAnalyzed)
	assert.Equal(t, 50.0, list.MinProbability)

	theft, robbery, fraud := list.Offenses[0], list.Offenses[1], list.Offenses[2]
	assert.Equal(t, risk.OffenseTheft, theft.Offense)
	assert.Equal(t, 20, theft.PreventionWindowDays)
	assert.Equal(t, risk.UrgencyHigh, theft.Urgency)
	assert.Equal(t, risk.OffenseRobbery, robbery.Offense)
	assert.Equal(t, risk.UrgencyMedium, robbery.Urgency)
	assert.Equal(t, risk.OffenseFraud, fraud.Offense)
	assert.Equal(t, 170, fraud.PreventionWindowDays)
	assert.Equal(t, risk.UrgencyLow, fraud.Urgency)
}

func TestPriorityOffenses_LimitAndMinimumWindow(t *testing.T) {
	var forecasts []risk.ForecastEntry
	for i, o := range risk.AllOffenseTypes {
		forecasts = append(forecasts, risk.ForecastEntry{Offense: o, DaysUntil: 20 + i, Probability: 90 - float64(i)})
	}
	list, err := risk.PriorityOffenses(forecasts, 5)
	require.NoError(t, err)
	assert.Len(t, list.Offenses, risk.MaxPriorityOffenses)
	assert.Equal(t, 7, list.TotalFound)
	assert.Equal(t, 1, list.Offenses[0].PreventionWindowDays)
}

func TestPriorityOffenses_NoneFound(t *testing.T) {
	list, err := risk.PriorityOffenses([]risk.ForecastEntry{{Offense: risk.OffenseRape, Probability: 10}}, 95)
	require.NoError(t, err)
	assert.NotNil(t, list.Offenses)
	assert.Empty(t, list.Offenses)
}

func TestPriorityOffenses_OutOfRange(t *testing.T) {
	for _, minProb := range []float64{4.9, 95.1} {
		_, err := risk.PriorityOffenses(nil, minProb)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParam), "min %v", minProb)
	}
}

func TestPreventionCalendar(t *testing.T) {
	forecasts := []risk.ForecastEntry{
		{Offense: risk.OffenseRape, DaysUntil: 80, Probability: 20},
		{Offense: risk.OffenseFraud, DaysUntil: 45, Probability: 50},
		{Offense: risk.OffenseTheft, DaysUntil: 30, Probability: 75},
	}
	months, err := risk.PreventionCalendar(forecasts, 3, fixedNow)
	require.NoError(t, err)
	require.Len(t, months, 3)

	first := months[0]
	assert.Equal(t, "2025-03", first.Key)
	assert.Equal(t, 0, first.StartDay)
	assert.Equal(t, 30, first.EndDay)
	require.Len(t, first.Risks, 1)
	assert.Equal(t, []string{"Enhanced control: theft risk"}, first.Recommendations)
	assert.Equal(t, risk.LevelHigh, first.Level)

	second := months[1]
	assert.Equal(t, "2025-04", second.Key)
	require.Len(t, second.Risks, 2, "day 30 belongs to both neighbouring months")
	assert.Equal(t, risk.OffenseTheft, second.Risks[0].Offense)
	assert.Equal(t, risk.OffenseFraud, second.Risks[1].Offense)
	assert.Equal(t, []string{"Enhanced control: theft risk", "Preventive work: possible fraud"}, second.Recommendations)
	assert.Equal(t, risk.LevelHigh, second.Level)

	third := months[2]
	assert.Equal(t, "2025-05", third.Key)
	assert.Equal(t, []string{"Standard monitoring"}, third.Recommendations)
	assert.Equal(t, risk.LevelLow, third.Level)
}

func TestPreventionCalendar_MediumMonth(t *testing.T) {
	months, err := risk.PreventionCalendar([]risk.ForecastEntry{{Offense: risk.OffenseFraud, DaysUntil: 10, Probability: 45}}, 1, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, risk.LevelMedium, months[0].Level)
}

func TestPreventionCalendar_OutOfRange(t *testing.T) {
	for _, m := range []int{0, 13} {
		_, err := risk.PreventionCalendar(nil, m, fixedNow)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParam), "months %d", m)
	}
}

func TestCriticalPeriods(t *testing.T) {
	c := risk.MustDefaultConstants()
	forecasts := []risk.ForecastEntry{
		{Offense: risk.OffenseFraud, DaysUntil: 35, Probability: 65},
		{Offense: risk.OffenseTheft, DaysUntil: 50, Probability: 55},
		{Offense: risk.OffenseMurder, DaysUntil: 40, Probability: 45},
		{Offense: risk.OffenseExtortion, DaysUntil: 20, Probability: 70},
		{Offense: risk.OffenseArmedRobbery, DaysUntil: 25, Probability: 60},
		{Offense: risk.OffenseRape, DaysUntil: 100, Probability: 80},
		{Offense: risk.OffenseRobbery, DaysUntil: 10, Probability: 30},
	}
	periods := risk.CriticalPeriods(c, forecasts, fixedNow)
	require.Len(t, periods, 2)

	early := periods[0]
	assert.Equal(t, fixedNow.AddDate(0, 0, 20), early.StartDate)
	assert.Equal(t, fixedNow.AddDate(0, 0, 25), early.EndDate)
	assert.Equal(t, 65.0, early.AvgProbability)
	assert.Equal(t, risk.LevelHigh, early.Level)
	assert.Equal(t, []risk.OffenseType{risk.OffenseExtortion, risk.OffenseArmedRobbery}, early.Offenses)

	late := periods[1]
	assert.Equal(t, fixedNow.AddDate(0, 0, 35), late.StartDate)
	assert.Equal(t, fixedNow.AddDate(0, 0, 50), late.EndDate)
	assert.Equal(t, 55.0, late.AvgProbability)
	assert.Equal(t, risk.LevelMedium, late.Level)
	assert.Equal(t, []risk.OffenseType{risk.OffenseFraud, risk.OffenseTheft, risk.OffenseMurder}, late.Offenses)
	assert.Equal(t, []string{
		"Legal education", "Financial literacy",
		"Employment assistance", "Financial counseling",
		"Anger management", "Psychological help",
	}, late.RecommendedPrograms)
}

func TestCriticalPeriods_NoneWhenSparse(t *testing.T) {
	periods := risk.CriticalPeriods(risk.MustDefaultConstants(), []risk.ForecastEntry{
		{Offense: risk.OffenseFraud, DaysUntil: 35, Probability: 65},
		{Offense: risk.OffenseTheft, DaysUntil: 95, Probability: 55},
	}, fixedNow)
	assert.NotNil(t, periods)
	assert.Empty(t, periods)
}

func TestStatisticsViews(t *testing.T) {
	c := risk.MustDefaultConstants()
	stats := risk.NewStatistics(c)
	assert.Equal(t, 146570, stats.Research.TotalViolations)
	assert.Equal(t, 72.7, stats.PatternDistribution[risk.PatternMixedUnstable])
	require.Len(t, stats.Windows, 7)
	assert.Equal(t, risk.OffenseFraud, stats.Windows[0].Offense)
	assert.Equal(t, 109, stats.Windows[0].AvgDays)

	windows := risk.NewBaseWindows(c)
	assert.Equal(t, 12333, windows.TotalAnalyzed)
	assert.Equal(t, stats.Windows, windows.Windows)
}

//Personal.AI order the ending
