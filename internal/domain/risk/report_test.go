package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

func newAssembler() *risk.Assembler {
	return risk.NewAssembler(risk.MustDefaultConstants(), risk.WithClock(fixedClock))
}

func TestAssemble_ComposesAllOutputs(t *testing.T) {
	a := newAssembler()
	report, err := a.Assemble(criticalProfile(t))
	require.NoError(t, err)

	assert.Equal(t, 8.2, report.Risk.Score)
	assert.Equal(t, risk.LevelCritical, report.Risk.Level)
	assert.Len(t, report.Forecasts, 7)
	assert.Equal(t, report.Risk.Level, report.Plan.Level)
	assert.NotEmpty(t, report.Plan.Programs)
	require.NotNil(t, report.MostLikely)
	assert.Equal(t, risk.SortByDays(report.Forecasts)[0], *report.MostLikely)
	assert.NotNil(t, report.CriticalPeriods)
}

func TestAssemble_Idempotent(t *testing.T) {
	a := newAssembler()
	first, err := a.Assemble(criticalProfile(t))
	require.NoError(t, err)
	second, err := a.Assemble(criticalProfile(t))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssemble_MatchesIndividualComponents(t *testing.T) {
	a := newAssembler()
	p := lowProfile(t)

	report, err := a.Assemble(p)
	require.NoError(t, err)

	result, err := a.Scorer().Score(p)
	require.NoError(t, err)
	forecasts, err := a.Forecaster().Forecast(p)
	require.NoError(t, err)
	plan, err := a.Planner().Plan(result.Level, forecasts)
	require.NoError(t, err)

	assert.Equal(t, *result, report.Risk)
	assert.Equal(t, forecasts, report.Forecasts)
	assert.Equal(t, *plan, report.Plan)
}

func TestAssembleInput_PropagatesValidation(t *testing.T) {
	_, err := newAssembler().AssembleInput(risk.ProfileInput{PatternType: "single", TotalCases: 1, CriminalCount: 2, CurrentAge: 30})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidProfile))
}

func TestQuick(t *testing.T) {
	a := newAssembler()
	q, err := a.Quick(criticalProfile(t))
	require.NoError(t, err)

	report, err := a.Assemble(criticalProfile(t))
	require.NoError(t, err)

	assert.Equal(t, report.Risk.Score, q.Score)
	assert.Equal(t, report.Risk.Level, q.Level)
	assert.Equal(t, report.Risk.Recommendation, q.Recommendation)
	assert.Equal(t, report.Risk.Components, q.Components)
	assert.Equal(t, report.MostLikely, q.MostLikely)
}

//Personal.AI order the ending
