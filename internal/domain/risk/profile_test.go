package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

func intPtr(v int) *int { return &v }

func TestProfileInput_ToProfile_Defaults(t *testing.T) {
	p, err := risk.ProfileInput{
		PatternType:   "chronic_criminal",
		TotalCases:    4,
		CriminalCount: 1,
		CurrentAge:    30,
		HasJob:        1,
	}.ToProfile()
	require.NoError(t, err)

	assert.Equal(t, risk.PatternChronicCriminal, p.Pattern)
	assert.Equal(t, risk.DefaultDaysSinceLast, p.DaysSinceLast)
	assert.Equal(t, 30, p.AgeAtFirst)
	assert.Equal(t, 3, p.AdminCount, "admin count is inferred from the remainder")
	assert.True(t, p.HasJob)
	assert.False(t, p.HasFamily)
}

func TestProfileInput_ToProfile_ExplicitValues(t *testing.T) {
	p, err := risk.ProfileInput{
		PersonID:      "p-1",
		PatternType:   "escalating",
		TotalCases:    5,
		CriminalCount: 2,
		AdminCount:    1,
		DaysSinceLast: intPtr(0),
		CurrentAge:    40,
		AgeAtFirst:    intPtr(16),
	}.ToProfile()
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.PersonID)
	assert.Equal(t, 0, p.DaysSinceLast)
	assert.Equal(t, 16, p.AgeAtFirst)
	assert.Equal(t, 1, p.AdminCount)
}

func TestProfileInput_ToProfile_UnknownPatternIsNotAnError(t *testing.T) {
	p, err := risk.ProfileInput{PatternType: "sporadic", TotalCases: 1, CurrentAge: 30}.ToProfile()
	require.NoError(t, err)
	assert.Equal(t, risk.PatternUnknown, p.Pattern)
	assert.Equal(t, "sporadic", p.RawPattern)
}

func TestProfileInput_ToProfile_Invalid(t *testing.T) {
	base := func() risk.ProfileInput {
		return risk.ProfileInput{PatternType: "single", TotalCases: 2, CriminalCount: 1, AdminCount: 1, CurrentAge: 30}
	}
	tests := []struct {
		name   string
		mutate func(in *risk.ProfileInput)
		detail string
	}{
		{"flag not binary", func(in *risk.ProfileInput) { in.HasJob = 2 }, "has_job must be 0 or 1"},
		{"negative total", func(in *risk.ProfileInput) { in.TotalCases, in.CriminalCount, in.AdminCount = -1, 0, 0 }, "total_cases must be ≥ 0"},
		{"counts exceed total", func(in *risk.ProfileInput) { in.CriminalCount = 3 }, "exceeds total_cases"},
		{"negative days", func(in *risk.ProfileInput) { in.DaysSinceLast = intPtr(-5) }, "days_since_last"},
		{"age too low", func(in *risk.ProfileInput) { in.CurrentAge = 10 }, "current_age 10 outside"},
		{"age too high", func(in *risk.ProfileInput) { in.CurrentAge = 120 }, "current_age 120 outside"},
		{"first after current", func(in *risk.ProfileInput) { in.AgeAtFirst = intPtr(35) }, "exceeds current_age"},
		{"negative rate", func(in *risk.ProfileInput) { in.RecidivismRate = -0.5 }, "recidivism_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mutate(&in)
			_, err := in.ToProfile()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidProfile))

			appErr, ok := err.(*errors.AppError)
			require.True(t, ok)
			assert.Contains(t, appErr.Detail, tt.detail)
		})
	}
}

func TestProfile_InputRoundTrip(t *testing.T) {
	in := risk.ProfileInput{
		PersonID:        "p-9",
		PatternType:     "mixed_unstable",
		TotalCases:      6,
		CriminalCount:   2,
		AdminCount:      4,
		DaysSinceLast:   intPtr(45),
		RecidivismRate:  1.5,
		CurrentAge:      28,
		AgeAtFirst:      intPtr(19),
		HasProperty:     1,
		SubstanceAbuse:  1,
		AdminToCriminal: 2,
	}
	p, err := in.ToProfile()
	require.NoError(t, err)
	assert.Equal(t, in, p.Input())
}

//Personal.AI order the ending
