package assessment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

var now = time.Date(2025, time.March, 10, 15, 4, 5, 0, time.UTC)

func sampleReport(t *testing.T) *risk.Report {
	t.Helper()
	p, err := risk.ProfileInput{
		PersonID: "p-7", PatternType: "escalating", TotalCases: 4, CriminalCount: 3,
		CurrentAge: 28, HasEscalation: 1,
	}.ToProfile()
	require.NoError(t, err)
	a := risk.NewAssembler(risk.MustDefaultConstants(), risk.WithClock(func() time.Time { return now }))
	report, err := a.Assemble(p)
	require.NoError(t, err)
	return report
}

func TestNewAssessment(t *testing.T) {
	report := sampleReport(t)
	a := assessment.NewAssessment(assessment.SourceAPI, report, now)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "p-7", a.PersonID)
	assert.Equal(t, assessment.SourceAPI, a.Source)
	assert.Len(t, a.ProfileHash, 64)
	assert.Equal(t, report.Risk.Score, a.Score())
	assert.Equal(t, report.Risk.Level, a.Level())
	assert.Equal(t, now, a.CreatedAt)

	other := assessment.NewAssessment(assessment.SourceAPI, report, now)
	assert.NotEqual(t, a.ID, other.ID)
}

func TestSummarize(t *testing.T) {
	a := assessment.NewAssessment(assessment.SourceBatch, sampleReport(t), now)
	s := a.Summarize()
	assert.Equal(t, a.ID, s.ID)
	assert.Equal(t, a.Score(), s.Score)
	require.NotNil(t, a.Report.MostLikely)
	assert.Equal(t, a.Report.MostLikely.Offense, s.MostLikely)
}

func TestProfileHash(t *testing.T) {
	p := sampleReport(t).Profile

	same := p
	same.PersonID = "someone-else"
	assert.Equal(t, assessment.ProfileHash(p, now), assessment.ProfileHash(same, now), "person id is not part of the key")

	assert.NotEqual(t, assessment.ProfileHash(p, now), assessment.ProfileHash(p, now.AddDate(0, 0, 1)))

	changed := p
	changed.Age++
	assert.NotEqual(t, assessment.ProfileHash(p, now), assessment.ProfileHash(changed, now))
}

func TestPersonAgeAndFacts(t *testing.T) {
	p := &assessment.Person{
		ID:        "p-1",
		BirthDate: time.Date(1995, time.March, 11, 0, 0, 0, 0, time.UTC),
		HasJob:    true,
	}
	assert.Equal(t, 29, p.AgeAt(now), "birthday tomorrow")
	assert.Equal(t, 30, p.AgeAt(now.AddDate(0, 0, 1)))
	assert.Equal(t, 0, (&assessment.Person{}).AgeAt(now))

	facts := p.Facts(now)
	assert.Equal(t, 29, facts.Age)
	assert.True(t, facts.HasJob)
	assert.False(t, facts.SubstanceAbuse)
}

func TestCompletedEvent(t *testing.T) {
	a := assessment.NewAssessment(assessment.SourceWorker, sampleReport(t), now)
	ev := assessment.NewCompletedEvent(a)
	assert.Equal(t, a.ID, ev.AssessmentID)
	assert.Equal(t, "p-7", ev.PersonID)
	assert.Equal(t, a.Level(), ev.Level)
	assert.Equal(t, a.Report.MostLikely.DaysUntil, ev.MostLikelyDays)
	assert.Equal(t, now, ev.AssessedAt)
}

func TestReassessRequestValidate(t *testing.T) {
	assert.NoError(t, assessment.ReassessRequest{PersonID: "p-1"}.Validate())
	err := assessment.ReassessRequest{PersonID: "  "}.Validate()
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestApplyOptions(t *testing.T) {
	o := assessment.ApplyOptions()
	assert.Equal(t, assessment.DefaultListLimit, o.Limit)

	o = assessment.ApplyOptions(assessment.WithPagination(-3, 500))
	assert.Equal(t, 0, o.Offset)
	assert.Equal(t, assessment.MaxListLimit, o.Limit)

	o = assessment.ApplyOptions(assessment.WithPagination(10, 0))
	assert.Equal(t, 10, o.Offset)
	assert.Equal(t, assessment.DefaultListLimit, o.Limit)
}

//Personal.AI order the ending
