// Package assessment holds the persisted side of the risk engine: stored
// assessments, the people they describe and the events emitted when an
// assessment completes.  The engine in internal/domain/risk stays pure; this
// package only adds identity and time.
package assessment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
)

// Source records which entry point produced an assessment.
type Source string

const (
	SourceAPI    Source = "api"
	SourceBatch  Source = "batch"
	SourcePerson Source = "person"
	SourceWorker Source = "worker"
	SourceCLI    Source = "cli"
)

// Assessment is a stored risk report.
type Assessment struct {
	ID          string      `json:"id"`
	PersonID    string      `json:"person_id,omitempty"`
	Source      Source      `json:"source"`
	ProfileHash string      `json:"profile_hash"`
	Report      risk.Report `json:"report"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewAssessment wraps a report with a fresh identifier.
func NewAssessment(source Source, report *risk.Report, now time.Time) *Assessment {
	return &Assessment{
		ID:          uuid.NewString(),
		PersonID:    report.Profile.PersonID,
		Source:      source,
		ProfileHash: ProfileHash(report.Profile, now),
		Report:      *report,
		CreatedAt:   now.UTC(),
	}
}

// Score returns the headline risk score.
func (a *Assessment) Score() float64 { return a.Report.Risk.Score }

// Level returns the headline risk level.
func (a *Assessment) Level() risk.Level { return a.Report.Risk.Level }

// Summary is the list form of an assessment.
type Summary struct {
	ID         string           `json:"id"`
	PersonID   string           `json:"person_id,omitempty"`
	Source     Source           `json:"source"`
	Score      float64          `json:"risk_score"`
	Level      risk.Level       `json:"risk_level"`
	MostLikely risk.OffenseType `json:"most_likely_crime,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Summarize drops the heavy report body.
func (a *Assessment) Summarize() Summary {
	s := Summary{
		ID:        a.ID,
		PersonID:  a.PersonID,
		Source:    a.Source,
		Score:     a.Score(),
		Level:     a.Level(),
		CreatedAt: a.CreatedAt,
	}
	if a.Report.MostLikely != nil {
		s.MostLikely = a.Report.MostLikely.Offense
	}
	return s
}

// ProfileHash identifies a profile on a given calendar day.  Forecast dates
// move with the clock, so the day is part of the key.
func ProfileHash(p risk.Profile, now time.Time) string {
	in := p.Input()
	in.PersonID = ""
	payload, _ := json.Marshal(struct {
		Profile risk.ProfileInput `json:"p"`
		Day     string            `json:"d"`
	}{in, now.UTC().Format("2006-01-02")})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// ─────────────────────────────────────────────────────────────────────────────
// Person
// ─────────────────────────────────────────────────────────────────────────────

// Person is a monitored individual whose violation history can be reduced to
// a risk profile.
type Person struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"display_name,omitempty"`
	BirthDate      time.Time `json:"birth_date"`
	HasProperty    bool      `json:"has_property"`
	HasJob         bool      `json:"has_job"`
	HasFamily      bool      `json:"has_family"`
	SubstanceAbuse bool      `json:"substance_abuse"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AgeAt returns the age in full years on the given date.
func (p *Person) AgeAt(now time.Time) int {
	if p.BirthDate.IsZero() {
		return 0
	}
	age := now.Year() - p.BirthDate.Year()
	if now.Month() < p.BirthDate.Month() || (now.Month() == p.BirthDate.Month() && now.Day() < p.BirthDate.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Facts extracts the social indicators used by risk.ReduceProfile.
func (p *Person) Facts(now time.Time) risk.PersonFacts {
	return risk.PersonFacts{
		Age:            p.AgeAt(now),
		HasProperty:    p.HasProperty,
		HasJob:         p.HasJob,
		HasFamily:      p.HasFamily,
		SubstanceAbuse: p.SubstanceAbuse,
	}
}

//Personal.AI order the ending
