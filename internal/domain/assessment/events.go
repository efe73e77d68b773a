package assessment

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// Event types carried in the envelope header.
const (
	EventAssessmentCompleted = "assessment.completed"
	EventReassessRequested   = "reassess.requested"
)

// CompletedEvent is published after an assessment has been stored.
type CompletedEvent struct {
	AssessmentID   string           `json:"assessment_id"`
	PersonID       string           `json:"person_id,omitempty"`
	Source         Source           `json:"source"`
	Score          float64          `json:"risk_score"`
	Level          risk.Level       `json:"risk_level"`
	MostLikely     risk.OffenseType `json:"most_likely_crime,omitempty"`
	MostLikelyDays int              `json:"most_likely_days,omitempty"`
	ProfileHash    string           `json:"profile_hash"`
	AssessedAt     time.Time        `json:"assessed_at"`
}

// NewCompletedEvent derives the event payload from a stored assessment.
func NewCompletedEvent(a *Assessment) *CompletedEvent {
	ev := &CompletedEvent{
		AssessmentID: a.ID,
		PersonID:     a.PersonID,
		Source:       a.Source,
		Score:        a.Score(),
		Level:        a.Level(),
		ProfileHash:  a.ProfileHash,
		AssessedAt:   a.CreatedAt,
	}
	if ml := a.Report.MostLikely; ml != nil {
		ev.MostLikely = ml.Offense
		ev.MostLikelyDays = ml.DaysUntil
	}
	return ev
}

// ReassessRequest asks the worker to recompute a person's assessment from
// their stored violation history.
type ReassessRequest struct {
	PersonID    string    `json:"person_id"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Validate checks the request carries a person id.
func (r ReassessRequest) Validate() error {
	if strings.TrimSpace(r.PersonID) == "" {
		return errors.InvalidParam("person_id is required")
	}
	return nil
}

// EventPublisher emits assessment events to the message bus.
type EventPublisher interface {
	PublishCompleted(ctx context.Context, ev *CompletedEvent) error
	RequestReassessment(ctx context.Context, req ReassessRequest) error
}

//Personal.AI order the ending
