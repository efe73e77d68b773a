package client

import (
	"context"
	"net/url"
	"strconv"

	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
)

// AssessmentsClient covers stored assessments and person-based flows.  Every
// call answers 503 on a server without storage.
type AssessmentsClient struct {
	client *Client
}

// AssessmentPage is one page of a person's assessments, newest first.
type AssessmentPage struct {
	PersonID string                     `json:"person_id"`
	Items    []domainassessment.Summary `json:"items"`
	Offset   int                        `json:"offset"`
	Limit    int                        `json:"limit"`
}

// Get fetches one stored assessment.
func (a *AssessmentsClient) Get(ctx context.Context, id string) (*Assessment, error) {
	var out Assessment
	if err := a.client.get(ctx, "/assessments/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssessPerson scores a person from their stored violation history.
func (a *AssessmentsClient) AssessPerson(ctx context.Context, personID string) (*Assessment, error) {
	var out Assessment
	if err := a.client.post(ctx, personPath(personID, "assess"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List pages through a person's assessments.  A zero limit selects the
// server default.
func (a *AssessmentsClient) List(ctx context.Context, personID string, offset, limit int) (*AssessmentPage, error) {
	q := url.Values{}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out AssessmentPage
	if err := a.client.get(ctx, personPath(personID, "assessments"), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History analyses a person's violation history.
func (a *AssessmentsClient) History(ctx context.Context, personID string) (*risk.HistoryAnalysis, error) {
	var out risk.HistoryAnalysis
	if err := a.client.get(ctx, personPath(personID, "history"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reassess queues an asynchronous reassessment of a person.
func (a *AssessmentsClient) Reassess(ctx context.Context, personID, reason string) (*domainassessment.ReassessRequest, error) {
	body := struct {
		Reason string `json:"reason,omitempty"`
	}{reason}
	var out domainassessment.ReassessRequest
	if err := a.client.post(ctx, personPath(personID, "reassess"), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func personPath(personID, action string) string {
	return "/persons/" + url.PathEscape(personID) + "/" + action
}

//Personal.AI order the ending
