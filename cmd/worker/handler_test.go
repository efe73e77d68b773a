package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

type fakeReassessor struct {
	got      []domainassessment.ReassessRequest
	err      error
	deadline bool
}

func (f *fakeReassessor) HandleReassess(ctx context.Context, req domainassessment.ReassessRequest) (*domainassessment.Assessment, error) {
	_, f.deadline = ctx.Deadline()
	f.got = append(f.got, req)
	if f.err != nil {
		return nil, f.err
	}
	return &domainassessment.Assessment{ID: "a-1", PersonID: req.PersonID}, nil
}

func reassessMessage(t *testing.T, eventType string, req domainassessment.ReassessRequest) *kafka.Message {
	t.Helper()
	env, err := kafka.NewEventEnvelope(eventType, req)
	require.NoError(t, err)
	pm, err := env.ToMessage(kafka.TopicReassessRequested, req.PersonID)
	require.NoError(t, err)
	return &kafka.Message{Topic: pm.Topic, Key: pm.Key, Value: pm.Value, Headers: pm.Headers}
}

func TestReassessHandler_Success(t *testing.T) {
	svc := &fakeReassessor{}
	h := newReassessHandler(svc, time.Second, logging.NewNopLogger())

	msg := reassessMessage(t, domainassessment.EventReassessRequested,
		domainassessment.ReassessRequest{PersonID: "p-7", Reason: "new violation"})
	require.NoError(t, h(context.Background(), msg))

	require.Len(t, svc.got, 1)
	assert.Equal(t, "p-7", svc.got[0].PersonID)
	assert.Equal(t, "new violation", svc.got[0].Reason)
	assert.True(t, svc.deadline)
}

func TestReassessHandler_NoTimeout(t *testing.T) {
	svc := &fakeReassessor{}
	h := newReassessHandler(svc, 0, logging.NewNopLogger())

	msg := reassessMessage(t, domainassessment.EventReassessRequested, domainassessment.ReassessRequest{PersonID: "p-7"})
	require.NoError(t, h(context.Background(), msg))
	assert.False(t, svc.deadline)
}

func TestReassessHandler_ServiceError(t *testing.T) {
	svc := &fakeReassessor{err: errors.Conflict("busy")}
	h := newReassessHandler(svc, time.Second, logging.NewNopLogger())

	msg := reassessMessage(t, domainassessment.EventReassessRequested, domainassessment.ReassessRequest{PersonID: "p-7"})
	err := h(context.Background(), msg)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))
}

func TestReassessHandler_Undecodable(t *testing.T) {
	svc := &fakeReassessor{}
	h := newReassessHandler(svc, time.Second, logging.NewNopLogger())

	assert.Error(t, h(context.Background(), &kafka.Message{Value: []byte("not json")}))

	wrongType := reassessMessage(t, "assessment.completed", domainassessment.ReassessRequest{PersonID: "p-7"})
	assert.Error(t, h(context.Background(), wrongType))

	missingPerson := reassessMessage(t, domainassessment.EventReassessRequested, domainassessment.ReassessRequest{})
	assert.Error(t, h(context.Background(), missingPerson))

	assert.Empty(t, svc.got)
}

//Personal.AI order the ending
