package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/config"
	"github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/recidivism-forecast/pkg/errors"
)

type capturePublisher struct {
	msgs []*ProducerMessage
	err  error
}

func (c *capturePublisher) Publish(ctx context.Context, msg *ProducerMessage) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestEventPublisher_PublishCompleted(t *testing.T) {
	sink := &capturePublisher{}
	p := NewEventPublisher(sink, config.KafkaConfig{AssessmentTopic: "done"}, nil)

	ev := &assessment.CompletedEvent{
		AssessmentID: "a-1", PersonID: "p-1", Source: assessment.SourceAPI,
		Score: 7.2, Level: risk.LevelHigh, AssessedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	ctx := logging.WithRequestID(context.Background(), "req-42")
	require.NoError(t, p.PublishCompleted(ctx, ev))

	require.Len(t, sink.msgs, 1)
	msg := sink.msgs[0]
	assert.Equal(t, "done", msg.Topic)
	assert.Equal(t, []byte("p-1"), msg.Key)
	assert.Equal(t, assessment.EventAssessmentCompleted, msg.Headers["event_type"])
	assert.Equal(t, "req-42", msg.Headers["trace_id"])

	env, err := MessageToEventEnvelope(&Message{Value: msg.Value})
	require.NoError(t, err)
	var got assessment.CompletedEvent
	require.NoError(t, env.DecodePayload(&got))
	assert.Equal(t, "a-1", got.AssessmentID)
	assert.Equal(t, risk.LevelHigh, got.Level)
}

func TestEventPublisher_KeyFallsBackToAssessmentID(t *testing.T) {
	sink := &capturePublisher{}
	p := NewEventPublisher(sink, config.KafkaConfig{}, nil)
	require.NoError(t, p.PublishCompleted(context.Background(), &assessment.CompletedEvent{AssessmentID: "a-2"}))
	assert.Equal(t, TopicAssessmentCompleted, sink.msgs[0].Topic)
	assert.Equal(t, []byte("a-2"), sink.msgs[0].Key)
}

func TestEventPublisher_RequestReassessment(t *testing.T) {
	sink := &capturePublisher{}
	p := NewEventPublisher(sink, config.KafkaConfig{}, nil)

	assert.Error(t, p.RequestReassessment(context.Background(), assessment.ReassessRequest{}))
	assert.Empty(t, sink.msgs)

	require.NoError(t, p.RequestReassessment(context.Background(), assessment.ReassessRequest{PersonID: "p-3", Reason: "new violation"}))
	require.Len(t, sink.msgs, 1)
	assert.Equal(t, TopicReassessRequested, sink.msgs[0].Topic)

	req, err := DecodeReassessRequest(&Message{Value: sink.msgs[0].Value})
	require.NoError(t, err)
	assert.Equal(t, "p-3", req.PersonID)
	assert.Equal(t, "new violation", req.Reason)
	assert.False(t, req.RequestedAt.IsZero())
}

func TestEventPublisher_PublishError(t *testing.T) {
	p := NewEventPublisher(&capturePublisher{err: errors.New("down")}, config.KafkaConfig{}, nil)
	err := p.PublishCompleted(context.Background(), &assessment.CompletedEvent{AssessmentID: "a"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeEventPublishFailed))
}

func TestDecodeReassessRequest_Rejects(t *testing.T) {
	env, err := NewEventEnvelope(assessment.EventAssessmentCompleted, map[string]string{"person_id": "p"})
	require.NoError(t, err)
	raw, _ := json.Marshal(env)
	_, err = DecodeReassessRequest(&Message{Value: raw})
	assert.Error(t, err, "wrong event type")

	env, err = NewEventEnvelope(assessment.EventReassessRequested, map[string]string{"reason": "x"})
	require.NoError(t, err)
	raw, _ = json.Marshal(env)
	_, err = DecodeReassessRequest(&Message{Value: raw})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidParam))
}

//Personal.AI order the ending
