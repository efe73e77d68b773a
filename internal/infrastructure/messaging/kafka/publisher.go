package kafka

import (
	"context"
	"time"

	"github.com/turtacn/recidivism-forecast/internal/config"
	"github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// MessagePublisher is the part of Producer the event publisher needs.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
}

// EventPublisher emits assessment events as enveloped JSON records.  Records
// are keyed by person id so one person's events stay ordered within a
// partition.
type EventPublisher struct {
	producer        MessagePublisher
	assessmentTopic string
	reassessTopic   string
	logger          logging.Logger
}

var _ assessment.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher binds producer to the configured topics.
func NewEventPublisher(producer MessagePublisher, cfg config.KafkaConfig, logger logging.Logger) *EventPublisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ep := &EventPublisher{
		producer:        producer,
		assessmentTopic: cfg.AssessmentTopic,
		reassessTopic:   cfg.ReassessTopic,
		logger:          logger.Named("event_publisher"),
	}
	if ep.assessmentTopic == "" {
		ep.assessmentTopic = TopicAssessmentCompleted
	}
	if ep.reassessTopic == "" {
		ep.reassessTopic = TopicReassessRequested
	}
	return ep
}

// PublishCompleted announces a stored assessment.
func (p *EventPublisher) PublishCompleted(ctx context.Context, ev *assessment.CompletedEvent) error {
	key := ev.PersonID
	if key == "" {
		key = ev.AssessmentID
	}
	return p.publish(ctx, p.assessmentTopic, assessment.EventAssessmentCompleted, key, ev)
}

// RequestReassessment queues a person for recomputation by the worker.
func (p *EventPublisher) RequestReassessment(ctx context.Context, req assessment.ReassessRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	return p.publish(ctx, p.reassessTopic, assessment.EventReassessRequested, req.PersonID, req)
}

func (p *EventPublisher) publish(ctx context.Context, topic, eventType, key string, payload interface{}) error {
	env, err := NewEventEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	if rid := logging.RequestIDFromContext(ctx); rid != "" {
		env.TraceID = rid
	}
	msg, err := env.ToMessage(topic, key)
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		p.logger.Warn("Failed to publish event",
			logging.String("topic", topic),
			logging.String("event_type", eventType),
			logging.Err(err))
		if errors.IsCode(err, errors.ErrCodeEventPublishFailed) {
			return err
		}
		return errors.Wrap(err, errors.ErrCodeEventPublishFailed, "failed to publish "+eventType)
	}
	return nil
}

// DecodeReassessRequest extracts a reassessment request from an inbound
// record and validates it.
func DecodeReassessRequest(msg *Message) (assessment.ReassessRequest, error) {
	var req assessment.ReassessRequest
	env, err := MessageToEventEnvelope(msg)
	if err != nil {
		return req, err
	}
	if env.EventType != assessment.EventReassessRequested {
		return req, errors.Newf(errors.ErrCodeValidation, "unexpected event type %q", env.EventType)
	}
	if err := env.DecodePayload(&req); err != nil {
		return req, err
	}
	return req, req.Validate()
}

//Personal.AI order the ending
