package main

import (
	"context"
	"time"

	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
)

// reassessor is the part of the assessment service the worker drives.
type reassessor interface {
	HandleReassess(ctx context.Context, req domainassessment.ReassessRequest) (*domainassessment.Assessment, error)
}

// newReassessHandler turns reassessment records into service calls.  Each
// attempt runs under timeout; errors go back to the consumer for retry and,
// eventually, the dead letter topic.
func newReassessHandler(svc reassessor, timeout time.Duration, logger logging.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.Message) error {
		req, err := kafka.DecodeReassessRequest(msg)
		if err != nil {
			logger.Warn("undecodable reassessment request",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
			return err
		}

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		a, err := svc.HandleReassess(ctx, req)
		if err != nil {
			return err
		}
		logger.Debug("reassessment stored",
			logging.String("person_id", req.PersonID),
			logging.String("assessment_id", a.ID),
			logging.Duration("took", time.Since(start)))
		return nil
	}
}

//Personal.AI order the ending
