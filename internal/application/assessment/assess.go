package assessment

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// Assess validates in, assembles the full report and stores it.
func (s *Service) Assess(ctx context.Context, in risk.ProfileInput) (*domainassessment.Assessment, error) {
	return s.AssessAs(ctx, in, domainassessment.SourceAPI)
}

// AssessAs is Assess with an explicit source.
func (s *Service) AssessAs(ctx context.Context, in risk.ProfileInput, source domainassessment.Source) (*domainassessment.Assessment, error) {
	p, err := in.ToProfile()
	if err != nil {
		return nil, err
	}
	return s.assess(ctx, p, source)
}

func (s *Service) assess(ctx context.Context, p risk.Profile, source domainassessment.Source) (*domainassessment.Assessment, error) {
	inFlight := s.inFlight(string(source))
	inFlight.Inc()
	defer inFlight.Dec()

	now := s.now()
	report, hit, err := s.report(ctx, p, now)
	if err != nil {
		return nil, err
	}
	a := domainassessment.NewAssessment(source, report, now)

	if s.repo != nil {
		start := time.Now()
		err := s.repo.Save(ctx, a)
		prometheus.RecordDBQuery(s.metrics, "save_assessment", time.Since(start), err)
		if err != nil {
			s.logger.Error("failed to save assessment",
				logging.String("assessment_id", a.ID), logging.String("person_id", a.PersonID), logging.Err(err))
			if !errors.IsCode(err, errors.ErrCodeAssessmentSaveFailed) {
				err = errors.Wrap(err, errors.ErrCodeAssessmentSaveFailed, "failed to save assessment")
			}
			return nil, err
		}
	}
	s.publishCompleted(ctx, a)

	prometheus.RecordAssessment(s.metrics, string(source), hit)
	s.logger.Debug("assessment completed",
		logging.String("assessment_id", a.ID),
		logging.String("source", string(source)),
		logging.Float64("risk_score", a.Score()),
		logging.String("risk_level", string(a.Level())),
		logging.Bool("cache_hit", hit))
	return a, nil
}

// report returns the assembled report for p, from the cache when possible.
// A cached report may have been computed for another person with an
// identical profile, so the profile is always re-attached.
func (s *Service) report(ctx context.Context, p risk.Profile, now time.Time) (*risk.Report, bool, error) {
	compute := func(context.Context) (*risk.Report, error) {
		start := time.Now()
		r, err := s.engine.Assemble(p)
		s.observe("assemble", start, err)
		if err == nil {
			s.recordReport(r)
		}
		return r, err
	}

	if s.cache == nil {
		r, err := compute(ctx)
		return r, false, err
	}
	r, hit, err := s.cache.Fetch(ctx, domainassessment.ProfileHash(p, now), compute)
	prometheus.RecordCacheAccess(s.metrics, "report", hit)
	if err != nil {
		return nil, false, err
	}
	r.Profile = p
	return r, hit, nil
}

func (s *Service) recordReport(r *risk.Report) {
	if s.metrics == nil {
		return
	}
	prometheus.RecordRiskResult(s.metrics, r.Risk.Score, string(r.Risk.Level))
	if r.Risk.UnknownPattern {
		prometheus.RecordUnrecognizedPattern(s.metrics)
	}
	for _, f := range r.Forecasts {
		prometheus.RecordForecast(s.metrics, string(f.Offense), f.Probability)
	}
	prometheus.RecordPlan(s.metrics, string(r.Plan.Level), r.Plan.ExpectedReduction)
}

// publishCompleted emits the completion event.  The assessment is already
// stored, so a publish failure is logged and counted but not returned.
func (s *Service) publishCompleted(ctx context.Context, a *domainassessment.Assessment) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCompleted(ctx, domainassessment.NewCompletedEvent(a)); err != nil {
		s.logger.WithContext(ctx).Warn("failed to publish assessment event",
			logging.String("assessment_id", a.ID), logging.Err(err))
		prometheus.RecordError(s.metrics, "publisher", string(errors.GetCode(err)))
	}
}

func (s *Service) inFlight(source string) prometheus.Gauge {
	if s.metrics == nil || s.metrics.AssessmentsInFlight == nil {
		return nopGauge{}
	}
	return s.metrics.AssessmentsInFlight.WithLabelValues(source)
}

type nopGauge struct{}

func (nopGauge) Set(float64) {}
func (nopGauge) Inc()        {}
func (nopGauge) Dec()        {}

// ---------------------------------------------------------------------------
// Batch
// ---------------------------------------------------------------------------

// BatchItemError describes why one batch item failed.
type BatchItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// BatchItem is the outcome for one profile of a batch, in input order.
type BatchItem struct {
	Index      int                          `json:"index"`
	PersonID   string                       `json:"person_id,omitempty"`
	Assessment *domainassessment.Assessment `json:"assessment,omitempty"`
	Error      *BatchItemError              `json:"error,omitempty"`
}

// BatchResult aggregates a batch assessment.
type BatchResult struct {
	Items      []BatchItem `json:"results"`
	Total      int         `json:"total"`
	Succeeded  int         `json:"successful"`
	Failed     int         `json:"failed"`
	DurationMS int64       `json:"duration_ms"`
}

// AssessBatch assesses every profile concurrently.  An invalid profile fails
// only its own item; the batch errors only when it is empty, too large, or the
// context is cancelled.
func (s *Service) AssessBatch(ctx context.Context, inputs []risk.ProfileInput) (*BatchResult, error) {
	if len(inputs) == 0 {
		return nil, errors.New(errors.ErrCodeBatchEmpty, "batch is empty")
	}
	if len(inputs) > s.cfg.BatchLimit {
		return nil, errors.Newf(errors.ErrCodeBatchTooLarge, "batch of %d exceeds the limit of %d", len(inputs), s.cfg.BatchLimit)
	}

	start := time.Now()
	items := make([]BatchItem, len(inputs))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchWorkers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := BatchItem{Index: i, PersonID: in.PersonID}
			a, err := s.AssessAs(gctx, in, domainassessment.SourceBatch)
			if err != nil {
				item.Error = batchError(err)
				failed.Add(1)
			} else {
				item.Assessment = a
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "batch assessment cancelled")
	}

	res := &BatchResult{
		Items:      items,
		Total:      len(items),
		Failed:     int(failed.Load()),
		DurationMS: time.Since(start).Milliseconds(),
	}
	res.Succeeded = res.Total - res.Failed

	codes := make([]string, 0, res.Failed)
	for _, it := range items {
		if it.Error != nil {
			codes = append(codes, it.Error.Code)
		}
	}
	prometheus.RecordBatch(s.metrics, res.Total, codes)
	s.logger.WithContext(ctx).Info("batch assessment completed",
		logging.Int("total", res.Total), logging.Int("failed", res.Failed), logging.Int64("duration_ms", res.DurationMS))
	return res, nil
}

func batchError(err error) *BatchItemError {
	out := &BatchItemError{Code: string(errors.GetCode(err)), Message: err.Error()}
	if ae, ok := errors.AsAppError(err); ok {
		out.Message = ae.Message
		out.Detail = ae.Detail
	}
	return out
}

// ---------------------------------------------------------------------------
// Person-based assessment
// ---------------------------------------------------------------------------

// AssessPerson reduces the stored violation history of a person to a profile
// and assesses it.
func (s *Service) AssessPerson(ctx context.Context, personID string) (*domainassessment.Assessment, error) {
	return s.assessPerson(ctx, personID, domainassessment.SourcePerson)
}

func (s *Service) assessPerson(ctx context.Context, personID string, source domainassessment.Source) (*domainassessment.Assessment, error) {
	p, err := s.personProfile(ctx, personID)
	if err != nil {
		return nil, err
	}
	return s.assess(ctx, p, source)
}

func (s *Service) personProfile(ctx context.Context, personID string) (risk.Profile, error) {
	person, records, err := s.loadPerson(ctx, personID)
	if err != nil {
		return risk.Profile{}, err
	}
	now := s.now()
	return risk.ReduceProfile(person.ID, records, person.Facts(now), now)
}

func (s *Service) loadPerson(ctx context.Context, personID string) (*domainassessment.Person, []risk.Violation, error) {
	if s.persons == nil {
		return nil, nil, featureDisabled("person storage")
	}
	if personID == "" {
		return nil, nil, errors.InvalidParam("person id is required")
	}
	start := time.Now()
	person, err := s.persons.FindPerson(ctx, personID)
	prometheus.RecordDBQuery(s.metrics, "find_person", time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	start = time.Now()
	records, err := s.persons.ListViolations(ctx, personID)
	prometheus.RecordDBQuery(s.metrics, "list_violations", time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	return person, records, nil
}

// RequestReassessment queues a reassessment of personID for the worker.
func (s *Service) RequestReassessment(ctx context.Context, personID, reason string) (domainassessment.ReassessRequest, error) {
	req := domainassessment.ReassessRequest{PersonID: personID, Reason: reason, RequestedAt: s.now()}
	if err := req.Validate(); err != nil {
		return req, err
	}
	if s.publisher == nil {
		return req, featureDisabled("event publishing")
	}
	if s.persons != nil {
		if _, err := s.persons.FindPerson(ctx, personID); err != nil {
			return req, err
		}
	}
	if err := s.publisher.RequestReassessment(ctx, req); err != nil {
		return req, err
	}
	return req, nil
}

// HandleReassess processes one reassessment request from the message bus.
// Requests for the same person are serialized through the person lock; a
// request that cannot take the lock fails with a conflict so that the
// consumer retries it.
func (s *Service) HandleReassess(ctx context.Context, req domainassessment.ReassessRequest) (*domainassessment.Assessment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := s.logger.WithContext(ctx).With(logging.String("person_id", req.PersonID))

	if s.locker != nil {
		lock := s.locker.PersonLock(req.PersonID, s.cfg.LockTTL)
		if err := lock.Lock(ctx); err != nil {
			return nil, errors.Conflict("reassessment already running").WithDetail(req.PersonID).WithCause(err)
		}
		defer func() {
			if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn("failed to release person lock", logging.Err(err))
			}
		}()
	}

	a, err := s.assessPerson(ctx, req.PersonID, domainassessment.SourceWorker)
	if err != nil {
		log.Warn("reassessment failed", logging.String("reason", req.Reason), logging.Err(err))
		return nil, err
	}
	log.Info("reassessment completed",
		logging.String("assessment_id", a.ID), logging.String("risk_level", string(a.Level())))
	return a, nil
}

//Personal.AI order the ending
