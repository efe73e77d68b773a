package cli

import (
	"context"

	appassessment "github.com/turtacn/recidivism-forecast/internal/application/assessment"
	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/pkg/client"
)

// Backend answers the engine commands, either in process or through the
// API server.
type Backend interface {
	Score(ctx context.Context, in risk.ProfileInput) (*appassessment.ScoreResult, error)
	Forecast(ctx context.Context, in risk.ProfileInput, limit int) (*appassessment.ForecastResult, error)
	Plan(ctx context.Context, req appassessment.PlanRequest) (*risk.Plan, error)
	Assess(ctx context.Context, in risk.ProfileInput) (*domainassessment.Assessment, error)
	AssessBatch(ctx context.Context, inputs []risk.ProfileInput) (*appassessment.BatchResult, error)
	Statistics(ctx context.Context) (*appassessment.StatisticsView, error)
	Constants(ctx context.Context) (*risk.Constants, error)
}

// localBackend runs the engine in process without storage.
type localBackend struct {
	svc *appassessment.Service
}

func (b *localBackend) Score(ctx context.Context, in risk.ProfileInput) (*appassessment.ScoreResult, error) {
	return b.svc.Score(ctx, in)
}

func (b *localBackend) Forecast(ctx context.Context, in risk.ProfileInput, limit int) (*appassessment.ForecastResult, error) {
	return b.svc.Forecast(ctx, in, limit)
}

func (b *localBackend) Plan(ctx context.Context, req appassessment.PlanRequest) (*risk.Plan, error) {
	return b.svc.Plan(ctx, req)
}

func (b *localBackend) Assess(ctx context.Context, in risk.ProfileInput) (*domainassessment.Assessment, error) {
	return b.svc.AssessAs(ctx, in, domainassessment.SourceCLI)
}

func (b *localBackend) AssessBatch(ctx context.Context, inputs []risk.ProfileInput) (*appassessment.BatchResult, error) {
	return b.svc.AssessBatch(ctx, inputs)
}

func (b *localBackend) Statistics(ctx context.Context) (*appassessment.StatisticsView, error) {
	return b.svc.Statistics(ctx)
}

func (b *localBackend) Constants(ctx context.Context) (*risk.Constants, error) {
	return b.svc.Constants(), nil
}

// remoteBackend forwards every call to the API server.
type remoteBackend struct {
	c *client.Client
}

func (b *remoteBackend) Score(ctx context.Context, in risk.ProfileInput) (*appassessment.ScoreResult, error) {
	return b.c.Risk().Score(ctx, in)
}

func (b *remoteBackend) Forecast(ctx context.Context, in risk.ProfileInput, limit int) (*appassessment.ForecastResult, error) {
	return b.c.Forecasts().Forecast(ctx, in, limit)
}

func (b *remoteBackend) Plan(ctx context.Context, req appassessment.PlanRequest) (*risk.Plan, error) {
	return b.c.Risk().Plan(ctx, req)
}

func (b *remoteBackend) Assess(ctx context.Context, in risk.ProfileInput) (*domainassessment.Assessment, error) {
	return b.c.Risk().Assess(ctx, in)
}

func (b *remoteBackend) AssessBatch(ctx context.Context, inputs []risk.ProfileInput) (*appassessment.BatchResult, error) {
	return b.c.Risk().Batch(ctx, inputs)
}

func (b *remoteBackend) Statistics(ctx context.Context) (*appassessment.StatisticsView, error) {
	return b.c.Risk().Statistics(ctx)
}

func (b *remoteBackend) Constants(ctx context.Context) (*risk.Constants, error) {
	return b.c.Risk().Constants(ctx)
}

//Personal.AI order the ending
