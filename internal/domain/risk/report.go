package risk

// Assembler composes the scorer, forecaster and planner into a single report.
type Assembler struct {
	c          *Constants
	scorer     *Scorer
	forecaster *Forecaster
	planner    *Planner
	clock      Clock
}

// NewAssembler builds all three engine components from the same constants
// table and options.
func NewAssembler(c *Constants, opts ...Option) *Assembler {
	o := buildOptions(opts)
	return &Assembler{
		c:          c,
		scorer:     NewScorer(c, opts...),
		forecaster: NewForecaster(c, opts...),
		planner:    NewPlanner(c, opts...),
		clock:      o.clock,
	}
}

func (a *Assembler) Scorer() *Scorer         { return a.scorer }
func (a *Assembler) Forecaster() *Forecaster { return a.forecaster }
func (a *Assembler) Planner() *Planner       { return a.planner }
func (a *Assembler) Constants() *Constants   { return a.c }

// Assemble scores and forecasts p independently, then plans interventions
// from both outputs.
func (a *Assembler) Assemble(p Profile) (*Report, error) {
	result, err := a.scorer.Score(p)
	if err != nil {
		return nil, err
	}
	forecasts, err := a.forecaster.Forecast(p)
	if err != nil {
		return nil, err
	}
	plan, err := a.planner.Plan(result.Level, forecasts)
	if err != nil {
		return nil, err
	}
	return &Report{
		Profile:         p,
		Risk:            *result,
		Forecasts:       forecasts,
		Plan:            *plan,
		MostLikely:      MostLikely(forecasts),
		CriticalPeriods: CriticalPeriods(a.c, forecasts, a.clock()),
	}, nil
}

// AssembleInput converts in to a Profile and assembles its report.
func (a *Assembler) AssembleInput(in ProfileInput) (*Report, error) {
	p, err := in.ToProfile()
	if err != nil {
		return nil, err
	}
	return a.Assemble(p)
}

// QuickAssessment is the short form of a report: score plus the earliest
// expected offense.
type QuickAssessment struct {
	Score          float64        `json:"risk_score"`
	Level          Level          `json:"risk_level"`
	Recommendation string         `json:"recommendation"`
	Components     Components     `json:"components"`
	MostLikely     *ForecastEntry `json:"most_likely_crime,omitempty"`
}

// Quick returns the score and most likely offense without building a plan.
func (a *Assembler) Quick(p Profile) (*QuickAssessment, error) {
	result, err := a.scorer.Score(p)
	if err != nil {
		return nil, err
	}
	forecasts, err := a.forecaster.Forecast(p)
	if err != nil {
		return nil, err
	}
	return &QuickAssessment{
		Score:          result.Score,
		Level:          result.Level,
		Recommendation: result.Recommendation,
		Components:     result.Components,
		MostLikely:     MostLikely(forecasts),
	}, nil
}

//Personal.AI order the ending
