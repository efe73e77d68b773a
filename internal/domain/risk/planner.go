package risk

import (
	"math"
	"sort"
	"time"

	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// Planner turns a risk level and a forecast set into an intervention plan.
type Planner struct {
	c     *Constants
	clock Clock
	topN  int
}

// NewPlanner returns a Planner reading from c.
func NewPlanner(c *Constants, opts ...Option) *Planner {
	o := buildOptions(opts)
	topN := c.Interventions.TopN
	if o.topN > 0 {
		topN = o.topN
	}
	return &Planner{c: c, clock: o.clock, topN: topN}
}

// Plan selects the level's base programs, then one offense-linked program for
// each of the top-N forecasts by probability.
//
// Calling Plan with no forecasts is a caller contract violation and yields an
// RSK_003 error.
func (pl *Planner) Plan(level Level, forecasts []ForecastEntry) (*Plan, error) {
	if len(forecasts) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyForecast, "intervention planning requires at least one forecast")
	}
	base, ok := pl.c.Interventions.Base[level]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownRiskLevel, "unknown risk level %q", level)
	}
	for _, f := range forecasts {
		if _, ok := pl.c.Interventions.Offenses[f.Offense]; !ok {
			return nil, errors.Newf(errors.ErrCodeUnknownOffenseType, "unknown offense type %q", f.Offense)
		}
	}

	selected := make(map[string]bool)
	programs := make([]Program, 0, len(base.Programs)+pl.topN)
	for _, id := range base.Programs {
		def := pl.c.Interventions.Catalog[id]
		programs = append(programs, Program{
			ID:            id,
			Name:          def.Name,
			Category:      def.Category,
			DurationDays:  def.DurationDays,
			Intensity:     base.Intensity,
			Effectiveness: def.Effectiveness,
		})
		selected[id] = true
	}

	ranked := SortByProbability(forecasts)
	if len(ranked) > pl.topN {
		ranked = ranked[:pl.topN]
	}
	for _, f := range ranked {
		rem := pl.c.Interventions.Offenses[f.Offense]
		for _, id := range rem.Programs {
			if selected[id] {
				continue
			}
			def := pl.c.Interventions.Catalog[id]
			programs = append(programs, Program{
				ID:            id,
				Name:          def.Name,
				Category:      def.Category,
				DurationDays:  rem.DurationDays,
				Intensity:     pl.c.Interventions.UrgencyIntensity[rem.Urgency],
				Effectiveness: def.Effectiveness,
				Offense:       f.Offense,
			})
			selected[id] = true
			break
		}
	}

	total := 0
	for _, p := range programs {
		total += p.DurationDays
	}

	start := startOfDay(pl.clock()).AddDate(0, 0, 1)
	return &Plan{
		Level:             level,
		Programs:          programs,
		TotalDurationDays: total,
		ExpectedReduction: pl.expectedReduction(programs),
		Monitoring:        base.Monitoring,
		StartDate:         start,
		EndDate:           start.AddDate(0, 0, total),
	}, nil
}

// expectedReduction combines program effectiveness with diminishing returns:
// the i-th most effective program contributes eff × intensity weight × decay^i.
func (pl *Planner) expectedReduction(programs []Program) float64 {
	byEffect := append([]Program(nil), programs...)
	sort.SliceStable(byEffect, func(i, j int) bool {
		return byEffect[i].Effectiveness > byEffect[j].Effectiveness
	})
	t := pl.c.Interventions
	var sum float64
	for i, p := range byEffect {
		sum += p.Effectiveness * t.IntensityWeights[p.Intensity] * math.Pow(t.Decay, float64(i))
	}
	return round1(math.Min(sum, t.MaxReduction))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

//Personal.AI order the ending
