package risk

import (
	"math"
	"sort"
	"time"
)

// Forecaster estimates, for each of the seven offense types, how many days
// remain until a likely offense and with what probability.
type Forecaster struct {
	c      *Constants
	scorer *Scorer
	clock  Clock
}

// NewForecaster returns a Forecaster reading from c.  Its internal scorer
// never logs; pattern warnings are the Scorer's concern.
func NewForecaster(c *Constants, opts ...Option) *Forecaster {
	o := buildOptions(opts)
	return &Forecaster{c: c, scorer: NewScorer(c, WithClock(o.clock)), clock: o.clock}
}

// Forecast validates p and returns exactly one entry per offense type in
// canonical order.
func (f *Forecaster) Forecast(p Profile) ([]ForecastEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return f.forecast(p, f.scorer.RawScore(p)), nil
}

// ForecastWithScore is Forecast with a precomputed risk score in [0, 10].
func (f *Forecaster) ForecastWithScore(p Profile, score float64) ([]ForecastEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return f.forecast(p, clamp(score, 0, 10)), nil
}

func (f *Forecaster) forecast(p Profile, score float64) []ForecastEntry {
	now := f.clock()
	out := make([]ForecastEntry, 0, len(AllOffenseTypes))
	for _, o := range AllOffenseTypes {
		out = append(out, f.entry(p, o, score, now))
	}
	return out
}

func (f *Forecaster) entry(p Profile, o OffenseType, score float64, now time.Time) ForecastEntry {
	t := f.c.Forecast
	window := f.c.Windows[o]

	raw := float64(window) * f.ageModifier(p.Age) * f.patternModifier(p.Pattern, o) * f.socialModifier(p)
	days := clampInt(int(math.Round(raw)), t.MinDays, t.MaxDays)

	preventability := math.Min(f.c.Preventability[o], 100)
	prob := preventability * score / 10 * f.timeModifier(days, window) * f.probabilityModifier(p.Pattern, o)
	prob = round1(clamp(prob, t.MinProbability, t.MaxProbability))

	conf := f.c.Confidence[o]
	band := f.c.ConfidenceBands[conf]
	lower := int(math.Round(float64(days) * (1 - band)))
	if lower < 1 {
		lower = 1
	}

	return ForecastEntry{
		Offense:            o,
		DaysUntil:          days,
		PredictedDate:      now.AddDate(0, 0, days),
		Probability:        prob,
		Confidence:         conf,
		ConfidenceInterval: Interval{Lower: lower, Upper: int(math.Round(float64(days) * (1 + band)))},
		Level:              f.offenseLevel(days),
		Preventability:     preventability,
	}
}

func (f *Forecaster) ageModifier(age int) float64 {
	for _, b := range f.c.Forecast.AgeBands {
		if age < b.Below {
			return b.Modifier
		}
	}
	return f.c.Forecast.SeniorAgeModifier
}

func (f *Forecaster) patternModifier(p Pattern, o OffenseType) float64 {
	m, ok := f.c.Forecast.PatternModifiers[p]
	if !ok {
		m = f.c.Forecast.PatternModifiers[PatternUnknown]
	}
	for _, pm := range f.c.Forecast.PatternOffenseModifiers {
		if pm.matches(p, o) {
			m *= pm.Modifier
		}
	}
	return m
}

func (f *Forecaster) socialModifier(p Profile) float64 {
	s := f.c.Forecast.SocialModifiers
	m := 1.0
	if !p.HasProperty {
		m *= s.NoProperty
	}
	if !p.HasJob {
		m *= s.NoJob
	}
	if !p.HasFamily {
		m *= s.NoFamily
	}
	if p.SubstanceAbuse {
		m *= s.SubstanceAbuse
	}
	return m
}

// timeModifier compares the forecast horizon with the offense's base window.
func (f *Forecaster) timeModifier(days, window int) float64 {
	ratio := float64(days) / float64(window)
	for _, tm := range f.c.Forecast.TimeModifiers {
		if ratio < tm.BelowRatio {
			return tm.Modifier
		}
	}
	return f.c.Forecast.LateTimeModifier
}

// probabilityModifier returns the first matching pattern modifier.
func (f *Forecaster) probabilityModifier(p Pattern, o OffenseType) float64 {
	for _, pm := range f.c.Forecast.ProbabilityModifiers {
		if pm.matches(p, o) {
			return pm.Modifier
		}
	}
	return 1.0
}

func (f *Forecaster) offenseLevel(days int) Level {
	for _, b := range f.c.Forecast.OffenseLevels {
		if days < b.BelowDays {
			return b.Level
		}
	}
	return LevelLow
}

// ─────────────────────────────────────────────────────────────────────────────
// Ordering helpers
// ─────────────────────────────────────────────────────────────────────────────

// SortByProbability returns a copy of forecasts ordered by probability,
// highest first; ties keep canonical offense order.
func SortByProbability(forecasts []ForecastEntry) []ForecastEntry {
	out := append([]ForecastEntry(nil), forecasts...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		return canonicalIndex(out[i].Offense) < canonicalIndex(out[j].Offense)
	})
	return out
}

// SortByDays returns a copy of forecasts ordered by days until the event,
// soonest first; ties keep canonical offense order.
func SortByDays(forecasts []ForecastEntry) []ForecastEntry {
	out := append([]ForecastEntry(nil), forecasts...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysUntil != out[j].DaysUntil {
			return out[i].DaysUntil < out[j].DaysUntil
		}
		return canonicalIndex(out[i].Offense) < canonicalIndex(out[j].Offense)
	})
	return out
}

// MostLikely returns the earliest forecast, or nil for an empty slice.
func MostLikely(forecasts []ForecastEntry) *ForecastEntry {
	if len(forecasts) == 0 {
		return nil
	}
	first := SortByDays(forecasts)[0]
	return &first
}

//Personal.AI order the ending
