package risk

import (
	"math"

	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Options shared by every engine component
// ─────────────────────────────────────────────────────────────────────────────

type options struct {
	logger logging.Logger
	clock  Clock
	topN   int
}

// Option configures an engine component.
type Option func(*options)

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock injects the time source used for timestamps and dates.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithTopN overrides how many forecasts contribute offense-linked programs.
func WithTopN(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.topN = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logging.NewNopLogger(), clock: SystemClock}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// ─────────────────────────────────────────────────────────────────────────────
// Scorer
// ─────────────────────────────────────────────────────────────────────────────

// Scorer computes the composite 0–10 risk score of a profile.
type Scorer struct {
	c      *Constants
	logger logging.Logger
	clock  Clock
}

// NewScorer returns a Scorer reading from c.
func NewScorer(c *Constants, opts ...Option) *Scorer {
	o := buildOptions(opts)
	return &Scorer{c: c, logger: o.logger, clock: o.clock}
}

// Score validates p and returns its risk result.  An unrecognised pattern is
// not an error: the documented unknown weight is used and a warning logged.
func (s *Scorer) Score(p Profile) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	comp, unknown := s.components(p)
	if unknown {
		s.logger.Warn("unrecognized behavior pattern, using fallback weight",
			logging.String("pattern", p.RawPattern),
			logging.Float64("weight", s.c.UnknownPatternRisk),
			logging.String(logging.FieldErrorCode, string(errors.ErrCodeUnrecognizedPattern)))
	}

	// Classify before rounding: 6.96 rounds to 7.0 but is still high.
	raw := clamp(comp.Sum(), 0, 10)
	level := s.LevelForScore(raw)
	return &Result{
		Score:          round1(raw),
		Level:          level,
		Components:     comp,
		Recommendation: s.c.Recommendations[level],
		UnknownPattern: unknown,
		CalculatedAt:   s.clock(),
	}, nil
}

// LevelForScore classifies score against the inclusive thresholds.
func (s *Scorer) LevelForScore(score float64) Level {
	return s.c.Thresholds.LevelFor(score)
}

// RawScore returns the unrounded, clamped score of p without validation or
// logging.  The forecaster uses it as the overall risk intensity.
func (s *Scorer) RawScore(p Profile) float64 {
	comp, _ := s.components(p)
	return clamp(comp.Sum(), 0, 10)
}

func (s *Scorer) components(p Profile) (Components, bool) {
	w := s.c.Weights
	risk, unknown := s.patternRisk(p.Pattern)
	return Components{
		Pattern:    risk * 10 * w.Pattern,
		History:    historyScore(p) * w.History,
		Time:       timeScore(p) * w.Time,
		Age:        ageScore(p) * w.Age,
		Social:     socialScore(p) * w.Social,
		Escalation: escalationScore(p) * w.Escalation,
	}, unknown
}

func (s *Scorer) patternRisk(p Pattern) (float64, bool) {
	if r, ok := s.c.PatternRisks[p]; ok && p != PatternUnknown {
		return r, false
	}
	return s.c.UnknownPatternRisk, true
}

// ─────────────────────────────────────────────────────────────────────────────
// Sub-scores, each on a 0–10 scale before weighting
// ─────────────────────────────────────────────────────────────────────────────

// transitionBonus is added per administrative→criminal transition, up to maxTransitionBonus.
const (
	transitionBonus    = 0.5
	maxTransitionBonus = 2.0
)

func historyScore(p Profile) float64 {
	var base float64
	switch {
	case p.TotalCases == 0:
		return 0
	case p.TotalCases <= 2:
		base = 2
	case p.TotalCases <= 5:
		base = 4
	case p.TotalCases <= 10:
		base = 6
	default:
		base = 8
	}
	if p.CriminalCount > 0 {
		base += float64(p.CriminalCount) / float64(p.TotalCases) * 2
	}
	base += math.Min(float64(p.AdminToCriminal)*transitionBonus, maxTransitionBonus)
	return math.Min(base, 10)
}

func timeScore(p Profile) float64 {
	var score float64
	switch d := p.DaysSinceLast; {
	case d < 30:
		score = 10
	case d < 90:
		score = 8
	case d < 180:
		score = 6
	case d < 365:
		score = 4
	default:
		score = 2
	}
	if p.RecidivismRate > 2 {
		score = math.Min(score+2, 10)
	}
	return score
}

func ageScore(p Profile) float64 {
	var score float64
	switch a := p.Age; {
	case a >= 18 && a <= 25:
		score = 8
	case a >= 26 && a <= 35:
		score = 6
	case a >= 36 && a <= 45:
		score = 4
	default:
		score = 2
	}
	switch f := p.AgeAtFirst; {
	case f < 18:
		score += 3
	case f < 21:
		score += 2
	case f < 25:
		score += 1
	}
	return math.Min(score, 10)
}

func socialScore(p Profile) float64 {
	score := 5.0
	if p.HasProperty {
		score -= 2
	} else {
		score++
	}
	if p.HasJob {
		score -= 2
	} else {
		score++
	}
	if p.HasFamily {
		score--
	}
	if p.SubstanceAbuse {
		score += 2
	}
	return clamp(score, 0, 10)
}

func escalationScore(p Profile) float64 {
	if p.HasEscalation {
		switch {
		case p.AdminToCriminal > 2:
			return 9
		case p.AdminToCriminal > 0:
			return 7
		default:
			return 5
		}
	}
	if p.AdminCount > 5 {
		return 4
	}
	return 2
}

// ─────────────────────────────────────────────────────────────────────────────
// Numeric helpers
// ─────────────────────────────────────────────────────────────────────────────

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round1 rounds half away from zero to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

//Personal.AI order the ending
