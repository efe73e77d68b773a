// Package risk implements the recidivism risk scoring and forecasting engine:
// a deterministic weighted risk score, a per-offense time-window forecast and
// an intervention-plan generator.  Every component is a pure function of its
// inputs plus a read-only Constants table; nothing here performs I/O.
package risk

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Enumerations
// ─────────────────────────────────────────────────────────────────────────────

// Pattern classifies a person's offending trajectory.
type Pattern string

const (
	PatternMixedUnstable   Pattern = "mixed_unstable"
	PatternChronicCriminal Pattern = "chronic_criminal"
	PatternEscalating      Pattern = "escalating"
	PatternDeescalating    Pattern = "deescalating"
	PatternSingle          Pattern = "single"
	// PatternUnknown is assigned to any unrecognised input value.
	PatternUnknown Pattern = "unknown"
)

// AllPatterns lists the recognised patterns (PatternUnknown excluded).
var AllPatterns = []Pattern{
	PatternMixedUnstable,
	PatternChronicCriminal,
	PatternEscalating,
	PatternDeescalating,
	PatternSingle,
}

// ParsePattern maps a raw value to a Pattern.  The boolean reports whether
// the value was recognised; unrecognised values map to PatternUnknown.
func ParsePattern(s string) (Pattern, bool) {
	p := Pattern(s)
	for _, known := range AllPatterns {
		if p == known {
			return p, true
		}
	}
	return PatternUnknown, false
}

// OffenseType is one of the seven forecast offense categories.
type OffenseType string

const (
	OffenseFraud        OffenseType = "fraud"
	OffenseTheft        OffenseType = "theft"
	OffenseMurder       OffenseType = "murder"
	OffenseExtortion    OffenseType = "extortion"
	OffenseRobbery      OffenseType = "robbery"
	OffenseArmedRobbery OffenseType = "armed_robbery"
	OffenseRape         OffenseType = "rape"
)

// AllOffenseTypes is the canonical forecast order.
var AllOffenseTypes = []OffenseType{
	OffenseFraud,
	OffenseTheft,
	OffenseMurder,
	OffenseExtortion,
	OffenseRobbery,
	OffenseArmedRobbery,
	OffenseRape,
}

// ParseOffenseType validates a raw offense type value.
func ParseOffenseType(s string) (OffenseType, bool) {
	o := OffenseType(s)
	for _, known := range AllOffenseTypes {
		if o == known {
			return o, true
		}
	}
	return "", false
}

// canonicalIndex returns the position of o in AllOffenseTypes, or len when absent.
func canonicalIndex(o OffenseType) int {
	for i, known := range AllOffenseTypes {
		if o == known {
			return i
		}
	}
	return len(AllOffenseTypes)
}

// Level is a categorical risk level.
type Level string

const (
	LevelCritical Level = "critical"
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
)

// AllLevels lists levels from most to least severe.
var AllLevels = []Level{LevelCritical, LevelHigh, LevelMedium, LevelLow}

// ParseLevel validates a raw level value.
func ParseLevel(s string) (Level, bool) {
	l := Level(s)
	for _, known := range AllLevels {
		if l == known {
			return l, true
		}
	}
	return "", false
}

// Confidence labels how much historical data backs an offense's base window.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Category groups intervention programs.
type Category string

const (
	CategoryPsychological Category = "psychological"
	CategorySocial        Category = "social"
	CategoryEducational   Category = "educational"
	CategoryEmployment    Category = "employment"
	CategoryMedical       Category = "medical"
)

// Intensity is the delivery intensity of an intervention program.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Urgency is how quickly an offense-linked program must start.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// ─────────────────────────────────────────────────────────────────────────────
// Value objects
// ─────────────────────────────────────────────────────────────────────────────

// Components is the weighted breakdown of a risk score.
type Components struct {
	Pattern    float64 `json:"pattern" yaml:"pattern"`
	History    float64 `json:"history" yaml:"history"`
	Time       float64 `json:"time" yaml:"time"`
	Age        float64 `json:"age" yaml:"age"`
	Social     float64 `json:"social" yaml:"social"`
	Escalation float64 `json:"escalation" yaml:"escalation"`
}

// Sum returns the unclamped weighted total.
func (c Components) Sum() float64 {
	return c.Pattern + c.History + c.Time + c.Age + c.Social + c.Escalation
}

// Result is the output of Scorer.Score.
type Result struct {
	Score          float64    `json:"risk_score"`
	Level          Level      `json:"risk_level"`
	Components     Components `json:"components"`
	Recommendation string     `json:"recommendation"`
	UnknownPattern bool       `json:"unknown_pattern,omitempty"`
	CalculatedAt   time.Time  `json:"calculated_at"`
}

// Interval is a closed range of days.
type Interval struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

// ForecastEntry is the forecast for a single offense type.
type ForecastEntry struct {
	Offense            OffenseType `json:"crime_type"`
	DaysUntil          int         `json:"days_until"`
	PredictedDate      time.Time   `json:"predicted_date"`
	Probability        float64     `json:"probability"`
	Confidence         Confidence  `json:"confidence"`
	ConfidenceInterval Interval    `json:"confidence_interval"`
	Level              Level       `json:"risk_level"`
	Preventability     float64     `json:"preventability"`
}

// Program is one intervention program in a plan.
type Program struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Category      Category    `json:"category"`
	DurationDays  int         `json:"duration_days"`
	Intensity     Intensity   `json:"intensity"`
	Effectiveness float64     `json:"effectiveness"`
	Offense       OffenseType `json:"linked_offense,omitempty"`
}

// Plan is an ordered set of intervention programs.
type Plan struct {
	Level             Level     `json:"risk_level"`
	Programs          []Program `json:"programs"`
	TotalDurationDays int       `json:"total_duration_days"`
	ExpectedReduction float64   `json:"expected_risk_reduction"`
	Monitoring        string    `json:"monitoring_frequency"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
}

// Report is the composed output of Assembler.Assemble.
type Report struct {
	Profile         Profile          `json:"profile"`
	Risk            Result           `json:"risk"`
	Forecasts       []ForecastEntry  `json:"forecasts"`
	Plan            Plan             `json:"intervention_plan"`
	MostLikely      *ForecastEntry   `json:"most_likely_crime,omitempty"`
	CriticalPeriods []CriticalPeriod `json:"critical_periods"`
}

// Clock returns the current time.  Engine components take a Clock so that
// dates are reproducible in tests.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

//Personal.AI order the ending
