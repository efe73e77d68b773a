package risk

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// ViolationKind separates criminal cases from administrative offenses.
type ViolationKind string

const (
	KindCriminal       ViolationKind = "criminal"
	KindAdministrative ViolationKind = "administrative"
)

// Violation categories that are not forecast offense types but still carry a
// severity.
const (
	ViolationHooliganism = "hooliganism"
	ViolationOther       = "other"
)

// Violation is one recorded legal violation of a person.
type Violation struct {
	ID          string        `json:"id,omitempty"`
	PersonID    string        `json:"person_id"`
	Date        time.Time     `json:"violation_date"`
	Kind        ViolationKind `json:"kind"`
	Category    string        `json:"category"`
	Description string        `json:"description,omitempty"`
}

var severities = map[string]int{
	string(OffenseMurder):       10,
	string(OffenseRape):         9,
	string(OffenseArmedRobbery): 8,
	string(OffenseRobbery):      7,
	string(OffenseExtortion):    6,
	string(OffenseFraud):        5,
	string(OffenseTheft):        4,
	ViolationHooliganism:        3,
}

// Severity ranks a violation category from 2 (other) to 10 (murder).
func Severity(category string) int {
	if s, ok := severities[strings.ToLower(strings.TrimSpace(category))]; ok {
		return s
	}
	return 2
}

// Trend describes how the gaps between violations evolve.
type Trend string

const (
	TrendNoData       Trend = "no_data"
	TrendAccelerating Trend = "accelerating"
	TrendStable       Trend = "stable"
	TrendDecelerating Trend = "decelerating"
)

// NoViolationDays is reported as days since last violation for an empty
// history.
const NoViolationDays = 9999

// HistoryAnalysis summarises a violation history.
type HistoryAnalysis struct {
	TotalViolations    int            `json:"total_violations"`
	CategoryCounts     map[string]int `json:"crime_types"`
	AvgIntervalDays    float64        `json:"avg_interval_days"`
	MinIntervalDays    int            `json:"min_interval_days"`
	MaxIntervalDays    int            `json:"max_interval_days"`
	Trend              Trend          `json:"trend"`
	EscalationDetected bool           `json:"escalation_detected"`
	DaysSinceLast      int            `json:"last_violation_days_ago"`
	Confidence         float64        `json:"confidence"`
}

// AnalyzeHistory computes intervals, trend and escalation over records
// relative to now.  Records need not be sorted.
func AnalyzeHistory(records []Violation, now time.Time) HistoryAnalysis {
	if len(records) == 0 {
		return HistoryAnalysis{
			CategoryCounts: map[string]int{},
			Trend:          TrendNoData,
			DaysSinceLast:  NoViolationDays,
			Confidence:     historyConfidence(0),
		}
	}
	sorted := sortByDate(records)
	counts := make(map[string]int)
	for _, v := range sorted {
		counts[normalizeCategory(v.Category)]++
	}

	gaps := intervals(sorted)
	a := HistoryAnalysis{
		TotalViolations:    len(sorted),
		CategoryCounts:     counts,
		AvgIntervalDays:    365,
		Trend:              TrendStable,
		EscalationDetected: escalationDetected(sorted),
		DaysSinceLast:      daysBetween(sorted[len(sorted)-1].Date, now),
		Confidence:         historyConfidence(len(sorted)),
	}
	if len(gaps) > 0 {
		a.AvgIntervalDays = round1(meanInts(gaps))
		a.MinIntervalDays, a.MaxIntervalDays = gaps[0], gaps[0]
		for _, g := range gaps[1:] {
			a.MinIntervalDays = min(a.MinIntervalDays, g)
			a.MaxIntervalDays = max(a.MaxIntervalDays, g)
		}
	}
	if len(gaps) >= 3 {
		recent, early := meanInts(gaps[len(gaps)-3:]), meanInts(gaps[:3])
		switch {
		case recent < early*0.7:
			a.Trend = TrendAccelerating
		case recent > early*1.3:
			a.Trend = TrendDecelerating
		}
	}
	return a
}

func historyConfidence(n int) float64 {
	switch {
	case n < 2:
		return 0.3
	case n < 5:
		return 0.5
	case n < 10:
		return 0.7
	default:
		return 0.85
	}
}

// escalationDetected reports whether the mean severity of the last three
// violations exceeds 1.5 times that of the first three.
func escalationDetected(sorted []Violation) bool {
	if len(sorted) < 3 {
		return false
	}
	early, recent := severityMean(sorted[:3]), severityMean(sorted[len(sorted)-3:])
	return recent > early*1.5
}

func deescalationDetected(sorted []Violation) bool {
	if len(sorted) < 3 {
		return false
	}
	early, recent := severityMean(sorted[:3]), severityMean(sorted[len(sorted)-3:])
	return recent*1.5 < early
}

// ─────────────────────────────────────────────────────────────────────────────
// Profile reduction
// ─────────────────────────────────────────────────────────────────────────────

// PersonFacts are the attributes of a person that violation records do not
// carry.
type PersonFacts struct {
	Age            int  `json:"current_age"`
	HasProperty    bool `json:"has_property"`
	HasJob         bool `json:"has_job"`
	HasFamily      bool `json:"has_family"`
	SubstanceAbuse bool `json:"substance_abuse"`
}

// chronicCriminalShare is the criminal share of a history, from three criminal
// cases upward, that classifies it as chronic.
const chronicCriminalShare = 0.7

// ReduceProfile maps violation records and person facts onto a validated
// Profile.  It fails with ASM_005 for an empty history.
func ReduceProfile(personID string, records []Violation, facts PersonFacts, now time.Time) (Profile, error) {
	if len(records) == 0 {
		return Profile{}, errors.Newf(errors.ErrCodeHistoryEmpty, "person %s has no recorded violations", personID)
	}
	sorted := sortByDate(records)

	var criminal, admin, transitions int
	for i, v := range sorted {
		switch v.Kind {
		case KindCriminal:
			criminal++
			if i > 0 && sorted[i-1].Kind == KindAdministrative {
				transitions++
			}
		case KindAdministrative:
			admin++
		}
	}

	first := sorted[0].Date
	years := math.Max(now.Sub(first).Hours()/24/365.25, 1)
	ageAtFirst := max(MinAge, facts.Age-int(now.Sub(first).Hours()/24/365.25))
	if ageAtFirst > facts.Age {
		ageAtFirst = facts.Age
	}

	escalating := escalationDetected(sorted)
	p := Profile{
		PersonID:        personID,
		TotalCases:      len(sorted),
		CriminalCount:   criminal,
		AdminCount:      admin,
		DaysSinceLast:   daysBetween(sorted[len(sorted)-1].Date, now),
		RecidivismRate:  math.Round(float64(len(sorted))/years*100) / 100,
		Age:             facts.Age,
		AgeAtFirst:      ageAtFirst,
		HasProperty:     facts.HasProperty,
		HasJob:          facts.HasJob,
		HasFamily:       facts.HasFamily,
		SubstanceAbuse:  facts.SubstanceAbuse,
		HasEscalation:   escalating,
		AdminToCriminal: transitions,
	}
	p.Pattern = classifyPattern(sorted, criminal, escalating)
	p.RawPattern = string(p.Pattern)
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func classifyPattern(sorted []Violation, criminal int, escalating bool) Pattern {
	switch {
	case len(sorted) <= 1:
		return PatternSingle
	case escalating:
		return PatternEscalating
	case deescalationDetected(sorted):
		return PatternDeescalating
	case criminal >= 3 && float64(criminal)/float64(len(sorted)) >= chronicCriminalShare:
		return PatternChronicCriminal
	default:
		return PatternMixedUnstable
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func sortByDate(records []Violation) []Violation {
	out := append([]Violation(nil), records...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func intervals(sorted []Violation) []int {
	if len(sorted) < 2 {
		return nil
	}
	out := make([]int, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		out = append(out, daysBetween(sorted[i-1].Date, sorted[i].Date))
	}
	return out
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func meanInts(v []int) float64 {
	var sum int
	for _, x := range v {
		sum += x
	}
	return float64(sum) / float64(len(v))
}

func severityMean(v []Violation) float64 {
	var sum int
	for _, x := range v {
		sum += Severity(x.Category)
	}
	return float64(sum) / float64(len(v))
}

func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return ViolationOther
	}
	return c
}

//Personal.AI order the ending
