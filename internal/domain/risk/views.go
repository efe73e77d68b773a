package risk

import (
	"fmt"
	"sort"
	"time"

	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Priority offenses
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultPriorityMinProbability = 50.0
	MinPriorityProbability        = 5.0
	MaxPriorityProbability        = 95.0
	MaxPriorityOffenses           = 5

	// preventionLead is how many days before the forecast date prevention
	// work should begin.
	preventionLead = 30
)

// PriorityOffense is a forecast selected for immediate prevention work.
type PriorityOffense struct {
	ForecastEntry
	PreventionWindowDays int     `json:"prevention_window"`
	Urgency              Urgency `json:"urgency"`
}

// PriorityList is the result of PriorityOffenses.
type PriorityList struct {
	Offenses       []PriorityOffense `json:"priority_crimes"`
	TotalFound     int               `json:"total_found"`
	TotalAnalyzed  int               `json:"total_analyzed"`
	MinProbability float64           `json:"min_probability_threshold"`
}

// PriorityOffenses keeps the forecasts whose probability reaches
// minProbability, ordered by probability, and returns at most five.
func PriorityOffenses(forecasts []ForecastEntry, minProbability float64) (*PriorityList, error) {
	if minProbability < MinPriorityProbability || minProbability > MaxPriorityProbability {
		return nil, errors.InvalidParam("min_probability out of range").
			WithDetail(fmt.Sprintf("got %v, expected [%v, %v]", minProbability, MinPriorityProbability, MaxPriorityProbability))
	}
	var found []PriorityOffense
	for _, f := range SortByProbability(forecasts) {
		if f.Probability < minProbability {
			continue
		}
		found = append(found, PriorityOffense{
			ForecastEntry:        f,
			PreventionWindowDays: max(1, f.DaysUntil-preventionLead),
			Urgency:              urgencyForDays(f.DaysUntil),
		})
	}
	list := &PriorityList{
		Offenses:       found,
		TotalFound:     len(found),
		TotalAnalyzed:  len(forecasts),
		MinProbability: minProbability,
	}
	if len(list.Offenses) > MaxPriorityOffenses {
		list.Offenses = list.Offenses[:MaxPriorityOffenses]
	}
	if list.Offenses == nil {
		list.Offenses = []PriorityOffense{}
	}
	return list, nil
}

func urgencyForDays(days int) Urgency {
	switch {
	case days < 90:
		return UrgencyHigh
	case days < 180:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Prevention calendar
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultCalendarMonths = 6
	MaxCalendarMonths     = 12
	daysPerMonth          = 30
)

// CalendarRisk is one forecast falling inside a calendar month.
type CalendarRisk struct {
	Offense     OffenseType `json:"crime_type"`
	DaysUntil   int         `json:"days"`
	Probability float64     `json:"probability"`
	Confidence  Confidence  `json:"confidence"`
}

// CalendarMonth is one 30-day planning slot.
type CalendarMonth struct {
	Key             string         `json:"month"`
	StartDay        int            `json:"start_day"`
	EndDay          int            `json:"end_day"`
	Risks           []CalendarRisk `json:"risks"`
	Recommendations []string       `json:"recommendations"`
	Level           Level          `json:"risk_level"`
}

// PreventionCalendar splits the next months×30 days into 30-day slots.
// Slot i covers days [30i, 30(i+1)] inclusive, so a forecast on a boundary
// appears in both neighbouring slots.
func PreventionCalendar(forecasts []ForecastEntry, months int, start time.Time) ([]CalendarMonth, error) {
	if months < 1 || months > MaxCalendarMonths {
		return nil, errors.InvalidParam("months out of range").
			WithDetail(fmt.Sprintf("got %d, expected [1, %d]", months, MaxCalendarMonths))
	}
	ranked := SortByProbability(forecasts)
	out := make([]CalendarMonth, 0, months)
	for i := 0; i < months; i++ {
		lo, hi := daysPerMonth*i, daysPerMonth*(i+1)
		m := CalendarMonth{
			Key:      start.AddDate(0, 0, lo).Format("2006-01"),
			StartDay: lo,
			EndDay:   hi,
			Risks:    []CalendarRisk{},
			Level:    LevelLow,
		}
		for _, f := range ranked {
			if f.DaysUntil < lo || f.DaysUntil > hi {
				continue
			}
			m.Risks = append(m.Risks, CalendarRisk{
				Offense:     f.Offense,
				DaysUntil:   f.DaysUntil,
				Probability: f.Probability,
				Confidence:  f.Confidence,
			})
			switch {
			case f.Probability > 60:
				m.Recommendations = append(m.Recommendations, fmt.Sprintf("Enhanced control: %s risk", f.Offense))
			case f.Probability > 40:
				m.Recommendations = append(m.Recommendations, fmt.Sprintf("Preventive work: possible %s", f.Offense))
			}
			switch {
			case f.Probability > 70:
				m.Level = LevelHigh
			case f.Probability > 40 && m.Level == LevelLow:
				m.Level = LevelMedium
			}
		}
		if len(m.Recommendations) == 0 {
			m.Recommendations = []string{"Standard monitoring"}
		}
		out = append(out, m)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Critical periods
// ─────────────────────────────────────────────────────────────────────────────

const (
	criticalPeriodMinProbability = 40.0
	criticalPeriodHighAverage    = 60.0
	criticalPeriodMinOffenses    = 2
	programsPerOffense           = 2
)

// CriticalPeriod is a month in which several significant risks coincide.
type CriticalPeriod struct {
	StartDate           time.Time     `json:"start_date"`
	EndDate             time.Time     `json:"end_date"`
	Level               Level         `json:"risk_level"`
	Offenses            []OffenseType `json:"crime_types"`
	AvgProbability      float64       `json:"avg_probability"`
	RecommendedPrograms []string      `json:"recommended_interventions"`
}

// CriticalPeriods groups forecasts with probability ≥ 40 by 30-day slot and
// reports every slot holding at least two of them, ordered by start date.
func CriticalPeriods(c *Constants, forecasts []ForecastEntry, now time.Time) []CriticalPeriod {
	groups := make(map[int][]ForecastEntry)
	for _, f := range SortByProbability(forecasts) {
		if f.Probability >= criticalPeriodMinProbability {
			slot := f.DaysUntil / daysPerMonth
			groups[slot] = append(groups[slot], f)
		}
	}

	out := []CriticalPeriod{}
	for _, group := range groups {
		if len(group) < criticalPeriodMinOffenses {
			continue
		}
		minDays, maxDays := group[0].DaysUntil, group[0].DaysUntil
		var sum float64
		offenses := make([]OffenseType, 0, len(group))
		seen := make(map[string]bool)
		var programs []string
		for _, f := range group {
			minDays = min(minDays, f.DaysUntil)
			maxDays = max(maxDays, f.DaysUntil)
			sum += f.Probability
			offenses = append(offenses, f.Offense)
			ids := c.Interventions.Offenses[f.Offense].Programs
			for i := 0; i < len(ids) && i < programsPerOffense; i++ {
				name := c.Interventions.Catalog[ids[i]].Name
				if !seen[name] {
					seen[name] = true
					programs = append(programs, name)
				}
			}
		}
		avg := round1(sum / float64(len(group)))
		level := LevelMedium
		if avg >= criticalPeriodHighAverage {
			level = LevelHigh
		}
		out = append(out, CriticalPeriod{
			StartDate:           now.AddDate(0, 0, minDays),
			EndDate:             now.AddDate(0, 0, maxDays),
			Level:               level,
			Offenses:            offenses,
			AvgProbability:      avg,
			RecommendedPrograms: programs,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

//Personal.AI order the ending
