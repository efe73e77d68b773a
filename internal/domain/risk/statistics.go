package risk

import (
	"maps"
	"slices"
)

// Statistics is the read-only summary of the research behind a constants
// table.
type Statistics struct {
	Version             string              `json:"version"`
	Research            Research            `json:"research"`
	PatternDistribution map[Pattern]float64 `json:"pattern_distribution"`
	Thresholds          Thresholds          `json:"risk_thresholds"`
	Weights             Weights             `json:"risk_weights"`
	Windows             []WindowStat        `json:"crime_time_windows"`
}

// WindowStat is the base forecast window of one offense type.
type WindowStat struct {
	Offense        OffenseType `json:"crime_type"`
	AvgDays        int         `json:"avg_days"`
	Preventability float64     `json:"preventability"`
	Confidence     Confidence  `json:"confidence"`
}

// BaseWindows lists the window of every offense type in canonical order.
type BaseWindows struct {
	Windows       []WindowStat `json:"windows"`
	TotalAnalyzed int          `json:"total_analyzed"`
}

// NewStatistics builds the statistics view of c.
func NewStatistics(c *Constants) Statistics {
	research := c.Research
	research.TopEscalations = slices.Clone(c.Research.TopEscalations)
	return Statistics{
		Version:             c.Version,
		Research:            research,
		PatternDistribution: maps.Clone(c.PatternDistribution),
		Thresholds:          c.Thresholds,
		Weights:             c.Weights,
		Windows:             windowStats(c),
	}
}

// NewBaseWindows returns the base windows together with the number of
// recidivists the study analysed.
func NewBaseWindows(c *Constants) BaseWindows {
	return BaseWindows{Windows: windowStats(c), TotalAnalyzed: c.Research.TotalRecidivists}
}

func windowStats(c *Constants) []WindowStat {
	out := make([]WindowStat, 0, len(AllOffenseTypes))
	for _, o := range AllOffenseTypes {
		out = append(out, WindowStat{
			Offense:        o,
			AvgDays:        c.Windows[o],
			Preventability: min(c.Preventability[o], 100),
			Confidence:     c.Confidence[o],
		})
	}
	return out
}

//Personal.AI order the ending
