package risk

import (
	"bytes"
	_ "embed"
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

//go:embed constants.yaml
var embeddedConstants []byte

// weightTolerance is the allowed deviation of the weight sum from 1.0.
const weightTolerance = 1e-9

// distributionTolerance is the allowed deviation of the pattern
// distribution from 100%.
const distributionTolerance = 0.1

// ─────────────────────────────────────────────────────────────────────────────
// Table types
// ─────────────────────────────────────────────────────────────────────────────

// Weights are the six risk-factor weights; they must sum to 1.0.
type Weights struct {
	Pattern    float64 `yaml:"pattern" toml:"pattern" json:"pattern"`
	History    float64 `yaml:"history" toml:"history" json:"history"`
	Time       float64 `yaml:"time" toml:"time" json:"time"`
	Age        float64 `yaml:"age" toml:"age" json:"age"`
	Social     float64 `yaml:"social" toml:"social" json:"social"`
	Escalation float64 `yaml:"escalation" toml:"escalation" json:"escalation"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Pattern + w.History + w.Time + w.Age + w.Social + w.Escalation
}

// Thresholds are the inclusive lower bounds of the critical, high and medium
// levels; anything below Medium is low.
type Thresholds struct {
	Critical float64 `yaml:"critical" toml:"critical" json:"critical"`
	High     float64 `yaml:"high" toml:"high" json:"high"`
	Medium   float64 `yaml:"medium" toml:"medium" json:"medium"`
}

// LevelFor classifies score.  Boundaries are inclusive.
func (t Thresholds) LevelFor(score float64) Level {
	switch {
	case score >= t.Critical:
		return LevelCritical
	case score >= t.High:
		return LevelHigh
	case score >= t.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Escalation is one documented administrative→criminal transition count.
type Escalation struct {
	Target string `yaml:"target" toml:"target" json:"target"`
	Count  int    `yaml:"count" toml:"count" json:"count"`
}

// Research holds the headline statistics of the underlying study.
type Research struct {
	Source                  string       `yaml:"source" toml:"source" json:"source"`
	LastSync                string       `yaml:"last_sync" toml:"last_sync" json:"last_sync"`
	TotalViolations         int          `yaml:"total_violations" toml:"total_violations" json:"total_violations"`
	TotalRecidivists        int          `yaml:"total_recidivists" toml:"total_recidivists" json:"total_recidivists"`
	PreventablePercent      float64      `yaml:"preventable_percent" toml:"preventable_percent" json:"preventable_percent"`
	UnstablePatternPercent  float64      `yaml:"unstable_pattern_percent" toml:"unstable_pattern_percent" json:"unstable_pattern_percent"`
	AdminToTheftTransitions int          `yaml:"admin_to_theft_transitions" toml:"admin_to_theft_transitions" json:"admin_to_theft_transitions"`
	AvgDaysToMurder         int          `yaml:"avg_days_to_murder" toml:"avg_days_to_murder" json:"avg_days_to_murder"`
	TopEscalations          []Escalation `yaml:"top_escalations" toml:"top_escalations" json:"top_escalations"`
}

// AgeBand applies Modifier to ages strictly below Below.
type AgeBand struct {
	Below    int     `yaml:"below" toml:"below" json:"below"`
	Modifier float64 `yaml:"modifier" toml:"modifier" json:"modifier"`
}

// PatternOffenseModifier applies Modifier when the profile pattern matches
// and the offense is listed.  An empty Offenses list matches every offense.
type PatternOffenseModifier struct {
	Pattern  Pattern       `yaml:"pattern" toml:"pattern" json:"pattern"`
	Offenses []OffenseType `yaml:"offenses" toml:"offenses" json:"offenses,omitempty"`
	Modifier float64       `yaml:"modifier" toml:"modifier" json:"modifier"`
}

func (m PatternOffenseModifier) matches(p Pattern, o OffenseType) bool {
	if m.Pattern != p {
		return false
	}
	if len(m.Offenses) == 0 {
		return true
	}
	for _, candidate := range m.Offenses {
		if candidate == o {
			return true
		}
	}
	return false
}

// SocialModifiers compress the forecast window when stabilising factors are
// absent or substance abuse is present.
type SocialModifiers struct {
	NoProperty     float64 `yaml:"no_property" toml:"no_property" json:"no_property"`
	NoJob          float64 `yaml:"no_job" toml:"no_job" json:"no_job"`
	NoFamily       float64 `yaml:"no_family" toml:"no_family" json:"no_family"`
	SubstanceAbuse float64 `yaml:"substance_abuse" toml:"substance_abuse" json:"substance_abuse"`
}

// TimeModifier applies Modifier when days/window is strictly below BelowRatio.
type TimeModifier struct {
	BelowRatio float64 `yaml:"below_ratio" toml:"below_ratio" json:"below_ratio"`
	Modifier   float64 `yaml:"modifier" toml:"modifier" json:"modifier"`
}

// OffenseLevelBand assigns Level to forecasts strictly below BelowDays.
type OffenseLevelBand struct {
	BelowDays int   `yaml:"below_days" toml:"below_days" json:"below_days"`
	Level     Level `yaml:"level" toml:"level" json:"level"`
}

// ForecastTable holds every forecaster coefficient.
type ForecastTable struct {
	MinDays                 int                      `yaml:"min_days" toml:"min_days" json:"min_days"`
	MaxDays                 int                      `yaml:"max_days" toml:"max_days" json:"max_days"`
	MinProbability          float64                  `yaml:"min_probability" toml:"min_probability" json:"min_probability"`
	MaxProbability          float64                  `yaml:"max_probability" toml:"max_probability" json:"max_probability"`
	AgeBands                []AgeBand                `yaml:"age_bands" toml:"age_bands" json:"age_bands"`
	SeniorAgeModifier       float64                  `yaml:"senior_age_modifier" toml:"senior_age_modifier" json:"senior_age_modifier"`
	PatternModifiers        map[Pattern]float64      `yaml:"pattern_modifiers" toml:"pattern_modifiers" json:"pattern_modifiers"`
	PatternOffenseModifiers []PatternOffenseModifier `yaml:"pattern_offense_modifiers" toml:"pattern_offense_modifiers" json:"pattern_offense_modifiers"`
	SocialModifiers         SocialModifiers          `yaml:"social_modifiers" toml:"social_modifiers" json:"social_modifiers"`
	TimeModifiers           []TimeModifier           `yaml:"time_modifiers" toml:"time_modifiers" json:"time_modifiers"`
	LateTimeModifier        float64                  `yaml:"late_time_modifier" toml:"late_time_modifier" json:"late_time_modifier"`
	ProbabilityModifiers    []PatternOffenseModifier `yaml:"probability_modifiers" toml:"probability_modifiers" json:"probability_modifiers"`
	OffenseLevels           []OffenseLevelBand       `yaml:"offense_levels" toml:"offense_levels" json:"offense_levels"`
}

// CatalogProgram is a program definition.  DurationDays is zero for
// offense-linked programs, which take the offense's remediation duration.
type CatalogProgram struct {
	Name          string   `yaml:"name" toml:"name" json:"name"`
	Category      Category `yaml:"category" toml:"category" json:"category"`
	DurationDays  int      `yaml:"duration_days" toml:"duration_days" json:"duration_days,omitempty"`
	Effectiveness float64  `yaml:"effectiveness" toml:"effectiveness" json:"effectiveness"`
}

// BasePlan is the level-keyed baseline of an intervention plan.
type BasePlan struct {
	Intensity  Intensity `yaml:"intensity" toml:"intensity" json:"intensity"`
	Monitoring string    `yaml:"monitoring" toml:"monitoring" json:"monitoring"`
	Programs   []string  `yaml:"programs" toml:"programs" json:"programs"`
}

// OffenseRemediation lists the programs addressing one offense type.
type OffenseRemediation struct {
	Urgency      Urgency  `yaml:"urgency" toml:"urgency" json:"urgency"`
	DurationDays int      `yaml:"duration_days" toml:"duration_days" json:"duration_days"`
	Programs     []string `yaml:"programs" toml:"programs" json:"programs"`
}

// InterventionTable holds every planner coefficient.
type InterventionTable struct {
	TopN             int                                `yaml:"top_n" toml:"top_n" json:"top_n"`
	Decay            float64                            `yaml:"decay" toml:"decay" json:"decay"`
	MaxReduction     float64                            `yaml:"max_reduction" toml:"max_reduction" json:"max_reduction"`
	IntensityWeights map[Intensity]float64              `yaml:"intensity_weights" toml:"intensity_weights" json:"intensity_weights"`
	UrgencyIntensity map[Urgency]Intensity              `yaml:"urgency_intensity" toml:"urgency_intensity" json:"urgency_intensity"`
	Catalog          map[string]CatalogProgram          `yaml:"catalog" toml:"catalog" json:"catalog"`
	Base             map[Level]BasePlan                 `yaml:"base" toml:"base" json:"base"`
	Offenses         map[OffenseType]OffenseRemediation `yaml:"offenses" toml:"offenses" json:"offenses"`
}

// Constants is the immutable research table every engine component reads.
// Build it with DefaultConstants, ParseConstants or LoadConstantsFile and
// never mutate it afterwards.  The maps and slices are shared by every
// engine component holding the pointer; hand Clone to code outside the
// engine.
type Constants struct {
	Version             string                     `yaml:"version" toml:"version" json:"version"`
	Research            Research                   `yaml:"research" toml:"research" json:"research"`
	Windows             map[OffenseType]int        `yaml:"windows" toml:"windows" json:"windows"`
	Preventability      map[OffenseType]float64    `yaml:"preventability" toml:"preventability" json:"preventability"`
	Weights             Weights                    `yaml:"weights" toml:"weights" json:"weights"`
	PatternRisks        map[Pattern]float64        `yaml:"pattern_risks" toml:"pattern_risks" json:"pattern_risks"`
	UnknownPatternRisk  float64                    `yaml:"unknown_pattern_risk" toml:"unknown_pattern_risk" json:"unknown_pattern_risk"`
	PatternDistribution map[Pattern]float64        `yaml:"pattern_distribution" toml:"pattern_distribution" json:"pattern_distribution"`
	Thresholds          Thresholds                 `yaml:"thresholds" toml:"thresholds" json:"thresholds"`
	Recommendations     map[Level]string           `yaml:"recommendations" toml:"recommendations" json:"recommendations"`
	Confidence          map[OffenseType]Confidence `yaml:"confidence" toml:"confidence" json:"confidence"`
	ConfidenceBands     map[Confidence]float64     `yaml:"confidence_bands" toml:"confidence_bands" json:"confidence_bands"`
	Forecast            ForecastTable              `yaml:"forecast" toml:"forecast" json:"forecast"`
	Interventions       InterventionTable          `yaml:"interventions" toml:"interventions" json:"interventions"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Loading
// ─────────────────────────────────────────────────────────────────────────────

// Format identifies the encoding of a constants artifact.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath infers the encoding from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.Newf(errors.ErrCodeConstantsLoadFailed, "unsupported constants file extension %q", filepath.Ext(path))
	}
}

// DefaultConstants parses and validates the embedded research table.
func DefaultConstants() (*Constants, error) {
	return ParseConstants(embeddedConstants, FormatYAML)
}

// MustDefaultConstants is DefaultConstants for process start-up and tests;
// it panics when the embedded table is invalid.
func MustDefaultConstants() *Constants {
	c, err := DefaultConstants()
	if err != nil {
		panic(err)
	}
	return c
}

// EmbeddedConstantsYAML returns a copy of the embedded artifact.
func EmbeddedConstantsYAML() []byte {
	return bytes.Clone(embeddedConstants)
}

// ParseConstants decodes data in the given format and validates the result.
func ParseConstants(data []byte, format Format) (*Constants, error) {
	c := &Constants{}
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConstantsLoadFailed, "failed to decode constants yaml")
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConstantsLoadFailed, "failed to decode constants toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeConstantsLoadFailed, "unknown keys in constants toml").
				WithDetail(fmt.Sprint(undecoded))
		}
	default:
		return nil, errors.Newf(errors.ErrCodeConstantsLoadFailed, "unsupported constants format %q", format)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadConstantsFile reads a YAML or TOML constants artifact from disk.
func LoadConstantsFile(path string) (*Constants, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConstantsLoadFailed, "failed to read constants file").WithDetail(path)
	}
	return ParseConstants(data, format)
}

// LoadConstants returns the embedded table when path is empty and the file
// at path otherwise.
func LoadConstants(path string) (*Constants, error) {
	if path == "" {
		return DefaultConstants()
	}
	return LoadConstantsFile(path)
}

// Encode renders the table in the requested format.
func (c *Constants) Encode(format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode constants yaml")
		}
		_ = enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode constants toml")
		}
	default:
		return nil, errors.Newf(errors.ErrCodeSerialization, "unsupported constants format %q", format)
	}
	return buf.Bytes(), nil
}

// Clone returns a deep copy of c.  Writes to the copy never reach c.
func (c *Constants) Clone() *Constants {
	if c == nil {
		return nil
	}
	out := *c
	out.Research.TopEscalations = slices.Clone(c.Research.TopEscalations)
	out.Windows = maps.Clone(c.Windows)
	out.Preventability = maps.Clone(c.Preventability)
	out.PatternRisks = maps.Clone(c.PatternRisks)
	out.PatternDistribution = maps.Clone(c.PatternDistribution)
	out.Recommendations = maps.Clone(c.Recommendations)
	out.Confidence = maps.Clone(c.Confidence)
	out.ConfidenceBands = maps.Clone(c.ConfidenceBands)

	f := &out.Forecast
	f.AgeBands = slices.Clone(c.Forecast.AgeBands)
	f.PatternModifiers = maps.Clone(c.Forecast.PatternModifiers)
	f.PatternOffenseModifiers = clonePatternOffense(c.Forecast.PatternOffenseModifiers)
	f.TimeModifiers = slices.Clone(c.Forecast.TimeModifiers)
	f.ProbabilityModifiers = clonePatternOffense(c.Forecast.ProbabilityModifiers)
	f.OffenseLevels = slices.Clone(c.Forecast.OffenseLevels)

	iv := &out.Interventions
	iv.IntensityWeights = maps.Clone(c.Interventions.IntensityWeights)
	iv.UrgencyIntensity = maps.Clone(c.Interventions.UrgencyIntensity)
	iv.Catalog = maps.Clone(c.Interventions.Catalog)
	if c.Interventions.Base != nil {
		iv.Base = make(map[Level]BasePlan, len(c.Interventions.Base))
		for k, v := range c.Interventions.Base {
			v.Programs = slices.Clone(v.Programs)
			iv.Base[k] = v
		}
	}
	if c.Interventions.Offenses != nil {
		iv.Offenses = make(map[OffenseType]OffenseRemediation, len(c.Interventions.Offenses))
		for k, v := range c.Interventions.Offenses {
			v.Programs = slices.Clone(v.Programs)
			iv.Offenses[k] = v
		}
	}
	return &out
}

func clonePatternOffense(in []PatternOffenseModifier) []PatternOffenseModifier {
	if in == nil {
		return nil
	}
	out := make([]PatternOffenseModifier, len(in))
	for i, m := range in {
		m.Offenses = slices.Clone(m.Offenses)
		out[i] = m
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate checks every table invariant and returns an RSK_004 error
// describing the first violation.
func (c *Constants) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.New(errors.ErrCodeConstantsInvalid, "constants table is invalid").
			WithDetail(fmt.Sprintf(format, args...))
	}

	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > weightTolerance {
		return invalid("weights sum to %v, expected 1.0", sum)
	}
	for _, w := range []float64{c.Weights.Pattern, c.Weights.History, c.Weights.Time, c.Weights.Age, c.Weights.Social, c.Weights.Escalation} {
		if w < 0 {
			return invalid("negative weight %v", w)
		}
	}

	t := c.Thresholds
	if !(t.Critical > t.High && t.High > t.Medium && t.Medium > 0) {
		return invalid("thresholds must be strictly descending and positive, got %v/%v/%v", t.Critical, t.High, t.Medium)
	}

	for _, p := range AllPatterns {
		r, ok := c.PatternRisks[p]
		if !ok {
			return invalid("pattern %q has no risk value", p)
		}
		if r < 0 || r > 1 {
			return invalid("pattern %q risk %v outside [0, 1]", p, r)
		}
		if _, ok := c.PatternDistribution[p]; !ok {
			return invalid("pattern %q has no distribution share", p)
		}
		if _, ok := c.Forecast.PatternModifiers[p]; !ok {
			return invalid("pattern %q has no forecast modifier", p)
		}
	}
	if c.UnknownPatternRisk <= 0 || c.UnknownPatternRisk > 1 {
		return invalid("unknown_pattern_risk %v outside (0, 1]", c.UnknownPatternRisk)
	}
	if _, ok := c.Forecast.PatternModifiers[PatternUnknown]; !ok {
		return invalid("pattern %q has no forecast modifier", PatternUnknown)
	}
	var dist float64
	for _, share := range c.PatternDistribution {
		dist += share
	}
	if math.Abs(dist-100) > distributionTolerance {
		return invalid("pattern distribution sums to %v%%, expected 100%%", dist)
	}

	for _, o := range AllOffenseTypes {
		w, ok := c.Windows[o]
		if !ok {
			return invalid("offense %q has no time window", o)
		}
		if w <= 0 {
			return invalid("offense %q window %d must be positive", o, w)
		}
		pv, ok := c.Preventability[o]
		if !ok {
			return invalid("offense %q has no preventability", o)
		}
		if pv < 0 || pv > 100 {
			return invalid("offense %q preventability %v outside [0, 100]", o, pv)
		}
		conf, ok := c.Confidence[o]
		if !ok {
			return invalid("offense %q has no confidence label", o)
		}
		if _, ok := c.ConfidenceBands[conf]; !ok {
			return invalid("confidence %q has no band", conf)
		}
		rem, ok := c.Interventions.Offenses[o]
		if !ok || len(rem.Programs) == 0 {
			return invalid("offense %q has no intervention programs", o)
		}
		if rem.DurationDays <= 0 {
			return invalid("offense %q remediation duration must be positive", o)
		}
		if _, ok := c.Interventions.UrgencyIntensity[rem.Urgency]; !ok {
			return invalid("offense %q urgency %q has no intensity mapping", o, rem.Urgency)
		}
		for _, id := range rem.Programs {
			if _, ok := c.Interventions.Catalog[id]; !ok {
				return invalid("offense %q references unknown program %q", o, id)
			}
		}
	}

	for _, l := range AllLevels {
		if c.Recommendations[l] == "" {
			return invalid("level %q has no recommendation", l)
		}
		base, ok := c.Interventions.Base[l]
		if !ok {
			return invalid("level %q has no base plan", l)
		}
		if _, ok := c.Interventions.IntensityWeights[base.Intensity]; !ok {
			return invalid("level %q base intensity %q has no weight", l, base.Intensity)
		}
		for _, id := range base.Programs {
			p, ok := c.Interventions.Catalog[id]
			if !ok {
				return invalid("level %q references unknown program %q", l, id)
			}
			if p.DurationDays <= 0 {
				return invalid("base program %q needs a positive duration", id)
			}
		}
	}
	for _, in := range c.Interventions.UrgencyIntensity {
		if _, ok := c.Interventions.IntensityWeights[in]; !ok {
			return invalid("intensity %q has no weight", in)
		}
	}
	for id, p := range c.Interventions.Catalog {
		if p.Effectiveness < 0 || p.Effectiveness > 100 {
			return invalid("program %q effectiveness %v outside [0, 100]", id, p.Effectiveness)
		}
	}
	if c.Interventions.TopN < 1 {
		return invalid("interventions.top_n must be ≥ 1")
	}
	if c.Interventions.Decay <= 0 || c.Interventions.Decay > 1 {
		return invalid("interventions.decay %v outside (0, 1]", c.Interventions.Decay)
	}
	if c.Interventions.MaxReduction <= 0 || c.Interventions.MaxReduction > 100 {
		return invalid("interventions.max_reduction %v outside (0, 100]", c.Interventions.MaxReduction)
	}

	f := c.Forecast
	if f.MinDays < 1 || f.MaxDays < f.MinDays {
		return invalid("forecast day bounds [%d, %d] are invalid", f.MinDays, f.MaxDays)
	}
	if f.MinProbability < 0 || f.MaxProbability > 100 || f.MaxProbability < f.MinProbability {
		return invalid("forecast probability bounds [%v, %v] are invalid", f.MinProbability, f.MaxProbability)
	}
	for i := 1; i < len(f.AgeBands); i++ {
		if f.AgeBands[i].Below <= f.AgeBands[i-1].Below {
			return invalid("forecast age bands must be ascending")
		}
	}
	for i := 1; i < len(f.TimeModifiers); i++ {
		if f.TimeModifiers[i].BelowRatio <= f.TimeModifiers[i-1].BelowRatio {
			return invalid("forecast time modifiers must be ascending")
		}
	}
	for i, band := range f.OffenseLevels {
		if _, ok := ParseLevel(string(band.Level)); !ok {
			return invalid("forecast offense level %q is unknown", band.Level)
		}
		if i > 0 && band.BelowDays <= f.OffenseLevels[i-1].BelowDays {
			return invalid("forecast offense levels must be ascending")
		}
	}
	return nil
}

//Personal.AI order the ending
