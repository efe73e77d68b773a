package risk

import (
	"fmt"
	"strings"

	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// Age limits accepted for current age and age at first violation.
const (
	MinAge = 14
	MaxAge = 100

	// DefaultDaysSinceLast is assumed when the caller omits the value.
	DefaultDaysSinceLast = 365
)

// Profile is the validated, domain-level description of a person.
type Profile struct {
	PersonID        string  `json:"person_id,omitempty"`
	Pattern         Pattern `json:"pattern_type"`
	RawPattern      string  `json:"-"`
	TotalCases      int     `json:"total_cases"`
	CriminalCount   int     `json:"criminal_count"`
	AdminCount      int     `json:"admin_count"`
	DaysSinceLast   int     `json:"days_since_last"`
	RecidivismRate  float64 `json:"recidivism_rate"`
	Age             int     `json:"current_age"`
	AgeAtFirst      int     `json:"age_at_first_violation"`
	HasProperty     bool    `json:"has_property"`
	HasJob          bool    `json:"has_job"`
	HasFamily       bool    `json:"has_family"`
	SubstanceAbuse  bool    `json:"substance_abuse"`
	HasEscalation   bool    `json:"has_escalation"`
	AdminToCriminal int     `json:"admin_to_criminal"`
}

// Validate enforces the profile invariants.  It returns an RSK_001 error
// listing every violated rule.
func (p Profile) Validate() error {
	var problems []string
	for _, f := range []struct {
		name string
		v    int
	}{
		{"total_cases", p.TotalCases},
		{"criminal_count", p.CriminalCount},
		{"admin_count", p.AdminCount},
		{"days_since_last", p.DaysSinceLast},
		{"admin_to_criminal", p.AdminToCriminal},
	} {
		if f.v < 0 {
			problems = append(problems, fmt.Sprintf("%s must be ≥ 0, got %d", f.name, f.v))
		}
	}
	if p.RecidivismRate < 0 {
		problems = append(problems, fmt.Sprintf("recidivism_rate must be ≥ 0, got %v", p.RecidivismRate))
	}
	if p.CriminalCount+p.AdminCount > p.TotalCases {
		problems = append(problems, fmt.Sprintf("criminal_count + admin_count (%d) exceeds total_cases (%d)",
			p.CriminalCount+p.AdminCount, p.TotalCases))
	}
	if p.Age < MinAge || p.Age > MaxAge {
		problems = append(problems, fmt.Sprintf("current_age %d outside [%d, %d]", p.Age, MinAge, MaxAge))
	}
	if p.AgeAtFirst < MinAge || p.AgeAtFirst > MaxAge {
		problems = append(problems, fmt.Sprintf("age_at_first_violation %d outside [%d, %d]", p.AgeAtFirst, MinAge, MaxAge))
	}
	if p.AgeAtFirst > p.Age {
		problems = append(problems, fmt.Sprintf("age_at_first_violation %d exceeds current_age %d", p.AgeAtFirst, p.Age))
	}
	if len(problems) > 0 {
		return errors.InvalidProfile("invalid person profile").WithDetail(strings.Join(problems, "; "))
	}
	return nil
}

// ProfileInput is the wire form of a profile.  Binary indicators are 0/1
// integers and optional fields are pointers so that omitted values can be
// defaulted.
type ProfileInput struct {
	PersonID        string  `json:"person_id,omitempty" yaml:"person_id,omitempty" toml:"person_id,omitempty"`
	PatternType     string  `json:"pattern_type" yaml:"pattern_type" toml:"pattern_type"`
	TotalCases      int     `json:"total_cases" yaml:"total_cases" toml:"total_cases"`
	CriminalCount   int     `json:"criminal_count" yaml:"criminal_count" toml:"criminal_count"`
	AdminCount      int     `json:"admin_count" yaml:"admin_count" toml:"admin_count"`
	DaysSinceLast   *int    `json:"days_since_last,omitempty" yaml:"days_since_last,omitempty" toml:"days_since_last,omitempty"`
	RecidivismRate  float64 `json:"recidivism_rate" yaml:"recidivism_rate" toml:"recidivism_rate"`
	CurrentAge      int     `json:"current_age" yaml:"current_age" toml:"current_age"`
	AgeAtFirst      *int    `json:"age_at_first_violation,omitempty" yaml:"age_at_first_violation,omitempty" toml:"age_at_first_violation,omitempty"`
	HasProperty     int     `json:"has_property" yaml:"has_property" toml:"has_property"`
	HasJob          int     `json:"has_job" yaml:"has_job" toml:"has_job"`
	HasFamily       int     `json:"has_family" yaml:"has_family" toml:"has_family"`
	SubstanceAbuse  int     `json:"substance_abuse" yaml:"substance_abuse" toml:"substance_abuse"`
	HasEscalation   int     `json:"has_escalation" yaml:"has_escalation" toml:"has_escalation"`
	AdminToCriminal int     `json:"admin_to_criminal" yaml:"admin_to_criminal" toml:"admin_to_criminal"`
}

// ToProfile applies defaults, checks the binary indicators and returns a
// validated Profile.
//
// Defaults: days_since_last 365, age_at_first_violation = current_age, and
// when admin_count is 0 while criminal_count < total_cases the remainder is
// attributed to administrative cases.
func (in ProfileInput) ToProfile() (Profile, error) {
	var problems []string
	flag := func(name string, v int) bool {
		if v != 0 && v != 1 {
			problems = append(problems, fmt.Sprintf("%s must be 0 or 1, got %d", name, v))
		}
		return v == 1
	}

	pattern, _ := ParsePattern(strings.TrimSpace(in.PatternType))
	p := Profile{
		PersonID:        in.PersonID,
		Pattern:         pattern,
		RawPattern:      in.PatternType,
		TotalCases:      in.TotalCases,
		CriminalCount:   in.CriminalCount,
		AdminCount:      in.AdminCount,
		DaysSinceLast:   DefaultDaysSinceLast,
		RecidivismRate:  in.RecidivismRate,
		Age:             in.CurrentAge,
		AgeAtFirst:      in.CurrentAge,
		HasProperty:     flag("has_property", in.HasProperty),
		HasJob:          flag("has_job", in.HasJob),
		HasFamily:       flag("has_family", in.HasFamily),
		SubstanceAbuse:  flag("substance_abuse", in.SubstanceAbuse),
		HasEscalation:   flag("has_escalation", in.HasEscalation),
		AdminToCriminal: in.AdminToCriminal,
	}
	if in.DaysSinceLast != nil {
		p.DaysSinceLast = *in.DaysSinceLast
	}
	if in.AgeAtFirst != nil {
		p.AgeAtFirst = *in.AgeAtFirst
	}
	if p.AdminCount == 0 && p.CriminalCount >= 0 && p.CriminalCount < p.TotalCases {
		p.AdminCount = p.TotalCases - p.CriminalCount
	}

	if len(problems) > 0 {
		return Profile{}, errors.InvalidProfile("invalid person profile").WithDetail(strings.Join(problems, "; "))
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Input converts a Profile back to its wire form.
func (p Profile) Input() ProfileInput {
	b := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	days, first := p.DaysSinceLast, p.AgeAtFirst
	raw := p.RawPattern
	if raw == "" {
		raw = string(p.Pattern)
	}
	return ProfileInput{
		PersonID:        p.PersonID,
		PatternType:     raw,
		TotalCases:      p.TotalCases,
		CriminalCount:   p.CriminalCount,
		AdminCount:      p.AdminCount,
		DaysSinceLast:   &days,
		RecidivismRate:  p.RecidivismRate,
		CurrentAge:      p.Age,
		AgeAtFirst:      &first,
		HasProperty:     b(p.HasProperty),
		HasJob:          b(p.HasJob),
		HasFamily:       b(p.HasFamily),
		SubstanceAbuse:  b(p.SubstanceAbuse),
		HasEscalation:   b(p.HasEscalation),
		AdminToCriminal: p.AdminToCriminal,
	}
}

//Personal.AI order the ending
