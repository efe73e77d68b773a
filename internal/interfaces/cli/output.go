package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	appassessment "github.com/turtacn/recidivism-forecast/internal/application/assessment"
	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// Output formats accepted by --output.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
	OutputCSV   = "csv"
)

func validOutput(format string) error {
	switch strings.ToLower(format) {
	case OutputTable, OutputJSON, OutputYAML, OutputCSV:
		return nil
	default:
		return errors.InvalidParam("unsupported output format").
			WithDetail(fmt.Sprintf("%q (want table, json, yaml or csv)", format))
	}
}

// tabular is implemented by results that render as rows.
type tabular interface {
	TableHeaders() []string
	TableRows() [][]string
}

// table is a ready-made tabular value.
type table struct {
	headers []string
	rows    [][]string
}

func (t table) TableHeaders() []string { return t.headers }
func (t table) TableRows() [][]string  { return t.rows }

// render writes data to w in format.
func render(w io.Writer, format string, data interface{}) error {
	switch strings.ToLower(format) {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputYAML:
		// Round-trip through JSON so YAML keys follow the API field names.
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	case OutputCSV:
		t, ok := tabulate(data)
		if !ok {
			return errors.InvalidParam("result cannot be rendered as csv")
		}
		cw := csv.NewWriter(w)
		if err := cw.Write(t.TableHeaders()); err != nil {
			return err
		}
		if err := cw.WriteAll(t.TableRows()); err != nil {
			return err
		}
		return cw.Error()
	default:
		if t, ok := tabulate(data); ok {
			_, err := io.WriteString(w, FormatTable(t.TableHeaders(), t.TableRows()))
			return err
		}
		_, err := fmt.Fprintf(w, "%+v\n", data)
		return err
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tables
// ─────────────────────────────────────────────────────────────────────────────

func tabulate(data interface{}) (tabular, bool) {
	switch v := data.(type) {
	case tabular:
		return v, true
	case *appassessment.ScoreResult:
		return scoreTable(v.PersonID, v.Result), true
	case *appassessment.ForecastResult:
		return forecastTable(v.Forecasts), true
	case *risk.Plan:
		return planTable(v), true
	case *domainassessment.Assessment:
		return assessmentTable(v), true
	case *appassessment.BatchResult:
		return batchTable(v), true
	case *appassessment.StatisticsView:
		return statisticsTable(v), true
	default:
		return nil, false
	}
}

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func scoreTable(personID string, r risk.Result) table {
	c := r.Components
	return table{
		headers: []string{"FIELD", "VALUE"},
		rows: [][]string{
			{"person_id", personID},
			{"risk_score", f2(r.Score)},
			{"risk_level", string(r.Level)},
			{"pattern", f2(c.Pattern)},
			{"history", f2(c.History)},
			{"time", f2(c.Time)},
			{"age", f2(c.Age)},
			{"social", f2(c.Social)},
			{"escalation", f2(c.Escalation)},
			{"recommendation", r.Recommendation},
		},
	}
}

func forecastTable(entries []risk.ForecastEntry) table {
	t := table{headers: []string{"OFFENSE", "DAYS", "DATE", "PROBABILITY", "CONFIDENCE", "INTERVAL", "LEVEL", "PREVENTABILITY"}}
	for _, e := range entries {
		t.rows = append(t.rows, []string{
			string(e.Offense),
			strconv.Itoa(e.DaysUntil),
			e.PredictedDate.Format("2006-01-02"),
			f2(e.Probability),
			string(e.Confidence),
			fmt.Sprintf("%d-%d", e.ConfidenceInterval.Lower, e.ConfidenceInterval.Upper),
			string(e.Level),
			f2(e.Preventability),
		})
	}
	return t
}

func planTable(p *risk.Plan) table {
	t := table{headers: []string{"PROGRAM", "NAME", "CATEGORY", "DAYS", "INTENSITY", "EFFECTIVENESS", "OFFENSE"}}
	for _, pr := range p.Programs {
		t.rows = append(t.rows, []string{
			pr.ID, pr.Name, string(pr.Category), strconv.Itoa(pr.DurationDays),
			string(pr.Intensity), f2(pr.Effectiveness), string(pr.Offense),
		})
	}
	return t
}

func assessmentTable(a *domainassessment.Assessment) table {
	t := scoreTable(a.PersonID, a.Report.Risk)
	t.rows = append([][]string{{"assessment_id", a.ID}}, t.rows...)
	if ml := a.Report.MostLikely; ml != nil {
		t.rows = append(t.rows,
			[]string{"most_likely", string(ml.Offense)},
			[]string{"most_likely_days", strconv.Itoa(ml.DaysUntil)},
		)
	}
	t.rows = append(t.rows,
		[]string{"programs", strconv.Itoa(len(a.Report.Plan.Programs))},
		[]string{"monitoring", a.Report.Plan.Monitoring},
	)
	return t
}

func batchTable(b *appassessment.BatchResult) table {
	t := table{headers: []string{"INDEX", "PERSON", "SCORE", "LEVEL", "ERROR"}}
	for _, it := range b.Items {
		row := []string{strconv.Itoa(it.Index), it.PersonID, "", "", ""}
		if it.Assessment != nil {
			row[2] = f2(it.Assessment.Score())
			row[3] = string(it.Assessment.Level())
		}
		if it.Error != nil {
			row[4] = it.Error.Code + ": " + it.Error.Message
		}
		t.rows = append(t.rows, row)
	}
	return t
}

func statisticsTable(s *appassessment.StatisticsView) table {
	t := table{headers: []string{"SECTION", "KEY", "VALUE"}}
	t.rows = append(t.rows, []string{"constants", "version", s.Version})

	patterns := make([]string, 0, len(s.PatternDistribution))
	for p := range s.PatternDistribution {
		patterns = append(patterns, string(p))
	}
	sort.Strings(patterns)
	for _, p := range patterns {
		t.rows = append(t.rows, []string{"pattern", p, f2(s.PatternDistribution[risk.Pattern(p)])})
	}
	for _, w := range s.Windows {
		t.rows = append(t.rows, []string{"window", string(w.Offense), strconv.Itoa(w.AvgDays) + "d"})
	}
	levels := make([]string, 0, len(s.StoredByLevel))
	for l := range s.StoredByLevel {
		levels = append(levels, string(l))
	}
	sort.Strings(levels)
	for _, l := range levels {
		t.rows = append(t.rows, []string{"stored", l, strconv.FormatInt(s.StoredByLevel[risk.Level(l)], 10)})
	}
	return t
}

// FormatTable renders headers and rows as an aligned text table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range colWidths {
			if i > 0 {
				sb.WriteString("  ")
			}
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i == len(colWidths)-1 {
				sb.WriteString(cell)
			} else {
				sb.WriteString(padRight(cell, colWidths[i]))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(colWidths))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

//Personal.AI order the ending
