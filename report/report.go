// Package report renders comparison results as text, JSON and HTML.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"os"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/recomp/recomp/pkg/compare"
)

// Options controls report rendering.
type Options struct {
	// SampleCount caps the mismatched and unmatched rows shown per section.
	SampleCount int
}

// DefaultSampleCount is used when Options.SampleCount is zero.
const DefaultSampleCount = 10

// Generator renders a finished comparison into a byte payload.
type Generator interface {
	Generate(c *compare.Comparison, opts Options) ([]byte, error)
	SaveToFile(c *compare.Comparison, opts Options, path string) error
}

// -----------------------------
// JSON Report Generator
// -----------------------------

// JSONGenerator serializes the comparison summary.
type JSONGenerator struct{}

// Generate serializes the summary to indented JSON.
func (j *JSONGenerator) Generate(c *compare.Comparison, _ Options) ([]byte, error) {
	return json.MarshalIndent(c.Summary(), "", "  ")
}

// SaveToFile writes the JSON report to a file.
func (j *JSONGenerator) SaveToFile(c *compare.Comparison, opts Options, path string) error {
	data, err := j.Generate(c, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SummaryFromFile loads a previously saved JSON report.
func SummaryFromFile(path string) (compare.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return compare.Summary{}, err
	}
	var s compare.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return compare.Summary{}, err
	}
	return s, nil
}

// -----------------------------
// Text Report Generator
// -----------------------------

// TextGenerator renders the human-readable plain-text report.
type TextGenerator struct{}

const textTemplate = `Dataset Comparison
------------------

{{.Summary.LeftName}} vs {{.Summary.RightName}}
Generated: {{.GeneratedAt}}

Dataset Summary
---------------
  {{pad .Summary.LeftName .NameWidth}}  {{.Summary.LeftRows}} rows x {{.Summary.LeftColumns}} columns
  {{pad .Summary.RightName .NameWidth}}  {{.Summary.RightRows}} rows x {{.Summary.RightColumns}} columns

Column Summary
--------------
  Columns in common:            {{len .Summary.CommonColumns}}
  Columns only in {{pad .Summary.LeftName .NameWidth}}  {{len .Summary.LeftOnlyColumns}}
  Columns only in {{pad .Summary.RightName .NameWidth}}  {{len .Summary.RightOnlyColumns}}

Row Summary
-----------
{{if .Summary.OnIndex}}  Matched on:         row position{{else}}  Matched on:         {{join .Summary.JoinColumns ", "}}{{end}}
  Any duplicate keys: {{.Summary.AnyDuplicates}}
  Abs tolerance:      {{.Summary.AbsTol}}
  Rel tolerance:      {{.Summary.RelTol}}
  Rows in common:     {{.Summary.MatchedRows}}
  Rows only in {{pad .Summary.LeftName .NameWidth}}  {{.Summary.LeftOnlyRows}}
  Rows only in {{pad .Summary.RightName .NameWidth}}  {{.Summary.RightOnlyRows}}
  Rows with all compared columns equal:  {{.Summary.MatchingRows}}
  Rows with some compared columns unequal: {{.UnequalRows}}

Column Comparison
-----------------
  Columns compared:      {{len .Summary.ColumnStats}}
  Columns with all values equal:  {{.EqualColumns}}
  Columns with some values unequal: {{.UnequalColumns}}
{{if .Stats}}
{{.StatsTable}}{{end}}{{range .Samples}}
Sample Rows with Unequal Values: {{.Column}}
-------------------------------{{repeat "-" (len .Column)}}--
{{.Table}}
{{end}}{{if .LeftOnlyTable}}
Sample Rows Only in {{.Summary.LeftName}}
-------------------{{repeat "-" (len .Summary.LeftName)}}
{{.LeftOnlyTable}}
{{end}}{{if .RightOnlyTable}}
Sample Rows Only in {{.Summary.RightName}}
-------------------{{repeat "-" (len .Summary.RightName)}}
{{.RightOnlyTable}}
{{end}}
Result: {{if .Summary.Matches}}datasets MATCH{{else}}datasets DO NOT MATCH{{end}}
`

type columnSample struct {
	Column string
	Table  string
}

type textData struct {
	Summary        compare.Summary
	GeneratedAt    string
	NameWidth      int
	UnequalRows    int
	EqualColumns   int
	UnequalColumns int
	Stats          []compare.ColumnStat
	StatsTable     string
	Samples        []columnSample
	LeftOnlyTable  string
	RightOnlyTable string
}

// Generate renders the text report, including mismatch samples.
func (t *TextGenerator) Generate(c *compare.Comparison, opts Options) ([]byte, error) {
	sampleCount := opts.SampleCount
	if sampleCount <= 0 {
		sampleCount = DefaultSampleCount
	}

	summary := c.Summary()
	data := textData{
		Summary:     summary,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		UnequalRows: summary.MatchedRows - summary.MatchingRows,
		Stats:       summary.ColumnStats,
	}
	// Suffix the names with a colon and align the two summary lines.
	nameWidth := len(summary.LeftName)
	if len(summary.RightName) > nameWidth {
		nameWidth = len(summary.RightName)
	}
	data.NameWidth = nameWidth + 1

	for _, stat := range summary.ColumnStats {
		if stat.AllMatch {
			data.EqualColumns++
		} else {
			data.UnequalColumns++
		}
	}

	data.StatsTable = statsTable(summary.ColumnStats)

	for _, stat := range summary.ColumnStats {
		if stat.MismatchCount == 0 {
			continue
		}
		sample, err := c.SampleMismatch(stat.Column, sampleCount, true)
		if err != nil {
			return nil, fmt.Errorf("failed to sample column %s: %w", stat.Column, err)
		}
		table := recordTable(sample)
		sample.Release()
		data.Samples = append(data.Samples, columnSample{Column: stat.Column, Table: table})
	}

	data.LeftOnlyTable = headTable(c.LeftOnlyRows(), sampleCount)
	data.RightOnlyTable = headTable(c.RightOnlyRows(), sampleCount)

	tmpl, err := texttemplate.New("report").Funcs(texttemplate.FuncMap{
		"join":   strings.Join,
		"repeat": strings.Repeat,
		"pad": func(s string, width int) string {
			return fmt.Sprintf("%-*s", width, s+":")
		},
	}).Parse(textTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveToFile writes the text report to a file.
func (t *TextGenerator) SaveToFile(c *compare.Comparison, opts Options, path string) error {
	data, err := t.Generate(c, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// statsTable renders the per-column statistics as an aligned table.
func statsTable(stats []compare.ColumnStat) string {
	if len(stats) == 0 {
		return ""
	}
	headers := []string{"Column", "Left Type", "Right Type", "Matches", "Mismatches", "Null Diff", "Max Diff"}
	rows := make([][]string, len(stats))
	for i, s := range stats {
		rows[i] = []string{
			s.Column,
			s.LeftType,
			s.RightType,
			fmt.Sprintf("%d", s.MatchCount),
			fmt.Sprintf("%d", s.MismatchCount),
			fmt.Sprintf("%d", s.NullDiff),
			fmt.Sprintf("%g", s.MaxDiff),
		}
	}
	return renderTable(headers, rows)
}

// recordTable renders a record as an aligned text table, NULL for nulls.
func recordTable(rec arrow.Record) string {
	headers := make([]string, rec.NumCols())
	for i, field := range rec.Schema().Fields() {
		headers[i] = field.Name
	}
	rows := make([][]string, rec.NumRows())
	for i := 0; i < int(rec.NumRows()); i++ {
		row := make([]string, rec.NumCols())
		for j := 0; j < int(rec.NumCols()); j++ {
			col := rec.Column(j)
			if col.IsNull(i) {
				row[j] = "NULL"
			} else {
				row[j] = col.ValueStr(i)
			}
		}
		rows[i] = row
	}
	return renderTable(headers, rows)
}

// headTable renders the first n rows of a record, or "" when it is empty.
func headTable(rec arrow.Record, n int) string {
	if rec == nil || rec.NumRows() == 0 {
		return ""
	}
	if int64(n) > rec.NumRows() {
		n = int(rec.NumRows())
	}
	slice := rec.NewSlice(0, int64(n))
	defer slice.Release()
	return recordTable(slice)
}

// renderTable pads every column to its widest cell.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("  ")
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], cell)
		}
		b.WriteString("\n")
	}
	writeRow(headers)
	underline := make([]string, len(headers))
	for i := range headers {
		underline[i] = strings.Repeat("-", widths[i])
	}
	writeRow(underline)
	for _, row := range rows {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), "\n")
}

// -----------------------------
// HTML Report Generator
// -----------------------------

// HTMLGenerator renders a standalone HTML report page.
type HTMLGenerator struct{}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Comparison Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f4f4f4; }
        .status-pass { color: green; }
        .status-fail { color: red; }
    </style>
</head>
<body>
    <h1>Comparison Report</h1>
    <p><strong>Left:</strong> {{.LeftName}} ({{.LeftRows}} rows x {{.LeftColumns}} columns)</p>
    <p><strong>Right:</strong> {{.RightName}} ({{.RightRows}} rows x {{.RightColumns}} columns)</p>
    <p><strong>Result:</strong>
        {{if .Matches}}<span class="status-pass">MATCH</span>{{else}}<span class="status-fail">MISMATCH</span>{{end}}
    </p>

    <h2>Row Summary</h2>
    <table>
        <tr>
            <th>Matched On</th>
            <th>Rows in Common</th>
            <th>Fully Equal Rows</th>
            <th>Rows Only in {{.LeftName}}</th>
            <th>Rows Only in {{.RightName}}</th>
        </tr>
        <tr>
            <td>{{if .OnIndex}}row position{{else}}{{range $i, $c := .JoinColumns}}{{if $i}}, {{end}}{{$c}}{{end}}{{end}}</td>
            <td>{{.MatchedRows}}</td>
            <td>{{.MatchingRows}}</td>
            <td>{{.LeftOnlyRows}}</td>
            <td>{{.RightOnlyRows}}</td>
        </tr>
    </table>

    <h2>Column Summary</h2>
    <h3>Only in {{.LeftName}}:</h3>
    <ul>
        {{range .LeftOnlyColumns}}<li>{{.}}</li>{{else}}<li>None</li>{{end}}
    </ul>
    <h3>Only in {{.RightName}}:</h3>
    <ul>
        {{range .RightOnlyColumns}}<li>{{.}}</li>{{else}}<li>None</li>{{end}}
    </ul>

    <h2>Column Comparison</h2>
    <table>
        <tr>
            <th>Column</th>
            <th>Left Type</th>
            <th>Right Type</th>
            <th>Matches</th>
            <th>Mismatches</th>
            <th>Null Diff</th>
            <th>Max Diff</th>
            <th>Status</th>
        </tr>
        {{range .ColumnStats}}
        <tr>
            <td>{{.Column}}</td>
            <td>{{.LeftType}}</td>
            <td>{{.RightType}}</td>
            <td>{{.MatchCount}}</td>
            <td>{{.MismatchCount}}</td>
            <td>{{.NullDiff}}</td>
            <td>{{.MaxDiff}}</td>
            <td class="{{if .AllMatch}}status-pass{{else}}status-fail{{end}}">
                {{if .AllMatch}}PASS{{else}}FAIL{{end}}
            </td>
        </tr>
        {{end}}
    </table>

    <footer>
        <p>Tolerances: abs {{.AbsTol}}, rel {{.RelTol}}</p>
    </footer>
</body>
</html>
`

// Generate renders the HTML report from the comparison summary.
func (h *HTMLGenerator) Generate(c *compare.Comparison, _ Options) ([]byte, error) {
	tmpl, err := htmltemplate.New("report").Parse(htmlTemplate)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, c.Summary()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveToFile writes the HTML report to a file.
func (h *HTMLGenerator) SaveToFile(c *compare.Comparison, opts Options, path string) error {
	data, err := h.Generate(c, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Paths names the report files to produce; empty paths are skipped.
type Paths struct {
	Text string
	JSON string
	HTML string
}

// SaveReports writes every requested report format.
func SaveReports(c *compare.Comparison, opts Options, paths Paths) error {
	if paths.Text != "" {
		if err := (&TextGenerator{}).SaveToFile(c, opts, paths.Text); err != nil {
			return err
		}
	}
	if paths.JSON != "" {
		if err := (&JSONGenerator{}).SaveToFile(c, opts, paths.JSON); err != nil {
			return err
		}
	}
	if paths.HTML != "" {
		if err := (&HTMLGenerator{}).SaveToFile(c, opts, paths.HTML); err != nil {
			return err
		}
	}
	return nil
}
