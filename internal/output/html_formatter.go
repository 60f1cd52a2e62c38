package output

import (
	"bytes"
	"html/template"

	"github.com/finsim/household-projector/internal/domain"
	"github.com/finsim/household-projector/internal/simulation"
)

// HTMLFormatter produces a standalone HTML report with the summary and the
// per-year table.
type HTMLFormatter struct{}

func (h HTMLFormatter) Name() string      { return "html" }
func (h HTMLFormatter) Extension() string { return "html" }

const htmlTemplateSource = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Household Projection{{if .Summary.Scenario}}: {{.Summary.Scenario}}{{end}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: right; }
th { background: #eee; }
.failed { color: #b00; }
</style>
</head>
<body>
<h1>Projection Summary</h1>
<p>Runs: {{.Summary.Runs}}. Success rate: {{pct .Summary.SuccessRate}}.</p>
{{if .Summary.FirstFailure}}<p class="failed">First failure at age {{.Summary.FirstFailure}}.</p>{{end}}
{{if .Assumptions}}<h2>Key Assumptions</h2>
<ul>{{range .Assumptions}}<li>{{.}}</li>{{end}}</ul>{{end}}
<h2>Years</h2>
<table>
<tr><th>Age</th><th>Year</th><th>Country</th><th>Net Income</th><th>Expenses</th><th>Tax</th><th>Cash</th><th>Pension</th><th>Worth</th></tr>
{{range .Rows}}<tr><td>{{.Age}}</td><td>{{.Year}}</td><td>{{.Country}}</td><td>{{money .NetIncome .Currency}}</td><td>{{money .Expenses .Currency}}</td><td>{{money .Tax .Currency}}</td><td>{{money .Cash .Currency}}</td><td>{{money .PensionFund .Currency}}</td><td>{{money .Worth .Currency}}</td></tr>
{{end}}</table>
</body>
</html>
`

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"money": FormatMoney,
	"pct":   FormatPercentage,
}).Parse(htmlTemplateSource))

func (h HTMLFormatter) Format(result *simulation.Result) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		Summary     Summary
		Assumptions []string
		Rows        []domain.DataRow
	}{Summarize(result), result.Assumptions, result.Average()}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
