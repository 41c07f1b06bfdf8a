package report

import (
	"bytes"
	"fmt"
	"html/template"

	"feed-formulator/internal/core/formulation"
)

// blendReport feeds the HTML template.
type blendReport struct {
	Species   string
	Nutrition string
	TotalCost string
	Blends    []formulation.BatchBlend
}

var reportTemplate = template.Must(template.New("blend").Funcs(template.FuncMap{
	"kg":  func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"pct": func(v float64) string { return fmt.Sprintf("%.1f", v*100) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Feed Blend Recommendation</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #444; padding: 4px 10px; text-align: left; }
caption { font-weight: bold; text-align: left; padding: 6px 0; }
</style>
</head>
<body>
<h1>Feed Blend Recommendation</h1>
<p>Species: {{.Species}}</p>
<p>Realized nutrition: {{.Nutrition}}</p>
{{if .TotalCost}}<p>Blend cost per kg: {{.TotalCost}}</p>{{end}}
{{range .Blends}}
<table>
<caption>{{kg .BatchSizeKg}} kg batch</caption>
<tr><th>Ingredient</th><th>Amount (kg)</th><th>Share (%)</th></tr>
{{- range .Items}}
{{- if gt .AmountKg 0.0}}
<tr><td>{{.Ingredient}}</td><td>{{kg .AmountKg}}</td><td>{{pct .Proportion}}</td></tr>
{{- end}}
{{- end}}
</table>
{{end}}
</body>
</html>
`))

// HTML renders a formulation result as a standalone HTML document with one
// table per batch size. Zero-amount lines are omitted.
func HTML(result *formulation.Result) ([]byte, error) {
	data := blendReport{
		Species:   result.Species,
		Nutrition: result.Nutrition.Format(),
		Blends:    result.Blends,
	}
	if result.TotalCost != nil {
		data.TotalCost = fmt.Sprintf("%.2f", *result.TotalCost)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render blend report: %w", err)
	}
	return buf.Bytes(), nil
}
