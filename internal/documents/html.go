package documents

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/summary.html
var templateFS embed.FS

var summaryTemplate = template.Must(
	template.New("summary.html").
		Funcs(template.FuncMap{"money": formatMoney}).
		ParseFS(templateFS, "templates/summary.html"),
)

// RenderSummaryHTML renders the print view of the policy summary.
func RenderSummaryHTML(data SummaryData) ([]byte, error) {
	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render summary html: %w", err)
	}
	return buf.Bytes(), nil
}
