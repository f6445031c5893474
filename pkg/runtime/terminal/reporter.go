package terminal

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
)

// Reporter outputs audit reports to the console in a plain text form,
// findings first; the export reporter renders the full tables.
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a new console reporter
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(report *domain.AuditReport) error {
	tmpl := `
Backup audit: {{.Subscription}}
Generated: {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}
{{range $key, $value := .Summary}}
{{$key}}: {{$value}}
{{end}}
{{range .Findings}}
- [{{.Severity}}] {{.ID}} ({{.Category}})
  {{.Detail}}
  {{.Recommendation}}
{{end}}
`
	t, err := template.New("audit").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
