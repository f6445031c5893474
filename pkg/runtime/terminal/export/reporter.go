package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
)

type TableConfig struct {
	NameWidth   int
	ValueWidth  int
	StatusWidth int
	DetailWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:   36,
		ValueWidth:  22,
		StatusWidth: 14,
		DetailWidth: 60,
	}
}

// Reporter renders an audit report as console tables.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) Handle(report *domain.AuditReport) error {
	funcMap := template.FuncMap{
		"formatRow": func(name string, value interface{}, status string, detail string) string {
			return fmt.Sprintf("| %-*s | %-*v | %-*s | %-*s |",
				c.config.NameWidth, truncate(name, c.config.NameWidth),
				c.config.ValueWidth, value,
				c.config.StatusWidth, status,
				c.config.DetailWidth, truncate(detail, c.config.DetailWidth))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.StatusWidth+2),
				strings.Repeat("-", c.config.DetailWidth+2))
		},
		"cadence": func(item domain.ProtectedItem) string {
			if item.CadenceText == "" {
				return "unknown"
			}
			return item.CadenceText
		},
		"rpo": func(item domain.ProtectedItem) string {
			if item.ObservedRPOHours == nil {
				return "unknown"
			}
			return fmt.Sprintf("%.2fh (%s)", *item.ObservedRPOHours, item.RpoSource)
		},
		"covered": func(rec domain.CoverageRecord) string {
			if rec.Protected {
				return "protected"
			}
			return "UNPROTECTED"
		},
	}

	tmpl := `
Backup audit for subscription {{.Subscription}}
Generated: {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}
{{range $key, $value := .Summary}}
{{$key}}: {{$value}}
{{end}}
=== Vaults ===
{{separator}}
{{formatRow "Vault" "Redundancy" "Soft Delete" "Security Level"}}
{{separator}}
{{range .Vaults}}{{formatRow .Name .Redundancy (printf "%s" .SoftDelete) (printf "%s" .SecurityLevel)}}
{{end}}{{separator}}

=== Protected Items ===
{{separator}}
{{formatRow "Item" "Workload" "Cadence" "Observed RPO"}}
{{separator}}
{{range .Items}}{{formatRow .Name (printf "%s" .Workload) (cadence .) (rpo .)}}
{{end}}{{separator}}

=== Coverage ===
{{separator}}
{{formatRow "Resource" "Class" "Status" "Method"}}
{{separator}}
{{range .Coverage}}{{formatRow .Resource.Name (printf "%s" .Resource.Class) (covered .) .Method}}
{{end}}{{separator}}

=== Findings ===
{{if .Findings}}{{separator}}
{{formatRow "Finding" "Severity" "Category" "Detail"}}
{{separator}}
{{range .Findings}}{{formatRow .ID (printf "%s" .Severity) .Category .Detail}}
{{end}}{{separator}}
{{else}}No findings.
{{end}}`

	t, err := template.New("audit").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
