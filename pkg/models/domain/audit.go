package domain

import "time"

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	case SeverityCritical:
		return "Critical"
	default:
		return "Low"
	}
}

type ResourceDef struct {
	Platform string
	Service  string
	Name     string
}

// Finding is a deterministic projection of posture/coverage/RPO evaluation.
// Findings are append-only output; nothing in the core reads them back.
type Finding struct {
	ID             string
	Severity       Severity
	Category       string
	Resource       ResourceDef
	Detail         string
	Recommendation string
}

type TimePeriod struct {
	Start    time.Time
	End      time.Time
	Duration int // in days
}

// AuditReport is everything one subscription scan produced. All slices hold
// one row per discovered entity, nulls included, so the exporter always
// receives a complete set.
type AuditReport struct {
	Subscription string
	GeneratedAt  time.Time
	Vaults       []VaultPosture
	Items        []ProtectedItem
	Coverage     []CoverageRecord
	Findings     []Finding
	Summary      map[string]any
}
