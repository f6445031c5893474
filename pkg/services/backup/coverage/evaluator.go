package coverage

import (
	"fmt"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
)

// Thresholds are observed-RPO limits in hours for one workload class.
type Thresholds struct {
	WarningHours  float64 `mapstructure:"warning_hours"`
	CriticalHours float64 `mapstructure:"critical_hours"`
}

// Settings contains the configurable evaluation thresholds.
type Settings struct {
	VM       Thresholds `mapstructure:"vm"`
	Database Thresholds `mapstructure:"database"`
}

// DefaultSettings allows one missed daily VM backup (plus jitter) before
// warning; databases are expected to ship log backups far more often.
func DefaultSettings() Settings {
	return Settings{
		VM:       Thresholds{WarningHours: 26, CriticalHours: 72},
		Database: Thresholds{WarningHours: 2, CriticalHours: 24},
	}
}

func (s Settings) forClass(class domain.WorkloadClass) Thresholds {
	if class == domain.WorkloadDatabase {
		return s.Database
	}
	return s.VM
}

// Evaluate computes the per-inventory-item protection verdict by
// case-insensitive set difference. method names the discovery strategy the
// protected set came from.
func Evaluate(inventory []domain.InventoryResource, protected *domain.ProtectedIDSet, method string) []domain.CoverageRecord {
	records := make([]domain.CoverageRecord, 0, len(inventory))
	for _, res := range inventory {
		rec := domain.CoverageRecord{Resource: res}
		if protected != nil && protected.Contains(res.ID) {
			rec.Protected = true
			rec.Method = method
		}
		records = append(records, rec)
	}
	return records
}

// CoverageFindings projects uncovered inventory into findings. Pure and
// stateless; identical inputs yield identical output.
func CoverageFindings(records []domain.CoverageRecord) []domain.Finding {
	var findings []domain.Finding
	for _, rec := range records {
		if rec.Protected {
			continue
		}
		findings = append(findings, domain.Finding{
			ID:       fmt.Sprintf("%s_unprotected", rec.Resource.Name),
			Severity: domain.SeverityHigh,
			Category: "coverage",
			Resource: domain.ResourceDef{
				Platform: "Azure",
				Service:  string(rec.Resource.Class),
				Name:     rec.Resource.Name,
			},
			Detail:         fmt.Sprintf("%s is not enrolled in any backup vault.", rec.Resource.Name),
			Recommendation: "Enable backup protection or record an accepted exception.",
		})
	}
	return findings
}

// RPOFinding compares an item's observed RPO against the thresholds for
// its workload class. Both boundaries are inclusive: observed exactly at
// critical is High, exactly at warning is Medium. Unknown RPO yields no
// finding; absence means unknown, never zero.
func RPOFinding(item domain.ProtectedItem, settings Settings) (domain.Finding, bool) {
	if item.ObservedRPOHours == nil {
		return domain.Finding{}, false
	}
	limits := settings.forClass(item.Workload)
	observed := *item.ObservedRPOHours

	var severity domain.Severity
	switch {
	case observed >= limits.CriticalHours:
		severity = domain.SeverityHigh
	case observed >= limits.WarningHours:
		severity = domain.SeverityMedium
	default:
		return domain.Finding{}, false
	}

	return domain.Finding{
		ID:       fmt.Sprintf("%s_rpo_exceeded", item.Name),
		Severity: severity,
		Category: "rpo",
		Resource: domain.ResourceDef{
			Platform: "Azure",
			Service:  string(item.Workload),
			Name:     item.Name,
		},
		Detail: fmt.Sprintf("Observed RPO is %.2f hours against a %.0fh warning / %.0fh critical limit.",
			observed, limits.WarningHours, limits.CriticalHours),
		Recommendation: "Check recent backup job health and tighten the backup schedule if the exposure is not acceptable.",
	}, true
}

// PostureFindings projects weak vault posture into findings.
func PostureFindings(v domain.VaultPosture) []domain.Finding {
	var findings []domain.Finding
	if v.SoftDelete == domain.SoftDeleteDisabled {
		findings = append(findings, domain.Finding{
			ID:       fmt.Sprintf("%s_soft_delete_disabled", v.Name),
			Severity: domain.SeverityMedium,
			Category: "posture",
			Resource: domain.ResourceDef{Platform: "Azure", Service: "RecoveryServices", Name: v.Name},
			Detail:   "Soft delete is disabled; deleted backup data is unrecoverable immediately.",
			Recommendation: "Enable soft delete so deleted backup data is retained for the grace period.",
		})
	}
	if v.SecurityLevel == domain.SecurityLevelStandard {
		findings = append(findings, domain.Finding{
			ID:       fmt.Sprintf("%s_standard_security", v.Name),
			Severity: domain.SeverityLow,
			Category: "posture",
			Resource: domain.ResourceDef{Platform: "Azure", Service: "RecoveryServices", Name: v.Name},
			Detail:   "Vault security level is Standard; neither soft delete, MUA nor hybrid security is active.",
			Recommendation: "Enable multi-user authorization or soft delete to reach the Enhanced level.",
		})
	}
	return findings
}
