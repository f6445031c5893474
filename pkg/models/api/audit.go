package api

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type Subscription struct {
	Id string `json:"id"`
}

type VaultPosture struct {
	Id                       string `json:"id"`
	Name                     string `json:"name"`
	Subscription             string `json:"subscription"`
	ResourceGroup            string `json:"resource_group"`
	Location                 string `json:"location"`
	VaultType                string `json:"vault_type"`
	Redundancy               string `json:"redundancy,omitempty"`
	CrossRegionRestore       *bool  `json:"cross_region_restore,omitempty"`
	CrossSubscriptionRestore *bool  `json:"cross_subscription_restore,omitempty"`
	SoftDelete               string `json:"soft_delete,omitempty"`
	SoftDeleteRetentionDays  *int   `json:"soft_delete_retention_days,omitempty"`
	MultiUserAuth            *bool  `json:"multi_user_auth,omitempty"`
	Immutability             string `json:"immutability,omitempty"`
	SecurityLevel            string `json:"security_level"`
}

type ProtectedItem struct {
	VaultName        string     `json:"vault_name"`
	Name             string     `json:"name"`
	SourceResourceId string     `json:"source_resource_id"`
	PolicyId         string     `json:"policy_id,omitempty"`
	Workload         string     `json:"workload"`
	ProtectionState  string     `json:"protection_state,omitempty"`
	LastBackupTime   *time.Time `json:"last_backup_time,omitempty"`
	ConfiguredCadence string    `json:"configured_cadence,omitempty"`
	ObservedRpoHours *float64   `json:"observed_rpo_hours,omitempty"`
	RpoSource        string     `json:"rpo_source"`
}

type CoverageRecord struct {
	ResourceId    string `json:"resource_id"`
	ResourceName  string `json:"resource_name"`
	ResourceGroup string `json:"resource_group"`
	Class         string `json:"class"`
	Protected     bool   `json:"protected"`
	Method        string `json:"method,omitempty"`
}

type Finding struct {
	Id             string      `json:"id"`
	Severity       Severity    `json:"severity"`
	Category       string      `json:"category"`
	Resource       ResourceDef `json:"resource"`
	Detail         string      `json:"detail"`
	Recommendation string      `json:"recommendation,omitempty"`
}

type ResourceDef struct {
	Platform string `json:"platform"`
	Service  string `json:"service"`
	Name     string `json:"name"`
}

type AuditReport struct {
	Subscription string           `json:"subscription"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Vaults       []VaultPosture   `json:"vaults"`
	Items        []ProtectedItem  `json:"items"`
	Coverage     []CoverageRecord `json:"coverage"`
	Findings     []Finding        `json:"findings"`
	Summary      map[string]any   `json:"summary"`
}
