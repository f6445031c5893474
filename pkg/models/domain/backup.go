package domain

import (
	"strings"
	"time"
)

// SoftDeleteState is the normalized soft-delete vocabulary. The management
// API spells this three different ways across vault generations
// (On/Off, Enabled/Disabled, AlwaysON); everything is mapped here before
// any evaluation happens.
type SoftDeleteState string

const (
	SoftDeleteUnknown  SoftDeleteState = ""
	SoftDeleteDisabled SoftDeleteState = "Disabled"
	SoftDeleteEnabled  SoftDeleteState = "Enabled"
	SoftDeleteAlwaysOn SoftDeleteState = "AlwaysOn"
)

// NormalizeSoftDelete maps the raw wire vocabulary onto SoftDeleteState.
func NormalizeSoftDelete(raw string) SoftDeleteState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "enabled":
		return SoftDeleteEnabled
	case "off", "disabled":
		return SoftDeleteDisabled
	case "alwayson":
		return SoftDeleteAlwaysOn
	default:
		return SoftDeleteUnknown
	}
}

type SecurityLevel string

const (
	SecurityLevelStandard SecurityLevel = "Standard"
	SecurityLevelEnhanced SecurityLevel = "Enhanced"
)

// VaultPosture is the merged security/configuration state of one Recovery
// Services or Backup vault, assembled once per run.
type VaultPosture struct {
	ID                       string
	Name                     string
	Subscription             string
	ResourceGroup            string
	Location                 string
	VaultType                string
	Redundancy               string
	CrossRegionRestore       *bool
	CrossSubscriptionRestore *bool
	SoftDelete               SoftDeleteState
	SoftDeleteRetentionDays  *int
	MultiUserAuth            *bool
	HybridSecurity           *bool
	Immutability             string
	SecurityLevel            SecurityLevel
}

// DeriveSecurityLevel recomputes the level from resolved fields. It is never
// merged across endpoints; a stale partial derivation must not survive.
func (v *VaultPosture) DeriveSecurityLevel() {
	enhanced := v.SoftDelete == SoftDeleteEnabled || v.SoftDelete == SoftDeleteAlwaysOn
	if v.MultiUserAuth != nil && *v.MultiUserAuth {
		enhanced = true
	}
	if v.HybridSecurity != nil && *v.HybridSecurity {
		enhanced = true
	}
	if enhanced {
		v.SecurityLevel = SecurityLevelEnhanced
	} else {
		v.SecurityLevel = SecurityLevelStandard
	}
}

// RpoSource identifies how a recovery point objective was determined.
type RpoSource string

const (
	RpoSourcePolicy         RpoSource = "Policy"
	RpoSourceRecoveryPoints RpoSource = "RecoveryPoints"
	RpoSourcePITR           RpoSource = "PITR"
	RpoSourceNone           RpoSource = "None"
)

// WorkloadClass distinguishes threshold and preference behavior per kind
// of protected workload.
type WorkloadClass string

const (
	WorkloadVM       WorkloadClass = "VM"
	WorkloadDatabase WorkloadClass = "Database"
)

// ScheduleInfo is the resolved backup schedule for a protected item.
// Cadence is the effective interval; database workloads additionally carry
// per-kind cadences. CadenceText is derived display text, never authoritative.
type ScheduleInfo struct {
	Cadence      *time.Duration
	Window       *time.Duration
	Full         *time.Duration
	Differential *time.Duration
	Log          *time.Duration
}

// ProtectedItem is one VM or database enrolled in a vault's coverage,
// keyed by its normalized source resource ID.
type ProtectedItem struct {
	VaultID          string
	VaultName        string
	Name             string
	ContainerName    string
	SourceResourceID string
	PolicyID         string
	Workload         WorkloadClass
	ProtectionState  string
	LastBackupStatus string
	LastBackupTime   *time.Time
	Schedule         ScheduleInfo
	CadenceText      string
	ObservedRPOHours *float64
	RpoSource        RpoSource
	DiscoveredBy     string
}

// ProtectedIDSet is a case-insensitive set of source resource IDs. It is the
// only accumulator shared across discovery strategies; writers run on one
// logical thread, so no locking.
type ProtectedIDSet struct {
	ids map[string]string
}

func NewProtectedIDSet() *ProtectedIDSet {
	return &ProtectedIDSet{ids: make(map[string]string)}
}

// Add records an ID, preserving the first-seen original casing.
func (s *ProtectedIDSet) Add(id string) {
	if id == "" {
		return
	}
	key := strings.ToLower(id)
	if _, ok := s.ids[key]; !ok {
		s.ids[key] = id
	}
}

func (s *ProtectedIDSet) Contains(id string) bool {
	_, ok := s.ids[strings.ToLower(id)]
	return ok
}

func (s *ProtectedIDSet) Len() int {
	return len(s.ids)
}

// IDs returns the original-cased members in unspecified order.
func (s *ProtectedIDSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, id)
	}
	return out
}
