package protection

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Strategy is one discovery approach for a vault's protected items.
// ok=false and an empty result both hand off to the next strategy.
type Strategy struct {
	Name string
	List func(ctx context.Context) ([]domain.ProtectedItem, bool)
}

// Build runs the strategies in order and stops at the first non-empty
// result. Items are deduplicated into a case-insensitive source-resource-ID
// set; the set is what coverage evaluation consumes.
func Build(ctx context.Context, strategies []Strategy) ([]domain.ProtectedItem, *domain.ProtectedIDSet) {
	logger := zerolog.Ctx(ctx)
	set := domain.NewProtectedIDSet()

	for _, strategy := range strategies {
		items, ok := strategy.List(ctx)
		if !ok {
			logger.Warn().Str("strategy", strategy.Name).Msg("discovery strategy failed, trying next")
			continue
		}
		if len(items) == 0 {
			logger.Debug().Str("strategy", strategy.Name).Msg("discovery strategy empty, trying next")
			continue
		}
		for i := range items {
			items[i].DiscoveredBy = strategy.Name
			set.Add(items[i].SourceResourceID)
		}
		return items, set
	}
	return nil, set
}

// rawItem is the wire shape shared by the protected-item endpoints across
// API generations; absent fields stay zero.
type rawItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Properties struct {
		FriendlyName         string     `json:"friendlyName"`
		SourceResourceID     string     `json:"sourceResourceId"`
		VirtualMachineID     string     `json:"virtualMachineId"`
		PolicyID             string     `json:"policyId"`
		PolicyName           string     `json:"policyName"`
		ProtectionState      string     `json:"protectionState"`
		ProtectionStatus     string     `json:"protectionStatus"`
		LastBackupStatus     string     `json:"lastBackupStatus"`
		LastBackupTime       *time.Time `json:"lastBackupTime"`
		LastRecoveryPoint    *time.Time `json:"lastRecoveryPoint"`
		WorkloadType         string     `json:"workloadType"`
		BackupManagementType string     `json:"backupManagementType"`
		ContainerName        string     `json:"containerName"`
	} `json:"properties"`
}

// NormalizeItem maps one raw protected item onto the common shape,
// regardless of which strategy discovered it.
func NormalizeItem(raw json.RawMessage, vaultID, vaultName string) (domain.ProtectedItem, bool) {
	var r rawItem
	if err := json.Unmarshal(raw, &r); err != nil {
		return domain.ProtectedItem{}, false
	}
	if r.ID == "" && r.Name == "" {
		return domain.ProtectedItem{}, false
	}

	item := domain.ProtectedItem{
		VaultID:          vaultID,
		VaultName:        vaultName,
		Name:             firstNonEmpty(r.Properties.FriendlyName, r.Name),
		ContainerName:    r.Properties.ContainerName,
		PolicyID:         r.Properties.PolicyID,
		Workload:         classifyWorkload(r.Properties.WorkloadType, r.Properties.BackupManagementType),
		ProtectionState:  firstNonEmpty(r.Properties.ProtectionState, r.Properties.ProtectionStatus),
		LastBackupStatus: r.Properties.LastBackupStatus,
		LastBackupTime:   r.Properties.LastBackupTime,
		RpoSource:        domain.RpoSourceNone,
	}
	if item.LastBackupTime == nil {
		item.LastBackupTime = r.Properties.LastRecoveryPoint
	}

	source := firstNonEmpty(r.Properties.SourceResourceID, r.Properties.VirtualMachineID)
	if source == "" {
		// Some generations only embed the source in the item's own ID.
		source = r.ID
	}
	if id, ok := ExtractSourceID(source); ok {
		item.SourceResourceID = id
	} else {
		item.SourceResourceID = r.Properties.SourceResourceID
	}
	return item, true
}

// sourceIDPattern anchors on resource group + provider type rather than
// positional path splitting, so casing and path variation across API
// families cannot break extraction.
var sourceIDPattern = regexp.MustCompile(
	`(?i)(/subscriptions/[^/]+/resourceGroups/[^/]+/providers/[^/]+/[^/]+/[^/;]+)`)

// ExtractSourceID pulls the protected source's resource ID out of any
// string that embeds one.
func ExtractSourceID(s string) (string, bool) {
	m := sourceIDPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func classifyWorkload(workloadType, managementType string) domain.WorkloadClass {
	switch strings.ToLower(workloadType) {
	case "vm", "azureiaasvm", "virtualmachine":
		return domain.WorkloadVM
	case "sqldatabase", "saphanadatabase", "azuresqldb", "sqldb":
		return domain.WorkloadDatabase
	}
	switch strings.ToLower(managementType) {
	case "azureiaasvm":
		return domain.WorkloadVM
	case "azureworkload", "azuresql":
		return domain.WorkloadDatabase
	}
	return domain.WorkloadVM
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
