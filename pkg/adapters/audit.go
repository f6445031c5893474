package adapters

import (
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/api"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
)

func MapSeverityDomainToApi(s domain.Severity) api.Severity {
	switch s {
	case domain.SeverityLow:
		return api.SeverityLow
	case domain.SeverityMedium:
		return api.SeverityMedium
	case domain.SeverityHigh:
		return api.SeverityHigh
	case domain.SeverityCritical:
		return api.SeverityCritical
	default:
		return api.SeverityLow
	}
}

func MapVaultPostureDomainToApi(v domain.VaultPosture) api.VaultPosture {
	return api.VaultPosture{
		Id:                       v.ID,
		Name:                     v.Name,
		Subscription:             v.Subscription,
		ResourceGroup:            v.ResourceGroup,
		Location:                 v.Location,
		VaultType:                v.VaultType,
		Redundancy:               v.Redundancy,
		CrossRegionRestore:       v.CrossRegionRestore,
		CrossSubscriptionRestore: v.CrossSubscriptionRestore,
		SoftDelete:               string(v.SoftDelete),
		SoftDeleteRetentionDays:  v.SoftDeleteRetentionDays,
		MultiUserAuth:            v.MultiUserAuth,
		Immutability:             v.Immutability,
		SecurityLevel:            string(v.SecurityLevel),
	}
}

func MapProtectedItemDomainToApi(p domain.ProtectedItem) api.ProtectedItem {
	return api.ProtectedItem{
		VaultName:         p.VaultName,
		Name:              p.Name,
		SourceResourceId:  p.SourceResourceID,
		PolicyId:          p.PolicyID,
		Workload:          string(p.Workload),
		ProtectionState:   p.ProtectionState,
		LastBackupTime:    p.LastBackupTime,
		ConfiguredCadence: p.CadenceText,
		ObservedRpoHours:  p.ObservedRPOHours,
		RpoSource:         string(p.RpoSource),
	}
}

func MapCoverageRecordDomainToApi(c domain.CoverageRecord) api.CoverageRecord {
	return api.CoverageRecord{
		ResourceId:    c.Resource.ID,
		ResourceName:  c.Resource.Name,
		ResourceGroup: c.Resource.ResourceGroup,
		Class:         string(c.Resource.Class),
		Protected:     c.Protected,
		Method:        c.Method,
	}
}

func MapFindingDomainToApi(f domain.Finding) api.Finding {
	return api.Finding{
		Id:       f.ID,
		Severity: MapSeverityDomainToApi(f.Severity),
		Category: f.Category,
		Resource: api.ResourceDef{
			Platform: f.Resource.Platform,
			Service:  f.Resource.Service,
			Name:     f.Resource.Name,
		},
		Detail:         f.Detail,
		Recommendation: f.Recommendation,
	}
}

func MapAuditReportDomainToApi(r domain.AuditReport) api.AuditReport {
	res := api.AuditReport{
		Subscription: r.Subscription,
		GeneratedAt:  r.GeneratedAt,
		Vaults:       make([]api.VaultPosture, 0, len(r.Vaults)),
		Items:        make([]api.ProtectedItem, 0, len(r.Items)),
		Coverage:     make([]api.CoverageRecord, 0, len(r.Coverage)),
		Findings:     make([]api.Finding, 0, len(r.Findings)),
		Summary:      map[string]any{},
	}
	for k, v := range r.Summary {
		res.Summary[k] = v
	}
	for _, v := range r.Vaults {
		res.Vaults = append(res.Vaults, MapVaultPostureDomainToApi(v))
	}
	for _, p := range r.Items {
		res.Items = append(res.Items, MapProtectedItemDomainToApi(p))
	}
	for _, c := range r.Coverage {
		res.Coverage = append(res.Coverage, MapCoverageRecordDomainToApi(c))
	}
	for _, f := range r.Findings {
		res.Findings = append(res.Findings, MapFindingDomainToApi(f))
	}
	return res
}
