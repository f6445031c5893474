package posture

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Partial is one endpoint's view of a vault. Nil means the endpoint did not
// state a value, which is different from stating a disabled one.
type Partial struct {
	Redundancy               *string
	CrossRegionRestore       *bool
	CrossSubscriptionRestore *bool
	SoftDelete               *string
	SoftDeleteRetentionDays  *int
	MultiUserAuth            *bool
	HybridSecurity           *bool
	Immutability             *string
}

// Source fetches one endpoint's view, in decreasing authority order.
// ok=false means the endpoint was unreachable or unparseable.
type Source func(ctx context.Context) (Partial, bool)

// Resolve folds the sources into one posture: the first non-null value per
// field wins, later sources only fill gaps. The fold stops early once the
// core field set has resolved. SecurityLevel is always recomputed at the
// end from resolved fields, never merged, so a stale partial derivation
// cannot survive.
func Resolve(ctx context.Context, base domain.VaultPosture, sources []Source) domain.VaultPosture {
	logger := zerolog.Ctx(ctx)
	merged := Partial{}

	for i, source := range sources {
		if complete(merged) {
			break
		}
		p, ok := source(ctx)
		if !ok {
			logger.Debug().Str("vault", base.Name).Int("source", i).
				Msg("posture source unavailable")
			continue
		}
		fill(&merged, p)
	}

	out := base
	if merged.Redundancy != nil {
		out.Redundancy = *merged.Redundancy
	}
	out.CrossRegionRestore = merged.CrossRegionRestore
	out.CrossSubscriptionRestore = merged.CrossSubscriptionRestore
	if merged.SoftDelete != nil {
		out.SoftDelete = domain.NormalizeSoftDelete(*merged.SoftDelete)
	}
	out.SoftDeleteRetentionDays = merged.SoftDeleteRetentionDays
	out.MultiUserAuth = merged.MultiUserAuth
	out.HybridSecurity = merged.HybridSecurity
	if merged.Immutability != nil {
		out.Immutability = *merged.Immutability
	}
	out.DeriveSecurityLevel()
	return out
}

// complete reports whether the fields worth another network round trip
// have all resolved.
func complete(p Partial) bool {
	return p.SoftDelete != nil &&
		p.SoftDeleteRetentionDays != nil &&
		p.Redundancy != nil &&
		p.CrossSubscriptionRestore != nil
}

func fill(dst *Partial, src Partial) {
	if dst.Redundancy == nil {
		dst.Redundancy = src.Redundancy
	}
	if dst.CrossRegionRestore == nil {
		dst.CrossRegionRestore = src.CrossRegionRestore
	}
	if dst.CrossSubscriptionRestore == nil {
		dst.CrossSubscriptionRestore = src.CrossSubscriptionRestore
	}
	if dst.SoftDelete == nil {
		dst.SoftDelete = src.SoftDelete
	}
	if dst.SoftDeleteRetentionDays == nil {
		dst.SoftDeleteRetentionDays = src.SoftDeleteRetentionDays
	}
	if dst.MultiUserAuth == nil {
		dst.MultiUserAuth = src.MultiUserAuth
	}
	if dst.HybridSecurity == nil {
		dst.HybridSecurity = src.HybridSecurity
	}
	if dst.Immutability == nil {
		dst.Immutability = src.Immutability
	}
}

// vaultRootDoc is the newest, richest shape: the vault resource itself.
type vaultRootDoc struct {
	Properties struct {
		RedundancySettings struct {
			StandardTierStorageRedundancy string `json:"standardTierStorageRedundancy"`
			CrossRegionRestore            string `json:"crossRegionRestore"`
		} `json:"redundancySettings"`
		SecuritySettings struct {
			SoftDeleteSettings struct {
				SoftDeleteState                 string `json:"softDeleteState"`
				SoftDeleteRetentionPeriodInDays *int   `json:"softDeleteRetentionPeriodInDays"`
			} `json:"softDeleteSettings"`
			MultiUserAuthorization string `json:"multiUserAuthorization"`
			ImmutabilitySettings   struct {
				State string `json:"state"`
			} `json:"immutabilitySettings"`
		} `json:"securitySettings"`
		RestoreSettings struct {
			CrossSubscriptionRestoreSettings struct {
				CrossSubscriptionRestoreState string `json:"crossSubscriptionRestoreState"`
			} `json:"crossSubscriptionRestoreSettings"`
		} `json:"restoreSettings"`
	} `json:"properties"`
}

// ParseVaultRoot adapts the vault root properties into a Partial.
func ParseVaultRoot(body []byte) (Partial, bool) {
	var doc vaultRootDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return Partial{}, false
	}
	p := Partial{}
	props := doc.Properties
	if props.RedundancySettings.StandardTierStorageRedundancy != "" {
		p.Redundancy = strPtr(props.RedundancySettings.StandardTierStorageRedundancy)
	}
	if props.RedundancySettings.CrossRegionRestore != "" {
		p.CrossRegionRestore = enabledPtr(props.RedundancySettings.CrossRegionRestore)
	}
	if props.RestoreSettings.CrossSubscriptionRestoreSettings.CrossSubscriptionRestoreState != "" {
		p.CrossSubscriptionRestore = enabledPtr(props.RestoreSettings.CrossSubscriptionRestoreSettings.CrossSubscriptionRestoreState)
	}
	if props.SecuritySettings.SoftDeleteSettings.SoftDeleteState != "" {
		p.SoftDelete = strPtr(props.SecuritySettings.SoftDeleteSettings.SoftDeleteState)
	}
	p.SoftDeleteRetentionDays = props.SecuritySettings.SoftDeleteSettings.SoftDeleteRetentionPeriodInDays
	if props.SecuritySettings.MultiUserAuthorization != "" {
		p.MultiUserAuth = enabledPtr(props.SecuritySettings.MultiUserAuthorization)
	}
	if props.SecuritySettings.ImmutabilitySettings.State != "" {
		p.Immutability = strPtr(props.SecuritySettings.ImmutabilitySettings.State)
	}
	return p, true
}

// backupConfigDoc covers both the backup-resource-configuration and the
// legacy backup-configuration endpoints; the two share most field names.
type backupConfigDoc struct {
	Properties struct {
		StorageModelType                string `json:"storageModelType"`
		StorageType                     string `json:"storageType"`
		CrossRegionRestoreFlag          *bool  `json:"crossRegionRestoreFlag"`
		SoftDeleteFeatureState          string `json:"softDeleteFeatureState"`
		SoftDeleteRetentionPeriodInDays *int   `json:"softDeleteRetentionPeriodInDays"`
		EnhancedSecurityState           string `json:"enhancedSecurityState"`
		IsMUAEnabled                    *bool  `json:"isMultiUserAuthorizationEnabled"`
	} `json:"properties"`
}

// ParseBackupConfig adapts either backup configuration endpoint shape.
func ParseBackupConfig(body []byte) (Partial, bool) {
	var doc backupConfigDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return Partial{}, false
	}
	p := Partial{}
	props := doc.Properties
	if props.StorageModelType != "" {
		p.Redundancy = strPtr(props.StorageModelType)
	} else if props.StorageType != "" {
		p.Redundancy = strPtr(props.StorageType)
	}
	p.CrossRegionRestore = props.CrossRegionRestoreFlag
	if props.SoftDeleteFeatureState != "" {
		p.SoftDelete = strPtr(props.SoftDeleteFeatureState)
	}
	p.SoftDeleteRetentionDays = props.SoftDeleteRetentionPeriodInDays
	if props.EnhancedSecurityState != "" {
		p.HybridSecurity = enabledPtr(props.EnhancedSecurityState)
	}
	p.MultiUserAuth = props.IsMUAEnabled
	return p, true
}

func strPtr(s string) *string { return &s }

func enabledPtr(state string) *bool {
	b := strings.EqualFold(state, "Enabled") || strings.EqualFold(state, "On")
	return &b
}
