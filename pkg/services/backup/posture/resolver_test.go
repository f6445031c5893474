package posture

import (
	"context"
	"testing"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceOf(p Partial, ok bool) Source {
	return func(context.Context) (Partial, bool) { return p, ok }
}

func countingSource(p Partial, ok bool, calls *int) Source {
	return func(context.Context) (Partial, bool) {
		*calls++
		return p, ok
	}
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

var base = domain.VaultPosture{ID: "/subscriptions/s1/vaults/v1", Name: "v1"}

func TestResolve_RootEndpointWinsOverSecondary(t *testing.T) {
	root := Partial{
		SoftDelete:               strPtr("AlwaysON"),
		Redundancy:               strPtr("GeoRedundant"),
		SoftDeleteRetentionDays:  intPtr(14),
		CrossSubscriptionRestore: boolPtr(true),
	}
	secondary := Partial{
		SoftDelete:               strPtr("Off"),
		Redundancy:               strPtr("LocallyRedundant"),
		SoftDeleteRetentionDays:  intPtr(30),
		CrossSubscriptionRestore: boolPtr(false),
	}

	out := Resolve(context.Background(), base, []Source{sourceOf(root, true), sourceOf(secondary, true)})

	assert.Equal(t, domain.SoftDeleteAlwaysOn, out.SoftDelete)
	assert.Equal(t, "GeoRedundant", out.Redundancy)
	assert.Equal(t, 14, *out.SoftDeleteRetentionDays)
	assert.True(t, *out.CrossSubscriptionRestore)
}

func TestResolve_LaterSourcesFillGapsOnly(t *testing.T) {
	root := Partial{Redundancy: strPtr("ZoneRedundant")}
	secondary := Partial{
		Redundancy:              strPtr("LocallyRedundant"),
		SoftDelete:              strPtr("Enabled"),
		SoftDeleteRetentionDays: intPtr(14),
	}

	out := Resolve(context.Background(), base, []Source{sourceOf(root, true), sourceOf(secondary, true)})

	assert.Equal(t, "ZoneRedundant", out.Redundancy)
	assert.Equal(t, domain.SoftDeleteEnabled, out.SoftDelete)
	assert.Equal(t, 14, *out.SoftDeleteRetentionDays)
}

func TestResolve_StopsEarlyOnceComplete(t *testing.T) {
	full := Partial{
		SoftDelete:               strPtr("Enabled"),
		SoftDeleteRetentionDays:  intPtr(14),
		Redundancy:               strPtr("GeoRedundant"),
		CrossSubscriptionRestore: boolPtr(true),
	}
	extraCalls := 0

	Resolve(context.Background(), base, []Source{
		sourceOf(full, true),
		countingSource(Partial{}, true, &extraCalls),
	})

	assert.Zero(t, extraCalls, "secondary endpoint should not be queried once posture is complete")
}

func TestResolve_FailedSourceTriggersNext(t *testing.T) {
	fallback := Partial{SoftDelete: strPtr("On"), Redundancy: strPtr("GeoRedundant")}

	out := Resolve(context.Background(), base, []Source{
		sourceOf(Partial{}, false),
		sourceOf(fallback, true),
	})

	assert.Equal(t, domain.SoftDeleteEnabled, out.SoftDelete)
}

func TestResolve_SecurityLevelRecomputed(t *testing.T) {
	t.Run("soft delete enabled is enhanced", func(t *testing.T) {
		out := Resolve(context.Background(), base, []Source{
			sourceOf(Partial{SoftDelete: strPtr("Enabled")}, true),
		})
		assert.Equal(t, domain.SecurityLevelEnhanced, out.SecurityLevel)
	})

	t.Run("MUA alone is enhanced", func(t *testing.T) {
		out := Resolve(context.Background(), base, []Source{
			sourceOf(Partial{SoftDelete: strPtr("Disabled"), MultiUserAuth: boolPtr(true)}, true),
		})
		assert.Equal(t, domain.SecurityLevelEnhanced, out.SecurityLevel)
	})

	t.Run("hybrid security alone is enhanced", func(t *testing.T) {
		out := Resolve(context.Background(), base, []Source{
			sourceOf(Partial{HybridSecurity: boolPtr(true)}, true),
		})
		assert.Equal(t, domain.SecurityLevelEnhanced, out.SecurityLevel)
	})

	t.Run("nothing resolved is standard", func(t *testing.T) {
		out := Resolve(context.Background(), base, nil)
		assert.Equal(t, domain.SecurityLevelStandard, out.SecurityLevel)
	})
}

func TestResolve_Idempotent(t *testing.T) {
	sources := []Source{
		sourceOf(Partial{SoftDelete: strPtr("AlwaysON"), Redundancy: strPtr("GeoRedundant")}, true),
		sourceOf(Partial{SoftDeleteRetentionDays: intPtr(14), CrossSubscriptionRestore: boolPtr(false)}, true),
	}

	first := Resolve(context.Background(), base, sources)
	second := Resolve(context.Background(), base, sources)

	assert.Equal(t, first, second)
}

func TestParseVaultRoot(t *testing.T) {
	body := []byte(`{"properties":{
		"redundancySettings":{"standardTierStorageRedundancy":"GeoRedundant","crossRegionRestore":"Enabled"},
		"securitySettings":{
			"softDeleteSettings":{"softDeleteState":"AlwaysON","softDeleteRetentionPeriodInDays":14},
			"multiUserAuthorization":"Disabled",
			"immutabilitySettings":{"state":"Locked"}},
		"restoreSettings":{"crossSubscriptionRestoreSettings":{"crossSubscriptionRestoreState":"Enabled"}}}}`)

	p, ok := ParseVaultRoot(body)
	require.True(t, ok)
	assert.Equal(t, "GeoRedundant", *p.Redundancy)
	assert.True(t, *p.CrossRegionRestore)
	assert.True(t, *p.CrossSubscriptionRestore)
	assert.Equal(t, "AlwaysON", *p.SoftDelete)
	assert.Equal(t, 14, *p.SoftDeleteRetentionDays)
	assert.False(t, *p.MultiUserAuth)
	assert.Equal(t, "Locked", *p.Immutability)
}

func TestParseBackupConfig(t *testing.T) {
	t.Run("current shape", func(t *testing.T) {
		body := []byte(`{"properties":{
			"storageModelType":"LocallyRedundant",
			"crossRegionRestoreFlag":false,
			"softDeleteFeatureState":"Enabled",
			"softDeleteRetentionPeriodInDays":30,
			"enhancedSecurityState":"Enabled"}}`)

		p, ok := ParseBackupConfig(body)
		require.True(t, ok)
		assert.Equal(t, "LocallyRedundant", *p.Redundancy)
		assert.False(t, *p.CrossRegionRestore)
		assert.Equal(t, "Enabled", *p.SoftDelete)
		assert.Equal(t, 30, *p.SoftDeleteRetentionDays)
		assert.True(t, *p.HybridSecurity)
	})

	t.Run("legacy shape uses storageType and On/Off vocabulary", func(t *testing.T) {
		body := []byte(`{"properties":{"storageType":"GeoRedundant","softDeleteFeatureState":"Off"}}`)

		p, ok := ParseBackupConfig(body)
		require.True(t, ok)
		assert.Equal(t, "GeoRedundant", *p.Redundancy)
		assert.Equal(t, "Off", *p.SoftDelete)
		assert.Nil(t, p.SoftDeleteRetentionDays)
	})
}
