package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/arm"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/azure"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup/coverage"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup/posture"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup/protection"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup/rpo"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup/schedule"
	"github.com/rs/zerolog"
)

const (
	apiVersionVaults      = "2023-04-01"
	apiVersionVaultConfig = "2023-04-01"
	apiVersionBackup      = "2023-04-01"

	// Legacy generations some vaults still answer on.
	apiVersionVaultConfigLegacy = "2019-05-13"
	apiVersionBackupLegacy      = "2016-12-01"
)

// Platform resource providers whose databases are protected by continuous
// point-in-time restore rather than vault backups.
var platformDatabaseProviders = []string{
	"microsoft.sql",
	"microsoft.dbforpostgresql",
	"microsoft.dbformysql",
}

// Options tune one auditor instance. The zero value is production behavior.
type Options struct {
	// BaseURL overrides the management endpoint, for mocked scans.
	BaseURL  string
	Settings coverage.Settings
	// Now overrides the clock for deterministic RPO arithmetic.
	Now func() time.Time
}

type auditor struct {
	client   *arm.Client
	baseURL  string
	settings coverage.Settings
	now      func() time.Time
}

// NewAuditor builds the Azure auditor on top of a management client.
func NewAuditor(client *arm.Client, opts Options) Auditor {
	a := &auditor{
		client:   client,
		baseURL:  opts.BaseURL,
		settings: opts.Settings,
		now:      opts.Now,
	}
	if a.baseURL == "" {
		a.baseURL = arm.DefaultBaseURL
	}
	if a.settings == (coverage.Settings{}) {
		a.settings = coverage.DefaultSettings()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// AzureAuditorFactory wires an auditor from a named ~/.azure/config
// profile; used by the registry.
func AzureAuditorFactory(ctx context.Context, profile string) (Auditor, error) {
	cfg, err := azure.LoadConfig(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load Azure credentials: %w", err)
	}
	client := arm.NewClient(cfg.Credentials)
	return NewAuditor(client, Options{}), nil
}

// AuditSubscription runs the whole scan for one subscription:
// vaults -> posture, protected items -> schedule -> RPO, then coverage and
// findings against the supplied inventory. Partial failures degrade to
// nulled fields; the report always carries one row per discovered entity.
func (a *auditor) AuditSubscription(ctx context.Context, subscriptionID string, inventory []domain.InventoryResource) (domain.AuditReport, error) {
	logger := zerolog.Ctx(ctx).With().Str("subscription", subscriptionID).Logger()
	ctx = logger.WithContext(ctx)

	if err := a.client.Verify(ctx); err != nil {
		// The only abort class: without a token nothing below can work.
		return domain.AuditReport{}, err
	}

	report := domain.AuditReport{
		Subscription: subscriptionID,
		GeneratedAt:  a.now().UTC(),
		Summary:      map[string]any{},
	}

	protectedSet := domain.NewProtectedIDSet()
	methodByID := map[string]string{}

	for _, vault := range a.listVaults(ctx, subscriptionID) {
		p := a.resolvePosture(ctx, vault)
		report.Vaults = append(report.Vaults, p)
		report.Findings = append(report.Findings, coverage.PostureFindings(p)...)

		items, _ := protection.Build(ctx, a.discoveryStrategies(vault))
		for _, item := range items {
			a.resolveItemRPO(ctx, vault, &item)
			report.Items = append(report.Items, item)
			protectedSet.Add(item.SourceResourceID)
			methodByID[strings.ToLower(item.SourceResourceID)] = item.DiscoveredBy

			if finding, ok := coverage.RPOFinding(item, a.settings); ok {
				report.Findings = append(report.Findings, finding)
			}
		}
	}

	report.Coverage = coverage.Evaluate(inventory, protectedSet, "")
	for i, rec := range report.Coverage {
		if rec.Protected {
			report.Coverage[i].Method = methodByID[strings.ToLower(rec.Resource.ID)]
		}
	}
	report.Findings = append(report.Findings, coverage.CoverageFindings(report.Coverage)...)

	report.Summary["vaults"] = len(report.Vaults)
	report.Summary["protected_items"] = len(report.Items)
	report.Summary["inventory_resources"] = len(inventory)
	report.Summary["uncovered_resources"] = countUncovered(report.Coverage)
	report.Summary["findings"] = len(report.Findings)
	return report, nil
}

type vaultRef struct {
	ID       string
	Name     string
	Type     string
	Location string
}

func (a *auditor) listVaults(ctx context.Context, subscriptionID string) []vaultRef {
	logger := zerolog.Ctx(ctx)
	target := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.RecoveryServices/vaults?api-version=%s",
		a.baseURL, subscriptionID, apiVersionVaults)

	raw, ok := a.client.WalkLinkPages(ctx, target)
	if !ok {
		logger.Warn().Msg("vault enumeration failed, emitting empty vault set")
		return nil
	}

	var vaults []vaultRef
	for _, entry := range raw {
		var v vaultRef
		if err := json.Unmarshal(entry, &v); err != nil || v.ID == "" {
			logger.Warn().Msg("skipping unparseable vault entry")
			continue
		}
		vaults = append(vaults, v)
	}
	return vaults
}

var resourceGroupPattern = regexp.MustCompile(`(?i)/resourceGroups/([^/]+)/`)

func (a *auditor) resolvePosture(ctx context.Context, vault vaultRef) domain.VaultPosture {
	base := domain.VaultPosture{
		ID:        vault.ID,
		Name:      vault.Name,
		Location:  vault.Location,
		VaultType: vault.Type,
	}
	if m := resourceGroupPattern.FindStringSubmatch(vault.ID); m != nil {
		base.ResourceGroup = m[1]
	}
	if parts := strings.SplitN(strings.TrimPrefix(vault.ID, "/subscriptions/"), "/", 2); len(parts) > 0 {
		base.Subscription = parts[0]
	}

	// Authority order: vault root, then the backup resource config, then
	// the backup config across current and legacy generations.
	sources := []posture.Source{
		a.postureSource(vault.ID+"?api-version="+apiVersionVaults, posture.ParseVaultRoot),
		a.postureSource(vault.ID+"/backupResourceVaultConfigs/vaultconfig?api-version="+apiVersionVaultConfig, posture.ParseBackupConfig),
		a.postureSource(vault.ID+"/backupconfig/vaultconfig?api-version="+apiVersionVaultConfig, posture.ParseBackupConfig),
		a.postureSource(vault.ID+"/backupconfig/vaultconfig?api-version="+apiVersionVaultConfigLegacy, posture.ParseBackupConfig),
	}
	return posture.Resolve(ctx, base, sources)
}

func (a *auditor) postureSource(path string, parse func([]byte) (posture.Partial, bool)) posture.Source {
	target := a.baseURL + ensureLeadingSlash(path)
	return func(ctx context.Context) (posture.Partial, bool) {
		resp, ok := a.client.Get(ctx, target)
		if !ok {
			return posture.Partial{}, false
		}
		return parse(resp.Body)
	}
}

// discoveryStrategies are the three ordered ways to enumerate a vault's
// protected items.
func (a *auditor) discoveryStrategies(vault vaultRef) []protection.Strategy {
	return []protection.Strategy{
		{Name: "managementType", List: func(ctx context.Context) ([]domain.ProtectedItem, bool) {
			return a.listByManagementType(ctx, vault)
		}},
		{Name: "containers", List: func(ctx context.Context) ([]domain.ProtectedItem, bool) {
			return a.listViaContainers(ctx, vault)
		}},
		{Name: "restFallback", List: func(ctx context.Context) ([]domain.ProtectedItem, bool) {
			return a.listRESTFallback(ctx, vault)
		}},
	}
}

func (a *auditor) listByManagementType(ctx context.Context, vault vaultRef) ([]domain.ProtectedItem, bool) {
	filters := []string{
		"backupManagementType eq 'AzureIaasVM'",
		"backupManagementType eq 'AzureWorkload'",
	}
	var items []domain.ProtectedItem
	anyPage := false
	for _, filter := range filters {
		target := fmt.Sprintf("%s%s/backupProtectedItems?api-version=%s&$filter=%s",
			a.baseURL, ensureLeadingSlash(vault.ID), apiVersionBackup, url.QueryEscape(filter))
		raw, ok := a.client.WalkLinkPages(ctx, target)
		if !ok {
			continue
		}
		anyPage = true
		items = append(items, a.normalizeAll(ctx, raw, vault)...)
	}
	return items, anyPage
}

func (a *auditor) listViaContainers(ctx context.Context, vault vaultRef) ([]domain.ProtectedItem, bool) {
	target := fmt.Sprintf("%s%s/backupProtectionContainers?api-version=%s",
		a.baseURL, ensureLeadingSlash(vault.ID), apiVersionBackup)
	raw, ok := a.client.WalkLinkPages(ctx, target)
	if !ok {
		return nil, false
	}

	var items []domain.ProtectedItem
	for _, entry := range raw {
		var container struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(entry, &container); err != nil || container.Name == "" {
			continue
		}
		itemTarget := fmt.Sprintf("%s%s/backupFabrics/Azure/protectionContainers/%s/protectedItems?api-version=%s",
			a.baseURL, ensureLeadingSlash(vault.ID), url.PathEscape(container.Name), apiVersionBackup)
		rawItems, ok := a.client.WalkLinkPages(ctx, itemTarget)
		if !ok {
			continue
		}
		items = append(items, a.normalizeAll(ctx, rawItems, vault)...)
	}
	return items, true
}

func (a *auditor) listRESTFallback(ctx context.Context, vault vaultRef) ([]domain.ProtectedItem, bool) {
	versions := []string{apiVersionBackupLegacy, apiVersionVaultConfigLegacy}
	filters := []string{"", "backupManagementType eq 'AzureIaasVM'"}

	for _, version := range versions {
		for _, filter := range filters {
			target := fmt.Sprintf("%s%s/backupProtectedItems?api-version=%s",
				a.baseURL, ensureLeadingSlash(vault.ID), version)
			if filter != "" {
				target += "&$filter=" + url.QueryEscape(filter)
			}
			raw, ok := a.client.WalkLinkPages(ctx, target)
			if !ok || len(raw) == 0 {
				continue
			}
			return a.normalizeAll(ctx, raw, vault), true
		}
	}
	return nil, false
}

func (a *auditor) normalizeAll(ctx context.Context, raw []json.RawMessage, vault vaultRef) []domain.ProtectedItem {
	logger := zerolog.Ctx(ctx)
	var items []domain.ProtectedItem
	for _, entry := range raw {
		item, ok := protection.NormalizeItem(entry, vault.ID, vault.Name)
		if !ok {
			logger.Warn().Str("vault", vault.Name).Msg("skipping unparseable protected item")
			continue
		}
		items = append(items, item)
	}
	return items
}

// resolveItemRPO fills schedule, cadence text, observed RPO and source on
// one protected item, consulting the policy first and recovery points as
// the fallback.
func (a *auditor) resolveItemRPO(ctx context.Context, vault vaultRef, item *domain.ProtectedItem) {
	sched, schedOK := a.fetchSchedule(ctx, item.PolicyID)
	platformManaged := isPlatformDatabase(item.SourceResourceID)

	lister := &armPointLister{
		client:          a.client,
		target:          a.pointTarget(vault, *item, platformManaged),
		platformManaged: platformManaged,
	}

	result := rpo.Infer(ctx, sched, schedOK, lister, rpo.Options{
		Workload:        item.Workload,
		PlatformManaged: platformManaged,
		Now:             a.now().UTC(),
	})

	item.Schedule = sched
	// Cadence text reflects the configured policy only. An empirically
	// inferred gap stays out of it: without a policy the configured
	// cadence is unknown, not "whatever the last two points suggest".
	if result.Source == domain.RpoSourcePolicy {
		item.CadenceText = result.CadenceText
		item.Schedule.Cadence = result.Cadence
	}
	item.ObservedRPOHours = result.ObservedHours
	item.RpoSource = result.Source
}

func (a *auditor) fetchSchedule(ctx context.Context, policyID string) (domain.ScheduleInfo, bool) {
	if policyID == "" {
		return domain.ScheduleInfo{}, false
	}
	target := a.baseURL + ensureLeadingSlash(policyID) + "?api-version=" + apiVersionBackup
	resp, ok := a.client.Get(ctx, target)
	if !ok {
		return domain.ScheduleInfo{}, false
	}
	return schedule.Extract(resp.Body)
}

func (a *auditor) pointTarget(vault vaultRef, item domain.ProtectedItem, platformManaged bool) string {
	if platformManaged {
		return fmt.Sprintf("%s%s/restorePoints?api-version=%s",
			a.baseURL, ensureLeadingSlash(item.SourceResourceID), apiVersionBackup)
	}
	container := item.ContainerName
	if container == "" {
		container = item.Name
	}
	return fmt.Sprintf("%s%s/backupFabrics/Azure/protectionContainers/%s/protectedItems/%s/recoveryPoints?api-version=%s",
		a.baseURL, ensureLeadingSlash(vault.ID), url.PathEscape(container), url.PathEscape(item.Name), apiVersionBackup)
}

// armPointLister adapts the token walker to the RPO engine's point feed.
type armPointLister struct {
	client          *arm.Client
	target          string
	platformManaged bool
}

func (l *armPointLister) ListPoints(ctx context.Context, limit int) ([]rpo.RecoveryPoint, bool) {
	var enough func([]json.RawMessage) bool
	if limit > 0 {
		enough = func(items []json.RawMessage) bool { return len(items) >= limit }
	}
	raw, ok := l.client.WalkTokenPages(ctx, l.target, "", enough)
	if !ok {
		return nil, false
	}

	var points []rpo.RecoveryPoint
	for _, entry := range raw {
		var rp struct {
			Properties struct {
				RecoveryPointTime        *time.Time `json:"recoveryPointTime"`
				RestorePointCreationDate *time.Time `json:"restorePointCreationDate"`
				RecoveryPointType        string     `json:"recoveryPointType"`
				RestorePointType         string     `json:"restorePointType"`
			} `json:"properties"`
		}
		if err := json.Unmarshal(entry, &rp); err != nil {
			continue
		}
		when := rp.Properties.RecoveryPointTime
		if when == nil {
			when = rp.Properties.RestorePointCreationDate
		}
		if when == nil {
			continue
		}
		kindRaw := rp.Properties.RecoveryPointType
		if kindRaw == "" {
			kindRaw = rp.Properties.RestorePointType
		}
		points = append(points, rpo.RecoveryPoint{Time: *when, Kind: rpo.ParseKind(kindRaw)})
	}
	return points, true
}

func isPlatformDatabase(resourceID string) bool {
	lower := strings.ToLower(resourceID)
	for _, provider := range platformDatabaseProviders {
		if strings.Contains(lower, "/providers/"+provider+"/") {
			return true
		}
	}
	return false
}

func countUncovered(records []domain.CoverageRecord) int {
	n := 0
	for _, rec := range records {
		if !rec.Protected {
			n++
		}
	}
	return n
}

func ensureLeadingSlash(s string) string {
	if strings.HasPrefix(s, "/") {
		return s
	}
	return "/" + s
}
