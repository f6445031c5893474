package audit

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/adapters"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/api"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler serves audit results over HTTP. A scan is expensive (hundreds of
// management calls), so reports are computed once per subscription and
// cached for the process lifetime.
type Handler struct {
	auditor       backup.Auditor
	subscriptions []string
	inventory     []domain.InventoryResource

	mu      sync.Mutex
	reports map[string]domain.AuditReport
}

func NewHandler(auditor backup.Auditor, subscriptions []string, inventory []domain.InventoryResource) *Handler {
	return &Handler{
		auditor:       auditor,
		subscriptions: subscriptions,
		inventory:     inventory,
		reports:       make(map[string]domain.AuditReport),
	}
}

func (h *Handler) report(r *http.Request) (domain.AuditReport, bool) {
	ctx := r.Context()
	subscription := chi.URLParam(r, "subscription")

	h.mu.Lock()
	defer h.mu.Unlock()

	if report, ok := h.reports[subscription]; ok {
		return report, true
	}
	report, err := h.auditor.AuditSubscription(ctx, subscription, h.inventory)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("subscription", subscription).
			Msg("audit failed")
		return domain.AuditReport{}, false
	}
	h.reports[subscription] = report
	return report, true
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	response := make([]api.Subscription, 0, len(h.subscriptions))
	for _, id := range h.subscriptions {
		response = append(response, api.Subscription{Id: id})
	}
	writeJSON(w, r, response)
}

func (h *Handler) GetVaults(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(r)
	if !ok {
		http.Error(w, "audit failed", http.StatusBadGateway)
		return
	}

	response := make([]api.VaultPosture, 0, len(report.Vaults))
	for _, v := range report.Vaults {
		response = append(response, adapters.MapVaultPostureDomainToApi(v))
	}
	writeJSON(w, r, response)
}

func (h *Handler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(r)
	if !ok {
		http.Error(w, "audit failed", http.StatusBadGateway)
		return
	}

	response := make([]api.CoverageRecord, 0, len(report.Coverage))
	for _, c := range report.Coverage {
		response = append(response, adapters.MapCoverageRecordDomainToApi(c))
	}
	writeJSON(w, r, response)
}

func (h *Handler) GetItems(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(r)
	if !ok {
		http.Error(w, "audit failed", http.StatusBadGateway)
		return
	}

	response := make([]api.ProtectedItem, 0, len(report.Items))
	for _, item := range report.Items {
		response = append(response, adapters.MapProtectedItemDomainToApi(item))
	}
	writeJSON(w, r, response)
}

func (h *Handler) GetFindings(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(r)
	if !ok {
		http.Error(w, "audit failed", http.StatusBadGateway)
		return
	}

	response := make([]api.Finding, 0, len(report.Findings))
	for _, f := range report.Findings {
		response = append(response, adapters.MapFindingDomainToApi(f))
	}
	writeJSON(w, r, response)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(r)
	if !ok {
		http.Error(w, "audit failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, r, adapters.MapAuditReportDomainToApi(report))
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}
