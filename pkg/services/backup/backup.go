package backup

import (
	"context"
	"fmt"
	"sync"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
)

// Auditor scans one subscription's backup estate and produces the full row
// set: vault postures, protected items with cadence/RPO, coverage and
// findings. Partial failure degrades fields to nulls; only systemic
// authentication failure returns an error.
type Auditor interface {
	AuditSubscription(ctx context.Context, subscriptionID string, inventory []domain.InventoryResource) (domain.AuditReport, error)
}

// AuditorFactory creates an Auditor from a named credential profile.
type AuditorFactory func(ctx context.Context, profile string) (Auditor, error)

// Registry manages platform auditor factories.
type Registry interface {
	Register(platform string, factory AuditorFactory) error
	Create(ctx context.Context, platform, profile string) (Auditor, error)
	ListPlatforms() []string
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]AuditorFactory
}

func NewRegistry(factories map[string]AuditorFactory) Registry {
	r := &registry{factories: make(map[string]AuditorFactory)}
	for platform, factory := range factories {
		r.factories[platform] = factory
	}
	return r
}

func (r *registry) Register(platform string, factory AuditorFactory) error {
	if platform == "" {
		return fmt.Errorf("platform name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[platform]; exists {
		return fmt.Errorf("platform %q is already registered", platform)
	}
	r.factories[platform] = factory
	return nil
}

func (r *registry) Create(ctx context.Context, platform, profile string) (Auditor, error) {
	r.mu.RLock()
	factory, exists := r.factories[platform]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("platform %q is not registered", platform)
	}
	return factory(ctx, profile)
}

func (r *registry) ListPlatforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	platforms := make([]string, 0, len(r.factories))
	for platform := range r.factories {
		platforms = append(platforms, platform)
	}
	return platforms
}
