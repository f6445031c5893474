package domain

// InventoryResource is one row of the externally supplied resource
// inventory (VMs, managed databases) that coverage is evaluated against.
type InventoryResource struct {
	ID            string
	Name          string
	ResourceGroup string
	Location      string
	PowerState    string
	Class         WorkloadClass
}

// CoverageRecord is the per-inventory-item protection verdict.
type CoverageRecord struct {
	Resource  InventoryResource
	Protected bool
	Method    string
}
