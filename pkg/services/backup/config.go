package backup

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup/coverage"
	"github.com/spf13/viper"
)

// Config is the audit run configuration loaded from a YAML/TOML/JSON file.
type Config struct {
	Profile       string            `mapstructure:"profile"`
	Subscriptions []string          `mapstructure:"subscriptions" validate:"required"`
	InventoryFile string            `mapstructure:"inventory_file"`
	Thresholds    coverage.Settings `mapstructure:"thresholds"`
}

// LoadRunConfig reads the audit configuration; unset thresholds fall back
// to the defaults.
func LoadRunConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Config{Thresholds: coverage.DefaultSettings()}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse audit config: %w", err)
	}
	if len(cfg.Subscriptions) == 0 {
		return nil, fmt.Errorf("config must list at least one subscription")
	}
	defaults := coverage.DefaultSettings()
	if cfg.Thresholds.VM == (coverage.Thresholds{}) {
		cfg.Thresholds.VM = defaults.VM
	}
	if cfg.Thresholds.Database == (coverage.Thresholds{}) {
		cfg.Thresholds.Database = defaults.Database
	}
	return &cfg, nil
}

// LoadInventory reads a pre-collected resource inventory from a JSON file.
// Inventory collection is a separate export step; the auditor only consumes
// the snapshot.
func LoadInventory(path string) ([]domain.InventoryResource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}
	var rows []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		ResourceGroup string `json:"resource_group"`
		Location      string `json:"location"`
		PowerState    string `json:"power_state"`
		Class         string `json:"class"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse inventory file: %w", err)
	}

	resources := make([]domain.InventoryResource, 0, len(rows))
	for _, row := range rows {
		class := domain.WorkloadVM
		if row.Class == string(domain.WorkloadDatabase) {
			class = domain.WorkloadDatabase
		}
		resources = append(resources, domain.InventoryResource{
			ID:            row.ID,
			Name:          row.Name,
			ResourceGroup: row.ResourceGroup,
			Location:      row.Location,
			PowerState:    row.PowerState,
			Class:         class,
		})
	}
	return resources, nil
}
