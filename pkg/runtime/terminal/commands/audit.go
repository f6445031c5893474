package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/runtime/terminal/export"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup"

	"github.com/spf13/cobra"
)

type AuditCmd struct {
	configPath string
	platform   string
	registry   backup.Registry
	reporter   *export.Reporter
}

func NewAuditCmd(registry backup.Registry, reporter *export.Reporter) *cobra.Command {
	ac := &AuditCmd{registry: registry, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit backup coverage and RPO across subscriptions",
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.configPath, "config", "", "Path to the audit configuration file")
	cmd.Flags().StringVar(&ac.platform, "platform", "azure", "Platform to audit")

	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (ac *AuditCmd) run(cmd *cobra.Command, args []string) error {
	cfg, err := backup.LoadRunConfig(ac.configPath)
	if err != nil {
		return err
	}

	var inventory []domain.InventoryResource
	if cfg.InventoryFile != "" {
		inventory, err = backup.LoadInventory(cfg.InventoryFile)
		if err != nil {
			return err
		}
	}

	// A full scan of a large estate walks many vaults sequentially.
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
	defer cancel()

	auditor, err := ac.registry.Create(ctx, ac.platform, cfg.Profile)
	if err != nil {
		return fmt.Errorf("failed to create an auditor for platform: %s", ac.platform)
	}

	for _, subscription := range cfg.Subscriptions {
		report, err := auditor.AuditSubscription(ctx, subscription, inventory)
		if err != nil {
			return fmt.Errorf("audit of subscription %s failed: %w", subscription, err)
		}
		if err := ac.reporter.Handle(&report); err != nil {
			return err
		}
	}
	return nil
}
