package commands

import (
	"fmt"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup"
	"github.com/spf13/cobra"
)

type VaultsCmd struct {
	profile      string
	platform     string
	subscription string
	registry     backup.Registry
}

func NewVaultsCmd(registry backup.Registry) *cobra.Command {
	vc := &VaultsCmd{registry: registry}
	cmd := &cobra.Command{
		Use:   "vaults",
		Short: "List Recovery Services vaults and their security posture",
		RunE:  vc.run,
	}

	cmd.Flags().StringVar(&vc.profile, "profile", "", "Credential profile name")
	cmd.Flags().StringVar(&vc.platform, "platform", "azure", "Platform to inspect")
	cmd.Flags().StringVar(&vc.subscription, "subscription", "", "Subscription to enumerate")

	_ = cmd.MarkFlagRequired("subscription")

	return cmd
}

func (vc *VaultsCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	auditor, err := vc.registry.Create(ctx, vc.platform, vc.profile)
	if err != nil {
		return fmt.Errorf("failed to create an auditor for platform %s: %w", vc.platform, err)
	}

	report, err := auditor.AuditSubscription(ctx, vc.subscription, nil)
	if err != nil {
		return err
	}

	if len(report.Vaults) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No vaults found in subscription: %s\n", vc.subscription)
		return nil
	}

	for _, v := range report.Vaults {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tsoft-delete=%s\tsecurity=%s\n",
			v.Name, v.ResourceGroup, v.Redundancy, v.SoftDelete, v.SecurityLevel)
	}
	return nil
}
