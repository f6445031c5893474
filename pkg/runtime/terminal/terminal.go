package terminal

import (
	"io"
	"os"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/runtime/terminal/commands"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/runtime/terminal/export"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	registry backup.Registry
	reporter *export.Reporter
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Registry backup.Registry
	Output   io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		registry: opts.Registry,
		reporter: export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup-audit",
		Short: "Backup coverage and RPO audit tool",
	}

	cmd.AddCommand(commands.NewAuditCmd(cli.registry, cli.reporter))
	cmd.AddCommand(commands.NewVaultsCmd(cli.registry))

	return cmd
}
