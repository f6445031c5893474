package main

import (
	"fmt"
	"os"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/runtime/terminal"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Registry: backup.NewRegistry(map[string]backup.AuditorFactory{
			"azure": backup.AzureAuditorFactory,
		}),
		Output: os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
