package main

import (
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/server"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the backup audit API server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "audit.yaml",
		"Path to the audit configuration file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := backup.LoadRunConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load audit config: %w", err)
	}

	var inventory []domain.InventoryResource
	if cfg.InventoryFile != "" {
		inventory, err = backup.LoadInventory(cfg.InventoryFile)
		if err != nil {
			return fmt.Errorf("failed to load inventory: %w", err)
		}
	}

	auditor, err := backup.AzureAuditorFactory(ctx, cfg.Profile)
	if err != nil {
		return fmt.Errorf("failed to create auditor: %w", err)
	}

	logger.Info().Msgf("Configuration found at `%s` successfully loaded.", cfgPath)
	logger.Info().Msgf("Auditing %d subscription(s).", len(cfg.Subscriptions))

	mux := server.ConfigureRouter(logger, server.Config{
		Dependencies: server.Dependencies{
			Auditor:       auditor,
			Subscriptions: cfg.Subscriptions,
			Inventory:     inventory,
		},
	})

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	addr := net.JoinHostPort(host, port)
	logger.Info().Msgf("starting server on %s", addr)

	return http.ListenAndServe(addr, mux)
}
