package cli

import (
	"fmt"
	"os"

	"invoicehub/internal/app"
	"invoicehub/internal/config"
	"invoicehub/internal/database"
	"invoicehub/internal/logger"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "invoicectl",
	Short: "Operator CLI for InvoiceHub",
	Long: `invoicectl runs maintenance and export tasks against the InvoiceHub
database without going through the HTTP API.

Configuration is read from configs/.env, .env and the process environment,
using the same variables as the API server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnvFiles()
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return logger.Setup(cfg.LoggerConfig())
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// openServices connects to the database and wires the service layer.
// The returned func closes the connection.
func openServices() (*app.Services, func(), error) {
	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := database.Close(db); err != nil {
			log := logger.WithComponent("cmd")
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
	return app.NewServices(db, cfg, nil), closeFn, nil
}

// outputFile opens path for writing, or returns stdout for "" and "-".
func outputFile(path string) (*os.File, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
