package cli

import (
	"context"
	"fmt"

	"invoicehub/internal/billing"
	"invoicehub/internal/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reporting exports",
}

var reportExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an owner's dashboard report as CSV",
	Example: `  # Export to a file
  invoicectl report export --owner 6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f --out report.csv

  # Last six months, top ten clients, to stdout
  invoicectl report export --owner 6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f --months 6 --limit 10`,
	RunE: runReportExport,
}

func init() {
	reportExportCmd.Flags().String("owner", "", "Owner account ID (required)")
	reportExportCmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
	reportExportCmd.Flags().Int("months", 0, "Revenue window in months (default REPORT_MONTHS)")
	reportExportCmd.Flags().Int("limit", 0, "Number of top clients (default TOP_CLIENTS)")
	_ = reportExportCmd.MarkFlagRequired("owner")
	reportCmd.AddCommand(reportExportCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportExport(cmd *cobra.Command, args []string) error {
	ownerFlag, _ := cmd.Flags().GetString("owner")
	out, _ := cmd.Flags().GetString("out")
	months, _ := cmd.Flags().GetInt("months")
	limit, _ := cmd.Flags().GetInt("limit")

	ownerID, err := uuid.Parse(ownerFlag)
	if err != nil {
		return fmt.Errorf("invalid --owner: %w", err)
	}

	services, closeFn, err := openServices()
	if err != nil {
		return err
	}
	defer closeFn()

	f, closeOut, err := outputFile(out)
	if err != nil {
		return err
	}
	opts := billing.ReportOptions{Months: months, TopClients: limit}
	if err := services.Reports.ExportCSV(context.Background(), ownerID, opts, f); err != nil {
		_ = closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}

	log := logger.WithOwner("report", ownerID.String())
	log.Info().Str("out", out).Msg("report exported")
	return nil
}
