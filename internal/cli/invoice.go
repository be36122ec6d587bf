package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"invoicehub/internal/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Invoice documents",
}

var invoicePDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Render an invoice as PDF",
	Example: `  # Writes INV-20240315-00001.pdf in the current directory
  invoicectl invoice pdf --owner 6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f --id 0b8e...

  # Explicit output path
  invoicectl invoice pdf --owner 6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f --id 0b8e... -o out.pdf`,
	RunE: runInvoicePDF,
}

func init() {
	invoicePDFCmd.Flags().String("owner", "", "Owner account ID (required)")
	invoicePDFCmd.Flags().String("id", "", "Invoice ID (required)")
	invoicePDFCmd.Flags().StringP("out", "o", "", "Output file (default <number>.pdf)")
	_ = invoicePDFCmd.MarkFlagRequired("owner")
	_ = invoicePDFCmd.MarkFlagRequired("id")
	invoiceCmd.AddCommand(invoicePDFCmd)
	rootCmd.AddCommand(invoiceCmd)
}

func runInvoicePDF(cmd *cobra.Command, args []string) error {
	ownerFlag, _ := cmd.Flags().GetString("owner")
	id, _ := cmd.Flags().GetString("id")
	out, _ := cmd.Flags().GetString("out")

	ownerID, err := uuid.Parse(ownerFlag)
	if err != nil {
		return fmt.Errorf("invalid --owner: %w", err)
	}

	services, closeFn, err := openServices()
	if err != nil {
		return err
	}
	defer closeFn()

	var buf bytes.Buffer
	name, err := services.Invoices.RenderPDF(context.Background(), ownerID, id, &buf)
	if err != nil {
		return err
	}
	if out == "" {
		out = name
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	log := logger.WithOwner("invoice", ownerID.String())
	log.Info().Str("invoice_id", id).Str("out", out).Int("bytes", buf.Len()).Msg("pdf written")
	return nil
}
