package cli

import (
	"fmt"
	"time"

	"invoicehub/internal/middleware"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Access tokens for local development",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Sign a bearer token for an owner with JWT_SECRET",
	Long: `Sign a bearer token accepted by the API and the websocket endpoint.

Login is handled outside InvoiceHub; this is meant for development and
scripted access.`,
	RunE: runTokenIssue,
}

func init() {
	tokenIssueCmd.Flags().String("owner", "", "Owner account ID (default: a new random ID)")
	tokenIssueCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	ownerFlag, _ := cmd.Flags().GetString("owner")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	ownerID := uuid.New()
	if ownerFlag != "" {
		parsed, err := uuid.Parse(ownerFlag)
		if err != nil {
			return fmt.Errorf("invalid --owner: %w", err)
		}
		ownerID = parsed
	}

	token, err := middleware.IssueOwnerToken([]byte(cfg.JWTSecret), ownerID, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "owner: %s\ntoken: %s\n", ownerID, token)
	return nil
}
