package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"invoicehub/internal/jobs"
	"invoicehub/internal/logger"
	"invoicehub/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Maintain the cached client totals",
}

var rollupRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute client invoice totals from the invoices table",
	Long: `Recompute every client's invoice count, total spent and last invoice date.

Without --owner all accounts are rebuilt, the same job the API server runs
on ROLLUP_SCHEDULE.`,
	Example: `  # Rebuild every account
  invoicectl rollup rebuild

  # Rebuild one account
  invoicectl rollup rebuild --owner 6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f`,
	RunE: runRollupRebuild,
}

func init() {
	rollupRebuildCmd.Flags().String("owner", "", "Only rebuild this owner's clients")
	rollupRebuildCmd.Flags().Duration("timeout", jobs.DefaultRollupTimeout, "Abort after this long")
	rollupCmd.AddCommand(rollupRebuildCmd)
	rootCmd.AddCommand(rollupCmd)
}

func runRollupRebuild(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("rollup")
	ownerFlag, _ := cmd.Flags().GetString("owner")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	services, closeFn, err := openServices()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	var result service.RebuildResult
	if ownerFlag != "" {
		ownerID, err := uuid.Parse(ownerFlag)
		if err != nil {
			return fmt.Errorf("invalid --owner: %w", err)
		}
		result, err = services.Stats.RebuildOwner(ctx, ownerID)
		if err != nil {
			return err
		}
	} else {
		scheduler, err := jobs.NewScheduler(services.Stats, cfg.RollupSchedule, timeout)
		if err != nil {
			return err
		}
		if result, err = scheduler.RunRollup(ctx); err != nil {
			return err
		}
	}

	log.Info().Dur("took", time.Since(start)).Msg("rollup complete")
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
