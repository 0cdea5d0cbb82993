package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusUser string

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show ingestion run status",
	Long: `Shows the status of an ingestion run. With a run ID, shows that
run; otherwise shows the most recent run for the account.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusUser, "user", "", "account to inspect (default from config)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()

	if len(args) > 0 {
		run, err := ingestService.Status(ctx, args[0])
		if err != nil {
			return fmt.Errorf("run %s: %w", args[0], err)
		}
		printRun(cmd, run)
		return nil
	}

	userID := currentUserID(statusUser)
	if userID == "" {
		return errors.New("no account configured, pass --user or a run ID")
	}

	run, err := ingestService.LatestStatus(ctx, userID)
	if err != nil {
		return fmt.Errorf("latest run: %w", err)
	}

	printRun(cmd, run)
	if !run.StartedAt.IsZero() {
		cmd.Printf("  Started:  %s\n", run.StartedAt.Format(time.RFC3339))
	}
	if !run.FinishedAt.IsZero() {
		cmd.Printf("  Finished: %s\n", run.FinishedAt.Format(time.RFC3339))
	}
	return nil
}
