package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

var (
	ingestLimit      int
	ingestUser       string
	ingestBackground bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest recent content from configured sources",
	Long: `Fetches recent messages and documents from the configured sources,
segments them, embeds the segments and stores them locally.

Already-processed documents are skipped, so repeated runs only pick up
new content.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "maximum documents to fetch per source (0 = source default)")
	ingestCmd.Flags().StringVar(&ingestUser, "user", "", "account to ingest into (default from config)")
	ingestCmd.Flags().BoolVar(&ingestBackground, "background", false, "queue the run and return its ID immediately")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	userID := currentUserID(ingestUser)
	if userID == "" {
		return errors.New("no account configured, run 'mailrag auth' first or pass --user")
	}

	ctx := cmd.Context()

	if ingestBackground {
		runID, err := ingestService.StartIngest(ctx, userID, ingestLimit)
		if err != nil {
			return fmt.Errorf("ingest failed to start: %w", err)
		}
		cmd.Printf("Ingestion run %s queued. Check it with: mailrag status %s\n", runID, runID)
		return nil
	}

	cmd.Println("Ingesting...")
	run, err := ingestWithProgress(ctx, cmd, userID)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printRun(cmd, run)
	return nil
}

// ingestWithProgress runs a synchronous ingest while polling the run
// record for progress updates.
func ingestWithProgress(ctx context.Context, cmd *cobra.Command, userID string) (*domain.IngestRun, error) {
	type result struct {
		run *domain.IngestRun
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		run, err := ingestService.Ingest(ctx, userID, ingestLimit)
		resCh <- result{run, err}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case res := <-resCh:
			return res.run, res.err
		case <-ticker.C:
			// Best effort; progress display must not fail the run.
			status, err := ingestService.LatestStatus(ctx, userID)
			if err == nil && status != nil && status.DocumentsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d documents", status.DocumentsProcessed)
				lastCount = status.DocumentsProcessed
			}
		}
	}
}

// printRun renders a completed run summary.
func printRun(cmd *cobra.Command, run *domain.IngestRun) {
	cmd.Printf("\rRun %s: %s\n", run.ID, run.State)
	cmd.Printf("  Documents processed: %d\n", run.DocumentsProcessed)
	cmd.Printf("  Documents skipped:   %d\n", run.DocumentsSkipped)
	cmd.Printf("  Chunks stored:       %d\n", run.ChunksStored)
	if run.ErrorCount > 0 {
		cmd.Printf("  Documents failed:    %d\n", run.ErrorCount)
	}
	if run.Error != "" {
		cmd.Printf("  Error: %s\n", run.Error)
	}
}
