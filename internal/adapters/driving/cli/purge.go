package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	purgeUser string
	purgeYes  bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all ingested data for an account",
	Long: `Deletes everything stored locally for an account: chunks and their
embeddings, document state, and ingestion run history.

The account itself and its stored credentials are untouched; a later
'mailrag ingest' rebuilds the index from scratch.`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().StringVar(&purgeUser, "user", "", "account to purge (default from config)")
	purgeCmd.Flags().BoolVar(&purgeYes, "yes", false, "skip the confirmation prompt")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	userID := currentUserID(purgeUser)
	if userID == "" {
		return errors.New("no account configured, run 'mailrag auth' first or pass --user")
	}

	if !purgeYes {
		cmd.Printf("This deletes all ingested data for %s. Continue? [y/N] ", userID)
		var answer string
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
		if answer != "y" && answer != "Y" && answer != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := ingestService.PurgeUser(cmd.Context(), userID); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	cmd.Printf("All data for %s deleted.\n", userID)
	return nil
}
