package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailrag-cli/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open an interactive question-and-answer session",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if assistantService == nil {
		return fmt.Errorf("assistant service not configured")
	}

	userID := currentUserID("")
	if userID == "" {
		return fmt.Errorf("no account configured, run 'mailrag auth' first")
	}

	return tui.Run(cmd.Context(), &tui.Ports{
		Assistant: assistantService,
		UserID:    userID,
	})
}
