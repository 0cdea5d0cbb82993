package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

var (
	styleUser string
	styleJSON bool
)

var styleCmd = &cobra.Command{
	Use:   "style",
	Short: "Analyse your writing style from recent emails",
	Long: `Derives a writing style profile (tone, common phrases, greetings,
sign-offs) from your most recent ingested emails.`,
	RunE: runStyle,
}

func init() {
	styleCmd.Flags().StringVar(&styleUser, "user", "", "account to analyse (default from config)")
	styleCmd.Flags().BoolVar(&styleJSON, "json", false, "output the profile as JSON")
	rootCmd.AddCommand(styleCmd)
}

func runStyle(cmd *cobra.Command, _ []string) error {
	if assistantService == nil {
		return errors.New("assistant service not configured")
	}

	userID := currentUserID(styleUser)
	profile, err := assistantService.AnalyzeStyle(cmd.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			return errors.New("no email data available, run 'mailrag ingest' first")
		}
		return fmt.Errorf("style analysis failed: %w", err)
	}

	if styleJSON {
		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printProfile(cmd, profile)
	return nil
}

func printProfile(cmd *cobra.Command, profile *domain.StyleProfile) {
	if profile.Raw != "" {
		cmd.Println(profile.Raw)
		return
	}

	cmd.Println("Writing Style Profile")
	cmd.Println("=====================")
	if profile.Tone != "" {
		cmd.Printf("Tone: %s\n", profile.Tone)
	}
	printList(cmd, "Common phrases", profile.CommonPhrases)
	printList(cmd, "Greetings", profile.Greetings)
	printList(cmd, "Sign-offs", profile.SignOffs)
	printList(cmd, "Vocabulary", profile.Vocabulary)
	printList(cmd, "Sentence patterns", profile.SentencePatterns)
}

func printList(cmd *cobra.Command, label string, items []string) {
	if len(items) == 0 {
		return
	}
	cmd.Printf("%s:\n", label)
	for _, item := range items {
		cmd.Printf("  - %s\n", strings.TrimSpace(item))
	}
}
