// Package cli implements the mailrag command line interface.
//
// Commands are wired to core services through package-level variables
// set by the composition root before Execute runs. Commands that need
// a service check for nil and fail with a configuration error, which
// keeps them testable without a full service graph.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driving"
	"github.com/custodia-labs/mailrag-cli/internal/logger"
)

// version is the build version, overridden at link time.
var version = "dev"

// Services injected by the composition root.
var (
	assistantService driving.AssistantService
	ingestService    driving.IngestService
	configStore      driven.ConfigStore
	tokenProvider    driven.TokenProvider
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "mailrag",
	Short: "Ask questions of your own mail and documents",
	Long: `mailrag ingests your email, documents and calendar into a local
vector store and answers questions grounded in that content.

All data stays on your machine; only embedding and generation requests
leave it, to the provider you configure.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetAssistantService injects the assistant service.
func SetAssistantService(s driving.AssistantService) {
	assistantService = s
}

// SetIngestService injects the ingest service.
func SetIngestService(s driving.IngestService) {
	ingestService = s
}

// SetConfigStore injects the configuration store.
func SetConfigStore(s driven.ConfigStore) {
	configStore = s
}

// SetTokenProvider injects the token provider used by connectors.
func SetTokenProvider(p driven.TokenProvider) {
	tokenProvider = p
}

// currentUserID resolves the account to operate on: an explicit flag
// wins, then the configured account.
func currentUserID(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if configStore != nil {
		return configStore.GetString("user.id")
	}
	return ""
}
