package cli

import "github.com/spf13/cobra"

// version is injected from the composition root, which gets it from
// ldflags at release time.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the mailrag version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("mailrag version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
