package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

var (
	askK      int
	askDays   int
	askSource string
	askUser   string
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question grounded in your ingested content",
	Long: `Answers a question using the most relevant passages from your
ingested mail, documents and calendar entries. The answer cites the
passages it was grounded in.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askK, "k", 0, "number of passages to retrieve (default 5)")
	askCmd.Flags().IntVar(&askDays, "days", 0, "only consider content from the last N days")
	askCmd.Flags().StringVar(&askSource, "source", "", "restrict to one source: email, drive or calendar")
	askCmd.Flags().StringVar(&askUser, "user", "", "account to query (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer and sources as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if assistantService == nil {
		return errors.New("assistant service not configured")
	}

	qc := domain.QueryContext{
		UserID: currentUserID(askUser),
		Query:  args[0],
		K:      askK,
	}
	if askDays > 0 {
		days := askDays
		qc.TimeWindowDays = &days
	}
	if askSource != "" {
		kind, err := domain.ParseSourceKind(askSource)
		if err != nil {
			return err
		}
		qc.Source = &kind
	}

	answer, sources, err := assistantService.Query(cmd.Context(), qc)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if askJSON {
		return outputAskJSON(cmd, answer, sources)
	}

	cmd.Println(answer)
	if len(sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i := range sources {
			cmd.Printf("  [%d] %s\n", i+1, describeSource(&sources[i].Chunk))
		}
	}
	return nil
}

func outputAskJSON(cmd *cobra.Command, answer string, sources []domain.ScoredChunk) error {
	type sourceOut struct {
		Source   string  `json:"source"`
		SourceID string  `json:"source_id"`
		Subject  string  `json:"subject,omitempty"`
		Distance float64 `json:"distance"`
	}
	out := struct {
		Answer  string      `json:"answer"`
		Sources []sourceOut `json:"sources"`
	}{
		Answer:  answer,
		Sources: make([]sourceOut, len(sources)),
	}
	for i := range sources {
		chunk := &sources[i].Chunk
		out.Sources[i] = sourceOut{
			Source:   string(chunk.Source),
			SourceID: chunk.SourceID,
			Subject:  chunkMetaString(chunk, "subject"),
			Distance: sources[i].Distance,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// describeSource renders a one-line provenance description.
func describeSource(chunk *domain.Chunk) string {
	desc := string(chunk.Source)
	if subject := chunkMetaString(chunk, "subject"); subject != "" {
		desc += ": " + subject
	}
	if sender := chunkMetaString(chunk, "sender"); sender != "" {
		desc += " (" + sender + ")"
	}
	return desc
}

func chunkMetaString(chunk *domain.Chunk, key string) string {
	if chunk.Metadata == nil {
		return ""
	}
	if v, ok := chunk.Metadata[key].(string); ok {
		return v
	}
	return ""
}
