package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the user's mail and documents"`
	UserID   string `json:"user_id,omitempty" jsonschema:"account to query (defaults to the configured account)"`
	K        int    `json:"k,omitempty" jsonschema:"number of passages to retrieve (default 5)"`
	Days     int    `json:"days,omitempty" jsonschema:"only consider content from the last N days"`
	Source   string `json:"source,omitempty" jsonschema:"restrict to one source kind: email, drive or calendar"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput describes one passage the answer was grounded in.
type SourceOutput struct {
	Source   string  `json:"source"`
	SourceID string  `json:"source_id"`
	Subject  string  `json:"subject,omitempty"`
	Sender   string  `json:"sender,omitempty"`
	Distance float64 `json:"distance"`
	Content  string  `json:"content"`
}

// StyleInput is the input schema for the analyze_style tool.
type StyleInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"account to analyse (defaults to the configured account)"`
}

// StyleOutput is the output schema for the analyze_style tool.
type StyleOutput struct {
	Profile *domain.StyleProfile `json:"profile"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question grounded in the user's ingested mail and documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_style",
		Description: "Analyse the user's writing style from their recent emails",
	}, s.handleAnalyzeStyle)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	qc := domain.QueryContext{
		UserID: s.userID(input.UserID),
		Query:  input.Question,
		K:      input.K,
	}
	if input.Days > 0 {
		days := input.Days
		qc.TimeWindowDays = &days
	}
	if input.Source != "" {
		kind, err := domain.ParseSourceKind(input.Source)
		if err != nil {
			return nil, AskOutput{}, err
		}
		qc.Source = &kind
	}

	answer, scored, err := s.ports.Assistant.Query(ctx, qc)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:  answer,
		Sources: make([]SourceOutput, len(scored)),
	}
	for i := range scored {
		chunk := &scored[i].Chunk
		output.Sources[i] = SourceOutput{
			Source:   string(chunk.Source),
			SourceID: chunk.SourceID,
			Subject:  metadataString(chunk.Metadata, "subject"),
			Sender:   metadataString(chunk.Metadata, "sender"),
			Distance: scored[i].Distance,
			Content:  chunk.Content,
		}
	}

	return nil, output, nil
}

// handleAnalyzeStyle handles the analyze_style tool invocation.
func (s *Server) handleAnalyzeStyle(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StyleInput,
) (*mcp.CallToolResult, StyleOutput, error) {
	profile, err := s.ports.Assistant.AnalyzeStyle(ctx, s.userID(input.UserID))
	if err != nil {
		return nil, StyleOutput{}, err
	}
	return nil, StyleOutput{Profile: profile}, nil
}

func metadataString(md map[string]any, key string) string {
	if md == nil {
		return ""
	}
	if v, ok := md[key].(string); ok {
		return v
	}
	return ""
}
