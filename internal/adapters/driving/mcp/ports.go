package mcp

import (
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Assistant answers grounded questions and analyses writing style.
	Assistant driving.AssistantService

	// Ingest reports ingestion run status. Optional.
	Ingest driving.IngestService

	// UserID is the account tools operate on when the caller does not
	// name one.
	UserID string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Assistant == nil {
		return ErrMissingAssistantService
	}
	if p.UserID == "" {
		return ErrMissingUserID
	}
	// Ingest is optional; run resources degrade gracefully without it
	return nil
}
