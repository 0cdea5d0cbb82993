package tui

import (
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Assistant answers grounded questions.
	Assistant driving.AssistantService

	// UserID is the account questions are scoped to.
	UserID string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Assistant == nil {
		return ErrMissingAssistantService
	}
	return nil
}
