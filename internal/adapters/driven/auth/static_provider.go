package auth

import (
	"context"

	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
)

// Ensure StaticProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*StaticProvider)(nil)

// StaticProvider returns a fixed access token. It never refreshes.
type StaticProvider struct {
	token string
}

// NewStaticProvider creates a provider for a pre-obtained token.
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

// GetToken returns the configured token.
func (p *StaticProvider) GetToken(_ context.Context) (string, error) {
	return p.token, nil
}

// IsAuthenticated returns true if a token was configured.
func (p *StaticProvider) IsAuthenticated() bool {
	return p.token != ""
}
