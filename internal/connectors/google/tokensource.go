package google

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
)

// tokenSource bridges the TokenProvider port to oauth2.TokenSource so
// the generated Google clients can pull tokens from the app's own
// credential storage. Refresh handling stays behind the port.
type tokenSource struct {
	ctx      context.Context
	provider driven.TokenProvider
}

var _ oauth2.TokenSource = (*tokenSource)(nil)

// NewTokenSource wraps provider for use with option.WithTokenSource.
// The context bounds every token fetch the API clients trigger.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, provider: provider}
}

func (t *tokenSource) Token() (*oauth2.Token, error) {
	access, err := t.provider.GetToken(t.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}
