package driven

import "context"

// TokenProvider supplies access tokens for authenticated API calls.
// Implementations handle token refresh transparently.
type TokenProvider interface {
	// GetToken returns a valid access token, refreshing it first if the
	// cached one has expired.
	GetToken(ctx context.Context) (string, error)

	// IsAuthenticated reports whether valid credentials are available.
	IsAuthenticated() bool
}
