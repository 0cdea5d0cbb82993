package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
)

// Ensure OAuthProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*OAuthProvider)(nil)

// Config keys under which OAuth credentials live.
const (
	keyClientID     = "google.client_id"
	keyClientSecret = "google.client_secret"
	keyRefreshToken = "google.refresh_token"
	keyAccessToken  = "google.access_token"
	keyTokenExpiry  = "google.token_expiry"
)

// refreshBuffer is how early a token is considered expired, so API calls
// never race the real expiry.
const refreshBuffer = 5 * time.Minute

// OAuthProvider provides OAuth2 access tokens with automatic refresh.
// Credentials are read from the config store and refreshed tokens are
// written back so they survive restarts.
type OAuthProvider struct {
	config   driven.ConfigStore
	endpoint oauth2.Endpoint

	mu          sync.RWMutex
	cachedToken string
	cacheExpiry time.Time
}

// OAuthOption configures an OAuthProvider.
type OAuthOption func(*OAuthProvider)

// WithEndpoint overrides the OAuth2 endpoint. The default is Google's.
func WithEndpoint(ep oauth2.Endpoint) OAuthOption {
	return func(p *OAuthProvider) {
		p.endpoint = ep
	}
}

// NewOAuthProvider creates a token provider backed by the config store.
func NewOAuthProvider(config driven.ConfigStore, opts ...OAuthOption) *OAuthProvider {
	p := &OAuthProvider{
		config:   config,
		endpoint: google.Endpoint,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetToken returns a valid access token, refreshing if necessary.
func (p *OAuthProvider) GetToken(ctx context.Context) (string, error) {
	// Fast path: check cache with read lock
	p.mu.RLock()
	if p.cachedToken != "" && time.Now().Before(p.cacheExpiry) {
		token := p.cachedToken
		p.mu.RUnlock()
		return token, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if p.cachedToken != "" && time.Now().Before(p.cacheExpiry) {
		return p.cachedToken, nil
	}

	current := p.storedToken()
	if current.AccessToken == "" && current.RefreshToken == "" {
		return "", fmt.Errorf("no google credentials configured, run 'mailrag auth' first")
	}

	// Still valid? Use it without a round trip.
	if current.AccessToken != "" && !current.Expiry.IsZero() &&
		time.Until(current.Expiry) > refreshBuffer {
		p.cache(current)
		return p.cachedToken, nil
	}

	cfg := &oauth2.Config{
		ClientID:     p.config.GetString(keyClientID),
		ClientSecret: p.config.GetString(keyClientSecret),
		Endpoint:     p.endpoint,
	}

	fresh, err := cfg.TokenSource(ctx, current).Token()
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}

	if err := p.persist(fresh); err != nil {
		return "", fmt.Errorf("save refreshed credentials: %w", err)
	}

	p.cache(fresh)
	return p.cachedToken, nil
}

// IsAuthenticated returns true if credentials exist in the config store.
func (p *OAuthProvider) IsAuthenticated() bool {
	p.mu.RLock()
	if p.cachedToken != "" && time.Now().Before(p.cacheExpiry) {
		p.mu.RUnlock()
		return true
	}
	p.mu.RUnlock()

	return p.config.GetString(keyRefreshToken) != "" ||
		p.config.GetString(keyAccessToken) != ""
}

// storedToken reads the persisted token from the config store.
func (p *OAuthProvider) storedToken() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  p.config.GetString(keyAccessToken),
		RefreshToken: p.config.GetString(keyRefreshToken),
		TokenType:    "Bearer",
	}
	if raw := p.config.GetString(keyTokenExpiry); raw != "" {
		if expiry, err := time.Parse(time.RFC3339, raw); err == nil {
			tok.Expiry = expiry
		}
	}
	return tok
}

// persist writes a refreshed token back to the config store.
func (p *OAuthProvider) persist(tok *oauth2.Token) error {
	if err := p.config.Set(keyAccessToken, tok.AccessToken); err != nil {
		return err
	}
	if tok.RefreshToken != "" {
		if err := p.config.Set(keyRefreshToken, tok.RefreshToken); err != nil {
			return err
		}
	}
	if !tok.Expiry.IsZero() {
		if err := p.config.Set(keyTokenExpiry, tok.Expiry.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}

// cache stores the token in memory, honouring the refresh buffer.
func (p *OAuthProvider) cache(tok *oauth2.Token) {
	p.cachedToken = tok.AccessToken
	if !tok.Expiry.IsZero() {
		p.cacheExpiry = tok.Expiry.Add(-refreshBuffer)
	} else {
		p.cacheExpiry = time.Now().Add(1 * time.Hour)
	}
}
