package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenProvider supplies bearer tokens for the Import API.
type TokenProvider interface {
	// Token returns a valid access token, fetching a fresh one if the
	// cached token is missing or about to expire.
	Token(ctx context.Context) (string, error)

	// Invalidate drops the cached token so the next call fetches a new
	// one. Called after the partner rejects a request with 401.
	Invalidate()
}

// OAuthConfig configures the client-credentials token provider.
type OAuthConfig struct {
	// TokenURL is the partner token endpoint.
	TokenURL string

	// ClientID and ClientSecret are the Import API credentials.
	ClientID     string
	ClientSecret string

	// Scopes requested with the token, if any.
	Scopes []string

	// ExpirySkew refreshes the token this long before its reported
	// expiry. Default: 30s
	ExpirySkew time.Duration

	// HTTPClient performs the token exchange. Default: http.DefaultClient
	HTTPClient *http.Client
}

// OAuthTokenProvider fetches and caches client-credentials tokens.
type OAuthTokenProvider struct {
	config OAuthConfig
	cc     clientcredentials.Config

	mu     sync.Mutex
	token  string
	expiry time.Time

	now func() time.Time
}

// NewOAuthTokenProvider creates a token provider for the Import API.
func NewOAuthTokenProvider(config OAuthConfig) (*OAuthTokenProvider, error) {
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if config.TokenURL == "" {
		return nil, fmt.Errorf("%w: token URL is required", ErrMissingCredentials)
	}
	if config.ExpirySkew <= 0 {
		config.ExpirySkew = 30 * time.Second
	}

	return &OAuthTokenProvider{
		config: config,
		cc: clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     config.TokenURL,
			Scopes:       config.Scopes,
		},
		now: time.Now,
	}, nil
}

// Token returns the cached token or exchanges credentials for a new one.
func (p *OAuthTokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Before(p.expiry.Add(-p.config.ExpirySkew)) {
		return p.token, nil
	}

	if p.config.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.config.HTTPClient)
	}
	tok, err := p.cc.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenFetch, err)
	}

	p.token = tok.AccessToken
	p.expiry = tok.Expiry
	if p.expiry.IsZero() {
		// Some token endpoints omit expires_in. When the token is a
		// JWT, its exp claim still tells us when to refresh.
		p.expiry = peekExpiry(tok.AccessToken, p.now())
	}
	return p.token, nil
}

// Invalidate drops the cached token.
func (p *OAuthTokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expiry = time.Time{}
}

// peekExpiry reads the exp claim of a JWT-shaped token without
// verifying the signature. Falls back to a fixed one-hour lifetime for
// opaque tokens.
func peekExpiry(token string, now time.Time) time.Time {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return now.Add(time.Hour)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return now.Add(time.Hour)
	}
	return exp.Time
}

// ApplyBearer sets the Authorization header on req.
func ApplyBearer(ctx context.Context, provider TokenProvider, req *http.Request) error {
	token, err := provider.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// StaticTokenProvider returns a fixed token. Used in tests.
type StaticTokenProvider string

func (s StaticTokenProvider) Token(context.Context) (string, error) { return string(s), nil }
func (s StaticTokenProvider) Invalidate()                           {}
