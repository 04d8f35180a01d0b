package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func tokenEndpoint(t *testing.T, fetches *int, body map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token request method = %s, want POST", r.Method)
		}
		*fetches++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
}

func TestOAuthTokenProviderCachesToken(t *testing.T) {
	fetches := 0
	srv := tokenEndpoint(t, &fetches, map[string]any{
		"access_token": "tok-1",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
	defer srv.Close()

	p, err := NewOAuthTokenProvider(OAuthConfig{
		TokenURL:     srv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
	})
	if err != nil {
		t.Fatalf("NewOAuthTokenProvider() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		tok, err := p.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if tok != "tok-1" {
			t.Fatalf("Token() = %q, want tok-1", tok)
		}
	}
	if fetches != 1 {
		t.Errorf("token endpoint hit %d times, want 1", fetches)
	}
}

func TestOAuthTokenProviderRefreshesNearExpiry(t *testing.T) {
	fetches := 0
	srv := tokenEndpoint(t, &fetches, map[string]any{
		"access_token": "tok",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
	defer srv.Close()

	p, err := NewOAuthTokenProvider(OAuthConfig{
		TokenURL:     srv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		ExpirySkew:   30 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	base := time.Now()
	p.now = func() time.Time { return base }
	if _, err := p.Token(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Inside the skew window the cached token no longer counts as valid.
	p.now = func() time.Time { return base.Add(3590 * time.Second) }
	if _, err := p.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fetches != 2 {
		t.Errorf("token endpoint hit %d times, want 2", fetches)
	}
}

func TestOAuthTokenProviderInvalidate(t *testing.T) {
	fetches := 0
	srv := tokenEndpoint(t, &fetches, map[string]any{
		"access_token": "tok",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
	defer srv.Close()

	p, err := NewOAuthTokenProvider(OAuthConfig{TokenURL: srv.URL, ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	p.Invalidate()
	if _, err := p.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fetches != 2 {
		t.Errorf("token endpoint hit %d times after Invalidate, want 2", fetches)
	}
}

func TestOAuthTokenProviderValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  OAuthConfig
	}{
		{"missing client id", OAuthConfig{TokenURL: "http://x", ClientSecret: "s"}},
		{"missing secret", OAuthConfig{TokenURL: "http://x", ClientID: "id"}},
		{"missing token url", OAuthConfig{ClientID: "id", ClientSecret: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewOAuthTokenProvider(tt.cfg); !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("error = %v, want ErrMissingCredentials", err)
			}
		})
	}
}

func TestPeekExpiryFromJWT(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Unix()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"exp":%d}`, exp)))
	token := header + "." + payload + ".sig"

	got := peekExpiry(token, time.Now())
	if got.Unix() != exp {
		t.Errorf("peekExpiry() = %v, want unix %d", got, exp)
	}
}

func TestPeekExpiryOpaqueToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := peekExpiry("not-a-jwt", now)
	if want := now.Add(time.Hour); !got.Equal(want) {
		t.Errorf("peekExpiry() = %v, want %v", got, want)
	}
}

func TestApplyBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/v1/products", nil)
	if err := ApplyBearer(context.Background(), StaticTokenProvider("abc"), req); err != nil {
		t.Fatal(err)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer abc" {
		t.Errorf("Authorization = %q, want Bearer abc", got)
	}
}

func TestSignerSign(t *testing.T) {
	s, err := NewSigner("key-123", "secret-456", "seller@example.com")
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}

	headers := s.Sign(1700000000)

	mac := hmac.New(sha256.New, []byte("secret-456"))
	mac.Write([]byte("key-123" + "seller@example.com" + "1700000000"))
	want := hex.EncodeToString(mac.Sum(nil))

	if headers["X-API-KEY"] != "key-123" {
		t.Errorf("X-API-KEY = %q", headers["X-API-KEY"])
	}
	if headers["X-API-HASH"] != want {
		t.Errorf("X-API-HASH = %q, want %q", headers["X-API-HASH"], want)
	}
	if headers["X-API-TIMESTAMP"] != "1700000000" {
		t.Errorf("X-API-TIMESTAMP = %q", headers["X-API-TIMESTAMP"])
	}
}

func TestSignerApply(t *testing.T) {
	s, err := NewSigner("key", "secret", "a@b.c")
	if err != nil {
		t.Fatal(err)
	}
	fixed := time.Unix(1700000123, 0)
	s.now = func() time.Time { return fixed }

	req := httptest.NewRequest(http.MethodGet, "http://example.com/v1/orders", nil)
	s.Apply(req)

	if got := req.Header.Get("X-API-TIMESTAMP"); got != "1700000123" {
		t.Errorf("X-API-TIMESTAMP = %q, want 1700000123", got)
	}
	if req.Header.Get("X-API-HASH") == "" || req.Header.Get("X-API-KEY") != "key" {
		t.Errorf("signature headers missing: %v", req.Header)
	}
}

func TestSignerValidation(t *testing.T) {
	if _, err := NewSigner("", "s", "e"); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("error = %v, want ErrMissingCredentials", err)
	}
}
