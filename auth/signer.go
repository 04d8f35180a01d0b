package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"
)

// Signer produces the per-request HMAC headers for the Export API.
type Signer struct {
	apiKey    string
	apiSecret string
	email     string

	now func() time.Time
}

// NewSigner creates a signer from Export API credentials.
func NewSigner(apiKey, apiSecret, email string) (*Signer, error) {
	if apiKey == "" || apiSecret == "" || email == "" {
		return nil, ErrMissingCredentials
	}
	return &Signer{apiKey: apiKey, apiSecret: apiSecret, email: email, now: time.Now}, nil
}

// Sign computes the signature headers for the given unix timestamp.
// The hash is a hex HMAC-SHA256 over apiKey + email + timestamp keyed
// with the API secret.
func (s *Signer) Sign(timestamp int64) map[string]string {
	ts := strconv.FormatInt(timestamp, 10)
	mac := hmac.New(sha256.New, []byte(s.apiSecret))
	mac.Write([]byte(s.apiKey + s.email + ts))

	return map[string]string{
		"X-API-KEY":       s.apiKey,
		"X-API-HASH":      hex.EncodeToString(mac.Sum(nil)),
		"X-API-TIMESTAMP": ts,
	}
}

// Apply stamps the signature headers onto req using the current time.
func (s *Signer) Apply(req *http.Request) {
	for k, v := range s.Sign(s.now().Unix()) {
		req.Header.Set(k, v)
	}
}
