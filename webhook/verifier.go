package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Header names carrying the verification triple.
const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderNonce     = "X-Webhook-Nonce"
	HeaderTimestamp = "X-Webhook-Timestamp"
)

// Config tunes a Verifier.
type Config struct {
	// Secret is the shared HMAC key agreed with the partner.
	Secret string

	// Tolerance bounds how far an event timestamp may drift from local
	// time in either direction.
	// Default: 5m
	Tolerance time.Duration

	// NonceTTL is how long an accepted nonce blocks replays. It should
	// exceed Tolerance, otherwise a replay within the tolerance window
	// could slip past an already-expired ledger entry.
	// Default: 10m
	NonceTTL time.Duration

	// MaxNonces bounds the replay ledger.
	// Default: 10000
	MaxNonces int
}

func (c Config) withDefaults() Config {
	if c.Tolerance <= 0 {
		c.Tolerance = 5 * time.Minute
	}
	if c.NonceTTL <= 0 {
		c.NonceTTL = 10 * time.Minute
	}
	if c.MaxNonces <= 0 {
		c.MaxNonces = 10000
	}
	return c
}

// envelope is the JSON fallback shape for senders that cannot set
// headers. The signature covers the raw event member, not the
// envelope itself.
type envelope struct {
	Signature string          `json:"signature"`
	Nonce     string          `json:"nonce"`
	Timestamp json.Number     `json:"timestamp"`
	Event     json.RawMessage `json:"event"`
}

// Verifier authenticates inbound partner events.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	ledger    *nonceLedger

	now func() time.Time
}

// NewVerifier creates a verifier for the shared secret.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	cfg = cfg.withDefaults()
	return &Verifier{
		secret:    []byte(cfg.Secret),
		tolerance: cfg.Tolerance,
		ledger:    newNonceLedger(cfg.NonceTTL, cfg.MaxNonces),
		now:       time.Now,
	}, nil
}

// Verify authenticates one inbound event. The triple is read from the
// headers when all three are present, otherwise from the body
// envelope. The timestamp must fall within the tolerance window, the
// nonce must be a fresh UUID, and the signature must match the HMAC
// over timestamp, nonce and signed payload. The nonce is burned only
// after the signature checks out, so unauthenticated traffic cannot
// poison the ledger.
func (v *Verifier) Verify(headers http.Header, body []byte) error {
	sig, nonce, ts, signed, err := extractTriple(headers, body)
	if err != nil {
		return err
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrBadTimestamp
	}
	drift := v.now().Sub(time.Unix(unix, 0))
	if drift < 0 {
		drift = -drift
	}
	if drift > v.tolerance {
		return ErrStaleTimestamp
	}

	if _, err := uuid.Parse(nonce); err != nil {
		return ErrBadNonce
	}

	want := Signature(v.secret, unix, nonce, signed)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return ErrSignatureMismatch
	}

	if !v.ledger.remember(nonce) {
		return ErrReplayedNonce
	}
	return nil
}

// extractTriple resolves the signature, nonce and timestamp plus the
// bytes the signature covers. Headers win; a partial header set falls
// through to the body envelope.
func extractTriple(headers http.Header, body []byte) (sig, nonce, ts string, signed []byte, err error) {
	sig = headers.Get(HeaderSignature)
	nonce = headers.Get(HeaderNonce)
	ts = headers.Get(HeaderTimestamp)
	if sig != "" && nonce != "" && ts != "" {
		return sig, nonce, ts, body, nil
	}

	var env envelope
	if jsonErr := json.Unmarshal(body, &env); jsonErr != nil {
		return "", "", "", nil, ErrBadEnvelope
	}
	if env.Signature == "" || env.Nonce == "" || env.Timestamp == "" {
		return "", "", "", nil, ErrMissingTriple
	}
	if len(env.Event) == 0 {
		return "", "", "", nil, ErrBadEnvelope
	}
	return env.Signature, env.Nonce, env.Timestamp.String(), env.Event, nil
}

// Signature computes the hex HMAC-SHA256 the partner attaches to an
// event: the key is the shared secret, the message is
// "<unix>.<nonce>." followed by the signed payload bytes.
func Signature(secret []byte, unix int64, nonce string, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.%s.", unix, nonce)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
