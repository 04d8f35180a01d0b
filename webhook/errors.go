package webhook

import "errors"

var (
	// ErrMissingSecret is returned when a verifier is built without a
	// shared secret.
	ErrMissingSecret = errors.New("webhook: missing secret")

	// ErrMissingTriple is returned when neither the headers nor the
	// payload envelope carry a complete signature, nonce and timestamp.
	ErrMissingTriple = errors.New("webhook: missing signature, nonce or timestamp")

	// ErrBadEnvelope is returned when the triple must be read from the
	// body but the body is not a valid envelope.
	ErrBadEnvelope = errors.New("webhook: malformed payload envelope")

	// ErrBadTimestamp is returned for a timestamp that does not parse
	// as unix seconds.
	ErrBadTimestamp = errors.New("webhook: malformed timestamp")

	// ErrStaleTimestamp is returned when the timestamp falls outside
	// the tolerance window on either side.
	ErrStaleTimestamp = errors.New("webhook: timestamp outside tolerance window")

	// ErrBadNonce is returned for a nonce that is not a UUID.
	ErrBadNonce = errors.New("webhook: malformed nonce")

	// ErrReplayedNonce is returned when a nonce was already accepted
	// within its TTL.
	ErrReplayedNonce = errors.New("webhook: replayed nonce")

	// ErrSignatureMismatch is returned when the computed HMAC does not
	// match the presented signature.
	ErrSignatureMismatch = errors.New("webhook: signature mismatch")
)
