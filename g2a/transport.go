package g2a

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/keymarket/g2a-connect/apierr"
	"github.com/keymarket/g2a-connect/auth"
	"github.com/keymarket/g2a-connect/observe"
	"github.com/keymarket/g2a-connect/resilience"
)

// authScheme selects which credential scheme a request uses.
type authScheme int

const (
	// authBearer is the OAuth2 bearer token used by the Import API.
	authBearer authScheme = iota
	// authSignature is the X-API-KEY/X-API-HASH scheme of the Export API.
	authSignature
)

// maxResponseBody caps how much of a partner response is read.
const maxResponseBody = 10 << 20

// request describes one partner call for the shared pipeline.
type request struct {
	method string
	path   string
	query  url.Values
	body   any

	// endpoint is the logical operation name used for rate limiting,
	// metrics and per-endpoint buckets, for example "orders.pay".
	endpoint string

	// notFound is the taxonomy code a 404 maps to on this route. Empty
	// means 404 has no resource meaning here.
	notFound apierr.Code

	scheme authScheme

	// tight routes the call through the reservation executor with its
	// fixed short timeout.
	tight bool
}

// transport is the single choke point every service module calls
// through. It owns the resilience pipeline, both auth schemes, and the
// boundary where raw failures become taxonomy errors.
type transport struct {
	baseURL string
	http    *http.Client

	tokens auth.TokenProvider
	signer *auth.Signer

	exec      *resilience.Executor
	tightExec *resilience.Executor

	inst   *observe.Instrument
	logger observe.Logger
}

// do runs req through the pipeline and decodes the response into out
// (skipped when out is nil). Every returned error carries a taxonomy
// code.
func (t *transport) do(ctx context.Context, req request, out any) error {
	requestID := uuid.NewString()
	meta := observe.CallMeta{Endpoint: req.endpoint, Method: req.method, RequestID: requestID}

	exec := t.exec
	if req.tight {
		exec = t.tightExec
	}

	return t.inst.Call(ctx, meta, func(ctx context.Context) (observe.Outcome, error) {
		var attempts int64
		err := exec.Execute(ctx, req.endpoint, func(ctx context.Context) error {
			attempts++
			return t.roundTrip(ctx, req, requestID, out)
		})
		err = mapSentinels(err)

		outcome := observe.Outcome{}
		if attempts > 1 {
			outcome.Retries = attempts - 1
		}
		if err != nil {
			outcome.Code = string(apierr.CodeOf(err))
		}
		return outcome, err
	})
}

// roundTrip performs one HTTP attempt. HTTP and transport failures are
// mapped into the taxonomy here, per attempt, so the retry layer can
// classify them.
func (t *transport) roundTrip(ctx context.Context, req request, requestID string, out any) error {
	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return apierr.Wrap(apierr.CodeInvalidRequest, "encoding request body", err)
		}
		body = bytes.NewReader(data)
	}

	u := t.baseURL + "/" + strings.TrimPrefix(req.path, "/")
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return apierr.Wrap(apierr.CodeInvalidRequest, "building request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	switch req.scheme {
	case authSignature:
		if t.signer == nil {
			return apierr.New(apierr.CodeAuthFailed, "export API credentials not configured")
		}
		t.signer.Apply(httpReq)
	default:
		if err := auth.ApplyBearer(ctx, t.tokens, httpReq); err != nil {
			return apierr.Wrap(apierr.CodeAuthFailed, "acquiring access token", err)
		}
	}

	resp, err := t.http.Do(httpReq)
	if err != nil {
		return apierr.FromTransport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return apierr.FromTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized && req.scheme == authBearer {
			// The cached token may have been revoked; the next call
			// fetches a fresh one.
			t.tokens.Invalidate()
		}
		return apierr.FromHTTP(resp.StatusCode, respBody, req.notFound)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return apierr.Wrap(apierr.CodeAPIError, "decoding partner response", err)
		}
	}
	return nil
}

// mapSentinels converts resilience sentinels that escaped the pipeline
// into taxonomy errors. Circuit-open and rate-limited stay distinct
// codes so callers can tell "partner is down" from "request was shed".
func mapSentinels(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apierr.Wrap(apierr.CodeCircuitOpen, "circuit breaker is open", err)
	case errors.Is(err, resilience.ErrRateLimited):
		return apierr.Wrap(apierr.CodeRateLimited, "client-side rate limit exceeded", err)
	case errors.Is(err, resilience.ErrBulkheadFull):
		return apierr.Wrap(apierr.CodeRateLimited, "in-flight request cap reached", err).
			WithSubCode("bulkhead_full")
	case errors.Is(err, resilience.ErrTimeout):
		return apierr.Wrap(apierr.CodeTimeout, "attempt deadline exceeded", err)
	}
	return err
}

// retryClassifier wires the taxonomy's retryability table into the
// retry layer. Per-attempt timeouts surface as the resilience sentinel
// before mapping, so they are classified here as well.
func retryClassifier(err error) bool {
	if errors.Is(err, resilience.ErrTimeout) {
		return true
	}
	return apierr.IsRetryable(err)
}
