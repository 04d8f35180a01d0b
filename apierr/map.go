package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// partnerBody is the error envelope the partner API returns. Both the
// Import and Export surfaces use the same shape.
type partnerBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// subCodeOverrides maps partner sub-codes to taxonomy codes when the
// sub-code is more specific than the HTTP status.
var subCodeOverrides = map[string]Code{
	"out_of_stock":       CodeOutOfStock,
	"offer_out_of_stock": CodeOutOfStock,
	"order_not_found":    CodeOrderNotFound,
	"product_not_found":  CodeProductNotFound,
}

// FromTransport maps a transport-level failure (connection error, timeout,
// cancelled context) into the taxonomy. Called when no HTTP response was
// received at all.
func FromTransport(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(CodeTimeout, "request deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return Wrap(CodeTimeout, "request cancelled", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Wrap(CodeTimeout, "network timeout", err)
	}

	return Wrap(CodeAPIError, fmt.Sprintf("transport failure: %v", err), err)
}

// FromHTTP maps a non-2xx HTTP response into the taxonomy. notFound is the
// code to use for a 404 on this endpoint (order vs product); callers pass
// CodeAPIError when 404 has no resource meaning for the route.
//
// This is the single mapping point: nothing above the request pipeline
// inspects status codes or partner bodies.
func FromHTTP(status int, body []byte, notFound Code) *Error {
	var pb partnerBody
	_ = json.Unmarshal(body, &pb) // best effort; empty on non-JSON bodies

	msg := pb.Message
	if msg == "" {
		msg = fmt.Sprintf("partner API returned status %d", status)
	}

	if code, ok := subCodeOverrides[pb.Code]; ok {
		return New(code, msg).WithSubCode(pb.Code).WithContext("status", status)
	}

	var code Code
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = CodeAuthFailed
	case status == http.StatusNotFound:
		code = notFound
		if code == "" {
			code = CodeAPIError
		}
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		code = CodeTimeout
	case status == http.StatusTooManyRequests:
		code = CodeRateLimited
	case status >= 400 && status < 500:
		code = CodeInvalidRequest
	default:
		code = CodeAPIError
	}

	e := New(code, msg).WithContext("status", status)
	if pb.Code != "" {
		e = e.WithSubCode(pb.Code)
	}
	return e
}
