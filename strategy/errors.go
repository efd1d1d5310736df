package strategy

import (
	"context"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/jrsteele09/go-oauth2-strategy/internal/errors"
	xoauth2 "golang.org/x/oauth2"
)

// ErrorKind tags every terminal failure of a flow.
type ErrorKind string

const (
	KindProviderError      ErrorKind = "provider_error"
	KindCSRFDetected       ErrorKind = "csrf_detected"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindInvalidResponse    ErrorKind = "invalid_response"
	KindTimeout            ErrorKind = "timeout"
	KindFailedToConnect    ErrorKind = "failed_to_connect"
)

// CallbackError is the single error type reported to the host on failure.
type CallbackError struct {
	Kind ErrorKind

	// Code is the provider's error code when there is one, e.g. "access_denied".
	Code string
	// Reason is a human readable description.
	Reason string
	// URI points at provider documentation for the error.
	URI string

	Err error
}

func newCallbackError(kind ErrorKind, code, reason, uri string, cause error) *CallbackError {
	return &CallbackError{Kind: kind, Code: code, Reason: reason, URI: uri, Err: cause}
}

// Message joins the non-empty code, reason and uri with " | ".
func (e *CallbackError) Message() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Code, e.Reason, e.URI} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return string(e.Kind)
	}
	return strings.Join(parts, " | ")
}

func (e *CallbackError) Error() string {
	return string(e.Kind) + ": " + e.Message()
}

// Unwrap returns the underlying cause.
func (e *CallbackError) Unwrap() error {
	return e.Err
}

// ClassifyError maps a token endpoint failure onto the error taxonomy.
// Unrecognised failures become invalid_response.
func ClassifyError(err error) *CallbackError {
	if err == nil {
		return nil
	}

	var cbErr *CallbackError
	if errors.As(err, &cbErr) {
		return cbErr
	}

	var retrieveErr *xoauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		reason := retrieveErr.ErrorDescription
		if reason == "" && retrieveErr.Response != nil {
			reason = retrieveErr.Response.Status
		}
		return newCallbackError(KindInvalidCredentials, retrieveErr.ErrorCode, reason, retrieveErr.ErrorURI, err)
	}

	if errors.Is(err, errors.ErrMissingCode) || errors.Is(err, errors.ErrNoRefreshToken) {
		return newCallbackError(KindInvalidCredentials, "", err.Error(), "", err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return newCallbackError(KindTimeout, "", "token request timed out", "", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newCallbackError(KindTimeout, "", "token request timed out", "", err)
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.As(err, &opErr),
		errors.As(err, &dnsErr),
		errors.As(err, &urlErr):
		return newCallbackError(KindFailedToConnect, "", "failed to connect to token endpoint", "", err)
	}

	return newCallbackError(KindInvalidResponse, "", err.Error(), "", err)
}
