package services

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind classifies an outbound catalog call failure.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindRateLimited
	KindServer
	KindClient
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport_error"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server_error"
	case KindClient:
		return "client_error"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// APIError is the normalized failure for any catalog call.
type APIError struct {
	Kind       ErrorKind
	Status     int           // HTTP status, 0 for transport failures
	RetryAfter time.Duration // Server-requested delay, rate-limited only
	Message    string
	Err        error // Underlying cause, transport failures only
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the retry executor may re-attempt the call.
// Client errors signal a malformed or unauthorized request and are final.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindServer, KindTransport:
		return true
	default:
		return false
	}
}

// transportError wraps a network-level failure.
func transportError(err error) *APIError {
	return &APIError{Kind: KindTransport, Message: err.Error(), Err: err}
}

// classifyResponse maps a non-2xx HTTP response to an APIError.
func classifyResponse(resp *http.Response) *APIError {
	status := resp.StatusCode

	switch {
	case status == http.StatusTooManyRequests:
		apiErr := &APIError{
			Kind:    KindRateLimited,
			Status:  status,
			Message: "rate limit exceeded",
		}
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				apiErr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return apiErr
	case status == http.StatusNotFound:
		return &APIError{Kind: KindNotFound, Status: status, Message: "resource not found"}
	case status >= 500:
		return &APIError{Kind: KindServer, Status: status, Message: "server error"}
	default:
		return &APIError{Kind: KindClient, Status: status, Message: "client error"}
	}
}
