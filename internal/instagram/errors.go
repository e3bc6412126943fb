package instagram

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies a fetch failure by how the caller should react.
type ErrorKind string

const (
	// KindAuth covers rejected credentials and private profiles. Not retryable.
	KindAuth ErrorKind = "auth"
	// KindRateLimited means the source throttled us. Retryable with backoff.
	KindRateLimited ErrorKind = "rate_limited"
	// KindNotFound means the profile does not exist. Not retryable.
	KindNotFound ErrorKind = "not_found"
	// KindTransport covers network failures and upstream 5xx. Retryable.
	KindTransport ErrorKind = "transport"
)

// FetchError is the only error type the fetcher surfaces to callers.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("instagram: %s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("instagram: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("instagram: %s", e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is expected to resolve on retry.
func (e *FetchError) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindTransport
}

func errorFromStatus(code int, body string) *FetchError {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &FetchError{Kind: KindAuth, StatusCode: code, Message: body}
	case code == http.StatusNotFound:
		return &FetchError{Kind: KindNotFound, StatusCode: code, Message: body}
	case code == http.StatusTooManyRequests:
		return &FetchError{Kind: KindRateLimited, StatusCode: code, Message: body}
	default:
		return &FetchError{Kind: KindTransport, StatusCode: code, Message: body}
	}
}
