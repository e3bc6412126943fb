package clients

import (
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/failsafe-go/failsafe-go"
)

//nolint:bodyclose // test responses have no body
func TestNewHTTPRetryPolicy_NormalizesConfigToBoundRetries(t *testing.T) {
	cfg := HTTPExecutorConfig{
		MaxRetries: -3,
		BaseDelay:  0,
		MaxDelay:   0,
	}
	policy := NewHTTPRetryPolicy(cfg)

	var attempts int32
	_, err := failsafe.With(policy).Get(func() (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, errors.New("network partition")
	})
	if err == nil {
		t.Fatal("expected request to fail")
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Fatalf("expected bounded single attempt with negative retries, got %d", got)
	}
}

//nolint:bodyclose // test responses have no body
func TestNewHTTPRetryPolicy_RetriesUpToConfiguredLimit(t *testing.T) {
	cfg := HTTPExecutorConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
		ShouldRetry: func(_ *http.Response, err error) bool {
			return err != nil
		},
	}
	policy := NewHTTPRetryPolicy(cfg)

	var attempts int32
	_, err := failsafe.With(policy).Get(func() (*http.Response, error) {
		count := atomic.AddInt32(&attempts, 1)
		if count < 3 {
			return nil, errors.New("dns lag")
		}
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected exactly 3 attempts (1 + 2 retries), got %d", got)
	}
}

type trackedBody struct {
	closed bool
}

func (b *trackedBody) Read(_ []byte) (int, error) { return 0, io.EOF }
func (b *trackedBody) Close() error               { b.closed = true; return nil }

func TestNewHTTPRetryPolicy_SurfacesLastFailureAndClosesRetriedBodies(t *testing.T) {
	cfg := HTTPExecutorConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
		ShouldRetry: func(resp *http.Response, err error) bool {
			return err != nil || resp == nil || resp.StatusCode == http.StatusTooManyRequests
		},
	}
	policy := NewHTTPRetryPolicy(cfg)

	var bodies []*trackedBody
	resp, err := failsafe.With(policy).Get(func() (*http.Response, error) {
		body := &trackedBody{}
		bodies = append(bodies, body)
		return &http.Response{StatusCode: http.StatusTooManyRequests, Body: body}, nil
	})
	if err != nil {
		t.Fatalf("expected the final response back, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected the final 429 response, got %+v", resp)
	}
	if len(bodies) != 3 {
		t.Fatalf("expected 3 attempts (1 + 2 retries), got %d", len(bodies))
	}
	for i, body := range bodies[:2] {
		if !body.closed {
			t.Fatalf("expected retried attempt %d body to be closed", i+1)
		}
	}
	if bodies[2].closed {
		t.Fatal("the returned response body must stay open for the caller")
	}
	_ = resp.Body.Close()
}

//nolint:bodyclose // test responses have no body
func TestDefaultShouldRetry_StatusBoundaries(t *testing.T) {
	if !DefaultShouldRetry(&http.Response{StatusCode: http.StatusTooManyRequests}, nil) {
		t.Fatal("expected 429 to be retryable")
	}
	if !DefaultShouldRetry(&http.Response{StatusCode: http.StatusBadGateway}, nil) {
		t.Fatal("expected 502 to be retryable")
	}
	if DefaultShouldRetry(&http.Response{StatusCode: http.StatusNotFound}, nil) {
		t.Fatal("expected 404 to be non-retryable")
	}
	if DefaultShouldRetry(&http.Response{StatusCode: http.StatusUnauthorized}, nil) {
		t.Fatal("expected 401 to be non-retryable")
	}
}
