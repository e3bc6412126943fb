package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adityanexturn/profilescope/pkg/clients"
	"github.com/adityanexturn/profilescope/pkg/logging"
)

const (
	defaultBaseURL  = "https://graph.instagram.com/v21.0"
	defaultPageSize = 25
	defaultMaxItems = 50
	// timestampLayout matches the source's media timestamps.
	timestampLayout = "2006-01-02T15:04:05-0700"

	profileFields = "username,full_name,biography,followers_count,follows_count,media_count,is_verified,is_private,external_url"
	mediaFields   = "id,timestamp,media_type,caption,like_count,comments_count,share_count,permalink"

	// maxPages guards against a source that keeps handing out cursors.
	maxPages = 500
)

// ParseTimestamp parses a source media timestamp.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(timestampLayout, value)
}

// ClientConfig configures the source client.
type ClientConfig struct {
	BaseURL     string
	AccessToken string
	PageSize    int
	MaxItems    int

	// Retry settings for rate limits and transport failures.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	RequestTimeout time.Duration
	Logger         logging.Logger

	// Upstream, when set, counts every request attempt by outcome.
	// Labels: service, status.
	Upstream *prometheus.CounterVec
}

// Client talks to the social data source. It is the only component that
// does, and it never mutates shared state beyond its own HTTP client.
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	defaultMax int
	httpClient *http.Client
	executor   failsafe.Executor[*http.Response]
	logger     logging.Logger
	upstream   *prometheus.CounterVec
}

// NewClient creates a source client with retry and backoff policy applied
// to every page request. Auth and not-found responses are never retried.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = defaultMaxItems
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 4
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	executor := clients.NewHTTPExecutor(clients.HTTPExecutorConfig{
		MaxRetries:  cfg.MaxRetries,
		BaseDelay:   cfg.BaseDelay,
		MaxDelay:    cfg.MaxDelay,
		ShouldRetry: shouldRetryFetch,
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.AccessToken,
		pageSize:   cfg.PageSize,
		defaultMax: cfg.MaxItems,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		executor:   executor,
		logger:     cfg.Logger,
		upstream:   cfg.Upstream,
	}
}

// shouldRetryFetch retries network errors, rate limits, and upstream 5xx.
// Auth failures and missing profiles surface immediately.
func shouldRetryFetch(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return true
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode >= 500
}

// FetchProfile fetches the profile record for a handle.
func (c *Client) FetchProfile(ctx context.Context, handle string) (*ProfileRecord, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, errors.New("profile handle is required")
	}

	endpoint := fmt.Sprintf("%s/%s?fields=%s&access_token=%s",
		c.baseURL, url.PathEscape(handle), profileFields, url.QueryEscape(c.token))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var record ProfileRecord
	if decodeErr := json.Unmarshal(body, &record); decodeErr != nil {
		return nil, &FetchError{Kind: KindTransport, Message: "malformed profile payload", Err: decodeErr}
	}
	if record.IsPrivate {
		return nil, &FetchError{Kind: KindAuth, Message: fmt.Sprintf("profile %q is private", handle)}
	}

	return &record, nil
}

// FetchPosts pages through the media feed for a handle until the item cap,
// the date boundary, or end-of-data is reached. The feed is served newest
// first, so once a page falls entirely behind opts.Since pagination stops.
func (c *Client) FetchPosts(ctx context.Context, handle string, opts FetchOptions) ([]MediaRecord, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, errors.New("profile handle is required")
	}

	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = c.defaultMax
	}

	var (
		records []MediaRecord
		after   string
	)

	for page := 0; page < maxPages; page++ {
		endpoint := fmt.Sprintf("%s/%s/media?fields=%s&limit=%d&access_token=%s",
			c.baseURL, url.PathEscape(handle), mediaFields, c.pageSize, url.QueryEscape(c.token))
		if after != "" {
			endpoint += "&after=" + url.QueryEscape(after)
		}

		body, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		var feed mediaFeed
		if decodeErr := json.Unmarshal(body, &feed); decodeErr != nil {
			return nil, &FetchError{Kind: KindTransport, Message: "malformed media payload", Err: decodeErr}
		}

		pastBoundary := false
		for _, record := range feed.Data {
			if ts, tsErr := ParseTimestamp(record.Timestamp); tsErr == nil {
				if !opts.Until.IsZero() && ts.After(opts.Until) {
					continue
				}
				if !opts.Since.IsZero() && ts.Before(opts.Since) {
					pastBoundary = true
					continue
				}
			}
			records = append(records, record)
			if len(records) >= maxItems {
				return records, nil
			}
		}

		if c.logger != nil {
			c.logger.WithFields(logging.Fields{
				"handle":    handle,
				"page":      page,
				"collected": len(records),
			}).Debug("Fetched media page")
		}

		if pastBoundary || len(feed.Data) == 0 {
			break
		}
		after = feed.Paging.Cursors.After
		if feed.Paging.Next == "" || after == "" {
			break
		}
	}

	return records, nil
}

// get issues one GET through the retry executor and maps failures onto the
// fetch error taxonomy.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	resp, err := clients.ExecuteHTTP(ctx, c.executor, func() (*http.Response, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if reqErr != nil {
			return nil, reqErr
		}
		attemptResp, attemptErr := c.httpClient.Do(req)
		c.observeAttempt(attemptResp, attemptErr)
		return attemptResp, attemptErr
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		msg := sourceErrorMessage(body)
		return nil, errorFromStatus(resp.StatusCode, msg)
	}

	return body, nil
}

func (c *Client) observeAttempt(resp *http.Response, err error) {
	if c.upstream == nil {
		return
	}
	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	c.upstream.WithLabelValues("instagram", status).Inc()
}

func sourceErrorMessage(body []byte) string {
	var payload apiError
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return strings.TrimSpace(string(body))
}
