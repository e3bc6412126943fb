package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/adityanexturn/profilescope/internal/analysis"
	"github.com/adityanexturn/profilescope/pkg/clients"
	"github.com/adityanexturn/profilescope/pkg/llm"
	"github.com/adityanexturn/profilescope/pkg/logging"
)

const (
	defaultStalenessWindow = 24 * time.Hour
	defaultCallTimeout     = 30 * time.Second
	// One retry on transient failure; the model call is best-effort.
	maxInferenceAttempts = 2
)

// Options tune the orchestrator. Zero values fall back to defaults.
type Options struct {
	StalenessWindow time.Duration
	CallTimeout     time.Duration
	MaxSampledPosts int
	MaxCaptionRunes int
}

// Orchestrator generates qualitative insights through an LLM provider,
// cached by input fingerprint. It never surfaces a hard failure: problems
// come back as warnings and a nil insight so metric delivery is unaffected.
type Orchestrator struct {
	provider llm.Provider
	store    Store
	opts     Options
	logger   logging.Logger
	cacheHit *prometheus.CounterVec // labeled by result

	// breaker isolates a failing inference service: once it trips,
	// generations fail fast until the service recovers.
	breaker *clients.CircuitBreaker

	// sf collapses concurrent generations for the same fingerprint while
	// leaving different fingerprints fully parallel.
	sf singleflight.Group
}

// New wires an orchestrator. cacheHit may be nil.
func New(provider llm.Provider, store Store, opts Options, logger logging.Logger, cacheHit *prometheus.CounterVec) *Orchestrator {
	if opts.StalenessWindow <= 0 {
		opts.StalenessWindow = defaultStalenessWindow
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.MaxSampledPosts <= 0 {
		opts.MaxSampledPosts = defaultMaxSampledPosts
	}
	if opts.MaxCaptionRunes <= 0 {
		opts.MaxCaptionRunes = defaultMaxCaptionRunes
	}
	return &Orchestrator{
		provider: provider,
		store:    store,
		opts:     opts,
		logger:   logger,
		cacheHit: cacheHit,
		breaker: clients.NewCircuitBreaker(clients.CircuitBreakerConfig{
			Name:   "insight-llm",
			Logger: logger,
		}),
	}
}

// Generate returns a cached or freshly generated insight for the input.
// A fresh cache entry short-circuits the provider call entirely.
func (o *Orchestrator) Generate(ctx context.Context, profile analysis.Profile, posts []analysis.Post, summary analysis.MetricsSummary) (*analysis.Insight, []analysis.Warning) {
	fingerprint := Fingerprint(profile, posts, summary)

	if cached := o.lookup(ctx, fingerprint); cached != nil {
		o.observeCache("hit")
		return cached, nil
	}
	o.observeCache("miss")

	result, err, _ := o.sf.Do(fingerprint, func() (interface{}, error) {
		// Another caller may have filled the store while we waited.
		if cached := o.lookup(ctx, fingerprint); cached != nil {
			return cached, nil
		}
		return o.generate(ctx, fingerprint, profile, posts, summary)
	})
	if err != nil {
		if o.logger != nil {
			o.logger.WithError(err).WithField("fingerprint", fingerprint).Warn("Insight generation failed")
		}
		o.observeCache("error")
		return nil, []analysis.Warning{{
			Code:    analysis.WarnInsightUnavailable,
			Message: fmt.Sprintf("insight generation failed: %v", err),
		}}
	}

	return result.(*analysis.Insight), nil
}

// lookup returns a cached insight only when it is fresh within the
// staleness window. Store errors are treated as misses.
func (o *Orchestrator) lookup(ctx context.Context, fingerprint string) *analysis.Insight {
	if o.store == nil {
		return nil
	}
	cached, err := o.store.Get(ctx, fingerprint)
	if err != nil {
		if o.logger != nil {
			o.logger.WithError(err).Warn("Insight cache lookup failed")
		}
		return nil
	}
	if cached == nil {
		return nil
	}
	if time.Since(cached.GeneratedAt) > o.opts.StalenessWindow {
		return nil
	}
	return cached
}

func (o *Orchestrator) generate(ctx context.Context, fingerprint string, profile analysis.Profile, posts []analysis.Post, summary analysis.MetricsSummary) (*analysis.Insight, error) {
	if o.provider == nil {
		return nil, errors.New("no inference provider configured")
	}

	messages := buildMessages(profile, posts, summary, o.opts.MaxSampledPosts, o.opts.MaxCaptionRunes)

	var (
		raw     string
		lastErr error
	)
	for attempt := 1; attempt <= maxInferenceAttempts; attempt++ {
		raw, lastErr = o.completeGuarded(ctx, messages)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	ins, err := parseInsight(raw)
	if err != nil {
		return nil, err
	}
	ins.Fingerprint = fingerprint
	ins.GeneratedAt = time.Now().UTC()

	if o.store != nil {
		// Single entry per fingerprint; Set replaces the prior one.
		if err := o.store.Set(ctx, fingerprint, ins); err != nil && o.logger != nil {
			o.logger.WithError(err).Warn("Insight cache write failed")
		}
	}

	return ins, nil
}

// completeGuarded runs one provider call through the circuit breaker.
func (o *Orchestrator) completeGuarded(ctx context.Context, messages []llm.Message) (string, error) {
	result, err := o.breaker.Execute(func() (any, error) {
		return o.complete(ctx, messages)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// complete runs one bounded provider call and drains the stream.
func (o *Orchestrator) complete(ctx context.Context, messages []llm.Message) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	defer cancel()

	stream, err := o.provider.Complete(callCtx, messages)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var content strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		content.WriteString(chunk.Content)
	}

	return strings.TrimSpace(content.String()), nil
}

// insightPayload is the JSON shape the model is prompted to return.
type insightPayload struct {
	Summary         string   `json:"summary"`
	Themes          []string `json:"themes"`
	Sentiment       string   `json:"sentiment"`
	Recommendations []string `json:"recommendations"`
}

// parseInsight decodes the model response, tolerating markdown fences
// around the JSON body.
func parseInsight(raw string) (*analysis.Insight, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, errors.New("empty model response")
	}

	var payload insightPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("malformed model response: %w", err)
	}

	return &analysis.Insight{
		Summary:         payload.Summary,
		Themes:          payload.Themes,
		Sentiment:       payload.Sentiment,
		Recommendations: payload.Recommendations,
	}, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (o *Orchestrator) observeCache(result string) {
	if o.cacheHit == nil {
		return
	}
	o.cacheHit.WithLabelValues(result).Inc()
}
