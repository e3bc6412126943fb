package insight

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adityanexturn/profilescope/internal/analysis"
	"github.com/adityanexturn/profilescope/pkg/llm"
)

type fakeStream struct {
	content string
	done    bool
}

func (s *fakeStream) Recv() (llm.Chunk, error) {
	if s.done {
		return llm.Chunk{}, io.EOF
	}
	s.done = true
	return llm.Chunk{Content: s.content}, nil
}

func (s *fakeStream) Close() error { return nil }

type fakeProvider struct {
	response string
	calls    int32
	failures int32 // fail this many leading calls
	err      error
}

func (p *fakeProvider) Complete(_ context.Context, _ []llm.Message) (llm.Stream, error) {
	n := atomic.AddInt32(&p.calls, 1)
	if n <= atomic.LoadInt32(&p.failures) {
		err := p.err
		if err == nil {
			err = errors.New("inference unavailable")
		}
		return nil, err
	}
	return &fakeStream{content: p.response}, nil
}

const validResponse = `{"summary":"steady account","themes":["travel","food"],"sentiment":"positive","recommendations":["post more reels"]}`

func testOrchestrator(provider llm.Provider, store Store, window time.Duration) *Orchestrator {
	return New(provider, store, Options{
		StalenessWindow: window,
		CallTimeout:     time.Second,
	}, nil, nil)
}

func TestGenerate_ParsesStructuredResponse(t *testing.T) {
	provider := &fakeProvider{response: validResponse}
	o := testOrchestrator(provider, NewMemoryStore(time.Hour, 0), time.Hour)

	profile, posts, summary := fingerprintFixture()
	ins, warnings := o.Generate(context.Background(), profile, posts, summary)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if ins == nil || ins.Sentiment != "positive" || len(ins.Themes) != 2 {
		t.Fatalf("unexpected insight: %+v", ins)
	}
	if ins.Fingerprint == "" || ins.GeneratedAt.IsZero() {
		t.Fatal("expected fingerprint and timestamp on the insight")
	}
}

func TestGenerate_FreshCacheEntrySkipsProvider(t *testing.T) {
	provider := &fakeProvider{response: validResponse}
	o := testOrchestrator(provider, NewMemoryStore(time.Hour, 0), time.Hour)
	profile, posts, summary := fingerprintFixture()

	first, _ := o.Generate(context.Background(), profile, posts, summary)
	second, _ := o.Generate(context.Background(), profile, posts, summary)

	if first == nil || second == nil {
		t.Fatal("expected insights from both calls")
	}
	if got := atomic.LoadInt32(&provider.calls); got != 1 {
		t.Fatalf("expected exactly 1 provider call, got %d", got)
	}
	if second.Fingerprint != first.Fingerprint {
		t.Fatal("expected the cached insight back")
	}
}

func TestGenerate_StaleEntryRegenerates(t *testing.T) {
	provider := &fakeProvider{response: validResponse}
	store := NewMemoryStore(time.Hour, 0)
	o := testOrchestrator(provider, store, 10*time.Minute)
	profile, posts, summary := fingerprintFixture()

	stale := &analysis.Insight{
		Summary:     "old take",
		Fingerprint: Fingerprint(profile, posts, summary),
		GeneratedAt: time.Now().Add(-time.Hour),
	}
	if err := store.Set(context.Background(), stale.Fingerprint, stale); err != nil {
		t.Fatal(err)
	}

	ins, warnings := o.Generate(context.Background(), profile, posts, summary)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if ins.Summary != "steady account" {
		t.Fatalf("expected a regenerated insight, got %+v", ins)
	}
	if got := atomic.LoadInt32(&provider.calls); got != 1 {
		t.Fatalf("expected 1 provider call for the stale entry, got %d", got)
	}
}

func TestGenerate_PersistentFailureDegradesToWarning(t *testing.T) {
	provider := &fakeProvider{failures: 1000}
	o := testOrchestrator(provider, NewMemoryStore(time.Hour, 0), time.Hour)
	profile, posts, summary := fingerprintFixture()

	ins, warnings := o.Generate(context.Background(), profile, posts, summary)
	if ins != nil {
		t.Fatalf("expected nil insight, got %+v", ins)
	}
	if len(warnings) != 1 || warnings[0].Code != analysis.WarnInsightUnavailable {
		t.Fatalf("expected %s warning, got %+v", analysis.WarnInsightUnavailable, warnings)
	}
	if got := atomic.LoadInt32(&provider.calls); got != 2 {
		t.Fatalf("expected 2 attempts (1 + 1 retry), got %d", got)
	}
}

func TestGenerate_TransientFailureRetriesOnce(t *testing.T) {
	provider := &fakeProvider{response: validResponse, failures: 1}
	o := testOrchestrator(provider, NewMemoryStore(time.Hour, 0), time.Hour)
	profile, posts, summary := fingerprintFixture()

	ins, warnings := o.Generate(context.Background(), profile, posts, summary)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if ins == nil {
		t.Fatal("expected insight after retry")
	}
	if got := atomic.LoadInt32(&provider.calls); got != 2 {
		t.Fatalf("expected 2 provider calls, got %d", got)
	}
}

func TestGenerate_MalformedResponseIsWarning(t *testing.T) {
	provider := &fakeProvider{response: "the account looks great, keep it up!"}
	o := testOrchestrator(provider, NewMemoryStore(time.Hour, 0), time.Hour)
	profile, posts, summary := fingerprintFixture()

	ins, warnings := o.Generate(context.Background(), profile, posts, summary)
	if ins != nil {
		t.Fatalf("expected nil insight for malformed response, got %+v", ins)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected a warning, got %+v", warnings)
	}
}

func TestGenerate_StripsMarkdownFences(t *testing.T) {
	provider := &fakeProvider{response: "```json\n" + validResponse + "\n```"}
	o := testOrchestrator(provider, NewMemoryStore(time.Hour, 0), time.Hour)
	profile, posts, summary := fingerprintFixture()

	ins, warnings := o.Generate(context.Background(), profile, posts, summary)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if ins == nil || ins.Summary != "steady account" {
		t.Fatalf("expected fenced JSON to decode, got %+v", ins)
	}
}

func TestGenerate_NoProviderIsWarning(t *testing.T) {
	o := testOrchestrator(nil, NewMemoryStore(time.Hour, 0), time.Hour)
	profile, posts, summary := fingerprintFixture()

	ins, warnings := o.Generate(context.Background(), profile, posts, summary)
	if ins != nil || len(warnings) != 1 {
		t.Fatalf("expected nil insight with warning, got %+v %+v", ins, warnings)
	}
}

func TestParseInsight_Variants(t *testing.T) {
	if _, err := parseInsight(""); err == nil {
		t.Fatal("expected error for empty response")
	}
	ins, err := parseInsight("```\n" + validResponse + "\n```")
	if err != nil || ins.Sentiment != "positive" {
		t.Fatalf("expected bare fences to parse, got %+v %v", ins, err)
	}
}
