package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/adityanexturn/profilescope/internal/instagram"
)

type fakeFetcher struct {
	profile    *instagram.ProfileRecord
	media      []instagram.MediaRecord
	profileErr error
	mediaErr   error
}

func (f *fakeFetcher) FetchProfile(_ context.Context, _ string) (*instagram.ProfileRecord, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeFetcher) FetchPosts(_ context.Context, _ string, _ instagram.FetchOptions) ([]instagram.MediaRecord, error) {
	if f.mediaErr != nil {
		return nil, f.mediaErr
	}
	return f.media, nil
}

type fakeInsights struct {
	insight  *Insight
	warnings []Warning
	calls    int
}

func (f *fakeInsights) Generate(_ context.Context, _ Profile, _ []Post, _ MetricsSummary) (*Insight, []Warning) {
	f.calls++
	return f.insight, f.warnings
}

func sampleFetcher() *fakeFetcher {
	return &fakeFetcher{
		profile: &instagram.ProfileRecord{Username: "samplepage", Followers: 100},
		media: []instagram.MediaRecord{
			{ID: "p1", Timestamp: "2026-08-03T12:00:00+0000", MediaType: "IMAGE", LikeCount: int64Ptr(10), CommentsCount: int64Ptr(1), ShareCount: int64Ptr(0)},
			{ID: "p2", Timestamp: "2026-08-04T12:00:00+0000", MediaType: "VIDEO", LikeCount: int64Ptr(20), CommentsCount: int64Ptr(2), ShareCount: int64Ptr(0)},
			{ID: "p3", Timestamp: "2026-08-05T12:00:00+0000", MediaType: "IMAGE", LikeCount: int64Ptr(30), CommentsCount: int64Ptr(3), ShareCount: int64Ptr(0)},
		},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	insights := &fakeInsights{insight: &Insight{Summary: "steady growth", Sentiment: "positive"}}
	runner := NewRunner(sampleFetcher(), insights, nil, nil)

	result, err := runner.Run(context.Background(), "samplepage", RunOptions{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Status != StatusOK {
		t.Fatalf("expected %s, got %s (warnings: %+v)", StatusOK, result.Status, result.Warnings)
	}
	if len(result.Posts) != 3 || result.Posts[0].ID != "p3" {
		t.Fatalf("expected 3 posts newest first, got %+v", result.Posts)
	}
	approx(t, result.Metrics.Metrics[MetricAvgEngagementRate], 0.22, "average rate")
	if result.Insight == nil || result.Insight.Sentiment != "positive" {
		t.Fatalf("expected insight on result, got %+v", result.Insight)
	}
	if insights.calls != 1 {
		t.Fatalf("expected 1 insight call, got %d", insights.calls)
	}
}

func TestRun_FetchErrorAbortsWithNoResult(t *testing.T) {
	fetcher := sampleFetcher()
	fetcher.mediaErr = &instagram.FetchError{Kind: instagram.KindNotFound, Message: "no such profile"}
	insights := &fakeInsights{}
	runner := NewRunner(fetcher, insights, nil, nil)

	result, err := runner.Run(context.Background(), "ghost", RunOptions{})
	if result != nil {
		t.Fatalf("expected no partial result, got %+v", result)
	}
	var fetchErr *instagram.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Kind != instagram.KindNotFound {
		t.Fatalf("expected not_found fetch error, got %v", err)
	}
	if insights.calls != 0 {
		t.Fatal("insight generation must not run after a fetch failure")
	}
}

func TestRun_InsightFailureDegradesToWarning(t *testing.T) {
	insights := &fakeInsights{
		insight:  nil,
		warnings: []Warning{{Code: WarnInsightUnavailable, Message: "inference timed out"}},
	}
	runner := NewRunner(sampleFetcher(), insights, nil, nil)

	result, err := runner.Run(context.Background(), "samplepage", RunOptions{})
	if err != nil {
		t.Fatalf("run must not fail when insight generation fails: %v", err)
	}
	if result.Insight != nil {
		t.Fatal("expected nil insight")
	}
	if result.Status != StatusOKWithIssues {
		t.Fatalf("expected %s, got %s", StatusOKWithIssues, result.Status)
	}
	// Metrics stay intact.
	approx(t, result.Metrics.Metrics[MetricAvgEngagementRate], 0.22, "average rate")
}

func TestRun_CancelledContextReturnsNoResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(sampleFetcher(), &fakeInsights{}, nil, nil)
	result, err := runner.Run(ctx, "samplepage", RunOptions{})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if result != nil {
		t.Fatalf("expected no partial result for cancelled run, got %+v", result)
	}
}

func TestRun_NilInsightGeneratorWarns(t *testing.T) {
	runner := NewRunner(sampleFetcher(), nil, nil, nil)

	result, err := runner.Run(context.Background(), "samplepage", RunOptions{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	found := false
	for _, w := range result.Warnings {
		if w.Code == WarnInsightUnavailable {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s warning, got %+v", WarnInsightUnavailable, result.Warnings)
	}
}
