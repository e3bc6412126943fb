package analysis

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/adityanexturn/profilescope/internal/instagram"
	"github.com/adityanexturn/profilescope/pkg/logging"
)

// Fetcher is the pipeline's view of the social data source.
type Fetcher interface {
	FetchProfile(ctx context.Context, handle string) (*instagram.ProfileRecord, error)
	FetchPosts(ctx context.Context, handle string, opts instagram.FetchOptions) ([]instagram.MediaRecord, error)
}

// InsightGenerator produces a best-effort qualitative insight. It must
// never return a hard failure; problems come back as warnings.
type InsightGenerator interface {
	Generate(ctx context.Context, profile Profile, posts []Post, summary MetricsSummary) (*Insight, []Warning)
}

// RunOptions bound a single analysis run.
type RunOptions struct {
	MaxPosts int
	Since    time.Time
	Until    time.Time
}

// Metrics holds the pipeline's Prometheus instruments. Optional; a nil
// Metrics disables recording.
type Metrics struct {
	Runs          *prometheus.CounterVec   // labeled by outcome
	StageDuration *prometheus.HistogramVec // labeled by stage
}

// Runner drives one analysis run through every pipeline stage:
// fetch → normalize → aggregate → insight → assemble.
type Runner struct {
	fetcher  Fetcher
	insights InsightGenerator
	logger   logging.Logger
	metrics  *Metrics
}

// NewRunner wires a pipeline runner. insights may be nil, in which case
// runs complete without an insight section and carry a warning.
func NewRunner(fetcher Fetcher, insights InsightGenerator, logger logging.Logger, metrics *Metrics) *Runner {
	return &Runner{
		fetcher:  fetcher,
		insights: insights,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run executes one analysis run. A fetch failure aborts the run and is
// surfaced as-is; everything downstream degrades to warnings on the
// result. Cancellation is honored at every stage boundary and no partial
// result is returned for a cancelled run.
func (r *Runner) Run(ctx context.Context, handle string, opts RunOptions) (*AnalysisResult, error) {
	start := time.Now()

	var (
		profileRec *instagram.ProfileRecord
		mediaRecs  []instagram.MediaRecord
	)
	fetchOpts := instagram.FetchOptions{
		MaxItems: opts.MaxPosts,
		Since:    opts.Since,
		Until:    opts.Until,
	}

	// Profile and media fetches are independent of each other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := r.fetcher.FetchProfile(gctx, handle)
		if err != nil {
			return err
		}
		profileRec = rec
		return nil
	})
	g.Go(func() error {
		recs, err := r.fetcher.FetchPosts(gctx, handle, fetchOpts)
		if err != nil {
			return err
		}
		mediaRecs = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		r.finish("failed", start)
		return nil, err
	}
	r.observeStage("fetch", start)
	if err := ctx.Err(); err != nil {
		r.finish("cancelled", start)
		return nil, err
	}

	aggStart := time.Now()
	profile, posts, warnings := Normalize(profileRec, mediaRecs)
	summary := Aggregate(profile, posts)
	r.observeStage("aggregate", aggStart)
	if err := ctx.Err(); err != nil {
		r.finish("cancelled", start)
		return nil, err
	}

	insightStart := time.Now()
	var insight *Insight
	if r.insights != nil {
		var insightWarnings []Warning
		insight, insightWarnings = r.insights.Generate(ctx, profile, posts, summary)
		warnings = append(warnings, insightWarnings...)
	} else {
		warnings = append(warnings, Warning{
			Code:    WarnInsightUnavailable,
			Message: "insight generation is not configured",
		})
	}
	r.observeStage("insight", insightStart)
	if err := ctx.Err(); err != nil {
		r.finish("cancelled", start)
		return nil, err
	}

	result := Assemble(profile, posts, summary, insight, warnings)
	r.finish(result.Status, start)

	if r.logger != nil {
		r.logger.WithFields(logging.Fields{
			"run_id":   result.RunID,
			"handle":   profile.Handle,
			"posts":    len(result.Posts),
			"warnings": len(result.Warnings),
			"status":   result.Status,
			"duration": time.Since(start).String(),
		}).Info("Analysis run complete")
	}

	return &result, nil
}

func (r *Runner) observeStage(stage string, since time.Time) {
	if r.metrics == nil || r.metrics.StageDuration == nil {
		return
	}
	r.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(since).Seconds())
}

func (r *Runner) finish(outcome string, since time.Time) {
	if r.metrics == nil {
		return
	}
	if r.metrics.Runs != nil {
		r.metrics.Runs.WithLabelValues(outcome).Inc()
	}
	if r.metrics.StageDuration != nil {
		r.metrics.StageDuration.WithLabelValues("total").Observe(time.Since(since).Seconds())
	}
}
