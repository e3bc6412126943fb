package analysis

import "time"

// MediaType classifies a post's media.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaCarousel MediaType = "carousel"
	MediaOther    MediaType = "other"
)

// Warning codes. A warning never aborts a run.
const (
	WarnSkippedRecord      = "skipped_record"
	WarnInsightUnavailable = "insight_unavailable"
)

// Run statuses on the assembled result.
const (
	StatusOK           = "ok"
	StatusOKWithIssues = "ok_with_warnings"
)

// Warning records a non-fatal problem encountered during a run.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Profile is the normalized identity of the analyzed account.
// Immutable once built.
type Profile struct {
	Handle      string `json:"handle"`
	FullName    string `json:"full_name,omitempty"`
	Biography   string `json:"biography,omitempty"`
	Followers   int64  `json:"followers"`
	Following   int64  `json:"following"`
	MediaCount  int64  `json:"media_count"`
	Verified    bool   `json:"verified"`
	ExternalURL string `json:"external_url,omitempty"`
}

// Post is one normalized media item. Engagement counters are pointers;
// nil means the source withheld the value.
type Post struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	MediaType MediaType `json:"media_type"`
	Caption   string    `json:"caption,omitempty"`
	Likes     *int64    `json:"likes"`
	Comments  *int64    `json:"comments"`
	Shares    *int64    `json:"shares"`
	Hashtags  []string  `json:"hashtags,omitempty"`
	Permalink string    `json:"permalink,omitempty"`
}

// HashtagCount is one entry of the ranked hashtag list.
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Metric names exposed in MetricsSummary.Metrics.
const (
	MetricAvgEngagementRate = "avg_engagement_rate"
	MetricPostingCadence    = "posting_cadence_per_week"
	MetricAvgLikes          = "avg_likes"
	MetricAvgComments       = "avg_comments"
	MetricVideoRatio        = "video_ratio"
)

// MetricsSummary is the aggregator output. Derived, recomputed each run,
// never mutated after creation.
type MetricsSummary struct {
	PostCount         int                `json:"post_count"`
	Metrics           map[string]float64 `json:"metrics"`
	PerPostEngagement map[string]float64 `json:"per_post_engagement"`
	TopHashtags       []HashtagCount     `json:"top_hashtags"`
	MediaTypeCounts   map[MediaType]int  `json:"media_type_counts"`
}

// Insight is the structured output of the inference service, plus the
// fingerprint of the input it was derived from.
type Insight struct {
	Summary         string    `json:"summary"`
	Themes          []string  `json:"themes"`
	Sentiment       string    `json:"sentiment"`
	Recommendations []string  `json:"recommendations"`
	Fingerprint     string    `json:"fingerprint"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// AnalysisResult is the immutable top-level artifact of one run, handed
// read-only to presentation consumers.
type AnalysisResult struct {
	RunID       string         `json:"run_id"`
	Status      string         `json:"status"`
	GeneratedAt time.Time      `json:"generated_at"`
	Profile     Profile        `json:"profile"`
	Posts       []Post         `json:"posts"`
	Metrics     MetricsSummary `json:"metrics"`
	Insight     *Insight       `json:"insight,omitempty"`
	Warnings    []Warning      `json:"warnings"`
}
