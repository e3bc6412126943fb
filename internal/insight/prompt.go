package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adityanexturn/profilescope/internal/analysis"
	"github.com/adityanexturn/profilescope/pkg/llm"
)

const (
	defaultMaxSampledPosts = 8
	defaultMaxCaptionRunes = 200
)

const analystSystemPrompt = `You are a social media analyst reviewing an Instagram profile.
Given profile stats, aggregate metrics, and a sample of recent posts, produce a qualitative analysis.
Respond with ONLY a JSON object, no markdown fences, with exactly these keys:
{"summary": string, "themes": [string], "sentiment": string, "recommendations": [string]}
"sentiment" must be one of: positive, neutral, negative, mixed.
Keep "themes" and "recommendations" to at most 5 entries each.`

// buildMessages assembles the bounded request payload: the aggregate
// summary plus a sample of the most recent posts, never the full history.
func buildMessages(profile analysis.Profile, posts []analysis.Post, summary analysis.MetricsSummary, maxPosts, maxCaptionRunes int) []llm.Message {
	if maxPosts <= 0 {
		maxPosts = defaultMaxSampledPosts
	}
	if maxCaptionRunes <= 0 {
		maxCaptionRunes = defaultMaxCaptionRunes
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Profile: @%s", profile.Handle)
	if profile.FullName != "" {
		fmt.Fprintf(&b, " (%s)", profile.FullName)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Followers: %d, Following: %d, Total posts: %d, Verified: %t\n",
		profile.Followers, profile.Following, profile.MediaCount, profile.Verified)
	if profile.Biography != "" {
		fmt.Fprintf(&b, "Bio: %s\n", truncateRunes(profile.Biography, maxCaptionRunes))
	}

	b.WriteString("\nAggregate metrics:\n")
	for _, name := range sortedMetricNames(summary.Metrics) {
		fmt.Fprintf(&b, "- %s: %.4f\n", name, summary.Metrics[name])
	}
	if len(summary.TopHashtags) > 0 {
		b.WriteString("Top hashtags:\n")
		for i, tag := range summary.TopHashtags {
			if i >= 10 {
				break
			}
			fmt.Fprintf(&b, "- #%s (%d)\n", tag.Tag, tag.Count)
		}
	}

	sampled := samplePosts(posts, maxPosts)
	if len(sampled) > 0 {
		fmt.Fprintf(&b, "\nRecent posts (%d sampled of %d analyzed):\n", len(sampled), len(posts))
		for _, post := range sampled {
			fmt.Fprintf(&b, "- [%s] %s likes=%s comments=%s caption=%q\n",
				post.Timestamp.Format("2006-01-02"),
				post.MediaType,
				countLabel(post.Likes),
				countLabel(post.Comments),
				truncateRunes(post.Caption, maxCaptionRunes))
		}
	}

	return []llm.Message{
		{Role: "system", Content: analystSystemPrompt},
		{Role: "user", Content: b.String()},
	}
}

// samplePosts picks the newest posts up to the cap.
func samplePosts(posts []analysis.Post, max int) []analysis.Post {
	ordered := make([]analysis.Post, len(posts))
	copy(ordered, posts)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.After(ordered[j].Timestamp)
	})
	if len(ordered) > max {
		ordered = ordered[:max]
	}
	return ordered
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

func countLabel(v *int64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *v)
}

func sortedMetricNames(metrics map[string]float64) []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
