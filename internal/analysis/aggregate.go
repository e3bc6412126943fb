package analysis

import (
	"sort"
	"time"
)

// Aggregate computes the derived metrics for a profile's posts. It is a
// pure function: deterministic for the same inputs, no external calls.
// An empty post sequence yields a zero-valued summary, never an error.
func Aggregate(profile Profile, posts []Post) MetricsSummary {
	summary := MetricsSummary{
		PostCount: len(posts),
		Metrics: map[string]float64{
			MetricAvgEngagementRate: 0,
			MetricPostingCadence:    0,
			MetricAvgLikes:          0,
			MetricAvgComments:       0,
			MetricVideoRatio:        0,
		},
		PerPostEngagement: map[string]float64{},
		TopHashtags:       []HashtagCount{},
		MediaTypeCounts:   map[MediaType]int{},
	}
	if len(posts) == 0 {
		return summary
	}

	followers := float64(profile.Followers)
	if followers < 1 {
		followers = 1
	}

	var (
		rateSum     float64
		likeSum     float64
		commentSum  float64
		videoCount  int
		tagCounts   = map[string]int{}
		tagFirstIdx = map[string]int{}
		tagOrder    []string
	)

	for _, post := range posts {
		engagement := float64(counted(post.Likes) + counted(post.Comments) + counted(post.Shares))
		rate := engagement / followers
		summary.PerPostEngagement[post.ID] = rate
		rateSum += rate

		likeSum += float64(counted(post.Likes))
		commentSum += float64(counted(post.Comments))

		summary.MediaTypeCounts[post.MediaType]++
		if post.MediaType == MediaVideo {
			videoCount++
		}

		for _, tag := range post.Hashtags {
			if _, ok := tagCounts[tag]; !ok {
				tagFirstIdx[tag] = len(tagOrder)
				tagOrder = append(tagOrder, tag)
			}
			tagCounts[tag]++
		}
	}

	n := float64(len(posts))
	summary.Metrics[MetricAvgEngagementRate] = rateSum / n
	summary.Metrics[MetricAvgLikes] = likeSum / n
	summary.Metrics[MetricAvgComments] = commentSum / n
	summary.Metrics[MetricVideoRatio] = float64(videoCount) / n
	summary.Metrics[MetricPostingCadence] = n / float64(weeksSpanned(posts))

	summary.TopHashtags = rankHashtags(tagCounts, tagFirstIdx, tagOrder)

	return summary
}

// counted treats an unknown engagement counter as zero.
func counted(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// weeksSpanned returns the number of calendar weeks covered by the posts'
// timestamps, counting every week from the earliest to the latest post
// inclusive. Weeks start on Monday. Always at least 1 for non-empty input.
func weeksSpanned(posts []Post) int {
	minWeek := weekIndex(posts[0].Timestamp)
	maxWeek := minWeek
	for _, post := range posts[1:] {
		w := weekIndex(post.Timestamp)
		if w < minWeek {
			minWeek = w
		}
		if w > maxWeek {
			maxWeek = w
		}
	}
	return int(maxWeek-minWeek) + 1
}

// weekIndex maps a time to a monotonically increasing Monday-based week
// number so that week spans can be computed across year boundaries.
func weekIndex(t time.Time) int64 {
	days := t.UTC().Unix() / 86400
	// 1970-01-01 was a Thursday; shift so weeks begin on Monday.
	return (days + 3) / 7
}

// rankHashtags orders hashtags by descending frequency, breaking ties by
// first-seen order.
func rankHashtags(counts map[string]int, firstIdx map[string]int, order []string) []HashtagCount {
	ranked := make([]HashtagCount, 0, len(order))
	for _, tag := range order {
		ranked = append(ranked, HashtagCount{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstIdx[ranked[i].Tag] < firstIdx[ranked[j].Tag]
	})
	return ranked
}
