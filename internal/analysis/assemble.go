package analysis

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Assemble merges the pipeline outputs into one immutable result. Pure
// merge, no failure modes. Posts are ordered newest first in the result.
func Assemble(profile Profile, posts []Post, summary MetricsSummary, insight *Insight, warnings []Warning) AnalysisResult {
	ordered := make([]Post, len(posts))
	copy(ordered, posts)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Timestamp.Equal(ordered[j].Timestamp) {
			return ordered[i].Timestamp.After(ordered[j].Timestamp)
		}
		return ordered[i].ID < ordered[j].ID
	})

	if warnings == nil {
		warnings = []Warning{}
	}
	status := StatusOK
	if len(warnings) > 0 {
		status = StatusOKWithIssues
	}

	return AnalysisResult{
		RunID:       uuid.NewString(),
		Status:      status,
		GeneratedAt: time.Now().UTC(),
		Profile:     profile,
		Posts:       ordered,
		Metrics:     summary,
		Insight:     insight,
		Warnings:    warnings,
	}
}
