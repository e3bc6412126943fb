package insight

import (
	"testing"
	"time"

	"github.com/adityanexturn/profilescope/internal/analysis"
)

func fingerprintFixture() (analysis.Profile, []analysis.Post, analysis.MetricsSummary) {
	likes := int64(10)
	base := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	profile := analysis.Profile{Handle: "samplepage", Followers: 100}
	posts := []analysis.Post{
		{ID: "p1", Timestamp: base, Likes: &likes},
		{ID: "p2", Timestamp: base.Add(time.Hour)},
	}
	summary := analysis.Aggregate(profile, posts)
	return profile, posts, summary
}

func TestFingerprint_Deterministic(t *testing.T) {
	profile, posts, summary := fingerprintFixture()
	first := Fingerprint(profile, posts, summary)
	second := Fingerprint(profile, posts, summary)
	if first == "" || first != second {
		t.Fatalf("expected stable fingerprint, got %q and %q", first, second)
	}
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	profile, posts, summary := fingerprintFixture()
	reversed := []analysis.Post{posts[1], posts[0]}
	if Fingerprint(profile, posts, summary) != Fingerprint(profile, reversed, summary) {
		t.Fatal("fetch order must not change the fingerprint")
	}
}

func TestFingerprint_SensitiveToInputChange(t *testing.T) {
	profile, posts, summary := fingerprintFixture()
	original := Fingerprint(profile, posts, summary)

	changed := make([]analysis.Post, len(posts))
	copy(changed, posts)
	likes := int64(11)
	changed[0].Likes = &likes

	if Fingerprint(profile, changed, summary) == original {
		t.Fatal("changing a post must change the fingerprint")
	}

	otherProfile := profile
	otherProfile.Followers = 101
	if Fingerprint(otherProfile, posts, summary) == original {
		t.Fatal("changing the profile must change the fingerprint")
	}
}
