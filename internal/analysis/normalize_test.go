package analysis

import (
	"reflect"
	"testing"

	"github.com/adityanexturn/profilescope/internal/instagram"
)

func int64Ptr(v int64) *int64 { return &v }

func TestNormalize_SkipsRecordsMissingRequiredFields(t *testing.T) {
	media := []instagram.MediaRecord{
		{ID: "", Timestamp: "2026-08-01T10:00:00+0000"},
		{ID: "p1", Timestamp: "not-a-timestamp"},
		{ID: "p2", Timestamp: "2026-08-02T10:00:00+0000", MediaType: "IMAGE"},
	}

	_, posts, warnings := Normalize(&instagram.ProfileRecord{Username: "samplepage"}, media)

	if len(posts) != 1 || posts[0].ID != "p2" {
		t.Fatalf("expected only p2 to survive, got %+v", posts)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 skip warnings, got %d", len(warnings))
	}
	for _, w := range warnings {
		if w.Code != WarnSkippedRecord {
			t.Fatalf("expected %s warning, got %s", WarnSkippedRecord, w.Code)
		}
	}
}

func TestNormalize_DeduplicatesKeepingLaterRecord(t *testing.T) {
	media := []instagram.MediaRecord{
		{ID: "p1", Timestamp: "2026-08-01T10:00:00+0000", Caption: "first capture"},
		{ID: "p2", Timestamp: "2026-08-02T10:00:00+0000"},
		{ID: "p1", Timestamp: "2026-08-01T10:00:00+0000", Caption: "second capture"},
	}

	_, posts, _ := Normalize(nil, media)

	if len(posts) != 2 {
		t.Fatalf("expected 2 unique posts, got %d", len(posts))
	}
	var p1 *Post
	for i := range posts {
		if posts[i].ID == "p1" {
			p1 = &posts[i]
		}
	}
	if p1 == nil || p1.Caption != "second capture" {
		t.Fatalf("expected later record to win, got %+v", p1)
	}
}

func TestNormalize_UnknownMediaTypeMapsToOther(t *testing.T) {
	media := []instagram.MediaRecord{
		{ID: "p1", Timestamp: "2026-08-01T10:00:00+0000", MediaType: "HOLOGRAM"},
		{ID: "p2", Timestamp: "2026-08-01T11:00:00+0000", MediaType: "carousel_album"},
		{ID: "p3", Timestamp: "2026-08-01T12:00:00+0000", MediaType: "VIDEO"},
	}

	_, posts, warnings := Normalize(nil, media)

	if len(warnings) != 0 {
		t.Fatalf("media type mapping must not warn, got %+v", warnings)
	}
	if posts[0].MediaType != MediaOther {
		t.Fatalf("expected other, got %s", posts[0].MediaType)
	}
	if posts[1].MediaType != MediaCarousel {
		t.Fatalf("expected carousel, got %s", posts[1].MediaType)
	}
	if posts[2].MediaType != MediaVideo {
		t.Fatalf("expected video, got %s", posts[2].MediaType)
	}
}

func TestNormalize_NegativeCountsBecomeUnknown(t *testing.T) {
	media := []instagram.MediaRecord{
		{
			ID:            "p1",
			Timestamp:     "2026-08-01T10:00:00+0000",
			LikeCount:     int64Ptr(-5),
			CommentsCount: int64Ptr(7),
		},
	}

	_, posts, warnings := Normalize(nil, media)

	if posts[0].Likes != nil {
		t.Fatalf("expected negative likes to become unknown, got %v", *posts[0].Likes)
	}
	if posts[0].Comments == nil || *posts[0].Comments != 7 {
		t.Fatal("expected valid comments count to survive")
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning for the negative count, got %d", len(warnings))
	}
}

func TestExtractHashtags(t *testing.T) {
	got := extractHashtags("Sunset run #Fitness #travel, more #fitness and #100days!")
	want := []string{"fitness", "travel", "100days"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if tags := extractHashtags("no tags here"); tags != nil {
		t.Fatalf("expected no tags, got %v", tags)
	}
}

func TestNormalize_ProfileFields(t *testing.T) {
	rec := &instagram.ProfileRecord{
		Username:   "samplepage",
		FullName:   "Sample Page",
		Followers:  1200,
		Following:  310,
		MediaCount: 42,
		IsVerified: true,
	}

	profile, _, _ := Normalize(rec, nil)

	if profile.Handle != "samplepage" || profile.Followers != 1200 || !profile.Verified {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}
