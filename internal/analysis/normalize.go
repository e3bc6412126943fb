package analysis

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/adityanexturn/profilescope/internal/instagram"
)

// Normalize converts raw source records into the internal schema. Records
// missing an identifier or a parsable timestamp are skipped with a warning
// rather than aborting the run. Duplicate identifiers keep the record
// fetched later. Unrecognized media types map to MediaOther.
func Normalize(rec *instagram.ProfileRecord, media []instagram.MediaRecord) (Profile, []Post, []Warning) {
	profile := Profile{}
	if rec != nil {
		profile = Profile{
			Handle:      rec.Username,
			FullName:    rec.FullName,
			Biography:   rec.Biography,
			Followers:   rec.Followers,
			Following:   rec.Following,
			MediaCount:  rec.MediaCount,
			Verified:    rec.IsVerified,
			ExternalURL: rec.ExternalURL,
		}
	}

	var (
		posts    []Post
		warnings []Warning
		seen     = map[string]int{}
	)

	for _, raw := range media {
		if raw.ID == "" {
			warnings = append(warnings, Warning{
				Code:    WarnSkippedRecord,
				Message: "record without identifier skipped",
			})
			continue
		}

		ts, err := instagram.ParseTimestamp(raw.Timestamp)
		if err != nil {
			warnings = append(warnings, Warning{
				Code:    WarnSkippedRecord,
				Message: fmt.Sprintf("record %s has unparsable timestamp %q", raw.ID, raw.Timestamp),
			})
			continue
		}

		post := Post{
			ID:        raw.ID,
			Timestamp: ts,
			MediaType: mediaTypeOf(raw.MediaType),
			Caption:   raw.Caption,
			Hashtags:  extractHashtags(raw.Caption),
			Permalink: raw.Permalink,
		}
		post.Likes = sanitizeCount(raw.LikeCount, raw.ID, "likes", &warnings)
		post.Comments = sanitizeCount(raw.CommentsCount, raw.ID, "comments", &warnings)
		post.Shares = sanitizeCount(raw.ShareCount, raw.ID, "shares", &warnings)

		// Overlapping pages can repeat an identifier; the later fetch wins.
		if idx, ok := seen[post.ID]; ok {
			posts[idx] = post
			continue
		}
		seen[post.ID] = len(posts)
		posts = append(posts, post)
	}

	return profile, posts, warnings
}

func mediaTypeOf(raw string) MediaType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "IMAGE":
		return MediaImage
	case "VIDEO", "REELS":
		return MediaVideo
	case "CAROUSEL_ALBUM", "CAROUSEL":
		return MediaCarousel
	default:
		return MediaOther
	}
}

// sanitizeCount rejects negative engagement counts back to unknown.
func sanitizeCount(value *int64, postID, field string, warnings *[]Warning) *int64 {
	if value == nil {
		return nil
	}
	if *value < 0 {
		*warnings = append(*warnings, Warning{
			Code:    WarnSkippedRecord,
			Message: fmt.Sprintf("record %s has negative %s count, treated as unknown", postID, field),
		})
		return nil
	}
	v := *value
	return &v
}

// extractHashtags pulls the distinct hashtags out of a caption, lowercased,
// in order of first appearance.
func extractHashtags(caption string) []string {
	if !strings.Contains(caption, "#") {
		return nil
	}

	var (
		tags []string
		seen = map[string]bool{}
	)
	fields := strings.FieldsFunc(caption, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	for _, field := range fields {
		if !strings.HasPrefix(field, "#") {
			continue
		}
		rest := field[1:]
		if cut := strings.IndexFunc(rest, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		}); cut >= 0 {
			rest = rest[:cut]
		}
		tag := strings.ToLower(rest)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
