package insight

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/adityanexturn/profilescope/internal/analysis"
)

// fingerprintInput is the canonical shape hashed into a cache key. Posts
// are sorted by identifier so fetch order never changes the fingerprint.
type fingerprintInput struct {
	Profile analysis.Profile        `json:"profile"`
	Posts   []analysis.Post         `json:"posts"`
	Summary analysis.MetricsSummary `json:"summary"`
}

// Fingerprint returns a deterministic hex hash of the normalized input.
// The same input always yields the same fingerprint; any change to a
// profile field, post, or metric changes it.
func Fingerprint(profile analysis.Profile, posts []analysis.Post, summary analysis.MetricsSummary) string {
	ordered := make([]analysis.Post, len(posts))
	copy(ordered, posts)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	// json.Marshal emits map keys in sorted order, so the encoding is
	// canonical for the summary's metric maps as well.
	payload, err := json.Marshal(fingerprintInput{
		Profile: profile,
		Posts:   ordered,
		Summary: summary,
	})
	if err != nil {
		// Only unmarshalable types can fail here and the input is all
		// plain data; hash the error text so callers still get a key.
		payload = []byte(err.Error())
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
