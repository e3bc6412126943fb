package instagram

import "time"

// ProfileRecord is the raw profile payload as returned by the source.
// It only exists between the fetcher and the normalizer.
type ProfileRecord struct {
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	Biography   string `json:"biography"`
	Followers   int64  `json:"followers_count"`
	Following   int64  `json:"follows_count"`
	MediaCount  int64  `json:"media_count"`
	IsVerified  bool   `json:"is_verified"`
	IsPrivate   bool   `json:"is_private"`
	ExternalURL string `json:"external_url"`
	CreatedTime string `json:"created_time,omitempty"`
}

// MediaRecord is one raw media item from the source feed. Engagement
// counters are pointers: the source omits fields it will not disclose.
type MediaRecord struct {
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	MediaType     string `json:"media_type"`
	Caption       string `json:"caption"`
	LikeCount     *int64 `json:"like_count"`
	CommentsCount *int64 `json:"comments_count"`
	ShareCount    *int64 `json:"share_count"`
	Permalink     string `json:"permalink"`
}

// mediaFeed is one page of the media endpoint.
type mediaFeed struct {
	Data   []MediaRecord `json:"data"`
	Paging struct {
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next,omitempty"`
	} `json:"paging"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// FetchOptions bound a posts fetch.
type FetchOptions struct {
	// MaxItems caps the number of records returned. Zero means the
	// client default.
	MaxItems int
	// Since drops records older than this instant and stops pagination
	// once a page falls entirely behind it. Zero means unbounded.
	Since time.Time
	// Until drops records newer than this instant. Zero means unbounded.
	Until time.Time
}
