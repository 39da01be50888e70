package model

import "time"

// Item is a single reviewable post. It is immutable once fetched and ID is
// the only key used for dedup and for delete requests.
type Item struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Payload   Post      `json:"payload"`
}

// Post is the displayable content of an Item.
type Post struct {
	Text     string        `json:"text"`
	AuthorID string        `json:"authorId,omitempty"`
	Metrics  PublicMetrics `json:"metrics"`
	Media    []Media       `json:"media,omitempty"`
}

// PublicMetrics holds engagement counters reported by the provider.
type PublicMetrics struct {
	Likes       int64 `json:"likes"`
	Reposts     int64 `json:"reposts"`
	Replies     int64 `json:"replies"`
	Quotes      int64 `json:"quotes"`
	Impressions int64 `json:"impressions,omitempty"`
}

// Media is an attachment on a post.
type Media struct {
	Key        string `json:"key"`
	Type       string `json:"type"` // photo, video, animated_gif
	URL        string `json:"url,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

// Page is one paginated fetch result. An empty NextCursor means the
// provider has no more pages.
type Page struct {
	Items      []Item
	NextCursor string
}

// Profile is the authenticated account's basic profile.
type Profile struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Username        string         `json:"username"`
	ProfileImageURL string         `json:"profileImageUrl,omitempty"`
	Metrics         ProfileMetrics `json:"metrics"`
}

// ProfileMetrics holds account-level counters.
type ProfileMetrics struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
	Posts     int64 `json:"posts"`
	Listed    int64 `json:"listed"`
}

// Deletion is one audited delete attempt recorded by the service.
type Deletion struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	Deleted   bool      `json:"deleted"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
