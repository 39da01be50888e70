package model

// JSON bodies exchanged between the service HTTP API and its clients.

// ItemsResponse is the body of GET /items.
type ItemsResponse struct {
	Items      []Item    `json:"items"`
	NextCursor string    `json:"nextCursor,omitempty"`
	Meta       ItemsMeta `json:"meta"`
}

// ItemsMeta describes a page.
type ItemsMeta struct {
	Count int `json:"count"`
}

// DeleteRequest is the body of DELETE /items.
type DeleteRequest struct {
	ID string `json:"id"`
}

// DeleteResponse is the success body of DELETE /items.
type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	ResetAt    string `json:"resetAt,omitempty"` // RFC 3339
}

// DeletionsResponse is the body of GET /deletions.
type DeletionsResponse struct {
	Deletions []Deletion `json:"deletions"`
}
