package model

import "context"

// ItemSource fetches pages of items and deletes items by id. Both the
// provider client (service side) and the remote client (TUI side)
// implement it.
type ItemSource interface {
	FetchPage(ctx context.Context, cursor string) (Page, error)
	DeleteItem(ctx context.Context, id string) error
}

// ProfileSource returns the authenticated account profile.
type ProfileSource interface {
	Profile(ctx context.Context) (Profile, error)
}

// DeletionRecorder persists delete outcomes for auditing.
type DeletionRecorder interface {
	RecordDeletion(d Deletion) error
}

// DeletionReader reads audited delete outcomes.
type DeletionReader interface {
	RecentDeletions(limit int) ([]Deletion, error)
	DeletionCount() (int64, error)
}
