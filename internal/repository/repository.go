package repository

import (
	"context"

	"github.com/avdeev-m/epichat/internal/domain"
)

// Stats is a point-in-time summary of the store contents.
type Stats struct {
	Rooms   int `json:"rooms"`
	Entries int `json:"entries"`
}

// EntryStore holds, per room key, an ordered sequence of entries and
// enforces the per-kind capacity policy. Validation is not its job; every
// Append succeeds and returns the stored entry.
type EntryStore interface {
	Append(ctx context.Context, key domain.RoomKey, entry *domain.Entry) (*domain.Entry, error)
	Get(ctx context.Context, key domain.RoomKey, entryID string) (*domain.Entry, error)
	Remove(ctx context.Context, key domain.RoomKey, entryID string) (*domain.Entry, error)
	List(ctx context.Context, key domain.RoomKey) ([]*domain.Entry, error)
	Stats() Stats
}
