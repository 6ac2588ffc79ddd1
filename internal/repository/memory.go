package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/avdeev-m/epichat/internal/domain"
	"github.com/google/uuid"
)

var ErrEntryNotFound = errors.New("entry not found")

const (
	DefaultCommentCap = 200
	DefaultChatCap    = 100
)

// Caps bounds the number of retained entries per room. Once a room exceeds
// its cap, the oldest entries are evicted first (sliding window).
type Caps struct {
	Comments int
	Chat     int
}

func (c Caps) forKind(kind domain.RoomKind) int {
	if kind == domain.RoomKindChat {
		return c.Chat
	}
	return c.Comments
}

type InMemoryEntryStore struct {
	mu    sync.RWMutex
	caps  Caps
	rooms map[domain.RoomKey][]*domain.Entry
}

func NewInMemoryEntryStore(caps Caps) *InMemoryEntryStore {
	if caps.Comments <= 0 {
		caps.Comments = DefaultCommentCap
	}
	if caps.Chat <= 0 {
		caps.Chat = DefaultChatCap
	}
	return &InMemoryEntryStore{
		caps:  caps,
		rooms: make(map[domain.RoomKey][]*domain.Entry),
	}
}

// Append stores the entry at the tail of the room's sequence, assigning an
// id and creation time when absent, and trims the head past the room cap.
// Stored entries are never mutated afterwards, so returned pointers are safe
// to share.
func (s *InMemoryEntryStore) Append(ctx context.Context, key domain.RoomKey, entry *domain.Entry) (*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errors.New("entry is nil")
	}

	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.AnimeID = key.AnimeID
	stored.EpisodeID = key.EpisodeID

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.rooms[key], &stored)
	if limit := s.caps.forKind(key.Kind); len(entries) > limit {
		evicted := len(entries) - limit
		entries = append(make([]*domain.Entry, 0, limit), entries[evicted:]...)
	}
	s.rooms[key] = entries

	return &stored, nil
}

func (s *InMemoryEntryStore) Get(ctx context.Context, key domain.RoomKey, entryID string) (*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.rooms[key] {
		if entry.ID == entryID {
			return entry, nil
		}
	}
	return nil, ErrEntryNotFound
}

// Remove deletes the first entry matching the id and returns it. The room's
// sequence entry is kept even when it becomes empty: stored history survives
// empty-room periods until process restart.
func (s *InMemoryEntryStore) Remove(ctx context.Context, key domain.RoomKey, entryID string) (*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.rooms[key]
	if !ok {
		return nil, ErrEntryNotFound
	}

	for i, entry := range entries {
		if entry.ID == entryID {
			s.rooms[key] = append(entries[:i:i], entries[i+1:]...)
			return entry, nil
		}
	}
	return nil, ErrEntryNotFound
}

// List returns a snapshot of the room's sequence in insertion order. The
// returned slice does not alias future mutations; an absent room yields an
// empty slice.
func (s *InMemoryEntryStore) List(ctx context.Context, key domain.RoomKey) ([]*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.rooms[key]
	snapshot := make([]*domain.Entry, len(entries))
	copy(snapshot, entries)
	return snapshot, nil
}

func (s *InMemoryEntryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Rooms: len(s.rooms)}
	for _, entries := range s.rooms {
		stats.Entries += len(entries)
	}
	return stats
}
