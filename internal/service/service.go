package service

import (
	"context"

	"github.com/avdeev-m/epichat/internal/domain"
	"github.com/google/uuid"
)

type RelayInteractor interface {
	SubmitComment(ctx context.Context, in SubmitCommentInput) (*domain.Entry, error)
	DeleteComment(ctx context.Context, in DeleteCommentInput) (*domain.Entry, error)
	SendChatMessage(ctx context.Context, in SendChatMessageInput) (*domain.Entry, error)
	History(ctx context.Context, key domain.RoomKey) ([]*domain.Entry, error)
}

// Broadcaster delivers an event to every session subscribed to the room,
// skipping exclude when it is not uuid.Nil.
type Broadcaster interface {
	Broadcast(key domain.RoomKey, event domain.Event, exclude uuid.UUID)
}
