package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avdeev-m/epichat/internal/domain"
	"github.com/avdeev-m/epichat/internal/repository"
	"github.com/avdeev-m/epichat/lib/logger/sl"
	"github.com/google/uuid"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrCommentNotFound = errors.New("comment not found")
	ErrForbidden       = errors.New("only the author or an admin can delete a comment")
)

// ValidationError reports the offending field of a rejected mutation. It
// unwraps to ErrValidation so transports can map the whole class at once.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

type SubmitCommentInput struct {
	AnimeID   string
	EpisodeID string
	Body      string
	Author    domain.Author

	// CreatedAt is optional; the zero value means server-assigned.
	CreatedAt time.Time

	// Origin is the session that initiated the mutation over a persistent
	// connection. It is excluded from the broadcast because it is informed
	// by a direct reply. uuid.Nil (request/response mutators) excludes
	// nobody.
	Origin uuid.UUID
}

type DeleteCommentInput struct {
	AnimeID     string
	EpisodeID   string
	EntryID     string
	RequesterID string
	IsAdmin     bool
	Origin      uuid.UUID
}

type SendChatMessageInput struct {
	AnimeID   string
	EpisodeID string
	Text      string
	Image     string
	Author    domain.Author
}

// RelayService validates and sequences mutations, applies them to the entry
// store and decides broadcast scope per room kind. Authorization is
// trust-based: callers assert their own identity and admin flag, and the
// relay does not verify them.
type RelayService struct {
	store       repository.EntryStore
	broadcaster Broadcaster
	log         *slog.Logger
}

func NewRelayService(store repository.EntryStore, broadcaster Broadcaster, log *slog.Logger) *RelayService {
	if log == nil {
		log = slog.Default()
	}
	return &RelayService{store: store, broadcaster: broadcaster, log: log}
}

func (s *RelayService) SubmitComment(ctx context.Context, in SubmitCommentInput) (*domain.Entry, error) {
	const op = "service.relay.submit_comment"
	log := s.log.With(slog.String("op", op))

	if in.AnimeID == "" {
		return nil, invalid("anime_id", "is required")
	}
	if in.EpisodeID == "" {
		return nil, invalid("episode_id", "is required")
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, invalid("body", "must not be empty")
	}
	if in.Author.ID == "" {
		return nil, invalid("author_id", "is required")
	}
	if in.Author.Name == "" {
		return nil, invalid("author_name", "is required")
	}

	entry := domain.NewComment(in.AnimeID, in.EpisodeID, body, in.Author)
	if !in.CreatedAt.IsZero() {
		entry.CreatedAt = in.CreatedAt.UTC()
	}

	key := domain.CommentsRoom(in.AnimeID, in.EpisodeID)
	stored, err := s.store.Append(ctx, key, entry)
	if err != nil {
		log.Error("failed to append comment", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("comment stored",
		"room", key.String(),
		"entry_id", stored.ID,
		"author_id", stored.AuthorID,
	)

	s.broadcast(key, domain.EventNewComment, stored, in.Origin)
	return stored, nil
}

func (s *RelayService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*domain.Entry, error) {
	const op = "service.relay.delete_comment"
	log := s.log.With(slog.String("op", op))

	if in.EntryID == "" {
		return nil, invalid("id", "is required")
	}
	if in.RequesterID == "" {
		return nil, invalid("author_id", "is required")
	}

	key := domain.CommentsRoom(in.AnimeID, in.EpisodeID)

	entry, err := s.store.Get(ctx, key, in.EntryID)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return nil, ErrCommentNotFound
		}
		log.Error("failed to look up comment", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if entry.AuthorID != in.RequesterID && !in.IsAdmin {
		return nil, ErrForbidden
	}

	removed, err := s.store.Remove(ctx, key, in.EntryID)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return nil, ErrCommentNotFound
		}
		log.Error("failed to remove comment", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("comment deleted",
		"room", key.String(),
		"entry_id", removed.ID,
		"deleted_by", in.RequesterID,
	)

	s.broadcast(key, domain.EventCommentDeleted, domain.Deletion{
		ID:        removed.ID,
		AnimeID:   key.AnimeID,
		EpisodeID: key.EpisodeID,
		DeletedBy: in.RequesterID,
	}, in.Origin)
	return removed, nil
}

func (s *RelayService) SendChatMessage(ctx context.Context, in SendChatMessageInput) (*domain.Entry, error) {
	const op = "service.relay.send_chat_message"
	log := s.log.With(slog.String("op", op))

	if in.AnimeID == "" {
		return nil, invalid("anime_id", "is required")
	}
	if in.EpisodeID == "" {
		return nil, invalid("episode_id", "is required")
	}
	text := strings.TrimSpace(in.Text)
	if text == "" && in.Image == "" {
		return nil, invalid("text", "or image is required")
	}
	if in.Author.ID == "" {
		return nil, invalid("author_id", "is required")
	}
	if in.Author.Name == "" {
		return nil, invalid("author_name", "is required")
	}

	entry := domain.NewChatMessage(in.AnimeID, in.EpisodeID, text, in.Image, in.Author)

	key := domain.ChatRoom(in.AnimeID, in.EpisodeID)
	stored, err := s.store.Append(ctx, key, entry)
	if err != nil {
		log.Error("failed to append chat message", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("chat message stored",
		"room", key.String(),
		"entry_id", stored.ID,
		"author_id", stored.AuthorID,
	)

	// Chat sends are fire-and-forget with no synchronous echo, so the
	// broadcast includes the sender.
	s.broadcast(key, domain.EventNewMessage, stored, uuid.Nil)
	return stored, nil
}

func (s *RelayService) History(ctx context.Context, key domain.RoomKey) ([]*domain.Entry, error) {
	return s.store.List(ctx, key)
}

// broadcast never propagates failures: a broadcast problem is logged and
// must not fail the mutation that triggered it.
func (s *RelayService) broadcast(key domain.RoomKey, eventType domain.EventType, payload any, exclude uuid.UUID) {
	event, err := domain.NewEvent(eventType, payload)
	if err != nil {
		s.log.Error("failed to build broadcast event",
			"room", key.String(),
			"event", string(eventType),
			sl.Err(err),
		)
		return
	}
	s.broadcaster.Broadcast(key, event, exclude)
}
