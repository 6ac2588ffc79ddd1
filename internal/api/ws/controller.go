package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avdeev-m/epichat/internal/domain"
	"github.com/avdeev-m/epichat/internal/hub"
	"github.com/avdeev-m/epichat/internal/service"
	"github.com/avdeev-m/epichat/lib/logger/sl"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Controller maps persistent-connection events 1:1 onto the relay
// operations. Mutation results reach the initiating session through a
// direct reply; other room members are informed by the relay's broadcast.
type Controller struct {
	relay    service.RelayInteractor
	hub      *hub.Hub
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewController(relay service.RelayInteractor, h *hub.Hub, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		relay: relay,
		hub:   h,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (c *Controller) Serve(ctx *gin.Context) {
	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Warn("failed to upgrade connection", sl.Err(err))
		return
	}

	session := hub.NewSession(c.hub, conn)
	c.hub.Register(session)

	go session.WritePump()

	// The session id lets request/response mutators identify their own
	// session so the broadcast can skip it.
	if err := c.reply(session, domain.EventConnected, map[string]string{"session_id": session.ID.String()}); err != nil {
		c.log.Warn("failed to announce session", "session_id", session.ID.String(), sl.Err(err))
	}

	session.ReadPump(c)
}

type roomPayload struct {
	AnimeID   string `json:"anime_id"`
	EpisodeID string `json:"episode_id"`
	Room      string `json:"room"`
}

func (p roomPayload) key() (domain.RoomKey, error) {
	if p.AnimeID == "" {
		return domain.RoomKey{}, fmt.Errorf("anime_id is required")
	}
	if p.EpisodeID == "" {
		return domain.RoomKey{}, fmt.Errorf("episode_id is required")
	}
	kind, err := domain.ParseRoomKind(p.Room)
	if err != nil {
		return domain.RoomKey{}, err
	}
	return domain.RoomKey{AnimeID: p.AnimeID, EpisodeID: p.EpisodeID, Kind: kind}, nil
}

type newCommentPayload struct {
	AnimeID      string     `json:"anime_id"`
	EpisodeID    string     `json:"episode_id"`
	Body         string     `json:"body"`
	AuthorID     string     `json:"author_id"`
	AuthorName   string     `json:"author_name"`
	AuthorAvatar string     `json:"author_avatar"`
	IsAdmin      bool       `json:"is_admin"`
	CreatedAt    *time.Time `json:"created_at"`
}

type deleteCommentPayload struct {
	ID        string `json:"id"`
	AnimeID   string `json:"anime_id"`
	EpisodeID string `json:"episode_id"`
	AuthorID  string `json:"author_id"`
	IsAdmin   bool   `json:"is_admin"`
}

type sendMessagePayload struct {
	AnimeID      string `json:"anime_id"`
	EpisodeID    string `json:"episode_id"`
	Text         string `json:"text"`
	Image        string `json:"image"`
	AuthorID     string `json:"author_id"`
	AuthorName   string `json:"author_name"`
	AuthorAvatar string `json:"author_avatar"`
}

type historyPayload struct {
	AnimeID   string          `json:"anime_id"`
	EpisodeID string          `json:"episode_id"`
	Room      domain.RoomKind `json:"room"`
	Entries   []*domain.Entry `json:"entries"`
}

// HandleEvent dispatches one client event. Returned errors are delivered to
// the session as an error event by the read pump.
func (c *Controller) HandleEvent(session *hub.Session, event domain.Event) error {
	switch event.Type {
	case domain.EventJoinRoom:
		return c.handleJoin(session, event.Data)
	case domain.EventLeaveRoom:
		return c.handleLeave(session, event.Data)
	case domain.EventNewComment:
		return c.handleNewComment(session, event.Data)
	case domain.EventDeleteComment:
		return c.handleDeleteComment(session, event.Data)
	case domain.EventSendMessage:
		return c.handleSendMessage(session, event.Data)
	case domain.EventGetHistory:
		return c.handleGetHistory(session, event.Data)
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}

func (c *Controller) handleJoin(session *hub.Session, data json.RawMessage) error {
	var payload roomPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("invalid join-room payload: %w", err)
	}
	key, err := payload.key()
	if err != nil {
		return err
	}

	c.hub.Join(session, key)
	return nil
}

func (c *Controller) handleLeave(session *hub.Session, data json.RawMessage) error {
	var payload roomPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("invalid leave-room payload: %w", err)
	}
	key, err := payload.key()
	if err != nil {
		return err
	}

	c.hub.Leave(session, key)
	return nil
}

func (c *Controller) handleNewComment(session *hub.Session, data json.RawMessage) error {
	var payload newCommentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("invalid new-comment payload: %w", err)
	}

	in := service.SubmitCommentInput{
		AnimeID:   payload.AnimeID,
		EpisodeID: payload.EpisodeID,
		Body:      payload.Body,
		Author: domain.Author{
			ID:      payload.AuthorID,
			Name:    payload.AuthorName,
			Avatar:  payload.AuthorAvatar,
			IsAdmin: payload.IsAdmin,
		},
		Origin: session.ID,
	}
	if payload.CreatedAt != nil {
		in.CreatedAt = *payload.CreatedAt
	}

	entry, err := c.relay.SubmitComment(context.Background(), in)
	if err != nil {
		return err
	}

	return c.reply(session, domain.EventNewComment, entry)
}

func (c *Controller) handleDeleteComment(session *hub.Session, data json.RawMessage) error {
	var payload deleteCommentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("invalid delete-comment payload: %w", err)
	}

	entry, err := c.relay.DeleteComment(context.Background(), service.DeleteCommentInput{
		AnimeID:     payload.AnimeID,
		EpisodeID:   payload.EpisodeID,
		EntryID:     payload.ID,
		RequesterID: payload.AuthorID,
		IsAdmin:     payload.IsAdmin,
		Origin:      session.ID,
	})
	if err != nil {
		return err
	}

	return c.reply(session, domain.EventCommentDeleted, domain.Deletion{
		ID:        entry.ID,
		AnimeID:   entry.AnimeID,
		EpisodeID: entry.EpisodeID,
		DeletedBy: payload.AuthorID,
	})
}

func (c *Controller) handleSendMessage(session *hub.Session, data json.RawMessage) error {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("invalid send-message payload: %w", err)
	}

	// No direct reply: the sender is included in the room broadcast.
	_, err := c.relay.SendChatMessage(context.Background(), service.SendChatMessageInput{
		AnimeID:   payload.AnimeID,
		EpisodeID: payload.EpisodeID,
		Text:      payload.Text,
		Image:     payload.Image,
		Author: domain.Author{
			ID:     payload.AuthorID,
			Name:   payload.AuthorName,
			Avatar: payload.AuthorAvatar,
		},
	})
	return err
}

func (c *Controller) handleGetHistory(session *hub.Session, data json.RawMessage) error {
	var payload roomPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("invalid get-history payload: %w", err)
	}
	key, err := payload.key()
	if err != nil {
		return err
	}

	entries, err := c.relay.History(context.Background(), key)
	if err != nil {
		return err
	}

	return c.reply(session, domain.EventHistory, historyPayload{
		AnimeID:   key.AnimeID,
		EpisodeID: key.EpisodeID,
		Room:      key.Kind,
		Entries:   entries,
	})
}

func (c *Controller) reply(session *hub.Session, eventType domain.EventType, payload any) error {
	event, err := domain.NewEvent(eventType, payload)
	if err != nil {
		return err
	}
	if err := session.Send(event); err != nil {
		c.log.Warn("failed to deliver reply",
			"session_id", session.ID.String(),
			"event", string(eventType),
			sl.Err(err),
		)
	}
	return nil
}
