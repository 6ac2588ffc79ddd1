package hub

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/avdeev-m/epichat/internal/domain"
	"github.com/avdeev-m/epichat/lib/logger/sl"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrSessionQueueFull = errors.New("session send queue is full")

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Chat messages may carry an
	// inline image payload, hence the generous limit.
	maxMessageSize = 512 * 1024
)

// EventHandler dispatches a client-originated event. A returned error is
// surfaced to the session as an error event and never terminates the
// connection.
type EventHandler interface {
	HandleEvent(session *Session, event domain.Event) error
}

// Session is one persistent connection. A session may subscribe to any
// number of rooms and receives room broadcasts through its send queue.
type Session struct {
	ID   uuid.UUID
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	log  *slog.Logger

	mu    sync.RWMutex
	rooms map[domain.RoomKey]bool
}

func NewSession(h *Hub, conn *websocket.Conn) *Session {
	return &Session{
		ID:    uuid.New(),
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, 256),
		log:   h.log,
		rooms: make(map[domain.RoomKey]bool),
	}
}

func (s *Session) addRoom(key domain.RoomKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[key] = true
}

func (s *Session) removeRoom(key domain.RoomKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, key)
}

func (s *Session) roomSet() map[domain.RoomKey]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[domain.RoomKey]bool, len(s.rooms))
	for key := range s.rooms {
		set[key] = true
	}
	return set
}

func (s *Session) InRoom(key domain.RoomKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[key]
}

// Send queues the event for delivery to this session only.
func (s *Session) Send(event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case s.send <- payload:
		return nil
	default:
		return ErrSessionQueueFull
	}
}

func (s *Session) SendError(message string) {
	event, err := domain.NewEvent(domain.EventError, map[string]string{"message": message})
	if err != nil {
		return
	}
	if err := s.Send(event); err != nil {
		s.log.Warn("failed to deliver error event",
			"session_id", s.ID.String(),
			sl.Err(err),
		)
	}
}

// ReadPump reads client events and hands them to the handler. It exits on
// connection failure and unregisters the session, which also removes it
// from every room.
func (s *Session) ReadPump(handler EventHandler) {
	defer func() {
		s.hub.Unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var event domain.Event
		if err := s.conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read failed", "session_id", s.ID.String(), sl.Err(err))
			}
			return
		}

		if handler == nil {
			continue
		}
		if err := handler.HandleEvent(s, event); err != nil {
			s.SendError(err.Error())
		}
	}
}

// WritePump drains the send queue to the connection and keeps it alive with
// periodic pings.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
