package hub

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/avdeev-m/epichat/internal/domain"
	"github.com/avdeev-m/epichat/internal/metric"
	"github.com/avdeev-m/epichat/lib/logger/sl"
	"github.com/google/uuid"
)

// Stats is a point-in-time summary of connected sessions and subscribed
// rooms.
type Stats struct {
	Sessions int `json:"sessions"`
	Rooms    int `json:"rooms"`
}

// Hub tracks which sessions are subscribed to which room and fans events
// out to them. Membership entries are removed once a room's member set
// drops to zero; stored history is not the hub's concern and survives
// empty-room periods in the entry store.
type Hub struct {
	log *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	rooms    map[domain.RoomKey]map[uuid.UUID]*Session
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:      log,
		sessions: make(map[uuid.UUID]*Session),
		rooms:    make(map[domain.RoomKey]map[uuid.UUID]*Session),
	}
}

func (h *Hub) Register(session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[session.ID] = session
	metric.IncrementWSActiveConnections()

	h.log.Info("session registered", "session_id", session.ID.String())
}

// Unregister removes the session from every room it belonged to and closes
// its send queue. It handles abrupt disconnects without an explicit leave.
func (h *Hub) Unregister(session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[session.ID]; !ok {
		return
	}

	for key := range session.roomSet() {
		h.removeFromRoom(session, key)
	}

	delete(h.sessions, session.ID)
	close(session.send)
	metric.DecrementWSActiveConnections()

	h.log.Info("session unregistered", "session_id", session.ID.String())
}

// Join subscribes the session to the room, lazily creating the member set.
func (h *Hub) Join(session *Session, key domain.RoomKey) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[key]; !ok {
		h.rooms[key] = make(map[uuid.UUID]*Session)
	}
	h.rooms[key][session.ID] = session
	session.addRoom(key)

	h.log.Info("session joined room",
		"session_id", session.ID.String(),
		"room", key.String(),
	)
}

func (h *Hub) Leave(session *Session, key domain.RoomKey) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(session, key)
}

func (h *Hub) removeFromRoom(session *Session, key domain.RoomKey) {
	room, ok := h.rooms[key]
	if !ok {
		return
	}
	if _, ok := room[session.ID]; !ok {
		return
	}

	delete(room, session.ID)
	session.removeRoom(key)

	if len(room) == 0 {
		delete(h.rooms, key)
	}
}

func (h *Hub) IsEmpty(key domain.RoomKey) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[key]) == 0
}

// Broadcast delivers the event to every session subscribed to the room,
// skipping exclude when it is not uuid.Nil. Delivery is best-effort: a
// session with a full send queue is skipped, never blocked on.
func (h *Hub) Broadcast(key domain.RoomKey, event domain.Event, exclude uuid.UUID) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal broadcast event", sl.Err(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	metric.RecordBroadcast(string(key.Kind), string(event.Type))

	for _, session := range h.rooms[key] {
		if session.ID == exclude {
			continue
		}
		select {
		case session.send <- payload:
		default:
			metric.RecordDroppedDelivery()
			h.log.Warn("session send queue full, dropping event",
				"session_id", session.ID.String(),
				"room", key.String(),
			)
		}
	}
}

func (h *Hub) RoomSessions(key domain.RoomKey) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[key])
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return Stats{
		Sessions: len(h.sessions),
		Rooms:    len(h.rooms),
	}
}
