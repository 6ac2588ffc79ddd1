package domain

import "encoding/json"

type EventType string

const (
	// Client-originated events.
	EventJoinRoom      EventType = "join-room"
	EventLeaveRoom     EventType = "leave-room"
	EventNewComment    EventType = "new-comment"
	EventDeleteComment EventType = "delete-comment"
	EventSendMessage   EventType = "send-message"
	EventGetHistory    EventType = "get-history"

	// Server-originated events. EventNewComment is reused for broadcasts of
	// stored comments.
	EventConnected      EventType = "connected"
	EventNewMessage     EventType = "new-message"
	EventCommentDeleted EventType = "comment-deleted"
	EventHistory        EventType = "history"
	EventError          EventType = "error"
)

// Event is the envelope exchanged over persistent connections and fanned
// out to room members.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func NewEvent(eventType EventType, payload any) (Event, error) {
	event := Event{Type: eventType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		event.Data = data
	}
	return event, nil
}

// Deletion is the broadcast payload announcing a removed comment.
type Deletion struct {
	ID        string `json:"id"`
	AnimeID   string `json:"anime_id"`
	EpisodeID string `json:"episode_id"`
	DeletedBy string `json:"deleted_by"`
}
