package domain

import (
	"time"

	"github.com/google/uuid"
)

// Author carries the identity fields supplied by the caller. They are
// trusted as-is: the relay performs no verification beyond requiring that
// the fields are present where an operation demands them.
type Author struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Avatar  string `json:"avatar,omitempty"`
	IsAdmin bool   `json:"is_admin"`
}

// Entry is a single comment or chat message stored in a room's sequence.
// The anime/episode pair is denormalized onto the entry for routing and
// client display.
type Entry struct {
	ID            string    `json:"id"`
	AnimeID       string    `json:"anime_id"`
	EpisodeID     string    `json:"episode_id"`
	Body          string    `json:"body,omitempty"`
	Image         string    `json:"image,omitempty"`
	AuthorID      string    `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	AuthorAvatar  string    `json:"author_avatar,omitempty"`
	IsAuthorAdmin bool      `json:"is_author_admin"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewComment(animeID, episodeID, body string, author Author) *Entry {
	return &Entry{
		ID:            uuid.New().String(),
		AnimeID:       animeID,
		EpisodeID:     episodeID,
		Body:          body,
		AuthorID:      author.ID,
		AuthorName:    author.Name,
		AuthorAvatar:  author.Avatar,
		IsAuthorAdmin: author.IsAdmin,
		CreatedAt:     time.Now().UTC(),
	}
}

func NewChatMessage(animeID, episodeID, text, image string, author Author) *Entry {
	msg := NewComment(animeID, episodeID, text, author)
	msg.Image = image
	return msg
}
