package domain

import "fmt"

type RoomKind string

const (
	RoomKindComments RoomKind = "comments"
	RoomKindChat     RoomKind = "chat"
)

// RoomKey identifies the unit of subscription and isolation. The comment
// room and the chat room of the same episode are distinct rooms and never
// share entries.
type RoomKey struct {
	AnimeID   string   `json:"anime_id"`
	EpisodeID string   `json:"episode_id"`
	Kind      RoomKind `json:"room"`
}

func CommentsRoom(animeID, episodeID string) RoomKey {
	return RoomKey{AnimeID: animeID, EpisodeID: episodeID, Kind: RoomKindComments}
}

func ChatRoom(animeID, episodeID string) RoomKey {
	return RoomKey{AnimeID: animeID, EpisodeID: episodeID, Kind: RoomKindChat}
}

// ParseRoomKind maps a wire value onto a known room kind. An empty value
// defaults to the comments room.
func ParseRoomKind(s string) (RoomKind, error) {
	switch RoomKind(s) {
	case RoomKindComments, "":
		return RoomKindComments, nil
	case RoomKindChat:
		return RoomKindChat, nil
	default:
		return "", fmt.Errorf("unknown room kind %q", s)
	}
}

func (k RoomKey) String() string {
	return k.AnimeID + "/" + k.EpisodeID + "/" + string(k.Kind)
}
