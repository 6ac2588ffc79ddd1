package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpapi "github.com/avdeev-m/epichat/internal/api/http"
	"github.com/avdeev-m/epichat/internal/api/ws"
	"github.com/avdeev-m/epichat/internal/domain"
	"github.com/avdeev-m/epichat/internal/hub"
	"github.com/avdeev-m/epichat/internal/repository"
	"github.com/avdeev-m/epichat/internal/service"
	"github.com/avdeev-m/epichat/lib/logger/slogdiscard"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readTimeout = 2 * time.Second

func setupServer(t *testing.T) (*httptest.Server, *repository.InMemoryEntryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slogdiscard.NewDiscardLogger()
	store := repository.NewInMemoryEntryStore(repository.Caps{})
	sessions := hub.NewHub(log)
	relay := service.NewRelayService(store, sessions, log)

	router := httpapi.SetupRouter(
		[]string{"http://localhost:3000"},
		httpapi.NewCommentController(relay, log),
		httpapi.NewChatController(relay, log),
		httpapi.NewStatsController(sessions, store),
		ws.NewController(relay, sessions, log),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

type client struct {
	conn      *websocket.Conn
	sessionID string
}

func dial(t *testing.T, srv *httptest.Server) *client {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// The server announces the session id on connect.
	event := readEvent(t, conn)
	require.Equal(t, domain.EventConnected, event.Type)

	var payload struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	require.NotEmpty(t, payload.SessionID)

	return &client{conn: conn, sessionID: payload.SessionID}
}

func (c *client) emit(t *testing.T, eventType domain.EventType, payload any) {
	t.Helper()
	event, err := domain.NewEvent(eventType, payload)
	require.NoError(t, err)
	require.NoError(t, c.conn.WriteJSON(event))
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	var event domain.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func expectEvent(t *testing.T, c *client, eventType domain.EventType) domain.Event {
	t.Helper()
	event := readEvent(t, c.conn)
	require.Equal(t, eventType, event.Type)
	return event
}

func expectSilence(t *testing.T, c *client) {
	t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var event domain.Event
	err := c.conn.ReadJSON(&event)
	require.Error(t, err, "expected no event, got %s", event.Type)
}

func roomRef(kind domain.RoomKind) map[string]string {
	return map[string]string{
		"anime_id":   "42",
		"episode_id": "3",
		"room":       string(kind),
	}
}

// join subscribes the client and waits for a history reply, which guarantees
// the join was processed: events of one session are handled in order.
func join(t *testing.T, c *client, kind domain.RoomKind) {
	t.Helper()
	c.emit(t, domain.EventJoinRoom, roomRef(kind))
	c.emit(t, domain.EventGetHistory, roomRef(kind))
	expectEvent(t, c, domain.EventHistory)
}

func TestCommentOverSocketBroadcastScope(t *testing.T) {
	srv, _ := setupServer(t)

	a := dial(t, srv)
	b := dial(t, srv)
	c := dial(t, srv)
	join(t, a, domain.RoomKindComments)
	join(t, b, domain.RoomKindComments)
	join(t, c, domain.RoomKindComments)

	a.emit(t, domain.EventNewComment, map[string]any{
		"anime_id":    "42",
		"episode_id":  "3",
		"body":        "great ep",
		"author_id":   "u1",
		"author_name": "Ann",
	})

	var got []domain.Entry
	for _, cl := range []*client{a, b, c} {
		event := expectEvent(t, cl, domain.EventNewComment)
		var entry domain.Entry
		require.NoError(t, json.Unmarshal(event.Data, &entry))
		got = append(got, entry)
	}

	// Everyone saw the identical stored entry: the sender through its direct
	// reply, the others through exactly one broadcast.
	assert.Equal(t, got[0], got[1])
	assert.Equal(t, got[0], got[2])
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, "great ep", got[0].Body)

	for _, cl := range []*client{a, b, c} {
		expectSilence(t, cl)
	}
}

func TestRestCommentBroadcastSkipsMutatorSession(t *testing.T) {
	srv, _ := setupServer(t)

	a := dial(t, srv)
	b := dial(t, srv)
	c := dial(t, srv)
	join(t, a, domain.RoomKindComments)
	join(t, b, domain.RoomKindComments)
	join(t, c, domain.RoomKindComments)

	body := strings.NewReader(`{"body":"posted over rest","author_id":"u1","author_name":"Ann"}`)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/animes/42/episodes/3/comments", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", a.sessionID)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// B and C each receive exactly one broadcast; A got the entry in the
	// response and receives nothing.
	for _, cl := range []*client{b, c} {
		event := expectEvent(t, cl, domain.EventNewComment)
		assert.Contains(t, string(event.Data), "posted over rest")
		expectSilence(t, cl)
	}
	expectSilence(t, a)
}

func TestChatMessageEchoesToSender(t *testing.T) {
	srv, _ := setupServer(t)

	a := dial(t, srv)
	b := dial(t, srv)
	join(t, a, domain.RoomKindChat)
	join(t, b, domain.RoomKindChat)

	a.emit(t, domain.EventSendMessage, map[string]any{
		"anime_id":    "42",
		"episode_id":  "3",
		"text":        "hi",
		"author_id":   "u1",
		"author_name": "Ann",
	})

	for _, cl := range []*client{a, b} {
		event := expectEvent(t, cl, domain.EventNewMessage)

		var entry domain.Entry
		require.NoError(t, json.Unmarshal(event.Data, &entry))
		assert.Equal(t, "hi", entry.Body)
		assert.Empty(t, entry.Image)
	}
}

func TestDeleteCommentOverSocket(t *testing.T) {
	srv, store := setupServer(t)

	stored, err := store.Append(context.Background(),
		domain.CommentsRoom("42", "3"),
		domain.NewComment("42", "3", "to be removed", domain.Author{ID: "u1", Name: "Ann"}),
	)
	require.NoError(t, err)

	a := dial(t, srv)
	b := dial(t, srv)
	join(t, a, domain.RoomKindComments)
	join(t, b, domain.RoomKindComments)

	a.emit(t, domain.EventDeleteComment, map[string]any{
		"id":         stored.ID,
		"anime_id":   "42",
		"episode_id": "3",
		"author_id":  "u1",
	})

	for _, cl := range []*client{a, b} {
		event := expectEvent(t, cl, domain.EventCommentDeleted)

		var deletion domain.Deletion
		require.NoError(t, json.Unmarshal(event.Data, &deletion))
		assert.Equal(t, stored.ID, deletion.ID)
		assert.Equal(t, "u1", deletion.DeletedBy)
	}
}

func TestValidationErrorGoesOnlyToSender(t *testing.T) {
	srv, _ := setupServer(t)

	a := dial(t, srv)
	b := dial(t, srv)
	join(t, a, domain.RoomKindComments)
	join(t, b, domain.RoomKindComments)

	a.emit(t, domain.EventNewComment, map[string]any{
		"anime_id":    "42",
		"episode_id":  "3",
		"body":        "   ",
		"author_id":   "u1",
		"author_name": "Ann",
	})

	event := expectEvent(t, a, domain.EventError)
	assert.Contains(t, string(event.Data), "body")

	expectSilence(t, b)
}

func TestGetHistoryRepliesToRequesterOnly(t *testing.T) {
	srv, store := setupServer(t)

	_, err := store.Append(context.Background(),
		domain.ChatRoom("42", "3"),
		domain.NewChatMessage("42", "3", "earlier", "", domain.Author{ID: "u1", Name: "Ann"}),
	)
	require.NoError(t, err)

	a := dial(t, srv)
	b := dial(t, srv)
	join(t, a, domain.RoomKindChat)
	join(t, b, domain.RoomKindChat)

	a.emit(t, domain.EventGetHistory, roomRef(domain.RoomKindChat))

	event := expectEvent(t, a, domain.EventHistory)

	var payload struct {
		Room    domain.RoomKind `json:"room"`
		Entries []domain.Entry  `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	assert.Equal(t, domain.RoomKindChat, payload.Room)
	require.Len(t, payload.Entries, 1)
	assert.Equal(t, "earlier", payload.Entries[0].Body)

	expectSilence(t, b)
}

func TestLeaveRoomStopsBroadcasts(t *testing.T) {
	srv, _ := setupServer(t)

	a := dial(t, srv)
	b := dial(t, srv)
	join(t, a, domain.RoomKindChat)
	join(t, b, domain.RoomKindChat)

	b.emit(t, domain.EventLeaveRoom, roomRef(domain.RoomKindChat))
	// Barrier: a history request confirms the leave was processed.
	b.emit(t, domain.EventGetHistory, roomRef(domain.RoomKindChat))
	expectEvent(t, b, domain.EventHistory)

	a.emit(t, domain.EventSendMessage, map[string]any{
		"anime_id":    "42",
		"episode_id":  "3",
		"text":        "anyone here?",
		"author_id":   "u1",
		"author_name": "Ann",
	})

	expectEvent(t, a, domain.EventNewMessage)
	expectSilence(t, b)
}

func TestUnknownEventType(t *testing.T) {
	srv, _ := setupServer(t)

	a := dial(t, srv)
	a.emit(t, domain.EventType("bogus"), map[string]string{})

	event := expectEvent(t, a, domain.EventError)
	assert.Contains(t, string(event.Data), "unknown event type")
}
