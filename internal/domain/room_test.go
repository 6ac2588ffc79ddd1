package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoomKind(t *testing.T) {
	kind, err := ParseRoomKind("chat")
	require.NoError(t, err)
	assert.Equal(t, RoomKindChat, kind)

	kind, err = ParseRoomKind("comments")
	require.NoError(t, err)
	assert.Equal(t, RoomKindComments, kind)

	kind, err = ParseRoomKind("")
	require.NoError(t, err)
	assert.Equal(t, RoomKindComments, kind)

	_, err = ParseRoomKind("lobby")
	assert.Error(t, err)
}

func TestRoomKeysAreDistinctPerKind(t *testing.T) {
	assert.NotEqual(t, CommentsRoom("42", "3"), ChatRoom("42", "3"))
	assert.Equal(t, CommentsRoom("42", "3"), CommentsRoom("42", "3"))
}
