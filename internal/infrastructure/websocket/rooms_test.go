package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomMuxJoinRequiresConversationID(t *testing.T) {
	server := newChatServer(t)
	c := newTestClient(server, "u1")
	mux := NewRoomMux(c)

	assert.Error(t, mux.JoinConversation(""))
}

func TestRoomMuxSingleActiveRoom(t *testing.T) {
	server := newChatServer(t)
	c := newTestClient(server, "u1")
	mux := NewRoomMux(c)

	require.NoError(t, c.Connect())
	defer c.Disconnect()
	server.waitConn(t)

	require.NoError(t, mux.JoinConversation("conv-a"))
	joinA := server.waitEvent(t)
	assert.Equal(t, EventJoinConversation, joinA.Type)
	assert.Equal(t, "conv-a", joinA.ConversationID)

	// Switching rooms leaves the old one; stale joins must not leak
	// broadcasts into the wrong view.
	require.NoError(t, mux.JoinConversation("conv-b"))
	leaveA := server.waitEvent(t)
	assert.Equal(t, EventLeaveConversation, leaveA.Type)
	assert.Equal(t, "conv-a", leaveA.ConversationID)

	joinB := server.waitEvent(t)
	assert.Equal(t, EventJoinConversation, joinB.Type)
	assert.Equal(t, "conv-b", joinB.ConversationID)

	assert.Equal(t, "conv-b", mux.Current())
}

func TestRoomMuxPendingJoinReplayedOnConnect(t *testing.T) {
	server := newChatServer(t)
	c := newTestClient(server, "u1")
	mux := NewRoomMux(c)

	// View asks to join before the handshake completed.
	require.NoError(t, mux.JoinConversation("conv-c"))
	assert.Equal(t, "conv-c", mux.Current())

	require.NoError(t, c.Connect())
	defer c.Disconnect()
	server.waitConn(t)

	join := server.waitEvent(t)
	assert.Equal(t, EventJoinConversation, join.Type)
	assert.Equal(t, "conv-c", join.ConversationID)
}

func TestRoomMuxRejoinsAfterReconnect(t *testing.T) {
	server := newChatServer(t)
	c := newTestClient(server, "u1")
	mux := NewRoomMux(c)

	require.NoError(t, c.Connect())
	defer c.Disconnect()
	first := server.waitConn(t)

	require.NoError(t, mux.JoinConversation("conv-c"))
	join := server.waitEvent(t)
	require.Equal(t, EventJoinConversation, join.Type)

	first.Close() // transport drop
	server.waitConn(t)

	rejoin := server.waitEvent(t)
	assert.Equal(t, EventJoinConversation, rejoin.Type)
	assert.Equal(t, "conv-c", rejoin.ConversationID,
		"the current room must be re-joined after reconnect or peer messages are lost")
}

func TestRoomMuxLeaveClearsRoom(t *testing.T) {
	server := newChatServer(t)
	c := newTestClient(server, "u1")
	mux := NewRoomMux(c)

	require.NoError(t, c.Connect())
	defer c.Disconnect()
	server.waitConn(t)

	require.NoError(t, mux.JoinConversation("conv-a"))
	server.waitEvent(t)

	// Leave of a non-current room is a no-op.
	mux.LeaveConversation("conv-x")
	assert.Equal(t, "conv-a", mux.Current())

	mux.LeaveConversation("conv-a")
	leave := server.waitEvent(t)
	assert.Equal(t, EventLeaveConversation, leave.Type)
	assert.Equal(t, "", mux.Current())

	// Nothing to replay once left.
	time.Sleep(50 * time.Millisecond)
	select {
	case evt := <-server.events:
		t.Fatalf("unexpected event after leave: %+v", evt)
	default:
	}
}
