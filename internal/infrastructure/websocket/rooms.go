package websocket

import (
	"encoding/json"
	"sync"

	"chatlink/internal/domain/entity"
	apperrors "chatlink/pkg/errors"
	"chatlink/pkg/logger"
)

// RoomMux scopes live delivery to one conversation room at a time per
// view. Joins requested before the connection is ready are recorded and
// replayed once it is; after a reconnect the current room is re-joined
// so messages sent by the peer during the gap are not lost forever.
type RoomMux struct {
	conn *Client

	mu      sync.Mutex
	current string
	joined  bool
}

func NewRoomMux(conn *Client) *RoomMux {
	m := &RoomMux{conn: conn}
	conn.OnReady(m.replayJoin)
	return m
}

// JoinConversation makes id the single active room. If a different room
// is active its leave is emitted first; if the connection is not ready
// the join stays pending until the next ready signal.
func (m *RoomMux) JoinConversation(id string) error {
	if id == "" {
		return apperrors.BadRequest("conversation id is required to join", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != "" && m.current != id && m.joined {
		m.emitLeave(m.current)
	}
	m.current = id
	m.joined = false

	if m.conn.Status() == StatusConnected {
		m.emitJoin(id)
		m.joined = true
	} else {
		logger.Debug("ws: join of %s pending until connected", id)
	}
	return nil
}

// LeaveConversation clears the room state. A leave for a conversation
// that is not the current room is a no-op.
func (m *RoomMux) LeaveConversation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" || id != m.current {
		return
	}
	if m.joined {
		m.emitLeave(id)
	}
	m.current = ""
	m.joined = false
}

// Current returns the conversation id this view is scoped to, joined or
// pending, or "" when none.
func (m *RoomMux) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// NotifyMessage pushes an already-persisted message onto the live
// channel so the peer's room subscribers receive it. Best effort: the
// durable write already succeeded, so failures are only logged.
func (m *RoomMux) NotifyMessage(msg *entity.Message) {
	evt, err := NewEvent(EventSendMessage, msg.ConversationID, msg)
	if err != nil {
		logger.Error("ws: failed to encode message %s for live notify: %v", msg.ID, err)
		return
	}
	if err := m.conn.Send(evt); err != nil {
		logger.Warn("ws: live notify for message %s skipped: %v", msg.ID, err)
	}
}

// HandleAck logs advisory acknowledgments. Nothing blocks on these.
func (m *RoomMux) HandleAck(evt *Event) {
	switch evt.Type {
	case EventJoinedConversation:
		logger.Debug("ws: joined room %s", evt.ConversationID)
	case EventJoinError, EventMessageError:
		var ed ErrorData
		if err := json.Unmarshal(evt.Data, &ed); err != nil {
			logger.Warn("ws: %s for room %s", evt.Type, evt.ConversationID)
			return
		}
		logger.Warn("ws: %s for room %s: %s %s", evt.Type, evt.ConversationID, ed.Code, ed.Message)
	case EventMessageSent:
		logger.Debug("ws: message relay acknowledged for room %s", evt.ConversationID)
	}
}

// replayJoin runs on every ready signal from the connection, covering
// both the join-before-handshake race and the reconnect rejoin.
func (m *RoomMux) replayJoin() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == "" {
		return
	}
	m.emitJoin(m.current)
	m.joined = true
}

func (m *RoomMux) emitJoin(id string) {
	evt, err := NewEvent(EventJoinConversation, id, nil)
	if err != nil {
		logger.Error("ws: failed to encode join for %s: %v", id, err)
		return
	}
	if err := m.conn.Send(evt); err != nil {
		logger.Warn("ws: join of %s not sent: %v", id, err)
	}
}

func (m *RoomMux) emitLeave(id string) {
	evt, err := NewEvent(EventLeaveConversation, id, nil)
	if err != nil {
		logger.Error("ws: failed to encode leave for %s: %v", id, err)
		return
	}
	if err := m.conn.Send(evt); err != nil {
		logger.Warn("ws: leave of %s not sent: %v", id, err)
	}
}
