package websocket

import (
	"encoding/json"
	"time"
)

// Client → server event types.
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventSendMessage       = "send_message"
)

// Server → client event types. The acks are advisory diagnostics; only
// new_message carries state the client acts on.
const (
	EventNewMessage         = "new_message"
	EventJoinedConversation = "joined_conversation"
	EventJoinError          = "join_error"
	EventMessageSent        = "message_sent"
	EventMessageError       = "message_error"
)

// Event is the envelope for every frame on the live channel.
type Event struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversationId,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	Timestamp      string          `json:"timestamp,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewEvent(eventType, conversationID string, payload interface{}) (*Event, error) {
	evt := &Event{
		Type:           eventType,
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		evt.Data = data
	}
	return evt, nil
}
