package usecase

import (
	"encoding/json"
	"sync"

	"chatlink/internal/domain/entity"
	ws "chatlink/internal/infrastructure/websocket"
	"chatlink/pkg/logger"
)

// InboundRouter consumes live-channel events and merges broadcasts for
// the active conversation into its log. Echoes of self-sent messages
// are discarded by the log's id set; malformed payloads are dropped and
// logged, never allowed to corrupt the log.
type InboundRouter struct {
	rooms *ws.RoomMux

	mu     sync.Mutex
	active *ConversationLog
}

func NewInboundRouter(rooms *ws.RoomMux) *InboundRouter {
	return &InboundRouter{rooms: rooms}
}

// SetActive points the router at the log of the currently open
// conversation view; nil detaches.
func (r *InboundRouter) SetActive(log *ConversationLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = log
}

// Route handles one event from the connection. Registered as the
// connection's event handler.
func (r *InboundRouter) Route(evt *ws.Event) {
	switch evt.Type {
	case ws.EventNewMessage:
		r.handleNewMessage(evt)
	case ws.EventJoinedConversation, ws.EventJoinError, ws.EventMessageSent, ws.EventMessageError:
		if r.rooms != nil {
			r.rooms.HandleAck(evt)
		}
	default:
		logger.Debug("inbound: ignoring event type %q", evt.Type)
	}
}

func (r *InboundRouter) handleNewMessage(evt *ws.Event) {
	var msg entity.Message
	if err := json.Unmarshal(evt.Data, &msg); err != nil {
		logger.Warn("inbound: dropping undecodable broadcast: %v", err)
		return
	}
	if err := msg.Validate(); err != nil {
		logger.Warn("inbound: dropping incomplete broadcast: %v", err)
		return
	}

	r.mu.Lock()
	log := r.active
	r.mu.Unlock()

	if log == nil || log.ConversationID() != msg.ConversationID {
		// Stale broadcast from a room this view already left.
		logger.Debug("inbound: dropping broadcast for inactive conversation %s", msg.ConversationID)
		return
	}

	if !log.Append(&msg) {
		logger.Debug("inbound: duplicate message %s discarded", msg.ID)
	}
}
