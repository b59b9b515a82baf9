package devstore

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"chatlink/internal/domain/entity"
	ws "chatlink/internal/infrastructure/websocket"
	"chatlink/pkg/logger"
)

const sendBufSize = 256

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dev server only
	},
}

// client is one connected socket on the dev store side.
type client struct {
	userID string
	conn   *gorillaws.Conn
	send   chan []byte

	mu    sync.RWMutex
	rooms map[string]struct{}
}

func (c *client) joined(conversationID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.rooms[conversationID]
	return ok
}

func (c *client) join(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[conversationID] = struct{}{}
}

func (c *client) leave(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, conversationID)
}

// Hub relays live events between sockets, scoped to conversation
// rooms. It never writes to the repository: the durable write happens
// over REST before the client notifies the room.
type Hub struct {
	repo *Repository

	register   chan *client
	unregister chan *client
	broadcast  chan *roomMsg
}

type roomMsg struct {
	conversationID string
	data           []byte
}

func NewHub(repo *Repository) *Hub {
	return &Hub{
		repo:       repo,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan *roomMsg, 256),
	}
}

// Run is the hub's main loop. Call in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*client]struct{})
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
			logger.Info("devstore: user %s connected (%d sockets)", c.userID, len(clients))

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				logger.Info("devstore: user %s disconnected (%d sockets)", c.userID, len(clients))
			}

		case msg := <-h.broadcast:
			for c := range clients {
				if !c.joined(msg.conversationID) {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					// Slow consumer; drop the socket.
					delete(clients, c)
					close(c.send)
				}
			}

		case <-ctx.Done():
			for c := range clients {
				close(c.send)
			}
			return
		}
	}
}

// ServeWS upgrades the request and runs the socket's pumps. Connection
// identity is the userId query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return nil
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufSize),
		rooms:  make(map[string]struct{}),
	}
	h.register <- c

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if gorillaws.IsUnexpectedCloseError(err, gorillaws.CloseGoingAway, gorillaws.CloseNormalClosure) {
				logger.Warn("devstore: read error from %s: %v", c.userID, err)
			}
			return
		}

		var evt ws.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			logger.Warn("devstore: dropping malformed frame from %s: %v", c.userID, err)
			continue
		}
		h.handleEvent(c, &evt)
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(gorillaws.TextMessage, data); err != nil {
			logger.Warn("devstore: write error to %s: %v", c.userID, err)
			return
		}
	}
	c.conn.WriteMessage(gorillaws.CloseMessage, []byte{})
}

func (h *Hub) handleEvent(c *client, evt *ws.Event) {
	switch evt.Type {
	case ws.EventJoinConversation:
		h.handleJoin(c, evt)
	case ws.EventLeaveConversation:
		c.leave(evt.ConversationID)
		logger.Debug("devstore: %s left room %s", c.userID, evt.ConversationID)
	case ws.EventSendMessage:
		h.handleSendMessage(c, evt)
	default:
		logger.Warn("devstore: unknown event type %q from %s", evt.Type, c.userID)
	}
}

func (h *Hub) handleJoin(c *client, evt *ws.Event) {
	if evt.ConversationID == "" {
		h.sendAck(c, ws.EventJoinError, "", ws.ErrorData{Code: "BAD_REQUEST", Message: "conversationId is required"})
		return
	}
	if _, err := h.repo.GetConversationForUser(evt.ConversationID, c.userID); err != nil {
		logger.Warn("devstore: join of %s by %s rejected: %v", evt.ConversationID, c.userID, err)
		h.sendAck(c, ws.EventJoinError, evt.ConversationID, ws.ErrorData{Code: "FORBIDDEN", Message: "join rejected"})
		return
	}

	c.join(evt.ConversationID)
	logger.Debug("devstore: %s joined room %s", c.userID, evt.ConversationID)
	h.sendAck(c, ws.EventJoinedConversation, evt.ConversationID, nil)
}

// handleSendMessage relays an already-persisted message to the room.
// The payload must carry the canonical record; anything without an id
// was never durably written and is refused.
func (h *Hub) handleSendMessage(c *client, evt *ws.Event) {
	var msg entity.Message
	if err := json.Unmarshal(evt.Data, &msg); err != nil {
		h.sendAck(c, ws.EventMessageError, evt.ConversationID, ws.ErrorData{Code: "BAD_REQUEST", Message: "invalid message payload"})
		return
	}
	if err := msg.Validate(); err != nil {
		h.sendAck(c, ws.EventMessageError, evt.ConversationID, ws.ErrorData{Code: "BAD_REQUEST", Message: "incomplete message payload"})
		return
	}

	out, err := ws.NewEvent(ws.EventNewMessage, msg.ConversationID, &msg)
	if err != nil {
		logger.Error("devstore: failed to encode broadcast: %v", err)
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		logger.Error("devstore: failed to encode broadcast: %v", err)
		return
	}

	h.broadcast <- &roomMsg{conversationID: msg.ConversationID, data: data}
	h.sendAck(c, ws.EventMessageSent, msg.ConversationID, nil)
}

func (h *Hub) sendAck(c *client, eventType, conversationID string, payload interface{}) {
	evt, err := ws.NewEvent(eventType, conversationID, payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
