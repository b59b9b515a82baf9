package usecase

import (
	"context"
	"sync"

	"chatlink/internal/domain/entity"
	"chatlink/internal/domain/repository"
	ws "chatlink/internal/infrastructure/websocket"
	apperrors "chatlink/pkg/errors"
	"chatlink/pkg/logger"
)

// ChatUseCase is the surface UI screens consume: one live connection
// per logged-in user, one open conversation at a time, durable sends,
// live receipt, and inbox aggregation.
type ChatUseCase struct {
	conversations repository.ConversationStore
	messages      repository.MessageStore
	conn          *ws.Client
	rooms         *ws.RoomMux
	dispatcher    *Dispatcher
	router        *InboundRouter
	inbox         *Inbox

	mu     sync.Mutex
	active *ConversationLog
}

func NewChatUseCase(
	conversations repository.ConversationStore,
	messages repository.MessageStore,
	conn *ws.Client,
) *ChatUseCase {
	rooms := ws.NewRoomMux(conn)
	router := NewInboundRouter(rooms)
	conn.SetEventHandler(router.Route)

	return &ChatUseCase{
		conversations: conversations,
		messages:      messages,
		conn:          conn,
		rooms:         rooms,
		dispatcher:    NewDispatcher(messages, rooms),
		router:        router,
		inbox:         NewInbox(conversations),
	}
}

// Connect brings up the live channel. Tie this to login, not to view
// mounts, so sockets are not leaked across navigation.
func (uc *ChatUseCase) Connect() error {
	return uc.conn.Connect()
}

// Disconnect leaves any joined room first, then tears down the
// transport. Idempotent.
func (uc *ChatUseCase) Disconnect() {
	if current := uc.rooms.Current(); current != "" {
		uc.rooms.LeaveConversation(current)
	}
	uc.router.SetActive(nil)
	uc.mu.Lock()
	uc.active = nil
	uc.mu.Unlock()
	uc.conn.Disconnect()
}

// SetStatusHandler exposes the optional connected/reconnecting signal.
func (uc *ChatUseCase) SetStatusHandler(h func(ws.Status)) {
	uc.conn.SetStatusHandler(h)
}

// StartConversation finds or creates the thread for the pair and
// returns it. The store keys conversations on the unordered pair, so
// repeated calls return the same conversation.
func (uc *ChatUseCase) StartConversation(ctx context.Context, userID, sellerID string) (*entity.Conversation, error) {
	if userID == "" || sellerID == "" {
		return nil, apperrors.BadRequest("both participants are required", nil)
	}
	if userID == sellerID {
		return nil, apperrors.BadRequest("cannot start a conversation with yourself", nil)
	}
	return uc.conversations.CreateConversation(ctx, userID, sellerID)
}

// OpenConversation joins the conversation's room, seeds its log from
// durable history and makes it the active view. Opening a different
// conversation implicitly leaves the previous room.
func (uc *ChatUseCase) OpenConversation(ctx context.Context, conversationID string) (*ConversationLog, error) {
	if conversationID == "" {
		return nil, apperrors.BadRequest("conversation id is required", nil)
	}

	history, err := uc.messages.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	log := NewConversationLog(conversationID)
	for _, msg := range history {
		log.Append(msg)
	}

	if err := uc.rooms.JoinConversation(conversationID); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	uc.active = log
	uc.mu.Unlock()
	uc.router.SetActive(log)

	logger.Debug("chat: opened conversation %s with %d messages", conversationID, log.Len())
	return log, nil
}

// CloseConversation is the navigation-away signal: it leaves the room
// and detaches the router from the view's log.
func (uc *ChatUseCase) CloseConversation(conversationID string) {
	uc.rooms.LeaveConversation(conversationID)

	uc.mu.Lock()
	if uc.active != nil && uc.active.ConversationID() == conversationID {
		uc.active = nil
		uc.mu.Unlock()
		uc.router.SetActive(nil)
		return
	}
	uc.mu.Unlock()
}

// SendMessage dispatches into the open conversation.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID, content string) (*entity.Message, error) {
	uc.mu.Lock()
	log := uc.active
	uc.mu.Unlock()

	if log == nil {
		return nil, apperrors.BadRequest("no open conversation to send into", nil)
	}
	return uc.dispatcher.Send(ctx, log, senderID, content)
}

func (uc *ChatUseCase) ListForUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	return uc.inbox.ListForUser(ctx, userID)
}

func (uc *ChatUseCase) ListForSeller(ctx context.Context, sellerID string) ([]*entity.Conversation, error) {
	return uc.inbox.ListForSeller(ctx, sellerID)
}
