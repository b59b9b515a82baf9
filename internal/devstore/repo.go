package devstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatlink/internal/domain/entity"
	apperrors "chatlink/pkg/errors"
)

// Repository is the in-memory durable store behind the dev server. It
// implements the same store interfaces the REST client exposes, with
// the contract's guarantees: find-or-create keyed on the unordered
// participant pair, append-only logs, monotonic timestamps.
type Repository struct {
	mu            sync.RWMutex
	conversations map[string]*entity.Conversation
	logs          map[string][]*entity.Message
	messagesByID  map[string]*entity.Message
	lastStamp     time.Time
}

func NewRepository() *Repository {
	return &Repository{
		conversations: make(map[string]*entity.Conversation),
		logs:          make(map[string][]*entity.Message),
		messagesByID:  make(map[string]*entity.Message),
	}
}

// stamp returns a strictly increasing time so message order is total
// even when two writes land in the same wall-clock tick.
func (r *Repository) stamp() time.Time {
	now := time.Now().UTC()
	if !now.After(r.lastStamp) {
		now = r.lastStamp.Add(time.Microsecond)
	}
	r.lastStamp = now
	return now
}

func (r *Repository) CreateConversation(ctx context.Context, userID, sellerID string) (*entity.Conversation, error) {
	if userID == "" || sellerID == "" {
		return nil, apperrors.BadRequest("userId and sellerId are required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, conv := range r.conversations {
		if conv.HasParticipants(userID, sellerID) {
			return copyConversation(conv), nil
		}
	}

	now := r.stamp()
	conv := &entity.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		SellerID:  sellerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.conversations[conv.ID] = conv
	return copyConversation(conv), nil
}

func (r *Repository) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, apperrors.NotFound("conversation", nil)
	}
	return copyConversation(conv), nil
}

func (r *Repository) ListConversationsByUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	return r.listByParticipant(func(c *entity.Conversation) bool { return c.UserID == userID }), nil
}

func (r *Repository) ListConversationsBySeller(ctx context.Context, sellerID string) ([]*entity.Conversation, error) {
	return r.listByParticipant(func(c *entity.Conversation) bool { return c.SellerID == sellerID }), nil
}

func (r *Repository) listByParticipant(match func(*entity.Conversation) bool) []*entity.Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Conversation, 0)
	for _, conv := range r.conversations {
		if match(conv) {
			out = append(out, copyConversation(conv))
		}
	}
	return out
}

func (r *Repository) LastMessage(ctx context.Context, conversationID string) (*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.conversations[conversationID]; !ok {
		return nil, apperrors.NotFound("conversation", nil)
	}
	log := r.logs[conversationID]
	if len(log) == 0 {
		return nil, nil
	}
	msg := *log[len(log)-1]
	return &msg, nil
}

func (r *Repository) CreateMessage(ctx context.Context, senderID, conversationID, content string) (*entity.Message, error) {
	if content == "" {
		return nil, apperrors.BadRequest("content must not be empty", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return nil, apperrors.NotFound("conversation", nil)
	}
	if !conv.Participant(senderID) {
		return nil, apperrors.Forbidden("sender is not a participant of this conversation", nil)
	}

	now := r.stamp()
	msg := &entity.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.logs[conversationID] = append(r.logs[conversationID], msg)
	r.messagesByID[msg.ID] = msg

	conv.UpdatedAt = now
	conv.LastMessage = msg

	out := *msg
	return &out, nil
}

func (r *Repository) GetMessage(ctx context.Context, id string) (*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, ok := r.messagesByID[id]
	if !ok {
		return nil, apperrors.NotFound("message", nil)
	}
	out := *msg
	return &out, nil
}

func (r *Repository) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.conversations[conversationID]; !ok {
		return nil, apperrors.NotFound("conversation", nil)
	}

	log := r.logs[conversationID]
	out := make([]*entity.Message, 0, len(log))
	for _, msg := range log {
		m := *msg
		out = append(out, &m)
	}
	return out, nil
}

// GetConversationForUser is used by the hub to authorize room joins.
func (r *Repository) GetConversationForUser(conversationID, userID string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return nil, apperrors.NotFound("conversation", nil)
	}
	if !conv.Participant(userID) {
		return nil, apperrors.Forbidden("user is not a participant of this conversation", nil)
	}
	return copyConversation(conv), nil
}

func copyConversation(conv *entity.Conversation) *entity.Conversation {
	out := *conv
	if conv.LastMessage != nil {
		msg := *conv.LastMessage
		out.LastMessage = &msg
	}
	return &out
}
