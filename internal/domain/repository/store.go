package repository

import (
	"context"

	"chatlink/internal/domain/entity"
)

// ConversationStore is the durable-store surface for conversation reads
// and the idempotent find-or-create write.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID, sellerID string) (*entity.Conversation, error)
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	ListConversationsByUser(ctx context.Context, userID string) ([]*entity.Conversation, error)
	ListConversationsBySeller(ctx context.Context, sellerID string) ([]*entity.Conversation, error)

	// LastMessage returns nil, nil when the conversation has no messages.
	LastMessage(ctx context.Context, conversationID string) (*entity.Message, error)
}

// MessageStore is the durable-store surface for the message log.
// CreateMessage is the durable write: the returned message carries the
// canonical id and timestamps.
type MessageStore interface {
	CreateMessage(ctx context.Context, senderID, conversationID, content string) (*entity.Message, error)
	GetMessage(ctx context.Context, id string) (*entity.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error)
}
