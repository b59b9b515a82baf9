package usecase

import (
	"context"
	"sort"

	"chatlink/internal/domain/entity"
	"chatlink/internal/domain/repository"
	"chatlink/pkg/logger"
)

// Inbox aggregates a participant's conversations with their most recent
// message for preview and sorting.
type Inbox struct {
	conversations repository.ConversationStore
}

func NewInbox(conversations repository.ConversationStore) *Inbox {
	return &Inbox{conversations: conversations}
}

// ListForUser returns the customer-side inbox. If the list fetch itself
// fails the result is an empty list plus the error; a failed lastMessage
// fetch degrades that one conversation to a nil preview instead of
// aborting the aggregation.
func (i *Inbox) ListForUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	convs, err := i.conversations.ListConversationsByUser(ctx, userID)
	if err != nil {
		return []*entity.Conversation{}, err
	}
	return i.enrich(ctx, convs), nil
}

// ListForSeller returns the seller-side inbox with the same failure
// semantics as ListForUser.
func (i *Inbox) ListForSeller(ctx context.Context, sellerID string) ([]*entity.Conversation, error) {
	convs, err := i.conversations.ListConversationsBySeller(ctx, sellerID)
	if err != nil {
		return []*entity.Conversation{}, err
	}
	return i.enrich(ctx, convs), nil
}

func (i *Inbox) enrich(ctx context.Context, convs []*entity.Conversation) []*entity.Conversation {
	for _, conv := range convs {
		last, err := i.conversations.LastMessage(ctx, conv.ID)
		if err != nil {
			logger.Warn("inbox: last-message fetch failed for conversation %s: %v", conv.ID, err)
			conv.LastMessage = nil
			continue
		}
		conv.LastMessage = last
	}

	// Conversations with a preview sort by its createdAt descending;
	// empty conversations sort last by their own createdAt descending.
	sort.SliceStable(convs, func(a, b int) bool {
		ca, cb := convs[a], convs[b]
		switch {
		case ca.LastMessage != nil && cb.LastMessage != nil:
			return cb.LastMessage.Before(ca.LastMessage)
		case ca.LastMessage != nil:
			return true
		case cb.LastMessage != nil:
			return false
		default:
			return cb.CreatedAt.Before(ca.CreatedAt)
		}
	})
	return convs
}
