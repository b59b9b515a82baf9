package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatlink/internal/domain/entity"
	apperrors "chatlink/pkg/errors"
)

type fakeConversationStore struct {
	conversations []*entity.Conversation
	listErr       error
	lastMessages  map[string]*entity.Message
	lastErrFor    map[string]bool
}

func (f *fakeConversationStore) CreateConversation(ctx context.Context, userID, sellerID string) (*entity.Conversation, error) {
	return nil, apperrors.Internal("not implemented", nil)
}

func (f *fakeConversationStore) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	return nil, apperrors.NotFound("conversation", nil)
}

func (f *fakeConversationStore) ListConversationsByUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.conversations, nil
}

func (f *fakeConversationStore) ListConversationsBySeller(ctx context.Context, sellerID string) ([]*entity.Conversation, error) {
	return f.ListConversationsByUser(ctx, sellerID)
}

func (f *fakeConversationStore) LastMessage(ctx context.Context, conversationID string) (*entity.Message, error) {
	if f.lastErrFor[conversationID] {
		return nil, apperrors.Internal("last-message fetch failed", nil)
	}
	return f.lastMessages[conversationID], nil
}

func conv(id string, createdAt time.Time) *entity.Conversation {
	return &entity.Conversation{
		ID:        id,
		UserID:    "u1",
		SellerID:  "s-" + id,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestInboxPartialFailureDegradesGracefully(t *testing.T) {
	t0 := time.Now().UTC()
	store := &fakeConversationStore{
		lastMessages: map[string]*entity.Message{},
		lastErrFor:   map[string]bool{"c3": true},
	}
	for i, id := range []string{"c1", "c2", "c3", "c4", "c5"} {
		store.conversations = append(store.conversations, conv(id, t0.Add(time.Duration(i)*time.Minute)))
		if id != "c3" {
			store.lastMessages[id] = msgAt("m-"+id, t0.Add(time.Duration(i)*time.Hour))
		}
	}

	convs, err := NewInbox(store).ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, convs, 5, "one failed preview fetch must not drop the conversation")

	var failed *entity.Conversation
	for _, c := range convs {
		if c.ID == "c3" {
			failed = c
		}
	}
	require.NotNil(t, failed)
	assert.Nil(t, failed.LastMessage)
}

func TestInboxOrdering(t *testing.T) {
	t0 := time.Now().UTC()
	store := &fakeConversationStore{
		conversations: []*entity.Conversation{
			conv("old-preview", t0),
			conv("empty-old", t0.Add(1*time.Minute)),
			conv("new-preview", t0.Add(2*time.Minute)),
			conv("empty-new", t0.Add(3*time.Minute)),
		},
		lastMessages: map[string]*entity.Message{
			"old-preview": msgAt("m-old", t0.Add(1*time.Hour)),
			"new-preview": msgAt("m-new", t0.Add(2*time.Hour)),
		},
		lastErrFor: map[string]bool{},
	}

	convs, err := NewInbox(store).ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, convs, 4)

	// Previews sort by lastMessage.createdAt desc; empty conversations
	// follow, by their own createdAt desc.
	assert.Equal(t, "new-preview", convs[0].ID)
	assert.Equal(t, "old-preview", convs[1].ID)
	assert.Equal(t, "empty-new", convs[2].ID)
	assert.Equal(t, "empty-old", convs[3].ID)
}

func TestInboxListFailureReturnsEmptyListAndError(t *testing.T) {
	store := &fakeConversationStore{listErr: apperrors.Internal("store down", nil)}

	convs, err := NewInbox(store).ListForUser(context.Background(), "u1")
	require.Error(t, err)
	assert.NotNil(t, convs)
	assert.Empty(t, convs)
}
