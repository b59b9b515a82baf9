package devstore_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatlink/internal/adapter/storeapi"
	"chatlink/internal/devstore"
	apperrors "chatlink/pkg/errors"
)

func newStore(t *testing.T) *storeapi.Client {
	t.Helper()
	server := devstore.NewServer()
	ts := httptest.NewServer(server.Echo())
	t.Cleanup(ts.Close)
	return storeapi.NewClient(ts.URL)
}

func TestCreateConversationIsIdempotent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.CreateConversation(ctx, "u1", "s1")
	require.NoError(t, err)

	second, err := store.CreateConversation(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// The pair key is unordered.
	swapped, err := store.CreateConversation(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, swapped.ID)
}

func TestMessageHistoryIsOrdered(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "u1", "s1")
	require.NoError(t, err)

	contents := []string{"one", "two", "three", "four", "five"}
	for _, content := range contents {
		_, err := store.CreateMessage(ctx, "u1", conv.ID, content)
		require.NoError(t, err)
	}

	history, err := store.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, history, len(contents))

	for i, msg := range history {
		assert.Equal(t, contents[i], msg.Content)
		if i > 0 {
			assert.False(t, msg.CreatedAt.Before(history[i-1].CreatedAt),
				"history must be non-decreasing in createdAt")
		}
	}

	last, err := store.LastMessage(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "five", last.Content)
}

func TestLastMessageIsNilForEmptyConversation(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "u1", "s1")
	require.NoError(t, err)

	last, err := store.LastMessage(ctx, conv.ID)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestConversationListsByRole(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.CreateConversation(ctx, "u1", "s1")
	require.NoError(t, err)
	_, err = store.CreateConversation(ctx, "u1", "s2")
	require.NoError(t, err)
	_, err = store.CreateConversation(ctx, "u2", "s1")
	require.NoError(t, err)

	forUser, err := store.ListConversationsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, forUser, 2)

	forSeller, err := store.ListConversationsBySeller(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, forSeller, 2)
}

func TestStoreErrors(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.GetConversation(ctx, "missing")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))

	conv, err := store.CreateConversation(ctx, "u1", "s1")
	require.NoError(t, err)

	// Senders outside the pair are refused.
	_, err = store.CreateMessage(ctx, "intruder", conv.ID, "hi")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))

	// Empty content never reaches the log.
	_, err = store.CreateMessage(ctx, "u1", conv.ID, "")
	require.Error(t, err)

	history, err := store.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
