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

type fakeMessageStore struct {
	createErr error
	created   []*entity.Message
	calls     *[]string
}

func (f *fakeMessageStore) CreateMessage(ctx context.Context, senderID, conversationID, content string) (*entity.Message, error) {
	if f.calls != nil {
		*f.calls = append(*f.calls, "persist")
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	msg := &entity.Message{
		ID:             "m" + content,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	f.created = append(f.created, msg)
	return msg, nil
}

func (f *fakeMessageStore) GetMessage(ctx context.Context, id string) (*entity.Message, error) {
	return nil, apperrors.NotFound("message", nil)
}

func (f *fakeMessageStore) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	return nil, nil
}

type fakeNotifier struct {
	notified []*entity.Message
	calls    *[]string
}

func (f *fakeNotifier) NotifyMessage(msg *entity.Message) {
	if f.calls != nil {
		*f.calls = append(*f.calls, "notify")
	}
	f.notified = append(f.notified, msg)
}

func TestDispatcherSendAppendsCanonicalMessage(t *testing.T) {
	store := &fakeMessageStore{}
	notifier := &fakeNotifier{}
	d := NewDispatcher(store, notifier)
	log := NewConversationLog("c1")

	msg, err := d.Send(context.Background(), log, "u1", "hello")
	require.NoError(t, err)

	assert.Equal(t, 1, log.Len())
	assert.True(t, log.Contains(msg.ID))
	require.Len(t, notifier.notified, 1)
	assert.Equal(t, msg.ID, notifier.notified[0].ID)
}

func TestDispatcherPersistsBeforeNotifying(t *testing.T) {
	var calls []string
	store := &fakeMessageStore{calls: &calls}
	notifier := &fakeNotifier{calls: &calls}
	d := NewDispatcher(store, notifier)

	_, err := d.Send(context.Background(), NewConversationLog("c1"), "u1", "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"persist", "notify"}, calls)
}

func TestDispatcherPersistFailureAppendsNothing(t *testing.T) {
	store := &fakeMessageStore{createErr: apperrors.Internal("store down", nil)}
	notifier := &fakeNotifier{}
	d := NewDispatcher(store, notifier)
	log := NewConversationLog("c1")

	_, err := d.Send(context.Background(), log, "u1", "hello")
	require.Error(t, err)

	assert.Equal(t, 0, log.Len(), "a failed persist must leave the log untouched")
	assert.Empty(t, notifier.notified)
}

func TestDispatcherRejectsEmptyContentLocally(t *testing.T) {
	var calls []string
	store := &fakeMessageStore{calls: &calls}
	d := NewDispatcher(store, &fakeNotifier{})

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := d.Send(context.Background(), NewConversationLog("c1"), "u1", content)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, "BAD_REQUEST"))
	}
	assert.Empty(t, calls, "empty content must not reach the store")
}
