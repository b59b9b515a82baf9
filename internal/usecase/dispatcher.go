package usecase

import (
	"context"
	"strings"

	"chatlink/internal/domain/entity"
	"chatlink/internal/domain/repository"
	apperrors "chatlink/pkg/errors"
	"chatlink/pkg/logger"
)

// LiveNotifier pushes an already-persisted message onto the live
// channel, best effort. Implemented by the room multiplexer.
type LiveNotifier interface {
	NotifyMessage(msg *entity.Message)
}

// Dispatcher owns the outbound send path: durable persist first, local
// append second, live notify last. A sender never depends on its own
// broadcast echo arriving.
type Dispatcher struct {
	messages repository.MessageStore
	live     LiveNotifier
}

func NewDispatcher(messages repository.MessageStore, live LiveNotifier) *Dispatcher {
	return &Dispatcher{
		messages: messages,
		live:     live,
	}
}

// Send persists the message and appends the canonical record to log.
// On persist failure nothing is appended and the error is returned so
// the caller can restore the draft and let the user retry.
func (d *Dispatcher) Send(ctx context.Context, log *ConversationLog, senderID, content string) (*entity.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.BadRequest("message content must not be empty", nil)
	}
	if senderID == "" {
		return nil, apperrors.BadRequest("sender id is required", nil)
	}

	msg, err := d.messages.CreateMessage(ctx, senderID, log.ConversationID(), content)
	if err != nil {
		logger.Warn("dispatch: persist failed for conversation %s: %v", log.ConversationID(), err)
		return nil, err
	}

	// The durable write is the source of truth; the sender's view shows
	// the message now, broadcast echo or not.
	log.Append(msg)

	if d.live != nil {
		d.live.NotifyMessage(msg)
	}
	return msg, nil
}
