package usecase

import (
	"sort"
	"sync"

	"chatlink/internal/domain/entity"
)

// ConversationLog is the ordered, de-duplicated message log for one
// open conversation view. The view owns its log exclusively; there is
// no cross-view mutation.
type ConversationLog struct {
	conversationID string

	mu       sync.RWMutex
	messages []*entity.Message
	known    map[string]struct{}
}

func NewConversationLog(conversationID string) *ConversationLog {
	return &ConversationLog{
		conversationID: conversationID,
		known:          make(map[string]struct{}),
	}
}

func (l *ConversationLog) ConversationID() string {
	return l.conversationID
}

// Append inserts a message preserving (createdAt, id) order. Returns
// false when the id is already known, which is how broadcast echoes of
// self-sent messages are discarded.
func (l *ConversationLog) Append(msg *entity.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.known[msg.ID]; ok {
		return false
	}
	l.known[msg.ID] = struct{}{}

	// Tail append is the common case; the store stamps createdAt at
	// persist time. Insert-in-order tolerates transport reordering.
	i := sort.Search(len(l.messages), func(i int) bool {
		return msg.Before(l.messages[i])
	})
	l.messages = append(l.messages, nil)
	copy(l.messages[i+1:], l.messages[i:])
	l.messages[i] = msg
	return true
}

func (l *ConversationLog) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.known[id]
	return ok
}

func (l *ConversationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Messages returns a copy of the ordered log.
func (l *ConversationLog) Messages() []*entity.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*entity.Message, len(l.messages))
	copy(out, l.messages)
	return out
}
