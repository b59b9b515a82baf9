package entity

import "time"

// Message is an immutable record in a conversation's append-only log.
// ID and CreatedAt are assigned by the durable store at persist time;
// a client never invents the canonical id.
type Message struct {
	ID             string    `json:"id" validate:"required"`
	ConversationID string    `json:"conversationId" validate:"required"`
	SenderID       string    `json:"senderId" validate:"required"`
	Content        string    `json:"content" validate:"required"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (m *Message) Validate() error {
	return validate.Struct(m)
}

// Before orders messages by CreatedAt, with id as the tie-break so the
// order is total and deterministic.
func (m *Message) Before(other *Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
