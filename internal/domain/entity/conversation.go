package entity

import "time"

// Conversation is a durable thread between exactly one customer and one
// seller. It is uniquely keyed by the unordered (UserID, SellerID) pair;
// the store guarantees find-or-create semantics on that key.
type Conversation struct {
	ID        string    `json:"id" validate:"required"`
	UserID    string    `json:"userId" validate:"required"`
	SellerID  string    `json:"sellerId" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// LastMessage is a denormalized preview for inbox rendering only,
	// never authoritative.
	LastMessage *Message `json:"lastMessage,omitempty"`
}

func (c *Conversation) Validate() error {
	return validate.Struct(c)
}

// HasParticipants reports whether the conversation is between the given
// pair, in either order.
func (c *Conversation) HasParticipants(userID, sellerID string) bool {
	return (c.UserID == userID && c.SellerID == sellerID) ||
		(c.UserID == sellerID && c.SellerID == userID)
}

// Participant reports whether id is one of the two parties.
func (c *Conversation) Participant(id string) bool {
	return c.UserID == id || c.SellerID == id
}
