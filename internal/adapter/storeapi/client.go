package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"chatlink/internal/domain/entity"
	apperrors "chatlink/pkg/errors"
)

// Client consumes the durable conversation/message store over REST.
// The store is the source of truth: every write returns the canonical
// record with store-assigned id and timestamps.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		// Chat sends are user-initiated and rare; a generous timeout
		// beats failing a slow but successful persist.
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *errorInfo      `json:"error,omitempty"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type createConversationRequest struct {
	UserID   string `json:"userId"`
	SellerID string `json:"sellerId"`
}

type createMessageRequest struct {
	SenderID       string `json:"senderId"`
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
}

// CreateConversation is the idempotent find-or-create for the
// (userID, sellerID) pair.
func (c *Client) CreateConversation(ctx context.Context, userID, sellerID string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := c.do(ctx, http.MethodPost, "/conversations",
		createConversationRequest{UserID: userID, SellerID: sellerID}, &conv)
	if err != nil {
		return nil, err
	}
	if err := conv.Validate(); err != nil {
		return nil, apperrors.Internal("store returned an invalid conversation", err)
	}
	return &conv, nil
}

func (c *Client) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	var conv entity.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations/"+url.PathEscape(id), nil, &conv); err != nil {
		return nil, err
	}
	if err := conv.Validate(); err != nil {
		return nil, apperrors.Internal("store returned an invalid conversation", err)
	}
	return &conv, nil
}

func (c *Client) ListConversationsByUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	return c.listConversations(ctx, "/conversations/user/"+url.PathEscape(userID))
}

func (c *Client) ListConversationsBySeller(ctx context.Context, sellerID string) ([]*entity.Conversation, error) {
	return c.listConversations(ctx, "/conversations/seller/"+url.PathEscape(sellerID))
}

func (c *Client) listConversations(ctx context.Context, path string) ([]*entity.Conversation, error) {
	var convs []*entity.Conversation
	if err := c.do(ctx, http.MethodGet, path, nil, &convs); err != nil {
		return nil, err
	}
	for _, conv := range convs {
		if err := conv.Validate(); err != nil {
			return nil, apperrors.Internal("store returned an invalid conversation", err)
		}
	}
	return convs, nil
}

// LastMessage returns nil, nil for a conversation without messages.
func (c *Client) LastMessage(ctx context.Context, conversationID string) (*entity.Message, error) {
	var msg *entity.Message
	err := c.do(ctx, http.MethodGet, "/conversations/last-message/"+url.PathEscape(conversationID), nil, &msg)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	if err := msg.Validate(); err != nil {
		return nil, apperrors.Internal("store returned an invalid message", err)
	}
	return msg, nil
}

// CreateMessage is the durable write of the send path.
func (c *Client) CreateMessage(ctx context.Context, senderID, conversationID, content string) (*entity.Message, error) {
	var msg entity.Message
	err := c.do(ctx, http.MethodPost, "/messages",
		createMessageRequest{SenderID: senderID, ConversationID: conversationID, Content: content}, &msg)
	if err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, apperrors.Internal("store returned an invalid message", err)
	}
	return &msg, nil
}

func (c *Client) GetMessage(ctx context.Context, id string) (*entity.Message, error) {
	var msg entity.Message
	if err := c.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(id), nil, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, apperrors.Internal("store returned an invalid message", err)
	}
	return &msg, nil
}

// ListMessages returns the full history, ascending by createdAt.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	var msgs []*entity.Message
	if err := c.do(ctx, http.MethodGet, "/messages/conversation/"+url.PathEscape(conversationID), nil, &msgs); err != nil {
		return nil, err
	}
	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return nil, apperrors.Internal("store returned an invalid message", err)
		}
	}
	return msgs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Internal("failed to encode request", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return apperrors.Internal("failed to build store request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Unavailable("store request failed", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperrors.Internal("failed to decode store response", err)
	}

	if !env.Success {
		code, message := "INTERNAL_ERROR", "store reported an error"
		if env.Error != nil {
			code, message = env.Error.Code, env.Error.Message
		}
		return apperrors.New(code, message, resp.StatusCode, nil)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return apperrors.Internal("failed to decode store payload", err)
		}
	}
	return nil
}
