package devstore

import (
	"github.com/labstack/echo/v4"

	"chatlink/pkg/response"
)

type handlers struct {
	repo *Repository
	hub  *Hub
}

type createConversationRequest struct {
	UserID   string `json:"userId" validate:"required"`
	SellerID string `json:"sellerId" validate:"required"`
}

type createMessageRequest struct {
	SenderID       string `json:"senderId" validate:"required"`
	ConversationID string `json:"conversationId" validate:"required"`
	Content        string `json:"content" validate:"required"`
}

func (h *handlers) createConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	conv, err := h.repo.CreateConversation(c.Request().Context(), req.UserID, req.SellerID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, conv)
}

func (h *handlers) getConversation(c echo.Context) error {
	conv, err := h.repo.GetConversation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conv)
}

func (h *handlers) listConversationsByUser(c echo.Context) error {
	convs, err := h.repo.ListConversationsByUser(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, convs)
}

func (h *handlers) listConversationsBySeller(c echo.Context) error {
	convs, err := h.repo.ListConversationsBySeller(c.Request().Context(), c.Param("sellerId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, convs)
}

func (h *handlers) lastMessage(c echo.Context) error {
	msg, err := h.repo.LastMessage(c.Request().Context(), c.Param("conversationId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, msg)
}

func (h *handlers) createMessage(c echo.Context) error {
	var req createMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	msg, err := h.repo.CreateMessage(c.Request().Context(), req.SenderID, req.ConversationID, req.Content)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}

func (h *handlers) getMessage(c echo.Context) error {
	msg, err := h.repo.GetMessage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, msg)
}

func (h *handlers) listMessages(c echo.Context) error {
	msgs, err := h.repo.ListMessages(c.Request().Context(), c.Param("conversationId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, msgs)
}

func (h *handlers) serveWS(c echo.Context) error {
	return h.hub.ServeWS(c.Response(), c.Request())
}
