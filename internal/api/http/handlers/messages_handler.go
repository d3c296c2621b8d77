package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/skill-swap/skillswap/internal/api/dto"
	"github.com/skill-swap/skillswap/internal/auth"
	"github.com/skill-swap/skillswap/internal/service"
)

// MessagesHandler manages direct messages.
type MessagesHandler struct {
	messages *service.MessageService
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(messages *service.MessageService) *MessagesHandler {
	return &MessagesHandler{messages: messages}
}

// Send POST /messages.
func (h *MessagesHandler) Send(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := requireID(req.RecipientID, "recipient_id"); err != nil {
		return err
	}
	msg, err := h.messages.Send(c.UserContext(), user, req.RecipientID, req.Body)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewMessageResponse(msg))
}

// Inbox GET /messages.
func (h *MessagesHandler) Inbox(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	convos, err := h.messages.Inbox(c.UserContext(), user)
	if err != nil {
		return err
	}
	items := make([]dto.ConversationResponse, 0, len(convos))
	for i := range convos {
		items = append(items, dto.ConversationResponse{
			CounterpartID:   convos[i].CounterpartID,
			CounterpartName: convos[i].CounterpartName,
			LastMessage:     dto.NewMessageResponse(&convos[i].LastMessage),
			UnreadCount:     convos[i].UnreadCount,
		})
	}
	return data(c, http.StatusOK, items)
}

// Conversation GET /messages/:userID.
func (h *MessagesHandler) Conversation(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	otherID, err := idParam(c, "userID", "user")
	if err != nil {
		return err
	}
	msgs, err := h.messages.Conversation(c.UserContext(), user, otherID, parsePage(c))
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, dto.NewMessageResponse(&msgs[i]))
	}
	return data(c, http.StatusOK, items)
}
