package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/skill-swap/skillswap/internal/domain"
	"github.com/skill-swap/skillswap/internal/events"
	"github.com/skill-swap/skillswap/internal/repository"
	apperrors "github.com/skill-swap/skillswap/pkg/util"
)

// MessageService handles direct messages between members.
type MessageService struct {
	messages   repository.MessageRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewMessageService constructs the service.
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *MessageService {
	return &MessageService{
		messages:   messages,
		users:      users,
		dispatcher: dispatcher,
		logger:     orNop(logger),
		now:        time.Now,
	}
}

// Send delivers body from sender to the recipient.
func (s *MessageService) Send(ctx context.Context, sender *domain.User, recipientID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	switch n := utf8.RuneCountInString(body); {
	case n == 0:
		return nil, apperrors.NewValidationError("message body is required", nil)
	case n > domain.MaxMessageLength:
		return nil, apperrors.NewValidationError("message body is too long", map[string]any{"max_length": domain.MaxMessageLength})
	}
	if recipientID == sender.ID {
		return nil, apperrors.NewValidationError("cannot message yourself", nil)
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if recipient.IsBanned {
		return nil, apperrors.NewForbidden("this member cannot receive messages")
	}

	msg := &domain.Message{SenderID: sender.ID, RecipientID: recipient.ID, Body: body}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventMessageSent, sender.ID, msg.ID, events.MessageSentPayload{
		MessageID:   msg.ID,
		RecipientID: msg.RecipientID,
		BodyPreview: preview(msg.Body, 80),
	}))
	return msg, nil
}

// Conversation returns messages exchanged with otherID, oldest first, and marks the
// ones addressed to the user as read.
func (s *MessageService) Conversation(ctx context.Context, user *domain.User, otherID string, page Page) ([]domain.Message, error) {
	if _, err := s.users.GetByID(ctx, otherID); err != nil {
		return nil, notFound(err, "user")
	}
	page = page.Normalize()

	msgs, err := s.messages.ListConversation(ctx, user.ID, otherID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	if _, err := s.messages.MarkRead(ctx, user.ID, otherID, s.now()); err != nil {
		s.logger.Warn("mark read failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return msgs, nil
}

// Inbox lists one entry per counterpart with unread counts.
func (s *MessageService) Inbox(ctx context.Context, user *domain.User) ([]domain.ConversationSummary, error) {
	return s.messages.Inbox(ctx, user.ID)
}

func preview(body string, limit int) string {
	if utf8.RuneCountInString(body) <= limit {
		return body
	}
	runes := []rune(body)
	return string(runes[:limit]) + "..."
}
