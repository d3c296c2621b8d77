package dto

import (
	"time"

	"github.com/skill-swap/skillswap/internal/domain"
)

// CreateSwapRequest payload.
type CreateSwapRequest struct {
	ReceiverID   string `json:"receiver_id"`
	SkillOffered string `json:"skill_offered"`
	SkillWanted  string `json:"skill_wanted"`
	Message      string `json:"message"`
}

// SwapRequestResponse response.
type SwapRequestResponse struct {
	ID           string               `json:"id"`
	SenderID     string               `json:"sender_id"`
	SenderName   string               `json:"sender_name"`
	ReceiverID   string               `json:"receiver_id"`
	ReceiverName string               `json:"receiver_name"`
	SkillOffered string               `json:"skill_offered"`
	SkillWanted  string               `json:"skill_wanted"`
	Message      string               `json:"message"`
	Status       domain.RequestStatus `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	RespondedAt  *time.Time           `json:"responded_at,omitempty"`
}

// NewSwapRequestResponse maps a request.
func NewSwapRequestResponse(r *domain.SwapRequest) SwapRequestResponse {
	return SwapRequestResponse{
		ID:           r.ID,
		SenderID:     r.SenderID,
		SenderName:   r.SenderName,
		ReceiverID:   r.ReceiverID,
		ReceiverName: r.ReceiverName,
		SkillOffered: r.SkillOffered,
		SkillWanted:  r.SkillWanted,
		Message:      r.Message,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		RespondedAt:  r.RespondedAt,
	}
}

// SendMessageRequest payload.
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`
}

// MessageResponse response.
type MessageResponse struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewMessageResponse maps a message.
func NewMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Body:        m.Body,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}

// ConversationResponse is one inbox row.
type ConversationResponse struct {
	CounterpartID   string          `json:"counterpart_id"`
	CounterpartName string          `json:"counterpart_name"`
	LastMessage     MessageResponse `json:"last_message"`
	UnreadCount     int             `json:"unread_count"`
}
