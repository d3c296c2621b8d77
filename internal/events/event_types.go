package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/skill-swap/skillswap/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered          EventType = "user_registered"
	EventPasswordResetRequested  EventType = "password_reset_requested"
	EventEmailVerificationIssued EventType = "email_verification_issued"
	EventSwapRequestCreated      EventType = "swap_request_created"
	EventSwapRequestResponded    EventType = "swap_request_responded"
	EventMessageSent             EventType = "message_sent"
	EventUserBanned              EventType = "user_banned"
	EventAnnouncementPosted      EventType = "announcement_posted"
)

// AllEventTypes lists every event the service emits.
var AllEventTypes = []EventType{
	EventUserRegistered,
	EventPasswordResetRequested,
	EventEmailVerificationIssued,
	EventSwapRequestCreated,
	EventSwapRequestResponded,
	EventMessageSent,
	EventUserBanned,
	EventAnnouncementPosted,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id,omitempty"`
	SubjectID string      `json:"subject_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with an id and the current time.
func New(eventType EventType, actorID, subjectID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		SubjectID: subjectID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// AccountTokenPayload carries a token that must reach the account owner.
type AccountTokenPayload struct {
	Email     string              `json:"email"`
	Purpose   domain.TokenPurpose `json:"purpose"`
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// SwapRequestPayload describes a created or answered request.
type SwapRequestPayload struct {
	RequestID    string               `json:"request_id"`
	SenderID     string               `json:"sender_id"`
	ReceiverID   string               `json:"receiver_id"`
	SkillOffered string               `json:"skill_offered"`
	SkillWanted  string               `json:"skill_wanted"`
	Status       domain.RequestStatus `json:"status"`
}

// MessageSentPayload payload.
type MessageSentPayload struct {
	MessageID   string `json:"message_id"`
	RecipientID string `json:"recipient_id"`
	BodyPreview string `json:"body_preview"`
}

// UserBannedPayload payload.
type UserBannedPayload struct {
	Email string `json:"email"`
}

// AnnouncementPayload payload.
type AnnouncementPayload struct {
	AnnouncementID string `json:"announcement_id"`
	Title          string `json:"title"`
}
