package dto

import (
	"time"

	"github.com/skill-swap/skillswap/internal/domain"
)

// AnnouncementRequest payload.
type AnnouncementRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// AnnouncementResponse response.
type AnnouncementResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAnnouncementResponse maps an announcement.
func NewAnnouncementResponse(a *domain.Announcement) AnnouncementResponse {
	return AnnouncementResponse{ID: a.ID, AuthorID: a.AuthorID, Title: a.Title, Body: a.Body, CreatedAt: a.CreatedAt}
}

// LockoutResponse describes the sign-in throttle for one email.
type LockoutResponse struct {
	Email             string     `json:"email"`
	Attempts          int        `json:"attempts"`
	LastAttemptAt     *time.Time `json:"last_attempt_at,omitempty"`
	LockedUntil       *time.Time `json:"locked_until,omitempty"`
	Locked            bool       `json:"locked"`
	RemainingSeconds  int        `json:"remaining_seconds"`
	AttemptsRemaining int        `json:"attempts_remaining"`
}
