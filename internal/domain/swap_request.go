package domain

import (
	"fmt"
	"strings"
	"time"
)

// RequestStatus enumerates the lifecycle of a swap request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusRejected RequestStatus = "rejected"
)

// AllRequestStatuses lists statuses in display order.
var AllRequestStatuses = []RequestStatus{RequestStatusPending, RequestStatusAccepted, RequestStatusRejected}

// Valid reports whether s is one of the three known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected:
		return true
	}
	return false
}

// ParseRequestStatus parses a status case-insensitively.
func ParseRequestStatus(raw string) (RequestStatus, error) {
	status := RequestStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown request status %q", raw)
	}
	return status, nil
}

// CanTransition reports whether a request may move from s to next.
// Only pending requests can be answered.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	return s == RequestStatusPending && (next == RequestStatusAccepted || next == RequestStatusRejected)
}

// SwapRequest proposes teaching SkillOffered in exchange for learning SkillWanted.
type SwapRequest struct {
	ID           string
	SenderID     string
	SenderName   string
	ReceiverID   string
	ReceiverName string
	SkillOffered string
	SkillWanted  string
	Message      string
	Status       RequestStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	RespondedAt  *time.Time
}

// Involves reports whether userID is the sender or receiver.
func (r *SwapRequest) Involves(userID string) bool {
	return r.SenderID == userID || r.ReceiverID == userID
}
