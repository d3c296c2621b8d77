package domain

import "time"

// MaxMessageLength bounds a direct message body in characters.
const MaxMessageLength = 2000

// Message is a direct message between two users.
type Message struct {
	ID          string
	SenderID    string
	RecipientID string
	Body        string
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// ConversationSummary is the latest message exchanged with a counterpart.
type ConversationSummary struct {
	CounterpartID   string
	CounterpartName string
	LastMessage     Message
	UnreadCount     int
}
