package domain

import "time"

// Announcement is a platform-wide message posted by an administrator.
type Announcement struct {
	ID        string
	AuthorID  string
	Title     string
	Body      string
	CreatedAt time.Time
}
