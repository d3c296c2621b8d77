package domain

import (
	"fmt"
	"math"
	"time"
)

// LockoutRecord tracks failed sign-in attempts for one email address.
type LockoutRecord struct {
	Email         string
	Attempts      int
	LastAttemptAt time.Time
	LockedUntil   *time.Time
}

// LockoutStatus is the outcome of a lockout check.
type LockoutStatus struct {
	Locked    bool
	Remaining time.Duration
}

// StatusAt evaluates the record at now.
func (r *LockoutRecord) StatusAt(now time.Time) LockoutStatus {
	if r == nil || r.LockedUntil == nil || !now.Before(*r.LockedUntil) {
		return LockoutStatus{}
	}
	return LockoutStatus{Locked: true, Remaining: r.LockedUntil.Sub(now)}
}

// LockExpiredAt reports whether a lock was set and has run out at now.
func (r *LockoutRecord) LockExpiredAt(now time.Time) bool {
	return r != nil && r.LockedUntil != nil && !now.Before(*r.LockedUntil)
}

// FormatLockoutTime renders a remaining duration as whole minutes, rounded up.
func FormatLockoutTime(d time.Duration) string {
	minutes := int(math.Ceil(d.Minutes()))
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
