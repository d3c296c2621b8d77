package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/skill-swap/skillswap/internal/config"
	"github.com/skill-swap/skillswap/internal/domain"
	"github.com/skill-swap/skillswap/internal/repository"
)

// LockoutService throttles password sign-in per email address. Store failures
// are logged and treated as unlocked so an unavailable Redis never blocks sign-in.
type LockoutService struct {
	store       repository.LockoutStore
	maxAttempts int
	duration    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewLockoutService builds the service.
func NewLockoutService(store repository.LockoutStore, cfg config.LockoutConfig, logger *zap.Logger) *LockoutService {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	duration := cfg.Duration
	if duration <= 0 {
		duration = 15 * time.Minute
	}
	return &LockoutService{
		store:       store,
		maxAttempts: maxAttempts,
		duration:    duration,
		logger:      orNop(logger),
		now:         time.Now,
	}
}

// Check reports whether email is currently locked. An expired lock is cleared.
func (s *LockoutService) Check(ctx context.Context, email string) domain.LockoutStatus {
	record, err := s.store.Get(ctx, email)
	if err != nil {
		s.logger.Warn("lockout check failed", zap.String("email", email), zap.Error(err))
		return domain.LockoutStatus{}
	}

	now := s.now()
	if record.LockExpiredAt(now) {
		if err := s.store.Reset(ctx, email); err != nil {
			s.logger.Warn("lockout reset failed", zap.String("email", email), zap.Error(err))
		}
		return domain.LockoutStatus{}
	}
	return record.StatusAt(now)
}

// RecordAttempt clears the counter on success and counts a failure otherwise.
// The returned status is locked when this failure reached the threshold.
func (s *LockoutService) RecordAttempt(ctx context.Context, email string, success bool) domain.LockoutStatus {
	if success {
		if err := s.store.Reset(ctx, email); err != nil {
			s.logger.Warn("lockout reset failed", zap.String("email", email), zap.Error(err))
		}
		return domain.LockoutStatus{}
	}

	now := s.now()
	record, err := s.store.RecordFailure(ctx, email, now, s.maxAttempts, s.duration)
	if err != nil {
		s.logger.Warn("lockout record failed", zap.String("email", email), zap.Error(err))
		return domain.LockoutStatus{}
	}
	if record.Attempts >= s.maxAttempts {
		s.logger.Info("account locked", zap.String("email", email), zap.Int("attempts", record.Attempts))
	}
	return record.StatusAt(now)
}

// AttemptsRemaining returns how many failures are left before a lock.
func (s *LockoutService) AttemptsRemaining(ctx context.Context, email string) int {
	record, err := s.store.Get(ctx, email)
	if err != nil || record == nil {
		return s.maxAttempts
	}
	if left := s.maxAttempts - record.Attempts; left > 0 {
		return left
	}
	return 0
}

// Get returns the raw record for administrators. A missing record is returned as nil.
func (s *LockoutService) Get(ctx context.Context, email string) (*domain.LockoutRecord, error) {
	return s.store.Get(ctx, email)
}

// Clear removes the record so the account can sign in immediately.
func (s *LockoutService) Clear(ctx context.Context, email string) error {
	return s.store.Reset(ctx, email)
}
