package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skill-swap/skillswap/internal/domain"
)

// LockoutStore persists failed sign-in counters per email address.
type LockoutStore interface {
	Get(ctx context.Context, email string) (*domain.LockoutRecord, error)
	RecordFailure(ctx context.Context, email string, now time.Time, maxAttempts int, lockFor time.Duration) (*domain.LockoutRecord, error)
	Reset(ctx context.Context, email string) error
}

type redisLockoutStore struct {
	client redis.Cmdable
}

// NewLockoutStore returns a Redis-backed lockout store.
func NewLockoutStore(client redis.Cmdable) LockoutStore {
	return &redisLockoutStore{client: client}
}

const lockoutRetention = 24 * time.Hour

// recordFailureScript clears an expired lock, bumps the counter and sets a lock
// once the threshold is reached, all in one round trip.
var recordFailureScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local max = tonumber(ARGV[2])
local lock_ms = tonumber(ARGV[3])
local ttl_ms = tonumber(ARGV[4])

local locked = tonumber(redis.call('HGET', KEYS[1], 'locked_until') or '0')
if locked > 0 and locked <= now then
  redis.call('HSET', KEYS[1], 'attempts', 0, 'locked_until', 0)
  locked = 0
end

local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
redis.call('HSET', KEYS[1], 'last_attempt', now)
if attempts >= max and locked == 0 then
  locked = now + lock_ms
  redis.call('HSET', KEYS[1], 'locked_until', locked)
end
redis.call('PEXPIRE', KEYS[1], ttl_ms)
return {attempts, locked}
`)

func lockoutKey(email string) string {
	return "lockout:" + domain.NormalizeEmail(email)
}

func (s *redisLockoutStore) Get(ctx context.Context, email string) (*domain.LockoutRecord, error) {
	fields, err := s.client.HGetAll(ctx, lockoutKey(email)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	record := &domain.LockoutRecord{Email: domain.NormalizeEmail(email)}
	if record.Attempts, err = atoiField(fields, "attempts"); err != nil {
		return nil, err
	}
	last, err := atoiField(fields, "last_attempt")
	if err != nil {
		return nil, err
	}
	if last > 0 {
		record.LastAttemptAt = time.UnixMilli(int64(last))
	}
	locked, err := atoiField(fields, "locked_until")
	if err != nil {
		return nil, err
	}
	if locked > 0 {
		until := time.UnixMilli(int64(locked))
		record.LockedUntil = &until
	}
	return record, nil
}

func (s *redisLockoutStore) RecordFailure(ctx context.Context, email string, now time.Time, maxAttempts int, lockFor time.Duration) (*domain.LockoutRecord, error) {
	ttl := lockFor + lockoutRetention
	res, err := recordFailureScript.Run(ctx, s.client, []string{lockoutKey(email)},
		now.UnixMilli(), maxAttempts, lockFor.Milliseconds(), ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("lockout script returned %d values", len(res))
	}

	record := &domain.LockoutRecord{
		Email:         domain.NormalizeEmail(email),
		Attempts:      int(res[0]),
		LastAttemptAt: time.UnixMilli(now.UnixMilli()),
	}
	if res[1] > 0 {
		until := time.UnixMilli(res[1])
		record.LockedUntil = &until
	}
	return record, nil
}

func (s *redisLockoutStore) Reset(ctx context.Context, email string) error {
	return s.client.Del(ctx, lockoutKey(email)).Err()
}

func atoiField(fields map[string]string, name string) (int, error) {
	raw := strings.TrimSpace(fields[name])
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("lockout field %s: %w", name, err)
	}
	return v, nil
}
