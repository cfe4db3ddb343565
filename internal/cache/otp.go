package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCooldown    = errors.New("a code was sent recently, try again shortly")
	ErrOTPNotFound = errors.New("otp not found")
	ErrOTPLocked   = errors.New("otp attempts exhausted")
)

type OTPEntry struct {
	Hash     string
	Attempts int
}

// OTPStore keeps one hashed code per email. Entries expire on their own.
type OTPStore struct {
	client   *redis.Client
	cooldown time.Duration
}

func NewOTPStore(client *redis.Client, cooldown time.Duration) *OTPStore {
	return &OTPStore{client: client, cooldown: cooldown}
}

func otpKey(email string) string {
	return "otp:" + strings.ToLower(email)
}

func cooldownKey(email string) string {
	return "otp:cooldown:" + strings.ToLower(email)
}

// Save replaces any existing code for email and resets its attempt count.
func (s *OTPStore) Save(ctx context.Context, email, hash string, ttl time.Duration) error {
	if s.cooldown > 0 {
		ok, err := s.client.SetNX(ctx, cooldownKey(email), 1, s.cooldown).Result()
		if err != nil {
			return fmt.Errorf("otp cooldown: %w", err)
		}
		if !ok {
			return ErrCooldown
		}
	}

	key := otpKey(email)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "hash", hash, "attempts", 0)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

// reserveScript counts one verification attempt and hands back the stored
// hash. Returns {0} when no code exists and {2} once the count passes the
// limit, deleting the code in the same step.
var reserveScript = redis.NewScript(`
local hash = redis.call('HGET', KEYS[1], 'hash')
if not hash then
	return {0, '', 0}
end
local n = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
local limit = tonumber(ARGV[1])
if limit > 0 and n > limit then
	redis.call('DEL', KEYS[1])
	return {2, '', n}
end
return {1, hash, n}
`)

// Reserve claims one attempt against the code for email. The returned
// Attempts includes this one, so callers never compare more than limit times.
func (s *OTPStore) Reserve(ctx context.Context, email string, limit int) (OTPEntry, error) {
	raw, err := reserveScript.Run(ctx, s.client, []string{otpKey(email)}, limit).Result()
	if err != nil {
		return OTPEntry{}, fmt.Errorf("reserve otp: %w", err)
	}
	return parseReserve(raw)
}

func parseReserve(raw any) (OTPEntry, error) {
	values, ok := raw.([]any)
	if !ok || len(values) != 3 {
		return OTPEntry{}, fmt.Errorf("reserve otp: unexpected reply %v", raw)
	}
	status, _ := values[0].(int64)
	hash, _ := values[1].(string)
	attempts, _ := values[2].(int64)
	switch status {
	case 0:
		return OTPEntry{}, ErrOTPNotFound
	case 2:
		return OTPEntry{Attempts: int(attempts)}, ErrOTPLocked
	case 1:
		return OTPEntry{Hash: hash, Attempts: int(attempts)}, nil
	default:
		return OTPEntry{}, fmt.Errorf("reserve otp: unknown status %d", status)
	}
}

// Consume deletes the code and reports whether this caller removed it.
// Only the caller that gets true may treat the code as used.
func (s *OTPStore) Consume(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Del(ctx, otpKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return n == 1, nil
}

func (s *OTPStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

// ReleaseCooldown lets email request a new code right away.
func (s *OTPStore) ReleaseCooldown(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, cooldownKey(email)).Err(); err != nil {
		return fmt.Errorf("release otp cooldown: %w", err)
	}
	return nil
}
