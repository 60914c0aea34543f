package repository

import (
	"context"
	"crypto/subtle"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/sellerhub/internal/model"
)

// MemoryOTPStore keeps one OTP entry per email in process memory. It is the
// fallback when Redis is unavailable and is only correct for a single
// instance.
type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]model.OTPEntry
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{entries: make(map[string]model.OTPEntry)}
}

// Save overwrites any pending entry for email.
func (s *MemoryOTPStore) Save(_ context.Context, email string, e model.OTPEntry, _ time.Duration) error {
	s.mu.Lock()
	s.entries[email] = e
	s.mu.Unlock()
	return nil
}

// Consume checks code against the live entry and deletes it on success.
// The lookup, the comparison and the delete happen under one lock.
func (s *MemoryOTPStore) Consume(_ context.Context, email, code string, now time.Time, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[email]
	if !ok {
		return false, nil
	}
	if e.Expired(now, ttl) {
		delete(s.entries, email)
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(e.Code), []byte(code)) != 1 {
		return false, nil
	}
	delete(s.entries, email)
	return true, nil
}

// consumeScript compares, checks age and deletes in one round trip so two
// concurrent verifications cannot both succeed.
var consumeScript = redis.NewScript(`
    local key = KEYS[1]
    local code = ARGV[1]
    local now_ms = tonumber(ARGV[2])
    local ttl_ms = tonumber(ARGV[3])

    local state = redis.call('HMGET', key, 'code', 'issued_ms')
    if not state[1] then
        return 0
    end

    local issued = tonumber(state[2])
    if issued == nil or (now_ms - issued) > ttl_ms then
        redis.call('DEL', key)
        return 0
    end

    if state[1] ~= code then
        return 0
    end

    redis.call('DEL', key)
    return 1
`)

// RedisOTPStore keeps OTP entries in Redis hashes under prefix:email.
type RedisOTPStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisOTPStore(rdb *redis.Client, prefix string) *RedisOTPStore {
	return &RedisOTPStore{rdb: rdb, prefix: prefix}
}

func (s *RedisOTPStore) key(email string) string { return s.prefix + ":" + email }

// Save overwrites any pending entry. The key also carries a Redis TTL so
// abandoned codes do not accumulate.
func (s *RedisOTPStore) Save(ctx context.Context, email string, e model.OTPEntry, ttl time.Duration) error {
	key := s.key(email)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "code", e.Code, "issued_ms", strconv.FormatInt(e.IssuedAt.UnixMilli(), 10))
		p.PExpire(ctx, key, ttl+time.Minute)
		return nil
	})
	return err
}

// Consume runs consumeScript for email.
func (s *RedisOTPStore) Consume(ctx context.Context, email, code string, now time.Time, ttl time.Duration) (bool, error) {
	n, err := consumeScript.Run(ctx, s.rdb, []string{s.key(email)}, code, now.UnixMilli(), ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
