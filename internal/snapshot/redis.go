package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/exposure-watch/internal/record"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key holding the snapshot document.
const DefaultRedisKey = "exposure:snapshot"

// RedisStore keeps the snapshot document under a single Redis key.
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key, now: time.Now}
}

// Load reads the snapshot key. A missing key is an empty snapshot.
func (s *RedisStore) Load(ctx context.Context) ([]record.Record, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	records, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", s.key, err)
	}

	return records, nil
}

// Save overwrites the snapshot key with records. SET replaces the value
// in one step, so readers never see a partial document.
func (s *RedisStore) Save(ctx context.Context, records []record.Record) error {
	data, err := encode(records, s.now())
	if err != nil {
		return err
	}

	if setErr := s.client.Set(ctx, s.key, data, 0).Err(); setErr != nil {
		return fmt.Errorf("failed to set snapshot: %w", setErr)
	}

	return nil
}
