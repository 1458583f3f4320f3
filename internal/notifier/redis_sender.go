package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/exposure-watch/internal/record"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultChannelPrefix prefixes every pub/sub channel.
	DefaultChannelPrefix = "exposure"

	defaultPublishTimeout = 5 * time.Second
)

// Message is the JSON payload published for one (target, record) pair.
type Message struct {
	ID         string        `json:"id"`
	RecordHash string        `json:"record_hash"`
	GroupID    string        `json:"group_id"`
	ChannelID  string        `json:"channel_id"`
	Text       string        `json:"text"`
	Record     record.Record `json:"record"`
	SentAt     time.Time     `json:"sent_at"`
}

// RedisSender publishes deliveries to Redis pub/sub, one channel per
// target, for a chat bridge to relay.
type RedisSender struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

// NewRedisSender creates a RedisSender.
func NewRedisSender(client *redis.Client, prefix string) *RedisSender {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisSender{
		client:  client,
		prefix:  prefix,
		timeout: defaultPublishTimeout,
		now:     time.Now,
	}
}

// Channel returns the pub/sub channel for target.
func (s *RedisSender) Channel(target Target) string {
	return s.prefix + ":" + target.GroupID + ":" + target.ChannelID
}

// Send publishes r on the target's channel.
func (s *RedisSender) Send(ctx context.Context, target Target, r record.Record) error {
	msg := Message{
		ID:         uuid.NewString(),
		RecordHash: r.Hash(),
		GroupID:    target.GroupID,
		ChannelID:  target.ChannelID,
		Text:       r.String(),
		Record:     r,
		SentAt:     s.now().UTC(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if pubErr := s.client.Publish(pubCtx, s.Channel(target), payload).Err(); pubErr != nil {
		return fmt.Errorf("redis publish: %w", pubErr)
	}

	return nil
}
