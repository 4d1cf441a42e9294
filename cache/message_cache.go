// Package cache is a redis read-through cache for session message lists.
// It is optional: a nil *MessageCache disables caching entirely.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/gokoo/ai-toolbox/models"
)

var ErrCacheMiss = errors.New("cache miss")

const defaultTTL = 24 * time.Hour

type MessageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMessageCache pings redis and returns a cache handle.
func NewMessageCache(client *redis.Client, ttl time.Duration) (*MessageCache, error) {
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MessageCache{client: client, ttl: ttl}, nil
}

func (c *MessageCache) key(sessionID string) string {
	return "aitoolbox:session:" + sessionID + ":messages"
}

// SetMessages stores the full ascending message list of a session.
func (c *MessageCache) SetMessages(ctx context.Context, sessionID string, messages []*models.Message) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(sessionID), data, c.ttl).Err()
}

// GetMessages returns the cached list or ErrCacheMiss.
func (c *MessageCache) GetMessages(ctx context.Context, sessionID string) ([]*models.Message, error) {
	if c == nil {
		return nil, ErrCacheMiss
	}
	data, err := c.client.Get(ctx, c.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get session messages from cache: %w", err)
	}
	var messages []*models.Message
	if err := json.Unmarshal([]byte(data), &messages); err != nil {
		return nil, fmt.Errorf("unmarshal cached messages: %w", err)
	}
	return messages, nil
}

// Invalidate drops the cached list after any message write.
func (c *MessageCache) Invalidate(ctx context.Context, sessionID string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, c.key(sessionID))
}
