package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"

	"github.com/redis/go-redis/v9"
)

const (
	chatKeyPrefix = "streamvibe:chat:"
	tipKeyPrefix  = "streamvibe:tips:"
)

// ChatArchive appends chat and tip events to capped per-stream lists. Callers
// treat it as fire-and-forget; a failed append costs nothing but the archived
// copy.
type ChatArchive struct {
	client *redis.Client
	maxLen int64
}

func NewChatArchive(client *redis.Client, maxLen int64) *ChatArchive {
	return &ChatArchive{
		client: client,
		maxLen: maxLen,
	}
}

func (a *ChatArchive) Append(ctx context.Context, ev domain.ChatEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal chat event: %w", err)
	}

	pipe := a.client.Pipeline()
	key := chatKeyPrefix + string(ev.StreamID)
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -a.maxLen, -1)

	if ev.TipAmount > 0 {
		tipKey := tipKeyPrefix + string(ev.StreamID)
		pipe.RPush(ctx, tipKey, data)
		pipe.LTrim(ctx, tipKey, -a.maxLen, -1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to archive chat event: %w", err)
	}
	return nil
}
