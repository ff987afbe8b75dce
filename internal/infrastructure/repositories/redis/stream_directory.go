package redis

import (
	"context"
	"fmt"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"

	"github.com/redis/go-redis/v9"
)

const streamKeyPrefix = "streamvibe:stream:"

// StreamDirectory reads the stream records the platform's CRUD side writes
// into redis. Each stream is a hash with at least an "owner" field.
type StreamDirectory struct {
	client *redis.Client
}

func NewStreamDirectory(client *redis.Client) *StreamDirectory {
	return &StreamDirectory{client: client}
}

func (d *StreamDirectory) Authorize(ctx context.Context, streamID domain.StreamID, identity domain.IdentityID) error {
	owner, err := d.client.HGet(ctx, streamKeyPrefix+string(streamID), "owner").Result()
	if err == redis.Nil {
		return domain.ErrNoSuchStream
	}
	if err != nil {
		return fmt.Errorf("stream directory lookup failed: %w", err)
	}
	if owner != string(identity) {
		return domain.ErrUnauthorizedRole
	}
	return nil
}
