package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Access cache entries live long enough to absorb dashboard refreshes but
// short enough that a flushed cache rebuilds quickly from the store.
const accessTTL = 12 * time.Hour

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func accessKey(userID, courseID int64) string {
	return fmt.Sprintf("access:%d:%d", userID, courseID)
}

// CacheAccess records that a user has paid access to a course. Only positive
// entitlements are cached; paid access is never revoked, so there is no
// invalidation path.
func (c *Client) CacheAccess(ctx context.Context, userID, courseID int64) error {
	return c.rdb.Set(ctx, accessKey(userID, courseID), "1", accessTTL).Err()
}

// HasCachedAccess checks the access cache. A miss means "ask the store", not
// "no access".
func (c *Client) HasCachedAccess(ctx context.Context, userID, courseID int64) (bool, error) {
	result, err := c.rdb.Exists(ctx, accessKey(userID, courseID)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
