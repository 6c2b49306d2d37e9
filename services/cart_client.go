package services

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// CartService clears a user's cart after a successful checkout. Failures are
// never fatal to the checkout; the order stands either way.
type CartService interface {
	ClearCart(ctx context.Context, userID string) error
}

// RedisCartClient deletes the per-user cart key the cart service keeps in
// Redis.
type RedisCartClient struct {
	client *redis.Client
}

func NewRedisCartClient(client *redis.Client) *RedisCartClient {
	return &RedisCartClient{client: client}
}

func (c *RedisCartClient) ClearCart(ctx context.Context, userID string) error {
	key := fmt.Sprintf("cart:user:%s", userID)
	return c.client.Del(ctx, key).Err()
}
