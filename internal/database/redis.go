package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 10 * time.Second

// RedisClients holds one pool for session reads and writes and a second one
// for pub/sub, whose subscriptions pin their connections.
type RedisClients struct {
	Sessions *redis.Client
	PubSub   *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	clients := &RedisClients{}
	for _, role := range []struct {
		name   string
		target **redis.Client
	}{
		{"sessions", &clients.Sessions},
		{"pubsub", &clients.PubSub},
	} {
		client, err := connect(ctx, opt, role.name)
		if err != nil {
			clients.Close()
			return nil, err
		}
		*role.target = client
	}

	return clients, nil
}

// connect opens a client on a copy of opt and checks it answers.
func connect(ctx context.Context, opt *redis.Options, role string) (*redis.Client, error) {
	o := *opt
	o.ClientName = "chat-gateway-" + role
	client := redis.NewClient(&o)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis (%s): %w", role, err)
	}
	return client, nil
}

// Close releases whichever clients were opened.
func (r *RedisClients) Close() {
	for _, c := range []*redis.Client{r.Sessions, r.PubSub} {
		if c != nil {
			c.Close()
		}
	}
}
