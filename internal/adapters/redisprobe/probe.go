// Package redisprobe checks reachability of the Redis instance named by
// REDIS_URL. It only sends PING.
package redisprobe

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/FilipeSCampos/GameSphere/internal/ports"
)

// Probe is a ports.Prober for Redis.
type Probe struct {
	rdb *redis.Client
}

// New parses rawURL and returns a Probe. An empty URL yields a Probe whose
// Ping reports ports.ErrNotConfigured.
func New(rawURL string) (*Probe, error) {
	if rawURL == "" {
		return &Probe{}, nil
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis parse: %w", err)
	}
	return &Probe{rdb: redis.NewClient(opts)}, nil
}

func (p *Probe) Ping(ctx context.Context) error {
	if p.rdb == nil {
		return ports.ErrNotConfigured
	}
	return p.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (p *Probe) Close() error {
	if p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}
