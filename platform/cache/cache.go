// Package cache provides an injected cache abstraction so deployments with
// multiple instances share state through Redis instead of process-local maps.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"time"
)

// Cache is the minimal get/set/evict contract consumed by domain services.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Evict removes a key. Evicting a missing key is not an error.
	Evict(ctx context.Context, key string) error
}

// Noop is a Cache that stores nothing. Used when no Redis URL is configured.
type Noop struct{}

// NewNoop creates a no-op cache.
func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (n *Noop) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}

func (n *Noop) Evict(_ context.Context, _ string) error {
	return nil
}

var _ Cache = (*Noop)(nil)
