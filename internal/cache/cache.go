package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key does not exist or has expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Store is a shared key-value store with per-key expiry. Login-attempt
// counters, password-reset tokens and the refresh-token blacklist all live
// here so they stay correct across multiple server instances.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Increment adds one to an integer counter, (re)setting its expiry to
	// ttl, and returns the new value.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
