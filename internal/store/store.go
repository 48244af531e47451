// Package store defines the abstract key/value store the rest of the
// game core is built on. Engine and repository code never talk to
// Redis directly; they hold a Store and treat every call as
// individually atomic but multi-call sequences as unsynchronized.
package store

import (
	"context"
	"time"
)

// Store is the primitive set the rest of the system consumes. All
// values travel as UTF-8 text; callers are responsible for the
// "0"/"1" boolean and "none" null-sentinel encodings described by the
// record package.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)

	RPush(ctx context.Context, key string, value string) error
	LRange(ctx context.Context, key string) ([]string, error)

	SAdd(ctx context.Context, key, value string) error
	SIsMember(ctx context.Context, key, value string) (bool, error)

	// Incr bumps key's fixed-window counter, setting window as its
	// expiry the moment it is first created.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Get reports a missing key as the empty string in both the redis
// adapter and MemStore; neither distinguishes "missing" from "empty
// string".
