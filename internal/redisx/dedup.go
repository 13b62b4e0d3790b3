package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Deduper marks event ids as processed for one consuming service.
type Deduper struct {
	RDB     redis.Cmdable
	Service string
}

// FirstSeen atomically records id and reports whether it was new.
func (d *Deduper) FirstSeen(ctx context.Context, id string) (bool, error) {
	return d.RDB.SetNX(ctx, fmt.Sprintf(KeyDedup, d.Service, id), "1", TTLDedup).Result()
}

// Forget drops id so a failed delivery can be processed again.
func (d *Deduper) Forget(ctx context.Context, id string) error {
	return d.RDB.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, id)).Err()
}
