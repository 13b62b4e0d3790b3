package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrInFlight means another request with the same idempotency key has not finished yet.
var ErrInFlight = errors.New("redisx: request with this idempotency key is in flight")

// Idempotency remembers which order an Idempotency-Key produced. The store
// stays the source of truth; this only prevents a retried request from
// debiting twice.
type Idempotency struct {
	RDB redis.Cmdable
}

// Begin claims key. It returns the order id of an earlier completed request,
// "" when the caller now owns the key, or ErrInFlight.
func (i *Idempotency) Begin(ctx context.Context, userID, key string) (string, error) {
	k := fmt.Sprintf(KeyIdemOrderPlace, userID, key)
	ok, err := i.RDB.SetNX(ctx, k, idemPending, TTLIdempotencyPending).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return "", nil
	}
	v, err := i.RDB.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; let the caller retry
		return "", ErrInFlight
	}
	if err != nil {
		return "", err
	}
	if v == idemPending {
		return "", ErrInFlight
	}
	return v, nil
}

// Complete records the order produced under key for TTLIdempotency.
func (i *Idempotency) Complete(ctx context.Context, userID, key, orderID string) error {
	return i.RDB.Set(ctx, fmt.Sprintf(KeyIdemOrderPlace, userID, key), orderID, TTLIdempotency).Err()
}

// Abort releases key after a failed attempt so the client may retry.
func (i *Idempotency) Abort(ctx context.Context, userID, key string) error {
	return i.RDB.Del(ctx, fmt.Sprintf(KeyIdemOrderPlace, userID, key)).Err()
}
