package redisx

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
	"github.com/redis/go-redis/v9"
)

var _ ledger.CatalogCache = (*CatalogCache)(nil)

// CatalogCache keeps the storefront service listing in Redis. Every failure
// is treated as a miss.
type CatalogCache struct {
	RDB    redis.Cmdable
	TTL    time.Duration
	Logger *slog.Logger
}

func (c *CatalogCache) Services(ctx context.Context) ([]ledger.Service, bool) {
	b, err := c.RDB.Get(ctx, KeyCatalogServices).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log().Debug("catalog cache read", "error", err)
		}
		return nil, false
	}
	var out []ledger.Service
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *CatalogCache) StoreServices(ctx context.Context, services []ledger.Service) {
	b, err := json.Marshal(services)
	if err != nil {
		return
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = TTLCatalog
	}
	if err := c.RDB.Set(ctx, KeyCatalogServices, b, ttl).Err(); err != nil {
		c.log().Debug("catalog cache write", "error", err)
	}
}

func (c *CatalogCache) Invalidate(ctx context.Context) {
	if err := c.RDB.Del(ctx, KeyCatalogServices).Err(); err != nil {
		c.log().Warn("catalog cache invalidate", "error", err)
	}
}

func (c *CatalogCache) log() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
