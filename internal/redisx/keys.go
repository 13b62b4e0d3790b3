package redisx

import "time"

const (
	// Order idempotency: idem:order:place:{user_id}:{idempotency_key} -> order_id
	KeyIdemOrderPlace = "idem:order:place:%s:%s"

	// Cached storefront listing: catalog:services -> JSON []Service
	KeyCatalogServices = "catalog:services"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

// Placeholder stored under an idempotency key while the order is in flight.
const idemPending = "pending"

var (
	TTLIdempotency = 24 * time.Hour
	TTLCatalog     = 5 * time.Minute
	TTLDedup       = 48 * time.Hour

	// the pending marker outlives a crashed request by this much at most
	TTLIdempotencyPending = 30 * time.Second
)
