package ledger

import (
	"context"
	"errors"
	"log/slog"
)

var defaultServices = []Service{
	{Title: "Sign Copy (সাইন কপি)", Slug: "sign-copy", Price: 110, Desc: "সাইন কপির সেবা", Color: "var(--green)", Icon: "✍️"},
	{Title: "NID PDF", Slug: "nid-pdf", Price: 80, Desc: "NID PDF তৈরী", Color: "var(--blue)", Icon: "🪪"},
	{Title: "TIN Certificate", Slug: "tin-cert", Price: 120, Desc: "TIN সার্ভিস", Color: "var(--orange)", Icon: "📄"},
}

// DefaultServices returns a copy of the built-in catalog.
func DefaultServices() []Service {
	out := make([]Service, len(defaultServices))
	copy(out, defaultServices)
	return out
}

// DefaultService picks slug from the built-in catalog, or its first entry.
func DefaultService(slug string) Service {
	for _, s := range defaultServices {
		if s.Slug == slug {
			return s
		}
	}
	return defaultServices[0]
}

// Catalog resolves services for the storefront. It never fails: when the
// store is empty or unreachable it degrades to the built-in catalog.
type Catalog struct {
	store  ServiceReader
	cache  CatalogCache
	logger *slog.Logger
}

func NewCatalog(store ServiceReader, cache CatalogCache, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{store: store, cache: cache, logger: logger}
}

// ResolveService looks slug up in the store and falls back to DefaultService.
func (c *Catalog) ResolveService(ctx context.Context, slug string) Service {
	s, err := c.store.GetServiceBySlug(ctx, slug)
	switch {
	case err == nil:
		return *s
	case errors.Is(err, ErrNotFound):
	default:
		c.logger.Warn("service lookup failed, using built-in catalog", "slug", slug, "error", err)
	}
	return DefaultService(slug)
}

// ListServices lists stored services in the store's natural order, or the
// built-in catalog when the store yields nothing.
func (c *Catalog) ListServices(ctx context.Context) []Service {
	if c.cache != nil {
		if cached, ok := c.cache.Services(ctx); ok && len(cached) > 0 {
			return cached
		}
	}

	stored, err := c.store.ListServices(ctx, ServiceListOpts{})
	if err != nil {
		c.logger.Warn("service listing failed, using built-in catalog", "error", err)
		return DefaultServices()
	}
	if len(stored) == 0 {
		return DefaultServices()
	}

	out := make([]Service, 0, len(stored))
	for _, s := range stored {
		out = append(out, *s)
	}
	if c.cache != nil {
		c.cache.StoreServices(ctx, out)
	}
	return out
}
