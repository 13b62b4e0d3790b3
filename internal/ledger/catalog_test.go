package ledger_test

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
	"github.com/ariefcatur/go-eservice-ledger/internal/memstore"
)

func TestResolveService(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	if err := s.CreateService(ctx, &ledger.Service{ID: "svc_1", Title: "Birth Certificate", Slug: "birth-cert", Price: 150}); err != nil {
		t.Fatal(err)
	}
	c := ledger.NewCatalog(s, nil, nil)

	tests := []struct {
		slug      string
		wantSlug  string
		wantPrice int64
	}{
		{"birth-cert", "birth-cert", 150},
		{"nid-pdf", "nid-pdf", 80},
		{"tin-cert", "tin-cert", 120},
		{"unknown", "sign-copy", 110},
		{"", "sign-copy", 110},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			got := c.ResolveService(ctx, tt.slug)
			if got.Slug != tt.wantSlug || got.Price != tt.wantPrice {
				t.Errorf("ResolveService(%q) = %s/%d, want %s/%d", tt.slug, got.Slug, got.Price, tt.wantSlug, tt.wantPrice)
			}
		})
	}
}

func TestResolveServiceStoreDown(t *testing.T) {
	c := ledger.NewCatalog(brokenStore{}, nil, nil)
	if got := c.ResolveService(context.Background(), "nid-pdf"); got.Price != 80 {
		t.Errorf("price = %d, want 80", got.Price)
	}
}

func TestListServicesFallback(t *testing.T) {
	ctx := context.Background()

	for name, store := range map[string]ledger.ServiceReader{
		"empty store":       memstore.New(),
		"unreachable store": brokenStore{},
	} {
		t.Run(name, func(t *testing.T) {
			got := ledger.NewCatalog(store, nil, nil).ListServices(ctx)
			if len(got) != 3 {
				t.Fatalf("got %d services, want the 3 built-ins", len(got))
			}
			want := []string{"sign-copy", "nid-pdf", "tin-cert"}
			for i, svc := range got {
				if svc.Slug != want[i] {
					t.Errorf("services[%d] = %s, want %s", i, svc.Slug, want[i])
				}
			}
		})
	}
}

type mapCache struct {
	services []ledger.Service
	stored   int
}

func (m *mapCache) Services(context.Context) ([]ledger.Service, bool) {
	return m.services, m.services != nil
}

func (m *mapCache) StoreServices(_ context.Context, s []ledger.Service) {
	m.services = s
	m.stored++
}

func (m *mapCache) Invalidate(context.Context) { m.services = nil }

func TestListServicesCache(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	_ = s.CreateService(ctx, &ledger.Service{ID: "svc_1", Title: "A", Slug: "a", Price: 10})
	_ = s.CreateService(ctx, &ledger.Service{ID: "svc_2", Title: "B", Slug: "b", Price: 20})

	cache := &mapCache{}
	c := ledger.NewCatalog(s, cache, nil)

	got := c.ListServices(ctx)
	if len(got) != 2 || got[0].Slug != "a" {
		t.Fatalf("first listing = %v", got)
	}
	if cache.stored != 1 {
		t.Errorf("cache stored %d times, want 1", cache.stored)
	}

	_ = s.CreateService(ctx, &ledger.Service{ID: "svc_3", Title: "C", Slug: "c", Price: 30})
	if got := c.ListServices(ctx); len(got) != 2 {
		t.Errorf("cached listing = %d services, want 2", len(got))
	}

	cache.Invalidate(ctx)
	if got := c.ListServices(ctx); len(got) != 3 {
		t.Errorf("listing after invalidate = %d services, want 3", len(got))
	}
}

func TestDefaultServicesIsACopy(t *testing.T) {
	a := ledger.DefaultServices()
	a[0].Price = 1
	if ledger.DefaultServices()[0].Price != 110 {
		t.Error("DefaultServices exposes the built-in catalog")
	}
}
