// Package memstore is an in-process ledger.Store. Transactions are serialized
// by one mutex and stage their writes until the callback returns nil.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

// compile-time interface check
var _ ledger.Store = (*Store)(nil)

type Store struct {
	mu sync.Mutex

	users     map[string]ledger.User
	services  []ledger.Service // insertion order
	orders    map[string]ledger.Order
	recharges map[string]ledger.Recharge
	closed    bool
}

func New() *Store {
	return &Store{
		users:     make(map[string]ledger.User),
		orders:    make(map[string]ledger.Order),
		recharges: make(map[string]ledger.Recharge),
	}
}

func (s *Store) RunTx(ctx context.Context, fn ledger.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	tx := &memTx{
		s:         s,
		balances:  make(map[string]int64),
		rStatus:   make(map[string]ledger.RechargeStatus),
		oStatus:   make(map[string]ledger.OrderStatus),
		newOrders: make(map[string]ledger.Order),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &u, nil
}

func (s *Store) CreateUserIfAbsent(_ context.Context, u *ledger.User) (*ledger.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[u.ID]; ok {
		return &existing, false, nil
	}
	s.users[u.ID] = *u
	out := *u
	return &out, true, nil
}

func (s *Store) SetUserRole(_ context.Context, id string, role ledger.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ledger.ErrNotFound
	}
	u.Role = role
	s.users[id] = u
	return nil
}

func (s *Store) GetServiceBySlug(_ context.Context, slug string) (*ledger.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serviceBySlug(slug)
}

func (s *Store) serviceBySlug(slug string) (*ledger.Service, error) {
	for _, svc := range s.services {
		if svc.Slug == slug {
			out := svc
			return &out, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (s *Store) ListServices(_ context.Context, opts ledger.ServiceListOpts) ([]*ledger.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*ledger.Service, 0, len(s.services))
	for _, svc := range s.services {
		c := svc
		out = append(out, &c)
	}
	if opts.SortBySlug {
		sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	}
	return out, nil
}

func (s *Store) CreateService(_ context.Context, svc *ledger.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.serviceBySlug(svc.Slug); err == nil {
		return ledger.ErrAlreadyExists
	}
	s.services = append(s.services, *svc)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*ledger.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &o, nil
}

func (s *Store) ListOrders(_ context.Context, f ledger.OrderFilter) ([]*ledger.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*ledger.Order, 0)
	for _, o := range s.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		c := o
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CreateRecharge(_ context.Context, r *ledger.Recharge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recharges[r.ID]; ok {
		return ledger.ErrAlreadyExists
	}
	s.recharges[r.ID] = *r
	return nil
}

func (s *Store) GetRecharge(_ context.Context, id string) (*ledger.Recharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.recharges[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &r, nil
}

func (s *Store) ListRecharges(_ context.Context, f ledger.RechargeFilter) ([]*ledger.Recharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*ledger.Recharge, 0)
	for _, r := range s.recharges {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		c := r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
