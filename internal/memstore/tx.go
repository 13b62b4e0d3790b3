package memstore

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

var errClosed = errors.New("memstore: store is closed")

// memTx runs with Store.mu held. Writes are staged and applied by commit.
type memTx struct {
	s *Store

	balances  map[string]int64
	rStatus   map[string]ledger.RechargeStatus
	oStatus   map[string]ledger.OrderStatus
	newOrders map[string]ledger.Order
}

func (t *memTx) GetUser(_ context.Context, id string) (*ledger.User, error) {
	u, ok := t.s.users[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	if b, ok := t.balances[id]; ok {
		u.Balance = b
	}
	return &u, nil
}

func (t *memTx) GetService(_ context.Context, slug string) (*ledger.Service, error) {
	return t.s.serviceBySlug(slug)
}

func (t *memTx) GetRecharge(_ context.Context, id string) (*ledger.Recharge, error) {
	r, ok := t.s.recharges[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	if st, ok := t.rStatus[id]; ok {
		r.Status = st
	}
	return &r, nil
}

func (t *memTx) GetOrder(_ context.Context, id string) (*ledger.Order, error) {
	o, ok := t.newOrders[id]
	if !ok {
		if o, ok = t.s.orders[id]; !ok {
			return nil, ledger.ErrNotFound
		}
	}
	if st, ok := t.oStatus[id]; ok {
		o.Status = st
	}
	return &o, nil
}

func (t *memTx) SetBalance(_ context.Context, userID string, balance int64) error {
	if _, ok := t.s.users[userID]; !ok {
		return ledger.ErrNotFound
	}
	if balance < 0 {
		return errors.New("memstore: balance would become negative")
	}
	t.balances[userID] = balance
	return nil
}

func (t *memTx) CreateOrder(_ context.Context, o *ledger.Order) error {
	if _, ok := t.s.orders[o.ID]; ok {
		return ledger.ErrAlreadyExists
	}
	t.newOrders[o.ID] = *o
	return nil
}

func (t *memTx) SetRechargeStatus(_ context.Context, id string, st ledger.RechargeStatus) error {
	if _, ok := t.s.recharges[id]; !ok {
		return ledger.ErrNotFound
	}
	t.rStatus[id] = st
	return nil
}

func (t *memTx) SetOrderStatus(_ context.Context, id string, st ledger.OrderStatus) error {
	_, staged := t.newOrders[id]
	if _, ok := t.s.orders[id]; !ok && !staged {
		return ledger.ErrNotFound
	}
	t.oStatus[id] = st
	return nil
}

func (t *memTx) commit() {
	for id, b := range t.balances {
		u := t.s.users[id]
		u.Balance = b
		t.s.users[id] = u
	}
	for id, o := range t.newOrders {
		t.s.orders[id] = o
	}
	for id, st := range t.oStatus {
		o := t.s.orders[id]
		o.Status = st
		t.s.orders[id] = o
	}
	for id, st := range t.rStatus {
		r := t.s.recharges[id]
		r.Status = st
		t.s.recharges[id] = r
	}
}

// PutUser stores u as is, replacing any existing profile. Used for fixtures.
func (s *Store) PutUser(u ledger.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}
