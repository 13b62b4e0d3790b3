// Package firestorex implements ledger.Store on Cloud Firestore, using the
// users, services, orders and recharges collections. Ledger transactions use
// Firestore's optimistic transactions, which retry on contention.
package firestorex

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

const (
	colUsers     = "users"
	colServices  = "services"
	colOrders    = "orders"
	colRecharges = "recharges"
)

var _ ledger.Store = (*Store)(nil)

type Store struct {
	client *firestore.Client
}

func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) RunTx(ctx context.Context, fn ledger.TxFunc) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &fsTx{s: s, tx: tx})
	})
}

func (s *Store) GetUser(ctx context.Context, id string) (*ledger.User, error) {
	snap, err := s.client.Collection(colUsers).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	return d.toLedger(snap.Ref.ID), nil
}

func (s *Store) CreateUserIfAbsent(ctx context.Context, u *ledger.User) (*ledger.User, bool, error) {
	var (
		stored  *ledger.User
		created bool
	)
	ref := s.client.Collection(colUsers).Doc(u.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		stored, created = nil, false

		snap, err := tx.Get(ref)
		if err == nil {
			var d userDoc
			if err := snap.DataTo(&d); err != nil {
				return err
			}
			stored = d.toLedger(u.ID)
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		d := userDoc{Email: u.Email, FullName: u.FullName, Balance: u.Balance, Role: string(u.Role), CreatedAt: u.CreatedAt}
		if err := tx.Create(ref, d); err != nil {
			return err
		}
		stored, created = d.toLedger(u.ID), true
		return nil
	})
	if err != nil {
		return nil, false, mapErr(err)
	}
	return stored, created, nil
}

func (s *Store) SetUserRole(ctx context.Context, id string, role ledger.Role) error {
	_, err := s.client.Collection(colUsers).Doc(id).Update(ctx, []firestore.Update{{Path: "role", Value: string(role)}})
	return mapErr(err)
}

func (s *Store) GetServiceBySlug(ctx context.Context, slug string) (*ledger.Service, error) {
	snaps, err := s.client.Collection(colServices).Where("slug", "==", slug).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	return firstService(snaps)
}

func (s *Store) ListServices(ctx context.Context, opts ledger.ServiceListOpts) ([]*ledger.Service, error) {
	q := s.client.Collection(colServices).Query
	if opts.SortBySlug {
		q = q.OrderBy("slug", firestore.Asc)
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]*ledger.Service, 0, len(snaps))
	for _, snap := range snaps {
		var d serviceDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		out = append(out, d.toLedger(snap.Ref.ID))
	}
	return out, nil
}

// CreateService enforces slug uniqueness, which Firestore has no index for.
func (s *Store) CreateService(ctx context.Context, svc *ledger.Service) error {
	col := s.client.Collection(colServices)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snaps, err := tx.Documents(col.Where("slug", "==", svc.Slug).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(snaps) > 0 {
			return ledger.ErrAlreadyExists
		}
		return tx.Create(col.Doc(svc.ID), serviceDoc{
			Title:     svc.Title,
			Slug:      svc.Slug,
			Price:     svc.Price,
			Desc:      svc.Desc,
			Color:     svc.Color,
			Icon:      svc.Icon,
			CreatedAt: svc.CreatedAt,
		})
	})
	return mapErr(err)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*ledger.Order, error) {
	snap, err := s.client.Collection(colOrders).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return decodeOrder(snap)
}

func (s *Store) ListOrders(ctx context.Context, f ledger.OrderFilter) ([]*ledger.Order, error) {
	q := s.client.Collection(colOrders).Query
	if f.UserID != "" {
		q = q.Where("userId", "==", f.UserID)
	}
	snaps, err := q.OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]*ledger.Order, 0, len(snaps))
	for _, snap := range snaps {
		o, err := decodeOrder(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *Store) CreateRecharge(ctx context.Context, r *ledger.Recharge) error {
	_, err := s.client.Collection(colRecharges).Doc(r.ID).Create(ctx, rechargeDoc{
		UserID:    r.UserID,
		Amount:    r.Amount,
		TrxID:     r.TrxID,
		Note:      r.Note,
		Method:    r.Method,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	})
	return mapErr(err)
}

func (s *Store) GetRecharge(ctx context.Context, id string) (*ledger.Recharge, error) {
	snap, err := s.client.Collection(colRecharges).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return decodeRecharge(snap)
}

func (s *Store) ListRecharges(ctx context.Context, f ledger.RechargeFilter) ([]*ledger.Recharge, error) {
	q := s.client.Collection(colRecharges).Query
	if f.UserID != "" {
		q = q.Where("userId", "==", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status", "==", string(f.Status))
	}
	snaps, err := q.OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]*ledger.Recharge, 0, len(snaps))
	for _, snap := range snaps {
		r, err := decodeRecharge(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(colServices).Limit(1).Documents(ctx).GetAll()
	return err
}

func (s *Store) Close() error { return s.client.Close() }

func firstService(snaps []*firestore.DocumentSnapshot) (*ledger.Service, error) {
	if len(snaps) == 0 {
		return nil, ledger.ErrNotFound
	}
	var d serviceDoc
	if err := snaps[0].DataTo(&d); err != nil {
		return nil, err
	}
	return d.toLedger(snaps[0].Ref.ID), nil
}

func decodeOrder(snap *firestore.DocumentSnapshot) (*ledger.Order, error) {
	var d orderDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	return d.toLedger(snap.Ref.ID), nil
}

func decodeRecharge(snap *firestore.DocumentSnapshot) (*ledger.Recharge, error) {
	var d rechargeDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	return d.toLedger(snap.Ref.ID), nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ledger.ErrAlreadyExists) || errors.Is(err, ledger.ErrNotFound) {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return ledger.ErrNotFound
	case codes.AlreadyExists:
		return ledger.ErrAlreadyExists
	}
	return err
}
