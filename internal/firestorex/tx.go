package firestorex

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

// fsTx adapts a firestore.Transaction. Firestore rejects reads issued after a
// write in the same transaction, which the ledger core never does.
type fsTx struct {
	s  *Store
	tx *firestore.Transaction
}

func (t *fsTx) doc(col, id string) *firestore.DocumentRef {
	return t.s.client.Collection(col).Doc(id)
}

func (t *fsTx) GetUser(_ context.Context, id string) (*ledger.User, error) {
	snap, err := t.tx.Get(t.doc(colUsers, id))
	if err != nil {
		return nil, mapErr(err)
	}
	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	return d.toLedger(id), nil
}

func (t *fsTx) GetService(_ context.Context, slug string) (*ledger.Service, error) {
	q := t.s.client.Collection(colServices).Where("slug", "==", slug).Limit(1)
	snaps, err := t.tx.Documents(q).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	return firstService(snaps)
}

func (t *fsTx) GetRecharge(_ context.Context, id string) (*ledger.Recharge, error) {
	snap, err := t.tx.Get(t.doc(colRecharges, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return decodeRecharge(snap)
}

func (t *fsTx) GetOrder(_ context.Context, id string) (*ledger.Order, error) {
	snap, err := t.tx.Get(t.doc(colOrders, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return decodeOrder(snap)
}

func (t *fsTx) SetBalance(_ context.Context, userID string, balance int64) error {
	return t.tx.Update(t.doc(colUsers, userID), []firestore.Update{{Path: "balance", Value: balance}})
}

func (t *fsTx) CreateOrder(_ context.Context, o *ledger.Order) error {
	return t.tx.Create(t.doc(colOrders, o.ID), orderDoc{
		UserID:       o.UserID,
		ServiceSlug:  o.ServiceSlug,
		ServiceTitle: o.ServiceTitle,
		Price:        o.Price,
		Payload:      payloadDoc(o.Payload),
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
	})
}

func (t *fsTx) SetRechargeStatus(_ context.Context, id string, s ledger.RechargeStatus) error {
	return t.tx.Update(t.doc(colRecharges, id), []firestore.Update{{Path: "status", Value: string(s)}})
}

func (t *fsTx) SetOrderStatus(_ context.Context, id string, s ledger.OrderStatus) error {
	return t.tx.Update(t.doc(colOrders, id), []firestore.Update{{Path: "status", Value: string(s)}})
}
