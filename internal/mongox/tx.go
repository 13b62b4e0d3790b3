package mongox

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

// mongoTx issues every call with the session context handed to the
// transaction callback, so reads and writes share one snapshot.
type mongoTx struct{ s *Store }

func (t *mongoTx) GetUser(ctx context.Context, id string) (*ledger.User, error) {
	return t.s.GetUser(ctx, id)
}

func (t *mongoTx) GetService(ctx context.Context, slug string) (*ledger.Service, error) {
	return t.s.GetServiceBySlug(ctx, slug)
}

func (t *mongoTx) GetRecharge(ctx context.Context, id string) (*ledger.Recharge, error) {
	return t.s.GetRecharge(ctx, id)
}

func (t *mongoTx) GetOrder(ctx context.Context, id string) (*ledger.Order, error) {
	return t.s.GetOrder(ctx, id)
}

func (t *mongoTx) SetBalance(ctx context.Context, userID string, balance int64) error {
	return t.set(ctx, colUsers, userID, bson.M{"balance": balance})
}

func (t *mongoTx) CreateOrder(ctx context.Context, o *ledger.Order) error {
	_, err := t.s.db.Collection(colOrders).InsertOne(ctx, toOrderModel(o))
	return mapErr(err)
}

func (t *mongoTx) SetRechargeStatus(ctx context.Context, id string, s ledger.RechargeStatus) error {
	return t.set(ctx, colRecharges, id, bson.M{"status": string(s)})
}

func (t *mongoTx) SetOrderStatus(ctx context.Context, id string, s ledger.OrderStatus) error {
	return t.set(ctx, colOrders, id, bson.M{"status": string(s)})
}

func (t *mongoTx) set(ctx context.Context, col, id string, fields bson.M) error {
	res, err := t.s.db.Collection(col).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
