// Package mongox implements ledger.Store on MongoDB. Ledger transactions run
// in a session transaction; concurrent writers to the same document hit a
// write conflict and the driver retries the whole callback.
package mongox

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

// Collection name constants.
const (
	colUsers     = "users"
	colServices  = "services"
	colOrders    = "orders"
	colRecharges = "recharges"
)

// compile-time interface check
var _ ledger.Store = (*Store)(nil)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and returns a Store on database name.
func Connect(ctx context.Context, uri, name string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongox: connect: %w", err)
	}
	s := New(client, name)
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongox: ping: %w", err)
	}
	return s, nil
}

func New(client *mongo.Client, name string) *Store {
	return &Store{client: client, db: client.Database(name)}
}

// Migrate creates indexes for the ledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colServices: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
		colOrders: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		colRecharges: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongox: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

func (s *Store) RunTx(ctx context.Context, fn ledger.TxFunc) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx, &mongoTx{s: s})
	})
	return err
}

func (s *Store) GetUser(ctx context.Context, id string) (*ledger.User, error) {
	var m userModel
	if err := s.db.Collection(colUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, mapErr(err)
	}
	return fromUserModel(&m), nil
}

func (s *Store) CreateUserIfAbsent(ctx context.Context, u *ledger.User) (*ledger.User, bool, error) {
	res, err := s.db.Collection(colUsers).UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$setOnInsert": toUserModel(u)},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return nil, false, mapErr(err)
	}
	stored, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, res.UpsertedCount == 1, nil
}

func (s *Store) SetUserRole(ctx context.Context, id string, role ledger.Role) error {
	res, err := s.db.Collection(colUsers).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"role": string(role)}})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) GetServiceBySlug(ctx context.Context, slug string) (*ledger.Service, error) {
	var m serviceModel
	if err := s.db.Collection(colServices).FindOne(ctx, bson.M{"slug": slug}).Decode(&m); err != nil {
		return nil, mapErr(err)
	}
	return fromServiceModel(&m), nil
}

func (s *Store) ListServices(ctx context.Context, opts ledger.ServiceListOpts) ([]*ledger.Service, error) {
	sort := bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	if opts.SortBySlug {
		sort = bson.D{{Key: "slug", Value: 1}}
	}
	cur, err := s.db.Collection(colServices).Find(ctx, bson.M{}, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	var models []serviceModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, err
	}
	out := make([]*ledger.Service, len(models))
	for i := range models {
		out[i] = fromServiceModel(&models[i])
	}
	return out, nil
}

func (s *Store) CreateService(ctx context.Context, svc *ledger.Service) error {
	_, err := s.db.Collection(colServices).InsertOne(ctx, toServiceModel(svc))
	return mapErr(err)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*ledger.Order, error) {
	var m orderModel
	if err := s.db.Collection(colOrders).FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, mapErr(err)
	}
	return fromOrderModel(&m), nil
}

func (s *Store) ListOrders(ctx context.Context, f ledger.OrderFilter) ([]*ledger.Order, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	cur, err := s.db.Collection(colOrders).Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, err
	}
	var models []orderModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, err
	}
	out := make([]*ledger.Order, len(models))
	for i := range models {
		out[i] = fromOrderModel(&models[i])
	}
	return out, nil
}

func (s *Store) CreateRecharge(ctx context.Context, r *ledger.Recharge) error {
	_, err := s.db.Collection(colRecharges).InsertOne(ctx, toRechargeModel(r))
	return mapErr(err)
}

func (s *Store) GetRecharge(ctx context.Context, id string) (*ledger.Recharge, error) {
	var m rechargeModel
	if err := s.db.Collection(colRecharges).FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, mapErr(err)
	}
	return fromRechargeModel(&m), nil
}

func (s *Store) ListRecharges(ctx context.Context, f ledger.RechargeFilter) ([]*ledger.Recharge, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	cur, err := s.db.Collection(colRecharges).Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, err
	}
	var models []rechargeModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, err
	}
	out := make([]*ledger.Recharge, len(models))
	for i := range models {
		out[i] = fromRechargeModel(&models[i])
	}
	return out, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func newestFirst() *options.FindOptionsBuilder {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ledger.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ledger.ErrAlreadyExists
	default:
		return err
	}
}
