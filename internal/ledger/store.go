package ledger

import "context"

// Tx is the store as seen from inside one atomic transaction.
// Reads lock (or conflict-track) the documents they touch until the transaction ends.
// Callers issue every read before the first write.
type Tx interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetService(ctx context.Context, slug string) (*Service, error)
	GetRecharge(ctx context.Context, id string) (*Recharge, error)
	GetOrder(ctx context.Context, id string) (*Order, error)

	SetBalance(ctx context.Context, userID string, balance int64) error
	CreateOrder(ctx context.Context, o *Order) error
	SetRechargeStatus(ctx context.Context, id string, s RechargeStatus) error
	SetOrderStatus(ctx context.Context, id string, s OrderStatus) error
}

// TxFunc runs inside a transaction. Returning an error aborts every write it made.
type TxFunc func(ctx context.Context, tx Tx) error

type ServiceListOpts struct {
	SortBySlug bool
}

type OrderFilter struct {
	UserID string
}

type RechargeFilter struct {
	UserID string
	Status RechargeStatus
}

// ServiceReader is the subset of Store the catalog needs.
type ServiceReader interface {
	GetServiceBySlug(ctx context.Context, slug string) (*Service, error)
	ListServices(ctx context.Context, opts ServiceListOpts) ([]*Service, error)
}

// Store is the ledger's document store. Missing documents are reported as
// ErrNotFound and unique violations as ErrAlreadyExists.
type Store interface {
	ServiceReader

	RunTx(ctx context.Context, fn TxFunc) error

	GetUser(ctx context.Context, id string) (*User, error)
	// CreateUserIfAbsent atomically inserts u unless a user with u.ID exists.
	// It returns the stored user and whether it was created by this call.
	CreateUserIfAbsent(ctx context.Context, u *User) (*User, bool, error)
	SetUserRole(ctx context.Context, id string, role Role) error

	CreateService(ctx context.Context, s *Service) error

	GetOrder(ctx context.Context, id string) (*Order, error)
	// ListOrders returns orders newest first.
	ListOrders(ctx context.Context, f OrderFilter) ([]*Order, error)

	CreateRecharge(ctx context.Context, r *Recharge) error
	GetRecharge(ctx context.Context, id string) (*Recharge, error)
	// ListRecharges returns recharges newest first.
	ListRecharges(ctx context.Context, f RechargeFilter) ([]*Recharge, error)

	Ping(ctx context.Context) error
	Close() error
}

// CatalogCache holds the last non-empty service listing.
type CatalogCache interface {
	Services(ctx context.Context) ([]Service, bool)
	StoreServices(ctx context.Context, services []Service)
	Invalidate(ctx context.Context)
}

// EventSink receives committed ledger events.
type EventSink interface {
	Publish(ctx context.Context, topic string, env Envelope) error
}
