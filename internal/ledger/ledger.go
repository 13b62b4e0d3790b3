// Package ledger is the balance-ledger and order-settlement core of the
// storefront. Every operation that moves money runs as a single store
// transaction: the balance is read, checked and written together with the
// order or recharge that justifies it.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Ledger executes balance-mutating operations against a Store.
// It holds no per-user state between calls.
type Ledger struct {
	store         Store
	events        EventSink
	catalogCache  CatalogCache
	logger        *slog.Logger
	now           func() time.Time
	producer      string
	strictPricing bool
}

// New creates a Ledger backed by s.
func New(s Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    s,
		logger:   slog.Default(),
		now:      time.Now,
		producer: "eservice-api",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithEvents publishes committed ledger events to sink.
func WithEvents(sink EventSink) Option {
	return func(l *Ledger) { l.events = sink }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithProducer sets the producer name stamped on event envelopes.
func WithProducer(name string) Option {
	return func(l *Ledger) { l.producer = name }
}

// WithStrictPricing makes PlaceOrder charge the service price read inside the
// debit transaction instead of the snapshot handed in by the caller.
func WithStrictPricing(on bool) Option {
	return func(l *Ledger) { l.strictPricing = on }
}

// WithCatalogCache lets CreateService invalidate the cached listing.
func WithCatalogCache(c CatalogCache) Option {
	return func(l *Ledger) { l.catalogCache = c }
}

// EnsureUserProfile creates the profile for identity with a zero balance
// unless one exists. An existing profile is returned unchanged.
func (l *Ledger) EnsureUserProfile(ctx context.Context, identity, email, displayName string) (*User, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, ValidationError{Field: "identity", Message: "required"}
	}
	u, created, err := l.store.CreateUserIfAbsent(ctx, &User{
		ID:        identity,
		Email:     email,
		FullName:  displayName,
		Balance:   0,
		Role:      RoleUser,
		CreatedAt: l.now(),
	})
	if err != nil {
		return nil, wrapStore("ensure user profile", err)
	}
	if created {
		l.logger.Info("user profile created", "user_id", identity)
	}
	return u, nil
}

// GetProfile returns the caller's stored profile.
func (l *Ledger) GetProfile(ctx context.Context, sess Session) (*User, error) {
	if err := sess.authenticated(); err != nil {
		return nil, err
	}
	u, err := l.store.GetUser(ctx, sess.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrProfileMissing
	}
	if err != nil {
		return nil, wrapStore("get profile", err)
	}
	return u, nil
}

// PlaceOrder debits svc.Price from the caller's balance and records a pending
// order in the same transaction. A balance equal to the price is enough.
func (l *Ledger) PlaceOrder(ctx context.Context, sess Session, svc Service, payload Payload) (*Order, error) {
	if err := sess.authenticated(); err != nil {
		return nil, err
	}
	if svc.Slug == "" {
		return nil, ValidationError{Field: "serviceSlug", Message: "required"}
	}
	if svc.Price <= 0 {
		return nil, ErrInvalidAmount
	}

	order := &Order{
		ID:          NewID(PrefixOrder),
		UserID:      sess.UserID,
		ServiceSlug: svc.Slug,
		Payload:     payload,
		Status:      OrderPending,
	}
	var balanceAfter int64

	err := l.store.RunTx(ctx, func(ctx context.Context, tx Tx) error {
		u, err := tx.GetUser(ctx, sess.UserID)
		if errors.Is(err, ErrNotFound) {
			return ErrProfileMissing
		}
		if err != nil {
			return err
		}

		price, title := svc.Price, svc.Title
		if l.strictPricing {
			live, err := tx.GetService(ctx, svc.Slug)
			switch {
			case err == nil:
				price, title = live.Price, live.Title
			case errors.Is(err, ErrNotFound):
				// built-in catalog entry, the snapshot is authoritative
			default:
				return err
			}
			if price <= 0 {
				return ErrInvalidAmount
			}
		}

		if u.Balance < price {
			return ErrInsufficientBalance
		}

		order.Price = price
		order.ServiceTitle = title
		order.CreatedAt = l.now()
		balanceAfter = u.Balance - price

		if err := tx.SetBalance(ctx, u.ID, balanceAfter); err != nil {
			return err
		}
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, wrapStore("place order", err)
	}

	l.logger.Info("order placed",
		"order_id", order.ID,
		"user_id", order.UserID,
		"service", order.ServiceSlug,
		"price", order.Price,
		"balance_after", balanceAfter,
	)
	l.emit(ctx, TopicOrderPlaced, EventOrderPlaced, order.ID, order.UserID, OrderPlacedPayload{
		OrderID:      order.ID,
		UserID:       order.UserID,
		ServiceSlug:  order.ServiceSlug,
		ServiceTitle: order.ServiceTitle,
		Price:        order.Price,
		BalanceAfter: balanceAfter,
	})
	return order, nil
}

// SubmitRecharge records a pending top-up request. The balance is untouched
// until an admin approves it.
func (l *Ledger) SubmitRecharge(ctx context.Context, sess Session, amount int64, trxID, note string) (*Recharge, error) {
	if err := sess.authenticated(); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	r := &Recharge{
		ID:        NewID(PrefixRecharge),
		UserID:    sess.UserID,
		Amount:    amount,
		TrxID:     strings.TrimSpace(trxID),
		Note:      strings.TrimSpace(note),
		Method:    RechargeMethod,
		Status:    RechargePending,
		CreatedAt: l.now(),
	}
	if err := l.store.CreateRecharge(ctx, r); err != nil {
		return nil, wrapStore("submit recharge", err)
	}

	l.logger.Info("recharge submitted", "recharge_id", r.ID, "user_id", r.UserID, "amount", r.Amount)
	l.emit(ctx, TopicRechargeSubmitted, EventRechargeSubmitted, r.ID, r.UserID, RechargeSubmittedPayload{
		RechargeID: r.ID,
		UserID:     r.UserID,
		Amount:     r.Amount,
		TrxID:      r.TrxID,
	})
	return r, nil
}

// ApproveRecharge credits a pending recharge to its owner and marks it
// approved. Approving a recharge that is no longer pending succeeds without
// changing anything, so a recharge is credited at most once.
func (l *Ledger) ApproveRecharge(ctx context.Context, sess Session, rechargeID string) error {
	if err := sess.admin(); err != nil {
		return err
	}

	var (
		credited     *Recharge
		balanceAfter int64
	)
	err := l.store.RunTx(ctx, func(ctx context.Context, tx Tx) error {
		credited = nil

		r, err := tx.GetRecharge(ctx, rechargeID)
		if errors.Is(err, ErrNotFound) {
			return ErrRechargeMissing
		}
		if err != nil {
			return err
		}
		if r.Status != RechargePending {
			return nil
		}
		if r.Amount <= 0 {
			return ErrInvalidAmount
		}

		u, err := tx.GetUser(ctx, r.UserID)
		if errors.Is(err, ErrNotFound) {
			return ErrUserMissing
		}
		if err != nil {
			return err
		}

		balanceAfter = u.Balance + r.Amount
		if err := tx.SetBalance(ctx, u.ID, balanceAfter); err != nil {
			return err
		}
		if err := tx.SetRechargeStatus(ctx, r.ID, RechargeApproved); err != nil {
			return err
		}
		credited = r
		return nil
	})
	if err != nil {
		return wrapStore("approve recharge", err)
	}
	if credited == nil {
		l.logger.Debug("recharge already settled", "recharge_id", rechargeID)
		return nil
	}

	l.logger.Info("recharge approved",
		"recharge_id", credited.ID,
		"user_id", credited.UserID,
		"amount", credited.Amount,
		"balance_after", balanceAfter,
		"admin_id", sess.UserID,
	)
	l.emit(ctx, TopicRechargeApproved, EventRechargeApproved, credited.ID, credited.UserID, RechargeApprovedPayload{
		RechargeID:   credited.ID,
		UserID:       credited.UserID,
		Amount:       credited.Amount,
		BalanceAfter: balanceAfter,
		ApprovedBy:   sess.UserID,
	})
	return nil
}

func (l *Ledger) emit(ctx context.Context, topic, eventType, correlationID, userID string, payload any) {
	if l.events == nil {
		return
	}
	env, err := NewEnvelope(eventType, l.producer, correlationID, userID, l.now(), payload)
	if err != nil {
		l.logger.Error("encode event", "event_type", eventType, "error", err)
		return
	}
	env.TraceID = TraceID(ctx)
	if err := l.events.Publish(ctx, topic, env); err != nil {
		l.logger.Warn("publish event", "event_type", eventType, "correlation_id", correlationID, "error", err)
	}
}

type traceKey struct{}

// WithTrace attaches a request id that is copied onto emitted events.
func WithTrace(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// TraceID returns the request id attached by WithTrace.
func TraceID(ctx context.Context) string {
	s, _ := ctx.Value(traceKey{}).(string)
	return s
}
