package ledger

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ListMyOrders returns the caller's orders, newest first.
func (l *Ledger) ListMyOrders(ctx context.Context, sess Session) ([]*Order, error) {
	if err := sess.authenticated(); err != nil {
		return nil, err
	}
	out, err := l.store.ListOrders(ctx, OrderFilter{UserID: sess.UserID})
	return out, wrapStore("list orders", err)
}

// GetMyOrder returns one of the caller's orders. Admins may read any order.
func (l *Ledger) GetMyOrder(ctx context.Context, sess Session, orderID string) (*Order, error) {
	if err := sess.authenticated(); err != nil {
		return nil, err
	}
	o, err := l.store.GetOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrOrderMissing
	}
	if err != nil {
		return nil, wrapStore("get order", err)
	}
	if o.UserID != sess.UserID && !sess.IsAdmin() {
		return nil, ErrOrderMissing
	}
	return o, nil
}

// ListMyRecharges returns the caller's recharge requests, newest first.
func (l *Ledger) ListMyRecharges(ctx context.Context, sess Session) ([]*Recharge, error) {
	if err := sess.authenticated(); err != nil {
		return nil, err
	}
	out, err := l.store.ListRecharges(ctx, RechargeFilter{UserID: sess.UserID})
	return out, wrapStore("list recharges", err)
}

// ListOrders returns every order, newest first.
func (l *Ledger) ListOrders(ctx context.Context, sess Session) ([]*Order, error) {
	if err := sess.admin(); err != nil {
		return nil, err
	}
	out, err := l.store.ListOrders(ctx, OrderFilter{})
	return out, wrapStore("list orders", err)
}

// ListRecharges returns every recharge, newest first, optionally only those in status.
func (l *Ledger) ListRecharges(ctx context.Context, sess Session, status RechargeStatus) ([]*Recharge, error) {
	if err := sess.admin(); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, ValidationError{Field: "status", Message: "unknown recharge status"}
	}
	out, err := l.store.ListRecharges(ctx, RechargeFilter{Status: status})
	return out, wrapStore("list recharges", err)
}

// UpdateOrderStatus moves an order along its lifecycle. Setting the current
// status again is a no-op. The order's price and payload never change.
func (l *Ledger) UpdateOrderStatus(ctx context.Context, sess Session, orderID string, to OrderStatus) (*Order, error) {
	if err := sess.admin(); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, ValidationError{Field: "status", Message: "unknown order status"}
	}

	var (
		order *Order
		from  OrderStatus
	)
	err := l.store.RunTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if errors.Is(err, ErrNotFound) {
			return ErrOrderMissing
		}
		if err != nil {
			return err
		}
		order, from = o, o.Status
		if from == to {
			return nil
		}
		if !CanTransition(from, to) {
			return ErrInvalidTransition
		}
		if err := tx.SetOrderStatus(ctx, o.ID, to); err != nil {
			return err
		}
		order.Status = to
		return nil
	})
	if err != nil {
		return nil, wrapStore("update order status", err)
	}
	if from == to {
		return order, nil
	}

	l.logger.Info("order status changed", "order_id", order.ID, "from", from, "to", to, "admin_id", sess.UserID)
	l.emit(ctx, TopicOrderStatusChanged, EventOrderStatusChanged, order.ID, order.UserID, OrderStatusChangedPayload{
		OrderID:      order.ID,
		UserID:       order.UserID,
		ServiceTitle: order.ServiceTitle,
		From:         from,
		To:           to,
	})
	return order, nil
}

// CreateService adds a service to the catalog.
func (l *Ledger) CreateService(ctx context.Context, sess Session, in Service) (*Service, error) {
	if err := sess.admin(); err != nil {
		return nil, err
	}
	svc := Service{
		ID:        NewID(PrefixService),
		Title:     strings.TrimSpace(in.Title),
		Slug:      strings.TrimSpace(in.Slug),
		Price:     in.Price,
		Desc:      strings.TrimSpace(in.Desc),
		Color:     strings.TrimSpace(in.Color),
		Icon:      strings.TrimSpace(in.Icon),
		CreatedAt: l.now(),
	}
	if svc.Title == "" {
		return nil, ValidationError{Field: "title", Message: "required"}
	}
	if !slugPattern.MatchString(svc.Slug) {
		return nil, ValidationError{Field: "slug", Message: "lower-case letters, digits and dashes only"}
	}
	if svc.Price <= 0 {
		return nil, ErrInvalidAmount
	}
	if svc.Color == "" {
		svc.Color = DefaultServiceColor
	}

	if err := l.store.CreateService(ctx, &svc); err != nil {
		return nil, wrapStore("create service", err)
	}
	if l.catalogCache != nil {
		l.catalogCache.Invalidate(ctx)
	}
	l.logger.Info("service created", "service_id", svc.ID, "slug", svc.Slug, "price", svc.Price)
	return &svc, nil
}

// ListServicesAdmin lists the services actually stored, sorted by slug.
// Unlike the storefront listing it never substitutes the built-in catalog.
func (l *Ledger) ListServicesAdmin(ctx context.Context, sess Session) ([]*Service, error) {
	if err := sess.admin(); err != nil {
		return nil, err
	}
	out, err := l.store.ListServices(ctx, ServiceListOpts{SortBySlug: true})
	return out, wrapStore("list services", err)
}
