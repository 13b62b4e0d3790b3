package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

func TestUpdateOrderStatus(t *testing.T) {
	tests := []struct {
		name    string
		path    []ledger.OrderStatus
		wantErr error
		want    ledger.OrderStatus
	}{
		{"pending to processing to done", []ledger.OrderStatus{ledger.OrderProcessing, ledger.OrderDone}, nil, ledger.OrderDone},
		{"pending to rejected", []ledger.OrderStatus{ledger.OrderRejected}, nil, ledger.OrderRejected},
		{"same status is a no-op", []ledger.OrderStatus{ledger.OrderPending}, nil, ledger.OrderPending},
		{"done is terminal", []ledger.OrderStatus{ledger.OrderDone, ledger.OrderProcessing}, ledger.ErrInvalidTransition, ledger.OrderDone},
		{"back to pending", []ledger.OrderStatus{ledger.OrderProcessing, ledger.OrderPending}, ledger.ErrInvalidTransition, ledger.OrderProcessing},
		{"unknown status", []ledger.OrderStatus{"shipped"}, ledger.ErrInvalidInput, ledger.OrderPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			l, s := newLedger(t)
			withBalance(s, "alice", 500)
			o, err := l.PlaceOrder(ctx, alice, signCopy, nidPayload)
			if err != nil {
				t.Fatal(err)
			}

			for i, to := range tt.path {
				_, err = l.UpdateOrderStatus(ctx, admin, o.ID, to)
				if i < len(tt.path)-1 && err != nil {
					t.Fatalf("step %d: %v", i, err)
				}
			}
			if tt.wantErr == nil && err != nil {
				t.Fatalf("UpdateOrderStatus: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}

			stored, _ := s.GetOrder(ctx, o.ID)
			if stored.Status != tt.want {
				t.Errorf("status = %s, want %s", stored.Status, tt.want)
			}
			if stored.Price != 110 || stored.Payload != nidPayload {
				t.Errorf("price or payload changed: %+v", stored)
			}
			// Rejection does not refund.
			if got := balanceOf(t, s, "alice"); got != 390 {
				t.Errorf("balance = %d, want 390", got)
			}
		})
	}
}

func TestUpdateOrderStatusErrors(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	if _, err := l.UpdateOrderStatus(ctx, admin, "ord_missing", ledger.OrderDone); !errors.Is(err, ledger.ErrOrderMissing) {
		t.Errorf("missing order: err = %v, want ErrOrderMissing", err)
	}
	if _, err := l.UpdateOrderStatus(ctx, alice, "ord_missing", ledger.OrderDone); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Errorf("non-admin: err = %v, want ErrUnauthorized", err)
	}
}

func TestUpdateOrderStatusEmitsOnChangeOnly(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	l, s := newLedger(t, ledger.WithEvents(sink))
	withBalance(s, "alice", 500)
	o, err := l.PlaceOrder(ctx, alice, signCopy, nidPayload)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.UpdateOrderStatus(ctx, admin, o.ID, ledger.OrderDone); err != nil {
		t.Fatal(err)
	}
	if _, err := l.UpdateOrderStatus(ctx, admin, o.ID, ledger.OrderDone); err != nil {
		t.Fatal(err)
	}
	got := sink.types()
	if len(got) != 2 || got[1] != ledger.EventOrderStatusChanged {
		t.Errorf("events = %v", got)
	}
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	l, s := newLedger(t)
	withBalance(s, "alice", 1000)
	withBalance(s, "bob", 1000)
	bob := ledger.Session{UserID: "bob", Role: ledger.RoleUser}

	first, _ := l.PlaceOrder(ctx, alice, signCopy, nidPayload)
	second, _ := l.PlaceOrder(ctx, alice, nidPDF, nidPayload)
	if _, err := l.PlaceOrder(ctx, bob, nidPDF, nidPayload); err != nil {
		t.Fatal(err)
	}

	mine, err := l.ListMyOrders(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].ID != second.ID || mine[1].ID != first.ID {
		t.Errorf("ListMyOrders not newest first: %v", mine)
	}

	all, err := l.ListOrders(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("ListOrders = %d orders, want 3", len(all))
	}
	if _, err := l.ListOrders(ctx, alice); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Errorf("ListOrders as user: err = %v", err)
	}

	if _, err := l.GetMyOrder(ctx, bob, first.ID); !errors.Is(err, ledger.ErrOrderMissing) {
		t.Errorf("GetMyOrder across users: err = %v, want ErrOrderMissing", err)
	}
	if o, err := l.GetMyOrder(ctx, admin, first.ID); err != nil || o.ID != first.ID {
		t.Errorf("GetMyOrder as admin: %v, %v", o, err)
	}

	r1, _ := l.SubmitRecharge(ctx, alice, 100, "A", "")
	if _, err := l.SubmitRecharge(ctx, bob, 100, "B", ""); err != nil {
		t.Fatal(err)
	}
	if err := l.ApproveRecharge(ctx, admin, r1.ID); err != nil {
		t.Fatal(err)
	}

	pending, err := l.ListRecharges(ctx, admin, ledger.RechargePending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].UserID != "bob" {
		t.Errorf("pending recharges = %v", pending)
	}
	if _, err := l.ListRecharges(ctx, admin, "refunded"); !errors.Is(err, ledger.ErrInvalidInput) {
		t.Errorf("bad status filter: err = %v", err)
	}
	myRecharges, _ := l.ListMyRecharges(ctx, alice)
	if len(myRecharges) != 1 || myRecharges[0].Status != ledger.RechargeApproved {
		t.Errorf("ListMyRecharges = %v", myRecharges)
	}
}

type countingCache struct {
	invalidated int
}

func (c *countingCache) Services(context.Context) ([]ledger.Service, bool) { return nil, false }
func (c *countingCache) StoreServices(context.Context, []ledger.Service)   {}
func (c *countingCache) Invalidate(context.Context)                        { c.invalidated++ }

func TestCreateService(t *testing.T) {
	ctx := context.Background()
	cache := &countingCache{}
	l, _ := newLedger(t, ledger.WithCatalogCache(cache))

	svc, err := l.CreateService(ctx, admin, ledger.Service{Title: " Birth Certificate ", Slug: "birth-cert", Price: 150})
	if err != nil {
		t.Fatalf("CreateService: %v", err)
	}
	if svc.Title != "Birth Certificate" || svc.Color != ledger.DefaultServiceColor || svc.ID == "" {
		t.Errorf("service = %+v", svc)
	}
	if cache.invalidated != 1 {
		t.Errorf("cache invalidated %d times, want 1", cache.invalidated)
	}

	tests := []struct {
		name    string
		in      ledger.Service
		wantErr error
	}{
		{"duplicate slug", ledger.Service{Title: "Again", Slug: "birth-cert", Price: 10}, ledger.ErrAlreadyExists},
		{"missing title", ledger.Service{Slug: "x", Price: 10}, ledger.ErrInvalidInput},
		{"upper-case slug", ledger.Service{Title: "X", Slug: "Bad-Slug", Price: 10}, ledger.ErrInvalidInput},
		{"empty slug", ledger.Service{Title: "X", Price: 10}, ledger.ErrInvalidInput},
		{"zero price", ledger.Service{Title: "X", Slug: "x", Price: 0}, ledger.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.CreateService(ctx, admin, tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := l.CreateService(ctx, alice, ledger.Service{Title: "X", Slug: "x", Price: 1}); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Errorf("non-admin: err = %v", err)
	}

	listed, err := l.ListServicesAdmin(ctx, admin)
	if err != nil || len(listed) != 1 {
		t.Errorf("ListServicesAdmin = %v, %v", listed, err)
	}
}
