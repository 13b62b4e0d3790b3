package ledger_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

func TestEnsureUserProfile(t *testing.T) {
	ctx := context.Background()
	l, s := newLedger(t)

	u, err := l.EnsureUserProfile(ctx, "alice", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("EnsureUserProfile: %v", err)
	}
	if u.Balance != 0 || u.Role != ledger.RoleUser || u.FullName != "Alice" {
		t.Errorf("new profile = %+v, want zero balance user named Alice", u)
	}
	if u.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}

	// A later sign-in never resets balance or role.
	s.PutUser(ledger.User{ID: "alice", Email: "alice@example.com", FullName: "Alice", Balance: 500, Role: ledger.RoleAdmin})
	u, err = l.EnsureUserProfile(ctx, "alice", "other@example.com", "Someone Else")
	if err != nil {
		t.Fatalf("EnsureUserProfile again: %v", err)
	}
	if u.Balance != 500 || u.Role != ledger.RoleAdmin || u.Email != "alice@example.com" {
		t.Errorf("existing profile changed: %+v", u)
	}
}

func TestEnsureUserProfileEmptyIdentity(t *testing.T) {
	l, _ := newLedger(t)
	_, err := l.EnsureUserProfile(context.Background(), "  ", "", "")
	if !errors.Is(err, ledger.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEnsureUserProfileConcurrent(t *testing.T) {
	ctx := context.Background()
	l, s := newLedger(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.EnsureUserProfile(ctx, "alice", "alice@example.com", "Alice"); err != nil {
				t.Errorf("EnsureUserProfile: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := balanceOf(t, s, "alice"); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}

func TestPlaceOrder(t *testing.T) {
	tests := []struct {
		name        string
		balance     int64
		svc         ledger.Service
		wantErr     error
		wantBalance int64
	}{
		{"debits price", 500, signCopy, nil, 390},
		{"exact balance is enough", 110, signCopy, nil, 0},
		{"insufficient balance", 50, nidPDF, ledger.ErrInsufficientBalance, 50},
		{"one short", 109, signCopy, ledger.ErrInsufficientBalance, 109},
		{"zero price", 500, ledger.Service{Slug: "free", Price: 0}, ledger.ErrInvalidAmount, 500},
		{"negative price", 500, ledger.Service{Slug: "neg", Price: -10}, ledger.ErrInvalidAmount, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			l, s := newLedger(t)
			withBalance(s, "alice", tt.balance)

			o, err := l.PlaceOrder(ctx, alice, tt.svc, nidPayload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if o != nil {
					t.Errorf("order returned on failure: %+v", o)
				}
				orders, _ := s.ListOrders(ctx, ledger.OrderFilter{})
				if len(orders) != 0 {
					t.Errorf("%d orders stored on failure", len(orders))
				}
			} else if err != nil {
				t.Fatalf("PlaceOrder: %v", err)
			}
			if got := balanceOf(t, s, "alice"); got != tt.wantBalance {
				t.Errorf("balance = %d, want %d", got, tt.wantBalance)
			}
		})
	}
}

func TestPlaceOrderStoresSnapshot(t *testing.T) {
	ctx := context.Background()
	l, s := newLedger(t)
	withBalance(s, "alice", 500)

	o, err := l.PlaceOrder(ctx, alice, signCopy, nidPayload)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !strings.HasPrefix(o.ID, ledger.PrefixOrder+"_") {
		t.Errorf("order id %q lacks %q prefix", o.ID, ledger.PrefixOrder)
	}

	stored, err := s.GetOrder(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if stored.UserID != "alice" || stored.ServiceSlug != "sign-copy" || stored.ServiceTitle != signCopy.Title {
		t.Errorf("stored order = %+v", stored)
	}
	if stored.Price != 110 || stored.Status != ledger.OrderPending {
		t.Errorf("price/status = %d/%s, want 110/pending", stored.Price, stored.Status)
	}
	if stored.Payload != nidPayload {
		t.Errorf("payload = %+v, want %+v", stored.Payload, nidPayload)
	}
}

func TestPlaceOrderProfileMissing(t *testing.T) {
	l, _ := newLedger(t)
	_, err := l.PlaceOrder(context.Background(), alice, signCopy, nidPayload)
	if !errors.Is(err, ledger.ErrProfileMissing) {
		t.Fatalf("err = %v, want ErrProfileMissing", err)
	}
}

func TestPlaceOrderUnauthenticated(t *testing.T) {
	l, _ := newLedger(t)
	_, err := l.PlaceOrder(context.Background(), ledger.Session{}, signCopy, nidPayload)
	if !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestPlaceOrderConcurrentNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	l, s := newLedger(t)
	withBalance(s, "alice", 110)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.PlaceOrder(ctx, alice, signCopy, nidPayload)
			switch {
			case err == nil:
				mu.Lock()
				succeeded++
				mu.Unlock()
			case !errors.Is(err, ledger.ErrInsufficientBalance):
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("%d orders succeeded, want exactly 1", succeeded)
	}
	if got := balanceOf(t, s, "alice"); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
	orders, _ := s.ListOrders(ctx, ledger.OrderFilter{UserID: "alice"})
	if len(orders) != 1 {
		t.Errorf("%d orders stored, want 1", len(orders))
	}
}

func TestPlaceOrderStrictPricing(t *testing.T) {
	ctx := context.Background()
	l, s := newLedger(t, ledger.WithStrictPricing(true))
	withBalance(s, "alice", 500)
	if err := s.CreateService(ctx, &ledger.Service{ID: "svc_1", Title: "Sign Copy v2", Slug: "sign-copy", Price: 150}); err != nil {
		t.Fatal(err)
	}

	// The caller's snapshot says 110; the stored price wins.
	o, err := l.PlaceOrder(ctx, alice, signCopy, nidPayload)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if o.Price != 150 || o.ServiceTitle != "Sign Copy v2" {
		t.Errorf("order price/title = %d/%q, want 150/Sign Copy v2", o.Price, o.ServiceTitle)
	}
	if got := balanceOf(t, s, "alice"); got != 350 {
		t.Errorf("balance = %d, want 350", got)
	}

	// Built-in entries are not in the store; the snapshot is charged.
	o, err = l.PlaceOrder(ctx, alice, nidPDF, nidPayload)
	if err != nil {
		t.Fatalf("PlaceOrder built-in: %v", err)
	}
	if o.Price != 80 {
		t.Errorf("built-in price = %d, want 80", o.Price)
	}
}

func TestSubmitRecharge(t *testing.T) {
	ctx := context.Background()
	l, s := newLedger(t)
	withBalance(s, "alice", 40)

	r, err := l.SubmitRecharge(ctx, alice, 200, " TRX123 ", "evening")
	if err != nil {
		t.Fatalf("SubmitRecharge: %v", err)
	}
	if r.Status != ledger.RechargePending || r.Method != "bKash" || r.TrxID != "TRX123" {
		t.Errorf("recharge = %+v", r)
	}
	if got := balanceOf(t, s, "alice"); got != 40 {
		t.Errorf("balance changed to %d before approval", got)
	}
}

func TestSubmitRechargeInvalidAmount(t *testing.T) {
	for _, amount := range []int64{0, -5} {
		l, s := newLedger(t)
		_, err := l.SubmitRecharge(context.Background(), alice, amount, "TRX", "")
		if !errors.Is(err, ledger.ErrInvalidAmount) {
			t.Errorf("amount %d: err = %v, want ErrInvalidAmount", amount, err)
		}
		rs, _ := s.ListRecharges(context.Background(), ledger.RechargeFilter{})
		if len(rs) != 0 {
			t.Errorf("amount %d: %d recharges stored", amount, len(rs))
		}
	}
}

func TestApproveRecharge(t *testing.T) {
	ctx := context.Background()
	l, s := newLedger(t)
	withBalance(s, "alice", 40)

	r, err := l.SubmitRecharge(ctx, alice, 200, "TRX1", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := l.ApproveRecharge(ctx, admin, r.ID); err != nil {
		t.Fatalf("ApproveRecharge: %v", err)
	}
	if got := balanceOf(t, s, "alice"); got != 240 {
		t.Errorf("balance = %d, want 240", got)
	}
	stored, _ := s.GetRecharge(ctx, r.ID)
	if stored.Status != ledger.RechargeApproved {
		t.Errorf("status = %s, want approved", stored.Status)
	}

	// Second approval is a silent no-op.
	if err := l.ApproveRecharge(ctx, admin, r.ID); err != nil {
		t.Fatalf("second ApproveRecharge: %v", err)
	}
	if got := balanceOf(t, s, "alice"); got != 240 {
		t.Errorf("balance after re-approval = %d, want 240", got)
	}
}

func TestApproveRechargeErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing recharge", func(t *testing.T) {
		l, _ := newLedger(t)
		if err := l.ApproveRecharge(ctx, admin, "rch_nope"); !errors.Is(err, ledger.ErrRechargeMissing) {
			t.Fatalf("err = %v, want ErrRechargeMissing", err)
		}
	})

	t.Run("owner missing", func(t *testing.T) {
		l, s := newLedger(t)
		if err := s.CreateRecharge(ctx, &ledger.Recharge{ID: "rch_1", UserID: "ghost", Amount: 100, Status: ledger.RechargePending}); err != nil {
			t.Fatal(err)
		}
		if err := l.ApproveRecharge(ctx, admin, "rch_1"); !errors.Is(err, ledger.ErrUserMissing) {
			t.Fatalf("err = %v, want ErrUserMissing", err)
		}
		r, _ := s.GetRecharge(ctx, "rch_1")
		if r.Status != ledger.RechargePending {
			t.Errorf("status = %s, want pending", r.Status)
		}
	})

	t.Run("stored non-positive amount", func(t *testing.T) {
		l, s := newLedger(t)
		withBalance(s, "alice", 10)
		if err := s.CreateRecharge(ctx, &ledger.Recharge{ID: "rch_2", UserID: "alice", Amount: 0, Status: ledger.RechargePending}); err != nil {
			t.Fatal(err)
		}
		if err := l.ApproveRecharge(ctx, admin, "rch_2"); !errors.Is(err, ledger.ErrInvalidAmount) {
			t.Fatalf("err = %v, want ErrInvalidAmount", err)
		}
		if got := balanceOf(t, s, "alice"); got != 10 {
			t.Errorf("balance = %d, want 10", got)
		}
	})

	t.Run("not admin", func(t *testing.T) {
		l, s := newLedger(t)
		withBalance(s, "alice", 10)
		r, err := l.SubmitRecharge(ctx, alice, 100, "TRX", "")
		if err != nil {
			t.Fatal(err)
		}
		if err := l.ApproveRecharge(ctx, alice, r.ID); !errors.Is(err, ledger.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
		if got := balanceOf(t, s, "alice"); got != 10 {
			t.Errorf("balance = %d, want 10", got)
		}
	})
}

func TestApproveRechargeConcurrentCreditsOnce(t *testing.T) {
	ctx := context.Background()
	l, s := newLedger(t)
	withBalance(s, "alice", 0)
	r, err := l.SubmitRecharge(ctx, alice, 300, "TRX", "")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.ApproveRecharge(ctx, admin, r.ID); err != nil {
				t.Errorf("ApproveRecharge: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := balanceOf(t, s, "alice"); got != 300 {
		t.Errorf("balance = %d, want 300", got)
	}
}

func TestRechargeThenOrderScenario(t *testing.T) {
	ctx := context.Background()
	l, s := newLedger(t)
	if _, err := l.EnsureUserProfile(ctx, "alice", "alice@example.com", "Alice"); err != nil {
		t.Fatal(err)
	}

	if _, err := l.PlaceOrder(ctx, alice, signCopy, nidPayload); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("order on empty balance: err = %v", err)
	}
	r, err := l.SubmitRecharge(ctx, alice, 200, "TRX", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := l.ApproveRecharge(ctx, admin, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := l.PlaceOrder(ctx, alice, signCopy, nidPayload); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if _, err := l.PlaceOrder(ctx, alice, signCopy, nidPayload); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("second order: err = %v, want ErrInsufficientBalance", err)
	}
	if got := balanceOf(t, s, "alice"); got != 90 {
		t.Errorf("balance = %d, want 90", got)
	}
}

func TestStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(brokenStore{})

	checks := map[string]error{}
	_, checks["EnsureUserProfile"] = l.EnsureUserProfile(ctx, "alice", "", "")
	_, checks["PlaceOrder"] = l.PlaceOrder(ctx, alice, signCopy, nidPayload)
	_, checks["SubmitRecharge"] = l.SubmitRecharge(ctx, alice, 100, "TRX", "")
	checks["ApproveRecharge"] = l.ApproveRecharge(ctx, admin, "rch_1")

	for op, err := range checks {
		if !errors.Is(err, ledger.ErrStoreUnavailable) {
			t.Errorf("%s: err = %v, want ErrStoreUnavailable", op, err)
		}
		if !errors.Is(err, errBackend) {
			t.Errorf("%s: cause not preserved: %v", op, err)
		}
	}
}

func TestEventsEmittedAfterCommit(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	l, s := newLedger(t, ledger.WithEvents(sink), ledger.WithProducer("test-api"))
	withBalance(s, "alice", 0)

	r, err := l.SubmitRecharge(ledger.WithTrace(ctx, "req-1"), alice, 200, "TRX", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := l.ApproveRecharge(ctx, admin, r.ID); err != nil {
		t.Fatal(err)
	}
	if err := l.ApproveRecharge(ctx, admin, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := l.PlaceOrder(ctx, alice, signCopy, nidPayload); err != nil {
		t.Fatal(err)
	}
	// Failed operations emit nothing.
	_, _ = l.PlaceOrder(ctx, alice, signCopy, nidPayload)

	want := []string{ledger.EventRechargeSubmitted, ledger.EventRechargeApproved, ledger.EventOrderPlaced}
	got := sink.types()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}
	first := sink.events[0]
	if first.TraceID != "req-1" || first.Producer != "test-api" || first.UserID != "alice" || first.EventVersion != 1 {
		t.Errorf("envelope = %+v", first)
	}
	if sink.topics[1] != ledger.TopicRechargeApproved {
		t.Errorf("topic = %s, want %s", sink.topics[1], ledger.TopicRechargeApproved)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	l, s := newLedger(t, ledger.WithEvents(sink))
	withBalance(s, "alice", 200)

	if _, err := l.PlaceOrder(context.Background(), alice, signCopy, nidPayload); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if got := balanceOf(t, s, "alice"); got != 90 {
		t.Errorf("balance = %d, want 90", got)
	}
}
