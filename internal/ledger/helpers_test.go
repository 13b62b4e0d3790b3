package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
	"github.com/ariefcatur/go-eservice-ledger/internal/memstore"
)

var (
	alice = ledger.Session{UserID: "alice", Email: "alice@example.com", Role: ledger.RoleUser}
	admin = ledger.Session{UserID: "root", Email: "root@example.com", Role: ledger.RoleAdmin}

	signCopy = ledger.Service{Title: "Sign Copy (সাইন কপি)", Slug: "sign-copy", Price: 110}
	nidPDF   = ledger.Service{Title: "NID PDF", Slug: "nid-pdf", Price: 80}

	nidPayload = ledger.Payload{Type: "nid", IDNumber: "123", Details: "x"}
)

// tickingClock advances one second per call so listings have a stable order.
func tickingClock() func() time.Time {
	var (
		mu sync.Mutex
		t  = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type recordingSink struct {
	mu     sync.Mutex
	topics []string
	events []ledger.Envelope
	err    error
}

func (r *recordingSink) Publish(_ context.Context, topic string, env ledger.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, env)
	return r.err
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

// brokenStore fails every call that reaches the backend.
type brokenStore struct {
	ledger.Store
}

var errBackend = errors.New("dial tcp: connection refused")

func (brokenStore) RunTx(context.Context, ledger.TxFunc) error { return errBackend }
func (brokenStore) CreateRecharge(context.Context, *ledger.Recharge) error {
	return errBackend
}
func (brokenStore) CreateUserIfAbsent(context.Context, *ledger.User) (*ledger.User, bool, error) {
	return nil, false, errBackend
}
func (brokenStore) GetServiceBySlug(context.Context, string) (*ledger.Service, error) {
	return nil, errBackend
}
func (brokenStore) ListServices(context.Context, ledger.ServiceListOpts) ([]*ledger.Service, error) {
	return nil, errBackend
}

func newLedger(t *testing.T, opts ...ledger.Option) (*ledger.Ledger, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	opts = append([]ledger.Option{ledger.WithClock(tickingClock())}, opts...)
	return ledger.New(s, opts...), s
}

func withBalance(s *memstore.Store, id string, balance int64) {
	s.PutUser(ledger.User{ID: id, Email: id + "@example.com", Balance: balance, Role: ledger.RoleUser})
}

func balanceOf(t *testing.T, s *memstore.Store, id string) int64 {
	t.Helper()
	u, err := s.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("GetUser(%s): %v", id, err)
	}
	return u.Balance
}
