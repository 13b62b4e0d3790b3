package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ledger.Store = (*Store)(nil)

// Store implements ledger.Store on PostgreSQL. Transactions lock the user,
// order and recharge rows they read with SELECT ... FOR UPDATE.
type Store struct{ DB *pgxpool.Pool }

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	userCols     = `id, email, full_name, balance, role, created_at`
	serviceCols  = `id, title, slug, price, description, color, icon, created_at`
	orderCols    = `id, user_id, service_slug, service_title, price, payload, status, created_at`
	rechargeCols = `id, user_id, amount, trx_id, note, method, status, created_at`
)

func (s *Store) RunTx(ctx context.Context, fn ledger.TxFunc) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err // rollback via defer
	}
	return tx.Commit(ctx)
}

func (s *Store) GetUser(ctx context.Context, id string) (*ledger.User, error) {
	return getUser(ctx, s.DB, `SELECT `+userCols+` FROM users WHERE id=$1`, id)
}

func (s *Store) CreateUserIfAbsent(ctx context.Context, u *ledger.User) (*ledger.User, bool, error) {
	ct, err := s.DB.Exec(ctx, `
		INSERT INTO users (id, email, full_name, balance, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		u.ID, u.Email, u.FullName, u.Balance, string(u.Role), u.CreatedAt)
	if err != nil {
		return nil, false, mapErr(err)
	}
	stored, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, ct.RowsAffected() == 1, nil
}

func (s *Store) SetUserRole(ctx context.Context, id string, role ledger.Role) error {
	ct, err := s.DB.Exec(ctx, `UPDATE users SET role=$2 WHERE id=$1`, id, string(role))
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) GetServiceBySlug(ctx context.Context, slug string) (*ledger.Service, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+serviceCols+` FROM services WHERE slug=$1`, slug)
	return scanService(row)
}

func (s *Store) ListServices(ctx context.Context, opts ledger.ServiceListOpts) ([]*ledger.Service, error) {
	order := `created_at, id`
	if opts.SortBySlug {
		order = `slug`
	}
	rows, err := s.DB.Query(ctx, `SELECT `+serviceCols+` FROM services ORDER BY `+order)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (s *Store) CreateService(ctx context.Context, svc *ledger.Service) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO services (id, title, slug, price, description, color, icon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		svc.ID, svc.Title, svc.Slug, svc.Price, svc.Desc, svc.Color, svc.Icon, svc.CreatedAt)
	return mapErr(err)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*ledger.Order, error) {
	return scanOrder(s.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
}

func (s *Store) ListOrders(ctx context.Context, f ledger.OrderFilter) ([]*ledger.Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if f.UserID != "" {
		rows, err = s.DB.Query(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, f.UserID)
	} else {
		rows, err = s.DB.Query(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC, id DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) CreateRecharge(ctx context.Context, r *ledger.Recharge) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO recharges (id, user_id, amount, trx_id, note, method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.UserID, r.Amount, r.TrxID, r.Note, r.Method, string(r.Status), r.CreatedAt)
	return mapErr(err)
}

func (s *Store) GetRecharge(ctx context.Context, id string) (*ledger.Recharge, error) {
	return scanRecharge(s.DB.QueryRow(ctx, `SELECT `+rechargeCols+` FROM recharges WHERE id=$1`, id))
}

func (s *Store) ListRecharges(ctx context.Context, f ledger.RechargeFilter) ([]*ledger.Recharge, error) {
	q, args := rechargeQuery(f)
	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.Recharge
	for rows.Next() {
		r, err := scanRecharge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.Ping(ctx) }

func (s *Store) Close() error {
	s.DB.Close()
	return nil
}

func getUser(ctx context.Context, q querier, sql, id string) (*ledger.User, error) {
	var (
		u    ledger.User
		role string
	)
	err := q.QueryRow(ctx, sql, id).Scan(&u.ID, &u.Email, &u.FullName, &u.Balance, &role, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	u.Role = ledger.Role(role)
	return &u, nil
}

// rechargeQuery builds the listing query for f, newest first.
func rechargeQuery(f ledger.RechargeFilter) (string, []any) {
	q := `SELECT ` + rechargeCols + ` FROM recharges WHERE 1=1`
	args := make([]any, 0, 2)
	if f.UserID != "" {
		args = append(args, f.UserID)
		q += fmt.Sprintf(" AND user_id=$%d", len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		q += fmt.Sprintf(" AND status=$%d", len(args))
	}
	return q + ` ORDER BY created_at DESC, id DESC`, args
}

func scanService(row pgx.Row) (*ledger.Service, error) {
	var svc ledger.Service
	if err := row.Scan(&svc.ID, &svc.Title, &svc.Slug, &svc.Price, &svc.Desc, &svc.Color, &svc.Icon, &svc.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &svc, nil
}

func scanOrder(row pgx.Row) (*ledger.Order, error) {
	var (
		o       ledger.Order
		payload []byte
		status  string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.ServiceSlug, &o.ServiceTitle, &o.Price, &payload, &status, &o.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	if err := json.Unmarshal(payload, &o.Payload); err != nil {
		return nil, fmt.Errorf("postgres: decode order %s payload: %w", o.ID, err)
	}
	o.Status = ledger.OrderStatus(status)
	return &o, nil
}

func scanRecharge(row pgx.Row) (*ledger.Recharge, error) {
	var (
		r      ledger.Recharge
		status string
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.Amount, &r.TrxID, &r.Note, &r.Method, &status, &r.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	r.Status = ledger.RechargeStatus(status)
	return &r, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ledger.ErrAlreadyExists
	}
	return err
}
