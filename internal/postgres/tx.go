package postgres

import (
	"context"
	"encoding/json"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
	"github.com/jackc/pgx/v5"
)

type pgTx struct{ tx pgx.Tx }

// Row locks serialize concurrent debits and credits on the same user and
// concurrent approvals of the same recharge.
func (t *pgTx) GetUser(ctx context.Context, id string) (*ledger.User, error) {
	return getUser(ctx, t.tx, `SELECT `+userCols+` FROM users WHERE id=$1 FOR UPDATE`, id)
}

func (t *pgTx) GetService(ctx context.Context, slug string) (*ledger.Service, error) {
	return scanService(t.tx.QueryRow(ctx, `SELECT `+serviceCols+` FROM services WHERE slug=$1 FOR SHARE`, slug))
}

func (t *pgTx) GetRecharge(ctx context.Context, id string) (*ledger.Recharge, error) {
	return scanRecharge(t.tx.QueryRow(ctx, `SELECT `+rechargeCols+` FROM recharges WHERE id=$1 FOR UPDATE`, id))
}

func (t *pgTx) GetOrder(ctx context.Context, id string) (*ledger.Order, error) {
	return scanOrder(t.tx.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1 FOR UPDATE`, id))
}

func (t *pgTx) SetBalance(ctx context.Context, userID string, balance int64) error {
	ct, err := t.tx.Exec(ctx, `UPDATE users SET balance=$2 WHERE id=$1`, userID, balance)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return ledger.ErrNotFound
	}
	return nil
}

func (t *pgTx) CreateOrder(ctx context.Context, o *ledger.Order) error {
	payload, err := json.Marshal(o.Payload)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, service_slug, service_title, price, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.UserID, o.ServiceSlug, o.ServiceTitle, o.Price, payload, string(o.Status), o.CreatedAt)
	return mapErr(err)
}

func (t *pgTx) SetRechargeStatus(ctx context.Context, id string, s ledger.RechargeStatus) error {
	ct, err := t.tx.Exec(ctx, `UPDATE recharges SET status=$2 WHERE id=$1`, id, string(s))
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return ledger.ErrNotFound
	}
	return nil
}

func (t *pgTx) SetOrderStatus(ctx context.Context, id string, s ledger.OrderStatus) error {
	ct, err := t.tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, id, string(s))
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return ledger.ErrNotFound
	}
	return nil
}
