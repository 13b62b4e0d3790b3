package postgres

import (
	"context"
	"fmt"
)

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "create_users",
		sql: `
CREATE TABLE IF NOT EXISTS users (
    id          TEXT PRIMARY KEY,
    email       TEXT NOT NULL DEFAULT '',
    full_name   TEXT NOT NULL DEFAULT '',
    balance     BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    role        TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	},
	{
		name: "create_services",
		sql: `
CREATE TABLE IF NOT EXISTS services (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    slug        TEXT NOT NULL UNIQUE,
    price       BIGINT NOT NULL CHECK (price > 0),
    description TEXT NOT NULL DEFAULT '',
    color       TEXT NOT NULL DEFAULT '',
    icon        TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	},
	{
		name: "create_orders",
		sql: `
CREATE TABLE IF NOT EXISTS orders (
    id            TEXT PRIMARY KEY,
    user_id       TEXT NOT NULL REFERENCES users (id),
    service_slug  TEXT NOT NULL,
    service_title TEXT NOT NULL DEFAULT '',
    price         BIGINT NOT NULL CHECK (price > 0),
    payload       JSONB NOT NULL DEFAULT '{}',
    status        TEXT NOT NULL DEFAULT 'pending'
                  CHECK (status IN ('pending', 'processing', 'done', 'rejected')),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_orders_created ON orders (created_at DESC);`,
	},
	{
		name: "create_recharges",
		sql: `
CREATE TABLE IF NOT EXISTS recharges (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL REFERENCES users (id),
    amount      BIGINT NOT NULL CHECK (amount > 0),
    trx_id      TEXT NOT NULL DEFAULT '',
    note        TEXT NOT NULL DEFAULT '',
    method      TEXT NOT NULL DEFAULT 'bKash',
    status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved')),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_recharges_user_created ON recharges (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_recharges_status_created ON recharges (status, created_at DESC);`,
	},
}

// Migrate creates the ledger tables. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.DB.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("postgres: migrate %s: %w", m.name, err)
		}
	}
	return nil
}
