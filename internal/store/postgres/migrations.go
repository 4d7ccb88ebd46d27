package postgres

import (
	"context"

	"github.com/uptrace/bun"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	role TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS services (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price_cents BIGINT NOT NULL DEFAULT 0,
	provider_id UUID NOT NULL REFERENCES users(id),
	status TEXT NOT NULL DEFAULT 'ACTIVE',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reservations (
	id UUID PRIMARY KEY,
	customer_id UUID NOT NULL REFERENCES users(id),
	provider_id UUID NOT NULL REFERENCES users(id),
	service_id UUID NOT NULL REFERENCES services(id),
	date DATE NOT NULL,
	time_of_day TIME NOT NULL,
	status TEXT NOT NULL DEFAULT 'PENDING',
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reservations_customer ON reservations(customer_id);
CREATE INDEX IF NOT EXISTS idx_reservations_provider_status ON reservations(provider_id, status);
`

func Migrate(ctx context.Context, db bun.IDB) error {
	_, err := db.ExecContext(ctx, schemaSQL)
	return err
}
