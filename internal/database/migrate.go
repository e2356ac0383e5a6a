package database

import (
	"database/sql"
	"fmt"
)

// Schema statements are idempotent so startup can apply them every run.
// The partial unique index on passes backs the one-active-pass-per-user
// invariant even if two creations race past the row-lock check.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(80) NOT NULL,
		email VARCHAR(120) NOT NULL UNIQUE,
		password VARCHAR(200) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'rider',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS routes (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		start_point VARCHAR(100) NOT NULL,
		end_point VARCHAR(100) NOT NULL,
		fare BIGINT NOT NULL CHECK (fare >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS buses (
		id SERIAL PRIMARY KEY,
		number VARCHAR(20) NOT NULL UNIQUE,
		driver_name VARCHAR(100),
		current_route INTEGER REFERENCES routes(id)
	)`,
	`CREATE TABLE IF NOT EXISTS passes (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		qr_token VARCHAR(500) UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_passes_one_active_per_user
		ON passes (user_id) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id SERIAL PRIMARY KEY,
		reference_id VARCHAR(64) NOT NULL UNIQUE,
		user_id INTEGER NOT NULL REFERENCES users(id),
		pass_id INTEGER NOT NULL REFERENCES passes(id),
		amount BIGINT NOT NULL CHECK (amount > 0),
		kind VARCHAR(20) NOT NULL CHECK (kind IN ('purchase', 'topup', 'fare_deduction')),
		route_id INTEGER REFERENCES routes(id),
		bus_id INTEGER REFERENCES buses(id),
		status VARCHAR(20) NOT NULL DEFAULT 'completed',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_created
		ON transactions (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_pass
		ON transactions (pass_id)`,
}

// Migrate applies the schema. Transactions are append-only; no statement
// here ever alters or removes ledger rows.
func Migrate(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
