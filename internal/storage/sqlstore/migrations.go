package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on startup. Every statement is idempotent and
// valid for both SQLite and PostgreSQL. Money columns are TEXT holding the
// canonical two-decimal representation; timestamps are BIGINT.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL UNIQUE,
    department TEXT NOT NULL DEFAULT '',
    wallet_balance TEXT NOT NULL DEFAULT '0.00',
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS friends (
    owner_id TEXT NOT NULL,
    friend_id TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    PRIMARY KEY (owner_id, friend_id),
    CHECK (owner_id <> friend_id),
    FOREIGN KEY (owner_id) REFERENCES profiles(id) ON DELETE CASCADE,
    FOREIGN KEY (friend_id) REFERENCES profiles(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    title TEXT NOT NULL,
    amount TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    FOREIGN KEY (owner_id) REFERENCES profiles(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS expense_participants (
    expense_id TEXT NOT NULL,
    profile_id TEXT NOT NULL,
    PRIMARY KEY (expense_id, profile_id),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE,
    FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS expense_shares (
    id TEXT PRIMARY KEY,
    expense_id TEXT NOT NULL,
    payee_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE,
    FOREIGN KEY (payee_id) REFERENCES profiles(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS revoked_tokens (
    token_id TEXT PRIMARY KEY,
    expires_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_friends_friend_id ON friends(friend_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_owner_id ON expenses(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_participants_profile_id ON expense_participants(profile_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_shares_expense_id ON expense_shares(expense_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_shares_payee_id ON expense_shares(payee_id)`,
}

// Migrate executes the schema setup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
