package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestStore opens a fresh SQLite database in a temp directory.
func newTestStore(t *testing.T) *sqlstore.SQLStore {
	t.Helper()

	store, err := sqlstore.New(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// newActor registers username and resolves it the way the auth boundary does.
func newActor(t *testing.T, store *sqlstore.SQLStore, username string) Actor {
	t.Helper()

	authn := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	user, _, err := authn.Register(context.Background(), username, username+"@example.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}

	actor, err := NewActorResolver(store).Resolve(context.Background(), user.ID, user.Username)
	if err != nil {
		t.Fatalf("resolve %s: %v", username, err)
	}
	return actor
}

func wantKind(t *testing.T, err error, want Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *service.Error, got %T: %v", err, err)
	}
	if se.Kind != want {
		t.Fatalf("kind: expected %s, got %s (%v)", want, se.Kind, err)
	}
}

func ptr[T any](v T) *T { return &v }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
