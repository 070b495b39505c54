package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", 5*time.Minute, 24*time.Hour)
	user := &models.User{ID: "user-1", Username: "alice"}

	pair, err := m.GeneratePair(user)
	if err != nil {
		t.Fatalf("GeneratePair failed: %v", err)
	}

	t.Run("access token validates as access", func(t *testing.T) {
		claims, err := m.Validate(pair.Access, AccessToken)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.UserID != "user-1" || claims.Username != "alice" {
			t.Errorf("claims = %+v", claims)
		}
		if claims.ID == "" {
			t.Error("expected token id")
		}
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		if _, err := m.Validate(pair.Refresh, AccessToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("refresh issues new access", func(t *testing.T) {
		claims, err := m.Validate(pair.Refresh, RefreshToken)
		if err != nil {
			t.Fatalf("Validate refresh failed: %v", err)
		}
		access, err := m.GenerateAccess(claims)
		if err != nil {
			t.Fatalf("GenerateAccess failed: %v", err)
		}
		got, err := m.Validate(access, AccessToken)
		if err != nil {
			t.Fatalf("Validate new access failed: %v", err)
		}
		if got.UserID != "user-1" {
			t.Errorf("UserID = %s, want user-1", got.UserID)
		}
	})

	t.Run("other secret rejected", func(t *testing.T) {
		other := NewJWTManager("another-secret", time.Minute, time.Minute)
		if _, err := other.Validate(pair.Access, AccessToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		m.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
		defer func() { m.now = time.Now }()

		if _, err := m.Validate(pair.Access, AccessToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := m.Validate("not-a-jwt", AccessToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})
}
