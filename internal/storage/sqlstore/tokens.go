package sqlstore

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken records a refresh-token id as revoked until expiresAt.
// Revoking the same id twice is not an error.
func (s *SQLStore) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	_, err := s.exec(ctx,
		`INSERT INTO revoked_tokens (token_id, expires_at) VALUES (?, ?) ON CONFLICT (token_id) DO NOTHING`,
		tokenID, expiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether the token id was revoked.
func (s *SQLStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var n int
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM revoked_tokens WHERE token_id = ?`, tokenID); err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return n > 0, nil
}

// PurgeExpiredTokens deletes revocation records whose tokens have expired anyway.
func (s *SQLStore) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge tokens: %w", err)
	}
	return res.RowsAffected()
}
