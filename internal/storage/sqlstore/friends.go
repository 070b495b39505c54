package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// HasFriend reports whether the directed edge owner->target exists.
func (s *SQLStore) HasFriend(ctx context.Context, ownerID, targetID string) (bool, error) {
	var n int
	err := s.get(ctx, &n,
		`SELECT COUNT(*) FROM friends WHERE owner_id = ? AND friend_id = ?`,
		ownerID, targetID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check friend edge: %w", err)
	}
	return n > 0, nil
}

// AddFriend inserts the directed edge owner->target.
func (s *SQLStore) AddFriend(ctx context.Context, ownerID, targetID string) error {
	_, err := s.exec(ctx,
		`INSERT INTO friends (owner_id, friend_id, created_at) VALUES (?, ?, ?)`,
		ownerID, targetID, time.Now().Unix(),
	)
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("friend edge %s->%s: %w", ownerID, targetID, storage.ErrDuplicate)
	case isForeignKeyViolation(err):
		return fmt.Errorf("friend edge %s->%s: %w", ownerID, targetID, storage.ErrNotFound)
	case err != nil:
		return fmt.Errorf("failed to add friend: %w", err)
	}
	return nil
}

// RemoveFriend deletes the directed edge owner->target.
func (s *SQLStore) RemoveFriend(ctx context.Context, ownerID, targetID string) error {
	res, err := s.exec(ctx,
		`DELETE FROM friends WHERE owner_id = ? AND friend_id = ?`,
		ownerID, targetID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	return expectAffected(res, "friend edge", ownerID+"->"+targetID)
}

// ListFriends returns the profiles ownerID has an edge to, ordered by username.
func (s *SQLStore) ListFriends(ctx context.Context, ownerID string) ([]*models.Profile, error) {
	var rows []profileRow
	err := s.selectAll(ctx, &rows,
		profileSelect+`
JOIN friends f ON f.friend_id = p.id
WHERE f.owner_id = ?
ORDER BY u.username`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return rowsToProfiles(rows), nil
}

// ListFollowers returns the profiles that have an edge to targetID, ordered by username.
func (s *SQLStore) ListFollowers(ctx context.Context, targetID string) ([]*models.Profile, error) {
	var rows []profileRow
	err := s.selectAll(ctx, &rows,
		profileSelect+`
JOIN friends f ON f.owner_id = p.id
WHERE f.friend_id = ?
ORDER BY u.username`,
		targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	return rowsToProfiles(rows), nil
}
