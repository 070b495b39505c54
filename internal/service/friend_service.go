package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// FriendService manages the directed friend graph. Adding A->B never creates B->A.
type FriendService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewFriendService creates a new FriendService with the given storage backend.
func NewFriendService(store storage.Store, logger *slog.Logger) *FriendService {
	return &FriendService{store: store, logger: logger}
}

// ListFriends returns the actor's outgoing edges.
func (s *FriendService) ListFriends(ctx context.Context, actor Actor) ([]*models.Profile, error) {
	friends, err := s.store.ListFriends(ctx, actor.ProfileID())
	if err != nil {
		s.logger.Error("ListFriends failed", "profile_id", actor.ProfileID(), "error", err)
		return nil, internalError(err)
	}
	return friends, nil
}

// ListFollowers returns the profiles that list the actor as a friend.
func (s *FriendService) ListFollowers(ctx context.Context, actor Actor) ([]*models.Profile, error) {
	followers, err := s.store.ListFollowers(ctx, actor.ProfileID())
	if err != nil {
		s.logger.Error("ListFollowers failed", "profile_id", actor.ProfileID(), "error", err)
		return nil, internalError(err)
	}
	return followers, nil
}

// AddFriend inserts the edge actor->target, resolving target by username.
func (s *FriendService) AddFriend(ctx context.Context, actor Actor, username string) (*models.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, newError(KindValidation, "Username is required.")
	}

	var target *models.Profile
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		user, err := tx.GetUserByUsername(ctx, username)
		if errors.Is(err, storage.ErrNotFound) {
			return newError(KindNotFound, "User not found or has no profile.")
		}
		if err != nil {
			return err
		}

		profile, found, err := tx.FindProfileByUser(ctx, user.ID)
		if err != nil {
			return err
		}
		if !found {
			return newError(KindNotFound, "User not found or has no profile.")
		}
		if profile.ID == actor.ProfileID() {
			return newError(KindValidation, "You cannot add yourself as a friend.")
		}

		exists, err := tx.HasFriend(ctx, actor.ProfileID(), profile.ID)
		if err != nil {
			return err
		}
		if exists {
			return newError(KindConflict, "Already friends.")
		}

		if err := tx.AddFriend(ctx, actor.ProfileID(), profile.ID); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return newError(KindConflict, "Already friends.")
			}
			return err
		}
		target = profile
		return nil
	})
	if err != nil {
		s.logger.Warn("AddFriend rejected", "profile_id", actor.ProfileID(), "username", username, "error", err)
		return nil, storeError(err)
	}

	metrics.RecordLedgerOp("friend_add")
	s.logger.Info("Friend added", "profile_id", actor.ProfileID(), "friend_id", target.ID)
	return target, nil
}

// RemoveFriend deletes the edge actor->target. Removing an absent edge is an error.
func (s *FriendService) RemoveFriend(ctx context.Context, actor Actor, targetID string) error {
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetProfile(ctx, targetID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return newError(KindNotFound, "Profile not found.")
			}
			return err
		}

		err := tx.RemoveFriend(ctx, actor.ProfileID(), targetID)
		if errors.Is(err, storage.ErrNotFound) {
			return newError(KindInvalidOperation, "Not in your friends list.")
		}
		return err
	})
	if err != nil {
		s.logger.Warn("RemoveFriend rejected", "profile_id", actor.ProfileID(), "friend_id", targetID, "error", err)
		return storeError(err)
	}

	metrics.RecordLedgerOp("friend_remove")
	s.logger.Info("Friend removed", "profile_id", actor.ProfileID(), "friend_id", targetID)
	return nil
}
