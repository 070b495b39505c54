package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const (
	maxDepartmentLen = 100
	maxNameLen       = 150
)

// ProfileService serves the caller's own profile.
type ProfileService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewProfileService creates a new ProfileService with the given storage backend.
func NewProfileService(store storage.Store, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: store, logger: logger}
}

// ProfileView is a profile together with its outgoing friends.
type ProfileView struct {
	Profile *models.Profile
	Friends []*models.Profile
}

// ProfileUpdate carries the editable profile fields. Nil means "not supplied".
type ProfileUpdate struct {
	Department *string
	FirstName  *string
	LastName   *string
}

// GetProfile returns the actor's profile and friends.
func (s *ProfileService) GetProfile(ctx context.Context, actor Actor) (*ProfileView, error) {
	return s.view(ctx, s.store, actor.ProfileID())
}

// UpdateProfile applies upd. A full update (partial=false) requires the department.
// The wallet balance is never writable here.
func (s *ProfileService) UpdateProfile(ctx context.Context, actor Actor, upd ProfileUpdate, partial bool) (*ProfileView, error) {
	fe := fieldErrors{}
	if !partial && upd.Department == nil {
		fe.add("department", "This field is required.")
	}
	if upd.Department != nil {
		switch d := strings.TrimSpace(*upd.Department); {
		case d == "":
			fe.add("department", "This field may not be blank.")
		case utf8.RuneCountInString(d) > maxDepartmentLen:
			fe.add("department", "Ensure this field has no more than 100 characters.")
		}
	}
	for field, v := range map[string]*string{"first_name": upd.FirstName, "last_name": upd.LastName} {
		if v != nil && utf8.RuneCountInString(*v) > maxNameLen {
			fe.add(field, "Ensure this field has no more than 150 characters.")
		}
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	var view *ProfileView
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		if upd.Department != nil {
			if err := tx.UpdateDepartment(ctx, actor.ProfileID(), strings.TrimSpace(*upd.Department)); err != nil {
				return err
			}
		}
		if upd.FirstName != nil || upd.LastName != nil {
			user, err := tx.GetUserByID(ctx, actor.UserID)
			if err != nil {
				return err
			}
			first, last := user.FirstName, user.LastName
			if upd.FirstName != nil {
				first = strings.TrimSpace(*upd.FirstName)
			}
			if upd.LastName != nil {
				last = strings.TrimSpace(*upd.LastName)
			}
			if err := tx.UpdateUserNames(ctx, actor.UserID, first, last); err != nil {
				return err
			}
		}

		var err error
		view, err = s.view(ctx, tx, actor.ProfileID())
		return err
	})
	if err != nil {
		s.logger.Error("UpdateProfile failed", "profile_id", actor.ProfileID(), "error", err)
		return nil, storeError(err)
	}

	s.logger.Info("Profile updated", "profile_id", actor.ProfileID())
	return view, nil
}

func (s *ProfileService) view(ctx context.Context, store storage.Store, profileID string) (*ProfileView, error) {
	profile, err := store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	friends, err := store.ListFriends(ctx, profileID)
	if err != nil {
		return nil, internalError(err)
	}
	return &ProfileView{Profile: profile, Friends: friends}, nil
}
