package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Actor is an authenticated identity resolved to its profile.
// It is built once per request at the authorization boundary.
type Actor struct {
	UserID   string
	Username string
	Profile  *models.Profile
}

// ProfileID returns the actor's profile ID.
func (a Actor) ProfileID() string {
	return a.Profile.ID
}

// ActorResolver resolves an authenticated user to an Actor.
type ActorResolver struct {
	profiles storage.ProfileStore
}

// NewActorResolver creates a resolver over the given profile store.
func NewActorResolver(profiles storage.ProfileStore) *ActorResolver {
	return &ActorResolver{profiles: profiles}
}

// Resolve loads the user's profile. A user without a profile is denied.
func (r *ActorResolver) Resolve(ctx context.Context, userID, username string) (Actor, error) {
	profile, found, err := r.profiles.FindProfileByUser(ctx, userID)
	if err != nil {
		return Actor{}, internalError(err)
	}
	if !found {
		return Actor{}, newError(KindPermissionDenied, "Profile does not exist.")
	}
	return Actor{UserID: userID, Username: username, Profile: profile}, nil
}

// requireOwner allows the mutation only when the actor owns the expense.
// The expense must already have been loaded through a visibility-scoped lookup.
func requireOwner(expense *models.Expense, actor Actor, detail string) error {
	if expense.OwnerID != actor.ProfileID() {
		return newError(KindPermissionDenied, "%s", detail)
	}
	return nil
}

// notFoundOr converts storage.ErrNotFound into a NotFound error and anything else into Internal.
func notFoundOr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return newError(KindNotFound, "Not found.")
	}
	return internalError(err)
}

// maxAmount is the largest value that fits ten digits with two decimals.
var maxAmount = decimal.RequireFromString("99999999.99")

// checkAmount validates a money amount and records problems under field.
func checkAmount(fe fieldErrors, field string, amount decimal.Decimal) {
	switch {
	case !amount.IsPositive():
		fe.add(field, "Ensure this value is greater than 0.")
	case !amount.Equal(amount.Round(2)):
		fe.add(field, "Ensure that there are no more than 2 decimal places.")
	case amount.GreaterThan(maxAmount):
		fe.add(field, fmt.Sprintf("Ensure this value is less than or equal to %s.", maxAmount.StringFixed(2)))
	}
}
