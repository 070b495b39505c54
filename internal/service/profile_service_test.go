package service

import (
	"context"
	"testing"
)

func TestProfile(t *testing.T) {
	store := newTestStore(t)
	svc := NewProfileService(store, discardLogger)
	friends := NewFriendService(store, discardLogger)
	alice := newActor(t, store, "alice")
	newActor(t, store, "bob")
	ctx := context.Background()

	if _, err := friends.AddFriend(ctx, alice, "bob"); err != nil {
		t.Fatalf("AddFriend failed: %v", err)
	}

	t.Run("get", func(t *testing.T) {
		view, err := svc.GetProfile(ctx, alice)
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if view.Profile.Username() != "alice" {
			t.Errorf("username: got %q", view.Profile.Username())
		}
		if len(view.Friends) != 1 || view.Friends[0].Username() != "bob" {
			t.Errorf("friends: got %d", len(view.Friends))
		}
	})

	t.Run("full update requires department", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, alice, ProfileUpdate{FirstName: ptr("Alice")}, false)
		wantKind(t, err, KindValidation)
		if _, ok := err.(*Error).Fields["department"]; !ok {
			t.Errorf("expected department error, got %v", err.(*Error).Fields)
		}
	})

	t.Run("full update", func(t *testing.T) {
		view, err := svc.UpdateProfile(ctx, alice, ProfileUpdate{
			Department: ptr("Physics"),
			FirstName:  ptr("Alice"),
			LastName:   ptr("Liddell"),
		}, false)
		if err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}
		p := view.Profile
		if p.Department != "Physics" || p.User.FirstName != "Alice" || p.User.LastName != "Liddell" {
			t.Errorf("unexpected profile: %+v %+v", p, p.User)
		}
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		view, err := svc.UpdateProfile(ctx, alice, ProfileUpdate{LastName: ptr("Smith")}, true)
		if err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}
		p := view.Profile
		if p.Department != "Physics" || p.User.FirstName != "Alice" || p.User.LastName != "Smith" {
			t.Errorf("unexpected profile: %+v %+v", p, p.User)
		}
	})

	t.Run("department too long", func(t *testing.T) {
		long := make([]byte, 101)
		for i := range long {
			long[i] = 'a'
		}
		_, err := svc.UpdateProfile(ctx, alice, ProfileUpdate{Department: ptr(string(long))}, true)
		wantKind(t, err, KindValidation)
	})
}
