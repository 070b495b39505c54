package service

import (
	"context"
	"testing"
)

func TestFriends(t *testing.T) {
	store := newTestStore(t)
	svc := NewFriendService(store, discardLogger)
	alice := newActor(t, store, "alice")
	bob := newActor(t, store, "bob")
	ctx := context.Background()

	t.Run("add is directed", func(t *testing.T) {
		added, err := svc.AddFriend(ctx, alice, "bob")
		if err != nil {
			t.Fatalf("AddFriend failed: %v", err)
		}
		if added.ID != bob.ProfileID() {
			t.Errorf("added: expected %s, got %s", bob.ProfileID(), added.ID)
		}

		friends, err := svc.ListFriends(ctx, alice)
		if err != nil {
			t.Fatalf("ListFriends failed: %v", err)
		}
		if len(friends) != 1 || friends[0].Username() != "bob" {
			t.Errorf("alice friends: got %d", len(friends))
		}

		back, err := svc.ListFriends(ctx, bob)
		if err != nil {
			t.Fatalf("ListFriends failed: %v", err)
		}
		if len(back) != 0 {
			t.Errorf("bob friends: expected none, got %d", len(back))
		}

		followers, err := svc.ListFollowers(ctx, bob)
		if err != nil {
			t.Fatalf("ListFollowers failed: %v", err)
		}
		if len(followers) != 1 || followers[0].ID != alice.ProfileID() {
			t.Errorf("bob followers: got %d", len(followers))
		}
	})

	t.Run("add twice conflicts", func(t *testing.T) {
		_, err := svc.AddFriend(ctx, alice, "bob")
		wantKind(t, err, KindConflict)
	})

	t.Run("add self", func(t *testing.T) {
		_, err := svc.AddFriend(ctx, alice, "alice")
		wantKind(t, err, KindValidation)
	})

	t.Run("add unknown", func(t *testing.T) {
		_, err := svc.AddFriend(ctx, alice, "nobody")
		wantKind(t, err, KindNotFound)
	})

	t.Run("add without username", func(t *testing.T) {
		_, err := svc.AddFriend(ctx, alice, "  ")
		wantKind(t, err, KindValidation)
	})

	t.Run("remove absent edge", func(t *testing.T) {
		wantKind(t, svc.RemoveFriend(ctx, bob, alice.ProfileID()), KindInvalidOperation)
	})

	t.Run("remove unknown profile", func(t *testing.T) {
		wantKind(t, svc.RemoveFriend(ctx, alice, "no-such-profile"), KindNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		if err := svc.RemoveFriend(ctx, alice, bob.ProfileID()); err != nil {
			t.Fatalf("RemoveFriend failed: %v", err)
		}
		friends, _ := svc.ListFriends(ctx, alice)
		if len(friends) != 0 {
			t.Errorf("expected no friends, got %d", len(friends))
		}
		wantKind(t, svc.RemoveFriend(ctx, alice, bob.ProfileID()), KindInvalidOperation)
	})
}
