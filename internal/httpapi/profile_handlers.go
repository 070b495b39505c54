package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/splitledger/internal/service"
)

type profileUpdateRequest struct {
	Department *string `json:"department"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
}

type addFriendRequest struct {
	Username string `json:"username"`
}

func (h *handler) getProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.Profiles.GetProfile(r.Context(), actor(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileJSON(view))
}

func (h *handler) updateProfile(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		view, err := h.Profiles.UpdateProfile(r.Context(), actor(r), service.ProfileUpdate{
			Department: req.Department,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
		}, partial)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileJSON(view))
	}
}

func (h *handler) listFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.Friends.ListFriends(r.Context(), actor(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFriendsJSON(friends))
}

func (h *handler) listFollowers(w http.ResponseWriter, r *http.Request) {
	followers, err := h.Friends.ListFollowers(r.Context(), actor(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFriendsJSON(followers))
}

func (h *handler) addFriend(w http.ResponseWriter, r *http.Request) {
	var req addFriendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	friend, err := h.Friends.AddFriend(r.Context(), actor(r), req.Username)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"detail": friend.Username() + " added as a friend.",
		"friend": toFriendJSON(friend),
	})
}

func (h *handler) removeFriend(w http.ResponseWriter, r *http.Request) {
	if err := h.Friends.RemoveFriend(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
