// Package middleware provides HTTP middleware for authentication, profile
// resolution, request logging and rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/service"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// UsernameKey is the context key for storing the authenticated username.
	UsernameKey contextKey = "username"
	// ActorKey is the context key for storing the resolved service.Actor.
	ActorKey contextKey = "actor"
)

// ErrorWriter renders an error response. The HTTP layer supplies it so that
// middleware failures share the API's error body.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetUsername extracts the username from the context.
// Returns empty string if not found.
func GetUsername(ctx context.Context) string {
	username, _ := ctx.Value(UsernameKey).(string)
	return username
}

// GetActor returns the actor stored by RequireProfile.
func GetActor(ctx context.Context) (service.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(service.Actor)
	return actor, ok
}

// RequireAuth returns a middleware that validates access tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the user ID and username to the request context.
func RequireAuth(jwtManager *auth.JWTManager, writeError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, r, unauthenticated(auth.ErrMissingToken, "Authentication credentials were not provided."))
				return
			}

			// Parse Bearer token
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, r, unauthenticated(auth.ErrInvalidToken, "Authorization header must contain two space-delimited values."))
				return
			}

			// Validate token
			claims, err := jwtManager.Validate(parts[1], auth.AccessToken)
			if err != nil {
				writeError(w, r, unauthenticated(err, "Given token not valid for any token type"))
				return
			}

			recordUser(r.Context(), claims.UserID)

			// Add user info to context
			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UsernameKey, claims.Username)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireProfile resolves the authenticated user to its profile once per request.
// It must run after RequireAuth. A user without a profile is denied.
func RequireProfile(resolver *service.ActorResolver, writeError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				writeError(w, r, unauthenticated(auth.ErrMissingToken, "Authentication credentials were not provided."))
				return
			}

			actor, err := resolver.Resolve(r.Context(), userID, GetUsername(r.Context()))
			if err != nil {
				writeError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ActorKey, actor)))
		})
	}
}

func unauthenticated(cause error, detail string) error {
	return &service.Error{Kind: service.KindUnauthenticated, Detail: detail, Err: cause}
}
