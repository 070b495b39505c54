package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestLogger returns a middleware that logs every request.
// It logs the method, path, status, user ID and duration; 5xx responses are logged at error level.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// The auth middleware runs deeper in the chain, so the user ID is
			// reported through a holder it fills in.
			holder := &userHolder{}
			next.ServeHTTP(ww, r.WithContext(withUserHolder(r.Context(), holder)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
				"user_id", holder.userID,
				"duration_ms", time.Since(start).Milliseconds(),
			}

			switch {
			case status >= 500:
				logger.Error("HTTP error", attrs...)
			case status >= 400:
				logger.Warn("HTTP rejected", attrs...)
			default:
				logger.Info("HTTP ok", attrs...)
			}
		})
	}
}

const holderKey contextKey = "user_holder"

type userHolder struct {
	userID string
}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, holderKey, h)
}

// recordUser reports the authenticated user to an enclosing RequestLogger.
func recordUser(ctx context.Context, userID string) {
	if h, ok := ctx.Value(holderKey).(*userHolder); ok {
		h.userID = userID
	}
}
