package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/tunehive/partyhub/internal/api/apierr"
	"github.com/tunehive/partyhub/internal/model"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// Identity extracts the caller's user id from the X-User-ID header and
// installs it in the request context. Authentication itself is an external
// concern; by the time a request reaches this service the id has already
// been resolved by the fronting auth layer.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("X-User-ID")
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, model.UserID(id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the caller's user id from the request context
func GetUserID(ctx context.Context) (model.UserID, bool) {
	id, ok := ctx.Value(userIDContextKey).(model.UserID)
	return id, ok
}

// MustGetUserID returns the caller's user id or panics
func MustGetUserID(ctx context.Context) model.UserID {
	id, ok := GetUserID(ctx)
	if !ok {
		panic("no user id in context - identity middleware not applied?")
	}
	return id
}
