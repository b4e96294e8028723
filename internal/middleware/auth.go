package middleware

import (
	"net/http"
	"strings"

	"github.com/alari/backend/internal/ctxkeys"
)

// UserIDHeader is set by the upstream gateway after it authenticated the
// caller. This service trusts it as is.
const UserIDHeader = "X-User-ID"

// Identity copies the caller's user id from UserIDHeader into the context
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := ctxkeys.WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests without a caller identity
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.UserID(r.Context()) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"missing user identity"}` + "\n"))
			return
		}
		next(w, r)
	}
}
