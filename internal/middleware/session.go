package middleware

import (
	"context"
	"net/http"
	"strings"

	"loanpipe-backend/internal/auth"
	"loanpipe-backend/internal/transport"
)

const AccessCookie = "loanpipe_access"

type claimsKey struct{}

// SessionAuth accepts the access token from the session cookie or an
// Authorization bearer header and stores the parsed claims on the context.
func SessionAuth(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				transport.WriteError(w, http.StatusServiceUnavailable, "session auth not configured", nil)
				return
			}

			token := ""
			if cookie, err := r.Cookie(AccessCookie); err == nil {
				token = cookie.Value
			}
			if token == "" {
				header := r.Header.Get("Authorization")
				if strings.HasPrefix(header, "Bearer ") {
					token = strings.TrimPrefix(header, "Bearer ")
				}
			}
			if token == "" {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}

			claims, err := manager.Parse(token)
			if err != nil {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	if v := ctx.Value(claimsKey{}); v != nil {
		if c, ok := v.(*auth.Claims); ok {
			return c
		}
	}
	return nil
}
