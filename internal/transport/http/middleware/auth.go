package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/formrelay-api/internal/domain"
	jwtinfra "github.com/formrelay-api/internal/infrastructure/jwt"
)

type contextKey string

const AccountKey contextKey = "account"

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "token"

type accountLoader interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
}

type tokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// SessionAuth returns middleware that resolves the session token into an
// Account and injects it into the request context. The cookie is tried
// first, then the Authorization bearer header. The order is fixed, so a request
// carrying both is always resolved from the cookie. Never fails open: a
// valid token whose account no longer exists is still unauthorized.
func SessionAuth(verifier tokenVerifier, accounts accountLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				http.Error(w, `{"success":false,"message":"Not authorized, no token"}`, http.StatusUnauthorized)
				return
			}
			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				http.Error(w, `{"success":false,"message":"Not authorized, token failed"}`, http.StatusUnauthorized)
				return
			}
			a, err := accounts.Get(r.Context(), claims.AccountID)
			if err != nil {
				http.Error(w, `{"success":false,"message":"Not authorized, token failed"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), AccountKey, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return token
	}
	return ""
}

// AccountFromContext extracts the authenticated account from the request context.
func AccountFromContext(ctx context.Context) (*domain.Account, bool) {
	a, ok := ctx.Value(AccountKey).(*domain.Account)
	return a, ok
}
