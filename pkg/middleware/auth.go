package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jubmeng/rainbow/pkg/logger"
)

type contextKeyType string

const claimsKey contextKeyType = "claims"

// Claims is the authenticated identity carried by a bearer token.
type Claims struct {
	UserID   string
	Username string
}

// TokenValidator validates a raw bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

// Auth rejects requests without a valid bearer token with 401 and stores
// the token's claims in the request context.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := bearerToken(r)
			if msg != "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", msg)
				return
			}
			claims, err := validate(token)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth stores claims when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, msg := bearerToken(r); msg == "" {
				if claims, err := validate(token); err == nil {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken returns the token, or a non-empty message explaining why the
// Authorization header is unusable.
func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", "invalid authorization header format"
	}
	return strings.TrimSpace(token), ""
}

// withClaims stores c and tags the request-scoped logger, if one is
// mounted, with the user id.
func withClaims(ctx context.Context, c *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, c)
	ctx = logger.WithUserID(ctx, c.UserID)
	if l := logger.FromContext(ctx); l != slog.Default() {
		ctx = logger.NewContext(ctx, l.With(slog.String("user_id", c.UserID)))
	}
	return ctx
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// UserIDFromContext returns the authenticated user ID or "".
func UserIDFromContext(ctx context.Context) string {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.UserID
	}
	return ""
}
