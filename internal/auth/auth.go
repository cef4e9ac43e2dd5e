// Package auth resolves the acting user from a bearer JWT. Token issuance is
// out of scope; any HS256 issuer sharing the secret works (see cmd/tokengen
// for a dev stub).
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/screenrate/screenrate/internal/domain"
	"github.com/screenrate/screenrate/internal/scoring"
)

// RoleAdmin gates catalog mutations.
const RoleAdmin = "admin"

type userKey struct{}
type roleKey struct{}

// Claims is the token payload: subject is the user id, username and role are
// optional profile claims.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Verifier validates HS256 tokens against a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) Verifier {
	return Verifier{secret: []byte(secret)}
}

// Parse validates the token signature, expiry, and signing method.
func (v Verifier) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Middleware extracts the bearer token, if any, and injects the resolved user
// into the request context. It never rejects: endpoints that need identity
// resolve it through Provider and fail with Unauthenticated themselves.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
				if claims, err := v.Parse(token); err == nil {
					user := domain.User{ID: claims.Subject, Username: claims.Username}
					ctx := context.WithValue(r.Context(), userKey{}, user)
					if role := strings.TrimSpace(claims.Role); role != "" {
						ctx = context.WithValue(ctx, roleKey{}, strings.ToLower(role))
					}
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// WithUser injects an identity into a context. Useful for testing.
func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// WithRole injects a role into a context. Useful for testing.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, strings.ToLower(role))
}

// UserFromContext returns the identity injected by Middleware.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userKey{}).(domain.User)
	return user, ok
}

// IsAdmin reports whether the request carries the admin role.
func IsAdmin(ctx context.Context) bool {
	role, _ := ctx.Value(roleKey{}).(string)
	return role == RoleAdmin
}

// Provider adapts context identity to the scoring service's Identity
// contract.
type Provider struct{}

// CurrentUser returns the acting user or ErrUnauthenticated when the request
// carried no valid credentials.
func (Provider) CurrentUser(ctx context.Context) (domain.User, error) {
	user, ok := UserFromContext(ctx)
	if !ok || user.ID == "" {
		return domain.User{}, scoring.ErrUnauthenticated
	}
	return user, nil
}
