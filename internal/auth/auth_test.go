package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/screenrate/screenrate/internal/domain"
	"github.com/screenrate/screenrate/internal/scoring"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func mintToken(t *testing.T, subject, username, role string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Username: username,
		Role:     role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifierParseValid(t *testing.T) {
	token := mintToken(t, "user-1", "alice", "admin", time.Now().Add(time.Hour))

	claims, err := NewVerifier(testSecret).Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.Username != "alice" || claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifierParseExpired(t *testing.T) {
	token := mintToken(t, "user-1", "", "", time.Now().Add(-time.Hour))
	if _, err := NewVerifier(testSecret).Parse(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestVerifierParseWrongSecret(t *testing.T) {
	token := mintToken(t, "user-1", "", "", time.Now().Add(time.Hour))
	if _, err := NewVerifier("other-secret").Parse(token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestVerifierParseMissingSubject(t *testing.T) {
	token := mintToken(t, "", "alice", "", time.Now().Add(time.Hour))
	if _, err := NewVerifier(testSecret).Parse(token); err == nil {
		t.Fatal("expected error for empty subject")
	}
}

func TestMiddlewareInjectsIdentity(t *testing.T) {
	token := mintToken(t, "user-7", "bob", "admin", time.Now().Add(time.Hour))

	var gotUser domain.User
	var gotAdmin bool
	handler := Middleware(NewVerifier(testSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		gotAdmin = IsAdmin(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotUser.ID != "user-7" || gotUser.Username != "bob" {
		t.Fatalf("user = %+v", gotUser)
	}
	if !gotAdmin {
		t.Fatal("expected admin role")
	}
}

func TestMiddlewareIgnoresBadToken(t *testing.T) {
	handler := Middleware(NewVerifier(testSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); ok {
			t.Error("bad token must not inject identity")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestProviderCurrentUser(t *testing.T) {
	ctx := WithUser(context.Background(), domain.User{ID: "user-9", Username: "carol"})

	user, err := Provider{}.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if user.ID != "user-9" {
		t.Fatalf("user = %+v", user)
	}

	if _, err := (Provider{}).CurrentUser(context.Background()); !errors.Is(err, scoring.ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}
