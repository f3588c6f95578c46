package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/models"
)

type fakeVerifier struct {
	subject string
	err     error
}

func (v fakeVerifier) VerifyAccess(string) (auth.AccessClaims, error) {
	if v.err != nil {
		return auth.AccessClaims{}, v.err
	}
	return auth.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: v.subject},
	}, nil
}

type fakeUserLoader struct {
	users map[string]models.User
}

func (l fakeUserLoader) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := l.users[id]
	if !ok {
		return models.User{}, fault.NotFound("user not found")
	}
	return user, nil
}

func identityEcho(t *testing.T, captured *models.User) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := auth.IdentityFromContext(r.Context()); ok {
			*captured = user
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateBearerHeader(t *testing.T) {
	user := models.User{ID: "user-1", Username: "alice"}
	loader := fakeUserLoader{users: map[string]models.User{"user-1": user}}

	var captured models.User
	gate := Authenticate(fakeVerifier{subject: "user-1"}, loader)(identityEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	gate.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if captured.ID != user.ID {
		t.Fatalf("expected identity %q on context, got %+v", user.ID, captured)
	}
}

func TestAuthenticateCookie(t *testing.T) {
	user := models.User{ID: "user-1", Username: "alice"}
	loader := fakeUserLoader{users: map[string]models.User{"user-1": user}}

	var captured models.User
	gate := Authenticate(fakeVerifier{subject: "user-1"}, loader)(identityEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "some-token"})
	rec := httptest.NewRecorder()

	gate.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if captured.ID != user.ID {
		t.Fatalf("expected identity on context, got %+v", captured)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	loader := fakeUserLoader{users: map[string]models.User{}}
	gate := Authenticate(fakeVerifier{subject: "user-1"}, loader)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	rec := httptest.NewRecorder()

	gate.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	loader := fakeUserLoader{users: map[string]models.User{}}
	verifier := fakeVerifier{err: fault.Unauthorized("invalid or expired access token")}
	gate := Authenticate(verifier, loader)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()

	gate.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthenticateDeletedUser(t *testing.T) {
	loader := fakeUserLoader{users: map[string]models.User{}}
	gate := Authenticate(fakeVerifier{subject: "ghost"}, loader)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run for a deleted user")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	gate.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestOptionalAllowsAnonymous(t *testing.T) {
	loader := fakeUserLoader{users: map[string]models.User{}}

	var captured models.User
	gate := Optional(fakeVerifier{subject: "user-1"}, loader)(identityEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	rec := httptest.NewRecorder()

	gate.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if captured.ID != "" {
		t.Fatalf("expected no identity for anonymous request, got %+v", captured)
	}
}

func TestOptionalAttachesIdentity(t *testing.T) {
	user := models.User{ID: "user-1", Username: "alice"}
	loader := fakeUserLoader{users: map[string]models.User{"user-1": user}}

	var captured models.User
	gate := Optional(fakeVerifier{subject: "user-1"}, loader)(identityEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	gate.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if captured.ID != user.ID {
		t.Fatalf("expected identity on context, got %+v", captured)
	}
}
