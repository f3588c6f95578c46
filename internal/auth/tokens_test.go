package auth

import (
	"context"
	"testing"
	"time"

	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/models"
)

type inMemoryCredentialStore struct {
	users map[string]models.User
}

func newInMemoryCredentialStore() *inMemoryCredentialStore {
	return &inMemoryCredentialStore{users: make(map[string]models.User)}
}

func (s *inMemoryCredentialStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, fault.NotFound("user not found")
	}
	return user, nil
}

func (s *inMemoryCredentialStore) SetRefreshToken(_ context.Context, userID, refreshToken string) error {
	user, ok := s.users[userID]
	if !ok {
		return fault.NotFound("user not found")
	}
	user.RefreshToken = refreshToken
	s.users[userID] = user
	return nil
}

func testUser() models.User {
	return models.User{
		ID:       "4f2d7f9e-0b5b-4f07-9df1-2f8f6f0a1c11",
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
	}
}

func TestTokenServiceIssueAndVerify(t *testing.T) {
	store := newInMemoryCredentialStore()
	user := testUser()
	store.users[user.ID] = user

	svc := NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour, store)

	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens to be issued, got %+v", pair)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	claims, err := svc.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.Subject != user.ID || claims.Username != user.Username || claims.Email != user.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if store.users[user.ID].RefreshToken != pair.RefreshToken {
		t.Fatal("refresh token was not persisted on the user record")
	}
}

func TestTokenServiceDistinctSecrets(t *testing.T) {
	store := newInMemoryCredentialStore()
	user := testUser()
	store.users[user.ID] = user

	svc := NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour, store)

	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// A refresh token must never pass as an access token.
	if _, err := svc.VerifyAccess(pair.RefreshToken); err == nil {
		t.Fatal("expected refresh token to fail access verification")
	}
}

func TestTokenServiceRotate(t *testing.T) {
	store := newInMemoryCredentialStore()
	user := testUser()
	store.users[user.ID] = user

	svc := NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour, store)

	now := time.Now()
	svc.WithNowFunc(func() time.Time { return now })

	first, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// The clock is frozen: even a rotate within the issuance second must
	// mint a distinct refresh token.
	second, err := svc.Rotate(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("rotation must mint a new refresh token")
	}
	if store.users[user.ID].RefreshToken != second.RefreshToken {
		t.Fatal("rotation did not persist the new refresh token")
	}
}

func TestTokenServiceRotateRejectsSupersededToken(t *testing.T) {
	store := newInMemoryCredentialStore()
	user := testUser()
	store.users[user.ID] = user

	svc := NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour, store)

	now := time.Now()
	svc.WithNowFunc(func() time.Time { return now })

	first, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.Rotate(context.Background(), first.RefreshToken); err != nil {
		t.Fatalf("first rotate: %v", err)
	}

	// Replaying the first token after an immediate rotation must fail.
	if _, err := svc.Rotate(context.Background(), first.RefreshToken); !fault.IsKind(err, fault.KindUnauthorized) {
		t.Fatalf("expected unauthorized on stale token reuse, got %v", err)
	}
}

func TestTokenServiceRotateRejectsRevokedToken(t *testing.T) {
	store := newInMemoryCredentialStore()
	user := testUser()
	store.users[user.ID] = user

	svc := NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour, store)

	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := svc.Revoke(context.Background(), user.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := svc.Rotate(context.Background(), pair.RefreshToken); !fault.IsKind(err, fault.KindUnauthorized) {
		t.Fatalf("expected unauthorized after revocation, got %v", err)
	}
}

func TestTokenServiceExpiry(t *testing.T) {
	store := newInMemoryCredentialStore()
	user := testUser()
	store.users[user.ID] = user

	svc := NewTokenService("access-secret", "refresh-secret", time.Hour, 2*time.Hour, store)

	now := time.Now()
	svc.WithNowFunc(func() time.Time { return now })

	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now = now.Add(90 * time.Minute)

	if _, err := svc.VerifyAccess(pair.AccessToken); !fault.IsKind(err, fault.KindUnauthorized) {
		t.Fatalf("expected expired access token to be rejected, got %v", err)
	}

	// The refresh token outlives the access token.
	if _, err := svc.Rotate(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("rotate before refresh expiry: %v", err)
	}

	now = now.Add(3 * time.Hour)

	if _, err := svc.Rotate(context.Background(), pair.RefreshToken); !fault.IsKind(err, fault.KindUnauthorized) {
		t.Fatalf("expected expired refresh token to be rejected, got %v", err)
	}
}

func TestTokenServiceRotateUnknownUser(t *testing.T) {
	store := newInMemoryCredentialStore()
	user := testUser()
	store.users[user.ID] = user

	svc := NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour, store)

	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	delete(store.users, user.ID)

	if _, err := svc.Rotate(context.Background(), pair.RefreshToken); !fault.IsKind(err, fault.KindUnauthorized) {
		t.Fatalf("expected unauthorized for deleted user, got %v", err)
	}
}
