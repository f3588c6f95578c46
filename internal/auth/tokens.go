package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/models"
)

// CredentialStore is the slice of user persistence the token service needs:
// loading a user and rotating the refresh token stored on their record.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, refreshToken string) error
}

// AccessClaims is the payload encoded into access tokens.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// refreshClaims carries only the user identity; everything else is re-read
// from the store when the token is exchanged.
type refreshClaims struct {
	jwt.RegisteredClaims
}

// TokenService issues, verifies and rotates signed token pairs. The refresh
// token persisted on the user record is the single currently valid one;
// issuing a new pair invalidates its predecessor.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	store CredentialStore
	now   func() time.Time
}

// NewTokenService constructs a TokenService signing with distinct secrets for
// the access and refresh tokens.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, store CredentialStore) *TokenService {
	if store == nil {
		panic("auth: credential store must not be nil")
	}
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 240 * time.Hour
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		store:         store,
		now:           time.Now,
	}
}

// WithNowFunc overrides the time source. Useful for expiry tests.
func (s *TokenService) WithNowFunc(now func() time.Time) {
	s.now = now
}

// Issue creates a new access/refresh pair for the user and persists the
// refresh token on their record, replacing any prior value.
func (s *TokenService) Issue(ctx context.Context, user models.User) (models.TokenPair, error) {
	if user.ID == "" {
		return models.TokenPair{}, errors.New("auth: user id must be provided")
	}

	now := s.now().UTC()
	accessExpiry := now.Add(s.accessTTL)
	refreshExpiry := now.Add(s.refreshTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
	})
	accessToken, err := access.SignedString(s.accessSecret)
	if err != nil {
		return models.TokenPair{}, fault.Internal("sign access token", err)
	}

	// The jti keeps every refresh token unique even when two issuances land
	// in the same second; without it a rotate could mint a byte-identical
	// token and the stored-token comparison could no longer detect reuse.
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
		},
	})
	refreshToken, err := refresh.SignedString(s.refreshSecret)
	if err != nil {
		return models.TokenPair{}, fault.Internal("sign refresh token", err)
	}

	if err := s.store.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return models.TokenPair{}, fault.Internal("persist refresh token", err)
	}

	return models.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// Rotate exchanges a valid refresh token for a new pair. A token whose
// signature or expiry fails, whose user is gone, or which no longer matches
// the value stored on the user record is rejected as unauthorized. The last
// check is what detects reuse of a rotated-away token.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	if refreshToken == "" {
		return models.TokenPair{}, fault.Unauthorized("refresh token is required")
	}

	claims := refreshClaims{}
	token, err := jwt.ParseWithClaims(refreshToken, &claims, func(*jwt.Token) (any, error) {
		return s.refreshSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return models.TokenPair{}, fault.Wrap(fault.KindUnauthorized, "invalid or expired refresh token", err)
	}

	user, err := s.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if fault.IsKind(err, fault.KindNotFound) {
			return models.TokenPair{}, fault.Unauthorized("refresh token user no longer exists")
		}
		return models.TokenPair{}, fault.Internal("load user for refresh", err)
	}

	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return models.TokenPair{}, fault.Unauthorized("refresh token has been superseded")
	}

	return s.Issue(ctx, user)
}

// Revoke clears the stored refresh token so no outstanding token can be
// exchanged again. Used at logout.
func (s *TokenService) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return fault.InvalidArgument("user id is required")
	}
	if err := s.store.SetRefreshToken(ctx, userID, ""); err != nil {
		return fault.Internal("clear refresh token", err)
	}
	return nil
}

// VerifyAccess checks an access token's signature and expiry and returns its
// claims. It performs no store access; the auth gate loads the user itself.
func (s *TokenService) VerifyAccess(accessToken string) (AccessClaims, error) {
	claims := AccessClaims{}
	token, err := jwt.ParseWithClaims(accessToken, &claims, func(*jwt.Token) (any, error) {
		return s.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return AccessClaims{}, fault.Wrap(fault.KindUnauthorized, "invalid or expired access token", err)
	}
	if claims.Subject == "" {
		return AccessClaims{}, fault.Unauthorized("access token carries no subject")
	}
	return claims, nil
}
