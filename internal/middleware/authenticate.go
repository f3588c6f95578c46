package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

// AccessVerifier checks an access token's signature and expiry.
type AccessVerifier interface {
	VerifyAccess(accessToken string) (auth.AccessClaims, error)
}

// UserLoader resolves the token subject to a live user record.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// AccessTokenCookie is the cookie the auth gate accepts alongside the
// Authorization header.
const AccessTokenCookie = "accessToken"

// Authenticate is the auth gate: it extracts a bearer or cookie access token,
// verifies it, loads the referenced user and attaches it to the request
// context. It never mutates state. Requests without a valid identity get a
// 401 error envelope and go no further.
func Authenticate(verifier AccessVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := extractAccessToken(r)
			if token == "" {
				unauthorized(ctx, w, "authentication required")
				return
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				unauthorized(ctx, w, fault.Message(err))
				return
			}

			user, err := users.FindByID(ctx, claims.Subject)
			if err != nil {
				if fault.IsKind(err, fault.KindNotFound) {
					unauthorized(ctx, w, "user no longer exists")
					return
				}
				logging.FromContext(ctx).Error("auth gate user lookup failed", "error", err, "userId", claims.Subject)
				writeEnvelope(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, user)))
		})
	}
}

// Optional attaches an identity when a valid token is present but lets
// anonymous requests through. Used by read endpoints that personalise output
// for signed-in viewers.
func Optional(verifier AccessVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := extractAccessToken(r)
			if token != "" {
				if claims, err := verifier.VerifyAccess(token); err == nil {
					if user, err := users.FindByID(ctx, claims.Subject); err == nil {
						ctx = auth.WithIdentity(ctx, user)
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractAccessToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func unauthorized(ctx context.Context, w http.ResponseWriter, message string) {
	logging.FromContext(ctx).Warn("request rejected by auth gate", "reason", message)
	writeEnvelope(w, http.StatusUnauthorized, message)
}

func writeEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": status,
		"message":    message,
		"success":    false,
		"errors":     []string{},
	})
}
