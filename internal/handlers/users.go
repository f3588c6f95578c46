package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// UserHandler implements registration, authentication and account endpoints.
type UserHandler struct {
	Users   repositories.UserRepository
	Tokens  TokenManager
	Limiter RateLimiter
	NowFunc func() time.Time
}

type registerRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Password   string `json:"password"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName   *string `json:"fullName"`
	Email      *string `json:"email"`
	Avatar     *string `json:"avatar"`
	CoverImage *string `json:"coverImage"`
}

type authResponse struct {
	User   userResponse  `json:"user"`
	Tokens tokenResponse `json:"tokens"`
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "register") {
		respondJSON(ctx, w, http.StatusTooManyRequests, errorEnvelope{
			StatusCode: http.StatusTooManyRequests,
			Message:    "too many requests",
			Success:    false,
			Errors:     []string{},
		})
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, fault.InvalidArgument("invalid request body"))
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Username == "" || req.Email == "" || req.FullName == "" || req.Password == "" {
		respondError(ctx, w, fault.InvalidArgument("username, email, fullName and password are required"))
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, fault.InvalidArgument("invalid email address"))
		return
	}
	if len(req.Password) < 8 {
		respondError(ctx, w, fault.InvalidArgument("password must be at least 8 characters"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(ctx, w, fault.Internal("hash password", err))
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      req.Username,
		Email:         req.Email,
		FullName:      req.FullName,
		Password:      string(hashed),
		AvatarURL:     req.Avatar,
		CoverImageURL: req.CoverImage,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if fault.IsKind(err, fault.KindConflict) {
			respondError(ctx, w, fault.Conflict("username or email already taken"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	pair, err := h.Tokens.Issue(ctx, user)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logging.FromContext(ctx).Info("user registered", "userId", user.ID, "username", user.Username)

	setAuthCookies(w, pair)
	respondData(ctx, w, http.StatusCreated, authResponse{
		User:   toUserResponse(user.PublicProfile()),
		Tokens: toTokenResponse(pair),
	}, "user registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "login") {
		respondJSON(ctx, w, http.StatusTooManyRequests, errorEnvelope{
			StatusCode: http.StatusTooManyRequests,
			Message:    "too many requests",
			Success:    false,
			Errors:     []string{},
		})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, fault.InvalidArgument("invalid request body"))
		return
	}

	req.Login = strings.ToLower(strings.TrimSpace(req.Login))
	if req.Login == "" || req.Password == "" {
		respondError(ctx, w, fault.InvalidArgument("login and password are required"))
		return
	}

	user, err := h.Users.FindByLogin(ctx, req.Login)
	if err != nil {
		if fault.IsKind(err, fault.KindNotFound) {
			respondError(ctx, w, fault.Unauthorized("invalid credentials"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(ctx, w, fault.Unauthorized("invalid credentials"))
		return
	}

	pair, err := h.Tokens.Issue(ctx, user)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, pair)
	respondData(ctx, w, http.StatusOK, authResponse{
		User:   toUserResponse(user.PublicProfile()),
		Tokens: toTokenResponse(pair),
	}, "logged in successfully")
}

// Refresh handles POST /api/v1/users/refresh. The refresh token comes from
// the cookie or, failing that, the request body.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "refresh") {
		respondJSON(ctx, w, http.StatusTooManyRequests, errorEnvelope{
			StatusCode: http.StatusTooManyRequests,
			Message:    "too many requests",
			Success:    false,
			Errors:     []string{},
		})
		return
	}

	token := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		respondError(ctx, w, fault.Unauthorized("refresh token is required"))
		return
	}

	pair, err := h.Tokens.Rotate(ctx, token)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, pair)
	respondData(ctx, w, http.StatusOK, toTokenResponse(pair), "token refreshed successfully")
}

// Logout handles POST /api/v1/users/logout. Requires the auth gate.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	if err := h.Tokens.Revoke(ctx, user.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearAuthCookies(w)
	respondData(ctx, w, http.StatusOK, struct{}{}, "logged out successfully")
}

// CurrentUser handles GET /api/v1/users/me.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	respondData(ctx, w, http.StatusOK, toUserResponse(user), "current user fetched successfully")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, fault.InvalidArgument("invalid request body"))
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, fault.InvalidArgument("oldPassword and newPassword are required"))
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(ctx, w, fault.InvalidArgument("password must be at least 8 characters"))
		return
	}

	// The identity on the context is sanitized; fetch the stored hash.
	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		respondError(ctx, w, fault.Unauthorized("old password is incorrect"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(ctx, w, fault.Internal("hash password", err))
		return
	}

	user.Password = string(hashed)
	user.UpdatedAt = h.now()
	if err := h.Users.Update(ctx, user); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// UpdateAccount handles PATCH /api/v1/users/me. Only provided fields change.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, fault.InvalidArgument("invalid request body"))
		return
	}

	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			respondError(ctx, w, fault.InvalidArgument("fullName must not be empty"))
			return
		}
		user.FullName = name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			respondError(ctx, w, fault.InvalidArgument("invalid email address"))
			return
		}
		user.Email = email
	}
	if req.Avatar != nil {
		user.AvatarURL = *req.Avatar
	}
	if req.CoverImage != nil {
		user.CoverImageURL = *req.CoverImage
	}

	user.UpdatedAt = h.now()
	if err := h.Users.Update(ctx, user); err != nil {
		if fault.IsKind(err, fault.KindConflict) {
			respondError(ctx, w, fault.Conflict("email already taken"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, toUserResponse(user.PublicProfile()), "account updated successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	videos, err := h.Users.WatchHistory(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, toVideoResponses(videos), "watch history fetched successfully")
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

const refreshTokenCookie = "refreshToken"

func setAuthCookies(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
