package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kyberchat/kyberchat/pkg/api/middleware"
	"github.com/kyberchat/kyberchat/pkg/auth"
	"github.com/kyberchat/kyberchat/pkg/models"
	"github.com/kyberchat/kyberchat/pkg/store"
	"github.com/kyberchat/kyberchat/pkg/validation"
)

// refreshCookieName is the HTTP-only cookie carrying the refresh token.
// The access token travels in response bodies and Authorization headers;
// the refresh token never does.
const refreshCookieName = "refresh_token"

// AuthOptions tunes the authentication endpoints.
type AuthOptions struct {
	// CookieSecure sets the Secure flag on the refresh cookie. Enable it
	// whenever the service is reached over HTTPS.
	CookieSecure bool

	// StrictPasswords additionally requires an uppercase letter, a
	// lowercase letter, and a digit in new passwords.
	StrictPasswords bool
}

// AuthHandler handles registration, login, and the refresh token lifecycle.
type AuthHandler struct {
	store      store.Store
	jwtService *auth.JWTService
	opts       AuthOptions
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(st store.Store, jwtService *auth.JWTService, opts AuthOptions) *AuthHandler {
	return &AuthHandler{
		store:      st,
		jwtService: jwtService,
		opts:       opts,
	}
}

// RegisterRequest is the request body for POST /api/auth/register.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	PublicKey string `json:"public_key"`
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is the response body for register and login. The refresh
// token is set as a cookie, not returned in the body.
type SessionResponse struct {
	Message     string         `json:"message"`
	User        models.APIUser `json:"user"`
	AccessToken string         `json:"access_token"`
}

// RefreshResponse is the response body for POST /api/auth/refresh.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// MeResponse is the response body for GET /api/auth/me.
type MeResponse struct {
	User models.APIUser `json:"user"`
}

// LogoutResponse is the response body for POST /api/auth/logout.
type LogoutResponse struct {
	Message string `json:"message"`
}

// Register handles POST /api/auth/register.
//
// Creates the account with its ML-KEM public key and signs the caller in:
// the response carries an access token and the refresh token is set as an
// HTTP-only cookie.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.PublicKey = strings.TrimSpace(req.PublicKey)

	if err := validation.Username(req.Username); err != nil {
		BadRequest(w, err.Error())
		return
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		BadRequest(w, err.Error())
		return
	}
	if h.opts.StrictPasswords {
		if err := validation.PasswordStrength(req.Password); err != nil {
			BadRequest(w, err.Error())
			return
		}
	}
	if err := validation.PublicKey(req.PublicKey); err != nil {
		BadRequest(w, err.Error())
		return
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		PublicKey:    req.PublicKey,
		IsActive:     true,
	}
	if _, err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			// The web client surfaces this as a form error, so it is a
			// 400 rather than a 409.
			BadRequest(w, "Username already exists")
			return
		}
		InternalServerError(w, "Failed to create user")
		return
	}

	pair, ok := h.issueTokens(w, r, user)
	if !ok {
		return
	}

	WriteJSONCreated(w, SessionResponse{
		Message:     "User registered successfully",
		User:        user.ToAPI(),
		AccessToken: pair.AccessToken,
	})
}

// Login handles POST /api/auth/login.
// Authenticates credentials and issues a fresh token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	user, err := h.store.ValidateCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			Unauthorized(w, "Invalid username or password")
		case errors.Is(err, models.ErrUserDisabled):
			Forbidden(w, "User account is disabled")
		default:
			InternalServerError(w, "Authentication failed")
		}
		return
	}

	pair, ok := h.issueTokens(w, r, user)
	if !ok {
		return
	}

	WriteJSONOK(w, SessionResponse{
		Message:     "Login successful",
		User:        user.ToAPI(),
		AccessToken: pair.AccessToken,
	})
}

// Refresh handles POST /api/auth/refresh.
//
// Reads the refresh token from the cookie and returns a new access token.
// The refresh token itself is not rotated; it stays valid until logout or
// expiry.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		Unauthorized(w, "Refresh token not found")
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(cookie.Value)
	if err != nil {
		Unauthorized(w, "Invalid refresh token")
		return
	}

	record, err := h.store.GetRefreshToken(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			Unauthorized(w, "Token has been revoked")
			return
		}
		InternalServerError(w, "Failed to verify refresh token")
		return
	}
	if !record.IsUsable() {
		Unauthorized(w, "Token has been revoked")
		return
	}

	// Reload the account: the token may outlive a deactivation.
	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			Unauthorized(w, "User no longer exists")
			return
		}
		InternalServerError(w, "Failed to load user")
		return
	}
	if !user.IsActive {
		Forbidden(w, "User account is disabled")
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(user)
	if err != nil {
		InternalServerError(w, "Failed to generate token")
		return
	}

	WriteJSONOK(w, RefreshResponse{AccessToken: accessToken})
}

// Logout handles POST /api/auth/logout.
//
// Revokes the refresh token named by the cookie and clears the cookie.
// An absent or unparseable cookie still yields a 200: the client ends up
// logged out either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		if claims, err := h.jwtService.ValidateRefreshToken(cookie.Value); err == nil {
			// Best effort; the cookie is cleared regardless.
			_ = h.store.RevokeRefreshToken(r.Context(), claims.ID)
		}
	}

	h.clearRefreshCookie(w)
	WriteJSONOK(w, LogoutResponse{Message: "Logout successful"})
}

// Me handles GET /api/auth/me.
// Returns the current authenticated user's information.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to load user")
		return
	}

	WriteJSONOK(w, MeResponse{User: user.ToAPI()})
}

// issueTokens mints a token pair for the user, records the refresh jti for
// later revocation, and sets the refresh cookie. On failure an error
// response has already been written and ok is false.
func (h *AuthHandler) issueTokens(w http.ResponseWriter, r *http.Request, user *models.User) (pair *auth.TokenPair, ok bool) {
	pair, err := h.jwtService.GenerateTokenPair(user)
	if err != nil {
		InternalServerError(w, "Failed to generate token")
		return nil, false
	}

	record := &models.RefreshToken{
		JTI:       pair.RefreshJTI,
		UserID:    user.ID,
		ExpiresAt: pair.RefreshExpiresAt,
	}
	if err := h.store.SaveRefreshToken(r.Context(), record); err != nil {
		InternalServerError(w, "Failed to store refresh token")
		return nil, false
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	return pair, true
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.jwtService.GetRefreshTokenDuration().Seconds()),
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
