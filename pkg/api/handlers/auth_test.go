//go:build integration

package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kyberchat/kyberchat/pkg/api/middleware"
	"github.com/kyberchat/kyberchat/pkg/auth"
	"github.com/kyberchat/kyberchat/pkg/models"
	"github.com/kyberchat/kyberchat/pkg/store"
)

// testPublicKey is a base64 blob of ML-KEM-768 encapsulation key size, which
// is all the registration endpoint checks.
var testPublicKey = base64.StdEncoding.EncodeToString(make([]byte, 1184))

func setupAuthTest(t *testing.T) (store.Store, *auth.JWTService, *AuthHandler) {
	t.Helper()

	dbConfig := store.Config{
		Type: store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{
			Path: ":memory:",
		},
	}
	st, err := store.New(&dbConfig)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := auth.JWTConfig{
		Secret: "test-secret-key-that-is-at-least-32-characters-long",
		Issuer: "test",
	}
	jwtService, err := auth.NewJWTService(jwtConfig)
	if err != nil {
		t.Fatalf("Failed to create JWT service: %v", err)
	}

	handler := NewAuthHandler(st, jwtService, AuthOptions{})
	return st, jwtService, handler
}

func createTestUser(t *testing.T, st store.Store, username, password string, active bool) *models.User {
	t.Helper()
	ctx := context.Background()

	hash, err := models.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		PublicKey:    "pk-" + username,
		IsActive:     true,
	}
	if _, err := st.CreateUser(ctx, user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	if !active {
		if err := st.SetUserActive(ctx, username, false); err != nil {
			t.Fatalf("Failed to deactivate user: %v", err)
		}
		user.IsActive = false
	}

	return user
}

// refreshCookie returns the refresh token cookie from a recorded response,
// or nil when the response set none.
func refreshCookie(res *http.Response) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	st, _, handler := setupAuthTest(t)

	// Occupy a username for the duplicate case.
	createTestUser(t, st, "taken", "password123", true)

	tests := []struct {
		name       string
		body       RegisterRequest
		wantStatus int
	}{
		{
			name:       "valid registration",
			body:       RegisterRequest{Username: "newuser", Password: "password123", PublicKey: testPublicKey},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate username",
			body:       RegisterRequest{Username: "taken", Password: "password123", PublicKey: testPublicKey},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "username too short",
			body:       RegisterRequest{Username: "ab", Password: "password123", PublicKey: testPublicKey},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "username bad charset",
			body:       RegisterRequest{Username: "bad name!", Password: "password123", PublicKey: testPublicKey},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "password too short",
			body:       RegisterRequest{Username: "shortpw", Password: "short", PublicKey: testPublicKey},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "public key not base64",
			body:       RegisterRequest{Username: "badkey", Password: "password123", PublicKey: "not-base64!!!"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing public key",
			body:       RegisterRequest{Username: "nokey", Password: "password123"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Register(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Register() status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusCreated {
				var resp SessionResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to unmarshal response: %v", err)
				}
				if resp.Message != "User registered successfully" {
					t.Errorf("Register() message = %q, want 'User registered successfully'", resp.Message)
				}
				if resp.AccessToken == "" {
					t.Error("Expected access token to be set")
				}
				if resp.User.Username != tt.body.Username {
					t.Errorf("Register() username = %s, want %s", resp.User.Username, tt.body.Username)
				}

				cookie := refreshCookie(w.Result())
				if cookie == nil {
					t.Fatal("Expected refresh token cookie to be set")
				}
				if cookie.Value == "" {
					t.Error("Expected refresh cookie to carry a token")
				}
				if !cookie.HttpOnly {
					t.Error("Expected refresh cookie to be HTTP-only")
				}
				if cookie.Path != "/" {
					t.Errorf("Refresh cookie path = %q, want /", cookie.Path)
				}
			}
		})
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	st, _, handler := setupAuthTest(t)

	createTestUser(t, st, "existinguser", "password123", true)

	body, _ := json.Marshal(RegisterRequest{
		Username:  "existinguser",
		Password:  "password123",
		PublicKey: testPublicKey,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Register() status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var problem Problem
	if err := json.Unmarshal(w.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem: %v", err)
	}
	if problem.Detail != "Username already exists" {
		t.Errorf("Register() detail = %q, want 'Username already exists'", problem.Detail)
	}
}

func TestAuthHandler_Register_StrictPasswords(t *testing.T) {
	st, jwtService, _ := setupAuthTest(t)
	handler := NewAuthHandler(st, jwtService, AuthOptions{StrictPasswords: true})

	tests := []struct {
		name       string
		password   string
		wantStatus int
	}{
		{
			name:       "meets policy",
			password:   "Password1",
			wantStatus: http.StatusCreated,
		},
		{
			name:       "no uppercase",
			password:   "password1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no digit",
			password:   "Passwords",
			wantStatus: http.StatusBadRequest,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(RegisterRequest{
				Username:  "strictuser" + string(rune('a'+i)),
				Password:  tt.password,
				PublicKey: testPublicKey,
			})
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Register(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Register() status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	st, _, handler := setupAuthTest(t)

	createTestUser(t, st, "testuser", "password123", true)

	tests := []struct {
		name       string
		body       LoginRequest
		wantStatus int
	}{
		{
			name:       "valid credentials",
			body:       LoginRequest{Username: "testuser", Password: "password123"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid password",
			body:       LoginRequest{Username: "testuser", Password: "wrongpassword"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non-existent user",
			body:       LoginRequest{Username: "nonexistent", Password: "password123"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing username",
			body:       LoginRequest{Password: "password123"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing password",
			body:       LoginRequest{Username: "testuser"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Login(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Login() status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusOK {
				var resp SessionResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to unmarshal response: %v", err)
				}
				if resp.Message != "Login successful" {
					t.Errorf("Login() message = %q, want 'Login successful'", resp.Message)
				}
				if resp.AccessToken == "" {
					t.Error("Expected access token to be set")
				}
				if resp.User.Username != tt.body.Username {
					t.Errorf("Login() username = %s, want %s", resp.User.Username, tt.body.Username)
				}
				if refreshCookie(w.Result()) == nil {
					t.Error("Expected refresh token cookie to be set")
				}
			}
		})
	}
}

func TestAuthHandler_Login_DisabledUser(t *testing.T) {
	st, _, handler := setupAuthTest(t)

	createTestUser(t, st, "disableduser", "password123", false)

	body, _ := json.Marshal(LoginRequest{Username: "disableduser", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Login(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Login() status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// loginForCookie signs the user in through the handler and returns the
// refresh cookie plus the access token from the response body.
func loginForCookie(t *testing.T, handler *AuthHandler, username, password string) (*http.Cookie, string) {
	t.Helper()

	body, _ := json.Marshal(LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Login() status = %d, body = %s", w.Code, w.Body.String())
	}

	cookie := refreshCookie(w.Result())
	if cookie == nil {
		t.Fatal("Login() set no refresh cookie")
	}

	var resp SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal login response: %v", err)
	}

	return cookie, resp.AccessToken
}

func TestAuthHandler_Refresh(t *testing.T) {
	st, _, handler := setupAuthTest(t)

	createTestUser(t, st, "testuser", "password123", true)
	cookie, accessToken := loginForCookie(t, handler, "testuser", "password123")

	tests := []struct {
		name        string
		cookieValue string
		setCookie   bool
		wantStatus  int
	}{
		{
			name:        "valid refresh cookie",
			cookieValue: cookie.Value,
			setCookie:   true,
			wantStatus:  http.StatusOK,
		},
		{
			name:       "missing cookie",
			setCookie:  false,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:        "malformed token",
			cookieValue: "not-a-jwt",
			setCookie:   true,
			wantStatus:  http.StatusUnauthorized,
		},
		{
			name:        "access token in cookie",
			cookieValue: accessToken,
			setCookie:   true,
			wantStatus:  http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
			if tt.setCookie {
				req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: tt.cookieValue})
			}
			w := httptest.NewRecorder()

			handler.Refresh(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Refresh() status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusOK {
				var resp RefreshResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to unmarshal response: %v", err)
				}
				if resp.AccessToken == "" {
					t.Error("Expected new access token")
				}
				// Refreshing must not rotate the refresh token.
				if refreshCookie(w.Result()) != nil {
					t.Error("Refresh() set a refresh cookie; the token must not rotate")
				}
			}
		})
	}
}

func TestAuthHandler_Refresh_RevokedToken(t *testing.T) {
	st, _, handler := setupAuthTest(t)

	createTestUser(t, st, "testuser", "password123", true)
	cookie, _ := loginForCookie(t, handler, "testuser", "password123")

	// Logout revokes the refresh token server-side.
	logoutReq := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	logoutReq.AddCookie(cookie)
	logoutW := httptest.NewRecorder()
	handler.Logout(logoutW, logoutReq)
	if logoutW.Code != http.StatusOK {
		t.Fatalf("Logout() status = %d, body = %s", logoutW.Code, logoutW.Body.String())
	}

	// The old cookie must no longer refresh.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	handler.Refresh(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Refresh() status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var problem Problem
	if err := json.Unmarshal(w.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem: %v", err)
	}
	if problem.Detail != "Token has been revoked" {
		t.Errorf("Refresh() detail = %q, want 'Token has been revoked'", problem.Detail)
	}
}

func TestAuthHandler_Refresh_DisabledUser(t *testing.T) {
	st, _, handler := setupAuthTest(t)
	ctx := context.Background()

	createTestUser(t, st, "testuser", "password123", true)
	cookie, _ := loginForCookie(t, handler, "testuser", "password123")

	// Deactivate after the token was issued.
	if err := st.SetUserActive(ctx, "testuser", false); err != nil {
		t.Fatalf("Failed to deactivate user: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	handler.Refresh(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Refresh() status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	st, _, handler := setupAuthTest(t)

	createTestUser(t, st, "testuser", "password123", true)
	cookie, _ := loginForCookie(t, handler, "testuser", "password123")

	t.Run("with cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()

		handler.Logout(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Logout() status = %d, want %d", w.Code, http.StatusOK)
		}

		var resp LogoutResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp.Message != "Logout successful" {
			t.Errorf("Logout() message = %q, want 'Logout successful'", resp.Message)
		}

		cleared := refreshCookie(w.Result())
		if cleared == nil {
			t.Fatal("Expected logout to clear the refresh cookie")
		}
		if cleared.Value != "" || cleared.MaxAge >= 0 {
			t.Errorf("Logout() cookie value = %q maxage = %d, want cleared", cleared.Value, cleared.MaxAge)
		}
	})

	t.Run("without cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		w := httptest.NewRecorder()

		handler.Logout(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Logout() status = %d, want %d", w.Code, http.StatusOK)
		}
	})
}

func TestAuthHandler_Me(t *testing.T) {
	st, jwtService, handler := setupAuthTest(t)

	user := createTestUser(t, st, "testuser", "password123", true)

	tokenPair, err := jwtService.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("Failed to generate token pair: %v", err)
	}

	jwtMiddleware := middleware.JWTAuth(jwtService)

	t.Run("authenticated user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenPair.AccessToken)
		w := httptest.NewRecorder()

		jwtMiddleware(http.HandlerFunc(handler.Me)).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Me() status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp MeResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp.User.Username != "testuser" {
			t.Errorf("Me() username = %s, want testuser", resp.User.Username)
		}
		if resp.User.PublicKey != "pk-testuser" {
			t.Errorf("Me() public_key = %s, want pk-testuser", resp.User.PublicKey)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		w := httptest.NewRecorder()

		handler.Me(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Me() status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("token for deleted user", func(t *testing.T) {
		ghostPair, err := jwtService.GenerateTokenPair(&models.User{ID: 9999, Username: "ghost"})
		if err != nil {
			t.Fatalf("Failed to generate token pair: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+ghostPair.AccessToken)
		w := httptest.NewRecorder()

		jwtMiddleware(http.HandlerFunc(handler.Me)).ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Me() status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}
