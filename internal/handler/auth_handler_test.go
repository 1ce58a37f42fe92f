package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/memoya/internal/middleware"
	"github.com/hitoshi/memoya/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	getLoginURLFn    func(state string) string
	handleCallbackFn func(ctx context.Context, code string) (*model.Session, error)
	logoutFn         func(ctx context.Context, token string) error
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

type mockAuthMetrics struct {
	success int
	failure int
}

func (m *mockAuthMetrics) RecordLoginSuccess() { m.success++ }
func (m *mockAuthMetrics) RecordLoginFailure() { m.failure++ }

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		FrontendOrigin: "http://localhost:5173",
		CookieDomain:   "",
		CookieSecure:   false,
		CookieSameSite: http.SameSiteLaxMode,
		SessionMaxAge:  604800,
	}
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- テスト ---

func TestAuthHandler_Login_RedirectsToOAuthURL(t *testing.T) {
	svc := &mockAuthService{
		getLoginURLFn: func(state string) string {
			return "https://accounts.google.com/o/oauth2/v2/auth?state=" + state
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google", nil)
	w := httptest.NewRecorder()

	h.Login(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}

	location := resp.Header.Get("Location")
	if !strings.Contains(location, "accounts.google.com") {
		t.Errorf("Location = %q, should contain google oauth URL", location)
	}

	// stateがCookieとリダイレクトURLの両方に入ること
	stateCookie := findCookie(resp, oauthStateCookie)
	if stateCookie == nil {
		t.Fatal("expected oauth_state cookie to be set")
	}
	if !strings.Contains(location, stateCookie.Value) {
		t.Error("redirect URL should carry the same state as the cookie")
	}
}

func TestAuthHandler_Callback_Success_SetsCookieAndRedirects(t *testing.T) {
	metrics := &mockAuthMetrics{}
	svc := &mockAuthService{
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			return &model.Session{
				Token:     "session-token-abc",
				UserID:    "user-id-123",
				ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
			}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), metrics)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=test-code&state=test-state", nil)
	// stateの検証のためにcookieを設定
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "test-state"})
	w := httptest.NewRecorder()

	h.Callback(w, req)

	resp := w.Result()

	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}

	// フロントエンドにリダイレクトされること
	if location := resp.Header.Get("Location"); location != "http://localhost:5173" {
		t.Errorf("Location = %q, want %q", location, "http://localhost:5173")
	}

	// セッションCookieが設定されること
	sessionCookie := findCookie(resp, middleware.SessionCookieName)
	if sessionCookie == nil {
		t.Fatal("expected session cookie to be set")
	}
	if sessionCookie.Value != "session-token-abc" {
		t.Errorf("session cookie value = %q, want %q", sessionCookie.Value, "session-token-abc")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	if sessionCookie.MaxAge != 604800 {
		t.Errorf("session cookie MaxAge = %d, want 604800", sessionCookie.MaxAge)
	}

	if metrics.success != 1 {
		t.Errorf("login success count = %d, want 1", metrics.success)
	}
}

func TestAuthHandler_Callback_MissingCode_RedirectsToFailure(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=test-state", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "test-state"})
	w := httptest.NewRecorder()

	h.Callback(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
	if location := resp.Header.Get("Location"); location != "/api/auth/failure" {
		t.Errorf("Location = %q, want /api/auth/failure", location)
	}
}

func TestAuthHandler_Callback_StateMismatch_RedirectsToFailure(t *testing.T) {
	metrics := &mockAuthMetrics{}
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig(), metrics)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=test-code&state=wrong-state", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "correct-state"})
	w := httptest.NewRecorder()

	h.Callback(w, req)

	resp := w.Result()
	if location := resp.Header.Get("Location"); location != "/api/auth/failure" {
		t.Errorf("Location = %q, want /api/auth/failure", location)
	}
	if metrics.failure != 1 {
		t.Errorf("login failure count = %d, want 1", metrics.failure)
	}
}

func TestAuthHandler_Callback_ExchangeError_NoSessionCookie(t *testing.T) {
	svc := &mockAuthService{
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			return nil, errors.New("exchange failed")
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=bad-code&state=test-state", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "test-state"})
	w := httptest.NewRecorder()

	h.Callback(w, req)

	resp := w.Result()
	if location := resp.Header.Get("Location"); location != "/api/auth/failure" {
		t.Errorf("Location = %q, want /api/auth/failure", location)
	}
	if c := findCookie(resp, middleware.SessionCookieName); c != nil {
		t.Error("session cookie should not be set on failure")
	}
}

func TestAuthHandler_Failure_Returns401WithErrorBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/failure", nil)
	w := httptest.NewRecorder()

	h.Failure(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["error"] != "Authentication failed" {
		t.Errorf("error = %q, want %q", body["error"], "Authentication failed")
	}
}

func TestAuthHandler_Me_Authenticated_ReturnsProfile(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	ctx := middleware.ContextWithUser(req.Context(), &model.User{
		ID:        "user-id-me",
		Email:     "me@example.com",
		Name:      "Me User",
		AvatarURL: "https://example.com/avatar.png",
	})
	w := httptest.NewRecorder()

	h.Me(w, req.WithContext(ctx))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["id"] != "user-id-me" {
		t.Errorf("id = %v, want user-id-me", body["id"])
	}
	if body["email"] != "me@example.com" {
		t.Errorf("email = %v, want me@example.com", body["email"])
	}
	if body["avatar_url"] != "https://example.com/avatar.png" {
		t.Errorf("avatar_url = %v", body["avatar_url"])
	}
}

func TestAuthHandler_Me_Anonymous_ReturnsNullUserWith200(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d (anonymous /me is not an error)", resp.StatusCode, http.StatusOK)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	v, present := body["user"]
	if !present || v != nil {
		t.Errorf("body = %v, want {\"user\": null}", body)
	}
}

func TestAuthHandler_Logout_DestroysSessionAndClearsCookie(t *testing.T) {
	var loggedOutToken string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, token string) error {
			loggedOutToken = token
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-to-logout"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if loggedOutToken != "session-to-logout" {
		t.Errorf("logged out token = %q, want session-to-logout", loggedOutToken)
	}

	// セッションCookieがクリアされること
	sessionCookie := findCookie(resp, middleware.SessionCookieName)
	if sessionCookie == nil {
		t.Fatal("expected session cookie to be cleared")
	}
	if sessionCookie.MaxAge != -1 {
		t.Errorf("session cookie MaxAge = %d, want -1 (delete)", sessionCookie.MaxAge)
	}

	var body map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !body["ok"] {
		t.Errorf("body = %v, want {\"ok\": true}", body)
	}
}

func TestAuthHandler_Logout_NoSession_StillSucceeds(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d (logout is idempotent)", resp.StatusCode, http.StatusOK)
	}

	var body map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !body["ok"] {
		t.Errorf("body = %v, want {\"ok\": true}", body)
	}
}
