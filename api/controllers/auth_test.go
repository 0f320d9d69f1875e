package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/seojindev/idhub-backend/api/middleware"
	"github.com/seojindev/idhub-backend/internal/auth"
	"github.com/seojindev/idhub-backend/internal/identity"
	"github.com/seojindev/idhub-backend/internal/users"
	"github.com/seojindev/idhub-backend/pkg/config"
	"github.com/seojindev/idhub-backend/pkg/enums"
	pkgerrors "github.com/seojindev/idhub-backend/pkg/errors"
)

type stubAuthService struct {
	register  func(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error)
	login     func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error)
	federated func(ctx context.Context, registrationID string, attrs map[string]any) (*auth.LoginResult, error)
	loggedOut []string
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	if s.register != nil {
		return s.register(ctx, req)
	}
	return &users.UserDTO{ID: uuid.New(), Username: req.Username, Role: enums.RoleUser, IsActive: true}, nil
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error) {
	if s.login != nil {
		return s.login(ctx, req)
	}
	return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, "invalid username or password")
}

func (s *stubAuthService) FederatedLogin(ctx context.Context, registrationID string, attrs map[string]any) (*auth.LoginResult, error) {
	if s.federated != nil {
		return s.federated(ctx, registrationID, attrs)
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnsupportedProvider, "unsupported identity provider")
}

func (s *stubAuthService) Logout(ctx context.Context, sessionID string) error {
	s.loggedOut = append(s.loggedOut, sessionID)
	return nil
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{TTLMinutes: 60, CookieName: "idhub_session", CookieSecure: true}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "idhub_session" {
			return cookie
		}
	}
	return nil
}

func TestAuthRegisterCreated(t *testing.T) {
	handler := AuthRegister(&stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"username":"jin","password":"correct horse battery"}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRegisterValidation(t *testing.T) {
	handler := AuthRegister(&stubAuthService{}, nil)

	// password below the minimum length
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"username":"jin","password":"short"}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthLoginSetsCookie(t *testing.T) {
	svc := &stubAuthService{
		login: func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error) {
			return &auth.LoginResult{
				SessionID: "sess-42",
				Principal: &identity.Principal{Username: req.Username, Role: enums.RoleUser},
				User:      &users.UserDTO{ID: uuid.New(), Username: req.Username, Role: enums.RoleUser, IsActive: true},
			}, nil
		},
	}
	handler := AuthLogin(svc, testSessionConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"jin","password":"correct horse battery"}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected session cookie")
	}
	if cookie.Value != "sess-42" {
		t.Fatalf("unexpected cookie value %q", cookie.Value)
	}
	if !cookie.HttpOnly || !cookie.Secure {
		t.Fatal("session cookie must be HttpOnly and Secure")
	}
	if strings.Contains(rec.Body.String(), "sess-42") {
		t.Fatal("session id must not appear in the body")
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	handler := AuthLogin(&stubAuthService{}, testSessionConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"jin","password":"wrong"}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %s", envelope.Error.Code)
	}
	if cookie := sessionCookie(t, rec); cookie != nil {
		t.Fatal("failed login must not set a cookie")
	}
}

func TestAuthLogoutClearsCookie(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthLogout(svc, testSessionConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), &identity.Principal{Username: "jin"}, "sess-42"))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.loggedOut) != 1 || svc.loggedOut[0] != "sess-42" {
		t.Fatalf("expected session invalidation, got %v", svc.loggedOut)
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Fatal("expected expired session cookie")
	}
}
