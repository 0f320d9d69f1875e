package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/seojindev/idhub-backend/internal/authz"
	"github.com/seojindev/idhub-backend/internal/identity"
	"github.com/seojindev/idhub-backend/pkg/config"
	"github.com/seojindev/idhub-backend/pkg/enums"
	"github.com/seojindev/idhub-backend/pkg/session"
)

type stubSessionReader struct {
	principals map[string]*identity.Principal
	err        error
}

func (s *stubSessionReader) Get(ctx context.Context, sessionID string, dest any) error {
	if s.err != nil {
		return s.err
	}
	principal, ok := s.principals[sessionID]
	if !ok {
		return session.ErrNoSession
	}
	payload, err := json.Marshal(principal)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dest)
}

func sessionCfg() config.SessionConfig {
	return config.SessionConfig{CookieName: "idhub_session"}
}

func capturePrincipal(captured **identity.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionAuthResolvesPrincipal(t *testing.T) {
	principal := &identity.Principal{UserID: uuid.New(), Username: "jin", Role: enums.RoleUser}
	reader := &stubSessionReader{principals: map[string]*identity.Principal{"sess-1": principal}}

	var got *identity.Principal
	handler := SessionAuth(sessionCfg(), reader, nil)(capturePrincipal(&got))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
	req.AddCookie(&http.Cookie{Name: "idhub_session", Value: "sess-1"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected principal in context")
	}
	if got.Username != "jin" {
		t.Fatalf("unexpected principal %q", got.Username)
	}
}

func TestSessionAuthWithoutCookieIsAnonymous(t *testing.T) {
	var got *identity.Principal
	handler := SessionAuth(sessionCfg(), &stubSessionReader{}, nil)(capturePrincipal(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != nil {
		t.Fatalf("expected anonymous request, got %q", got.Username)
	}
}

func TestSessionAuthStaleCookieIsAnonymous(t *testing.T) {
	var got *identity.Principal
	handler := SessionAuth(sessionCfg(), &stubSessionReader{}, nil)(capturePrincipal(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "idhub_session", Value: "expired"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got != nil {
		t.Fatal("stale cookie must not authenticate")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("stale cookie must not block, got %d", rec.Code)
	}
}

func TestSessionAuthLookupFailureIsAnonymous(t *testing.T) {
	reader := &stubSessionReader{err: errors.New("redis down")}
	var got *identity.Principal
	handler := SessionAuth(sessionCfg(), reader, nil)(capturePrincipal(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "idhub_session", Value: "sess-1"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != nil {
		t.Fatal("lookup failure must not authenticate")
	}
}

func serveAuthorized(t *testing.T, principal *identity.Principal, path string) *httptest.ResponseRecorder {
	t.Helper()
	handler := Authorize(authz.DefaultPolicy(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if principal != nil {
		req = req.WithContext(WithPrincipal(req.Context(), principal, "sess-1"))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthorizeMiddleware(t *testing.T) {
	cases := []struct {
		name      string
		principal *identity.Principal
		path      string
		want      int
	}{
		{"anonymous open path", nil, "/api/v1/auth/login", http.StatusOK},
		{"anonymous user path", nil, "/api/v1/user/me", http.StatusUnauthorized},
		{"user on user path", &identity.Principal{Role: enums.RoleUser}, "/api/v1/user/me", http.StatusOK},
		{"user on manager path", &identity.Principal{Role: enums.RoleUser}, "/api/v1/manager/reports", http.StatusForbidden},
		{"manager on admin path", &identity.Principal{Role: enums.RoleManager}, "/api/v1/admin/users/1", http.StatusForbidden},
		{"admin on admin path", &identity.Principal{Role: enums.RoleAdmin}, "/api/v1/admin/users/1", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serveAuthorized(t, tc.principal, tc.path)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRequireAnyRole(t *testing.T) {
	handler := RequireAnyRole(nil, enums.RoleAdmin, enums.RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	anonymous := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, anonymous)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", rec.Code)
	}

	asUser := anonymous.WithContext(WithPrincipal(context.Background(), &identity.Principal{Role: enums.RoleUser}, "s"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, asUser)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user, got %d", rec.Code)
	}

	asManager := anonymous.WithContext(WithPrincipal(context.Background(), &identity.Principal{Role: enums.RoleManager}, "s"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, asManager)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for manager, got %d", rec.Code)
	}
}
