package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/seojindev/idhub-backend/api/middleware"
	"github.com/seojindev/idhub-backend/internal/identity"
	"github.com/seojindev/idhub-backend/pkg/enums"
)

func TestUserMe(t *testing.T) {
	handler := UserMe(nil)

	principal := &identity.Principal{
		UserID:   uuid.New(),
		Username: "naver_123",
		Role:     enums.RoleUser,
		Origin:   identity.OriginFederated,
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), principal, "sess-1"))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"username":"naver_123"`) || !strings.Contains(body, `"origin":"federated"`) {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestUserMeAnonymous(t *testing.T) {
	handler := UserMe(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
