package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/seojindev/idhub-backend/internal/users"
	"github.com/seojindev/idhub-backend/pkg/enums"
	pkgerrors "github.com/seojindev/idhub-backend/pkg/errors"
)

type stubUsersService struct {
	user   *users.UserDTO
	report *users.AccountReportDTO
	list   *users.UserListDTO
}

func (s *stubUsersService) GetUser(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func (s *stubUsersService) ListUsers(ctx context.Context, page, size int) (*users.UserListDTO, error) {
	if s.list != nil {
		return s.list, nil
	}
	return &users.UserListDTO{Page: page, Size: size}, nil
}

func (s *stubUsersService) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) (*users.UserDTO, error) {
	parsed, err := enums.ParseRole(role)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if s.user == nil || s.user.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	s.user.Role = parsed
	return s.user, nil
}

func (s *stubUsersService) SetUserActive(ctx context.Context, id uuid.UUID, active bool) (*users.UserDTO, error) {
	if s.user == nil || s.user.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	s.user.IsActive = active
	return s.user, nil
}

func (s *stubUsersService) AccountReport(ctx context.Context) (*users.AccountReportDTO, error) {
	if s.report != nil {
		return s.report, nil
	}
	return &users.AccountReportDTO{}, nil
}

func adminRouter(svc users.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/admin/users", AdminListUsers(svc, nil))
	r.Get("/api/v1/admin/users/{userId}", AdminGetUser(svc, nil))
	r.Patch("/api/v1/admin/users/{userId}/role", AdminUpdateUserRole(svc, nil))
	r.Patch("/api/v1/admin/users/{userId}/active", AdminSetUserActive(svc, nil))
	return r
}

func TestAdminGetUser(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Username: "jin", Role: enums.RoleUser, IsActive: true}
	router := adminRouter(&stubUsersService{user: user})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users/"+user.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/users/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/users/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestAdminListUsersPaging(t *testing.T) {
	router := adminRouter(&stubUsersService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users?page=2&size=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/users?size=5000", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range size, got %d", rec.Code)
	}
}

func TestAdminUpdateUserRole(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Username: "jin", Role: enums.RoleUser, IsActive: true}
	router := adminRouter(&stubUsersService{user: user})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/users/"+user.ID.String()+"/role",
		strings.NewReader(`{"role":"ROLE_MANAGER"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if user.Role != enums.RoleManager {
		t.Fatalf("expected role update, got %s", user.Role)
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/admin/users/"+user.ID.String()+"/role",
		strings.NewReader(`{"role":"MANAGER"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unprefixed role, got %d", rec.Code)
	}
}

func TestAdminSetUserActive(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Username: "jin", Role: enums.RoleUser, IsActive: true}
	router := adminRouter(&stubUsersService{user: user})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/users/"+user.ID.String()+"/active",
		strings.NewReader(`{"active":false}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if user.IsActive {
		t.Fatal("expected account to be disabled")
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/admin/users/"+user.ID.String()+"/active",
		strings.NewReader(`{}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing flag, got %d", rec.Code)
	}
}

func TestManagerAccountReport(t *testing.T) {
	report := &users.AccountReportDTO{TotalAccounts: 7, LocalAccounts: 5, FederatedAccounts: 2}
	handler := ManagerAccountReport(&stubUsersService{report: report}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/manager/reports/accounts", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"total_accounts":7`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
