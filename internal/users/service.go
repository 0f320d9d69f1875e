package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/seojindev/idhub-backend/pkg/db/models"
	"github.com/seojindev/idhub-backend/pkg/enums"
	pkgerrors "github.com/seojindev/idhub-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service exposes the account administration and reporting operations.
type Service interface {
	GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	ListUsers(ctx context.Context, page, size int) (*UserListDTO, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role string) (*UserDTO, error)
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) (*UserDTO, error)
	AccountReport(ctx context.Context) (*AccountReportDTO, error)
}

type serviceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context) (map[enums.Role]int64, error)
	CountByProvider(ctx context.Context) (map[string]int64, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role enums.Role) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type service struct {
	repo serviceRepository
}

// NewService constructs the users service.
func NewService(repo serviceRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) ListUsers(ctx context.Context, page, size int) (*UserListDTO, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}
	rows, err := s.repo.List(ctx, size, (page-1)*size)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}

	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &UserListDTO{
		Users: items,
		Page:  page,
		Size:  size,
		Total: total,
	}, nil
}

// UpdateUserRole grants a new role. This is the only path that produces
// privileged accounts; self sign-up always yields ROLE_USER.
func (s *service) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) (*UserDTO, error) {
	parsed, err := enums.ParseRole(role)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role").
			WithDetails(map[string]any{"role": role})
	}

	if err := s.repo.UpdateRole(ctx, id, parsed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update role")
	}
	return s.GetUser(ctx, id)
}

func (s *service) SetUserActive(ctx context.Context, id uuid.UUID, active bool) (*UserDTO, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set active")
	}
	return s.GetUser(ctx, id)
}

// AccountReport summarizes the account population for the manager surface.
func (s *service) AccountReport(ctx context.Context) (*AccountReportDTO, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}
	byRole, err := s.repo.CountByRole(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count by role")
	}
	byProvider, err := s.repo.CountByProvider(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count by provider")
	}

	report := &AccountReportDTO{
		TotalAccounts: total,
		ByRole:        make(map[string]int64, len(byRole)),
		ByProvider:    byProvider,
	}
	for role, count := range byRole {
		report.ByRole[role.String()] = count
	}
	var federated int64
	for _, count := range byProvider {
		federated += count
	}
	report.FederatedAccounts = federated
	report.LocalAccounts = total - federated
	return report, nil
}
