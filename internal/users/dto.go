package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/seojindev/idhub-backend/pkg/db/models"
	"github.com/seojindev/idhub-backend/pkg/enums"
)

// UserDTO is the transport shape that omits the credential hash.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       *string    `json:"email,omitempty"`
	Role        enums.Role `json:"role"`
	Provider    *string    `json:"provider,omitempty"`
	ProviderID  *string    `json:"provider_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserListDTO is a page of accounts plus paging metadata.
type UserListDTO struct {
	Users []UserDTO `json:"users"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
	Total int64     `json:"total"`
}

// AccountReportDTO summarizes the account population.
type AccountReportDTO struct {
	TotalAccounts     int64            `json:"total_accounts"`
	LocalAccounts     int64            `json:"local_accounts"`
	FederatedAccounts int64            `json:"federated_accounts"`
	ByRole            map[string]int64 `json:"by_role"`
	ByProvider        map[string]int64 `json:"by_provider"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	PasswordHash string
	Email        *string
	Role         enums.Role
	Provider     *string
	ProviderID   *string
	IsActive     *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Provider:    u.Provider,
		ProviderID:  u.ProviderID,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	role := c.Role
	if role == "" {
		role = enums.RoleUser
	}

	return &models.User{
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		Email:        c.Email,
		Role:         role,
		Provider:     c.Provider,
		ProviderID:   c.ProviderID,
		IsActive:     isActive,
	}
}
