package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/seojindev/idhub-backend/pkg/enums"
	"gorm.io/gorm"
)

// User is the canonical identity record shared by both login paths.
//
// Local accounts leave Provider/ProviderID nil. Federated accounts carry the
// originating provider pair and a synthesized username of the form
// "{provider}_{providerId}", which makes (provider, providerId) unique through
// the username unique index.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Email        *string    `gorm:"type:text"`
	Role         enums.Role `gorm:"type:text;not null;default:'ROLE_USER'"`
	Provider     *string    `gorm:"type:text"`
	ProviderID   *string    `gorm:"column:provider_id;type:text"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an ID client-side so the model works on drivers
// without gen_random_uuid (the SQLite dev/test path).
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsFederated reports whether the account originates from a third-party provider.
func (u *User) IsFederated() bool {
	return u != nil && u.Provider != nil && u.ProviderID != nil
}
