package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/seojindev/idhub-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  email TEXT,
  role TEXT NOT NULL DEFAULT 'ROLE_USER',
  provider TEXT,
  provider_id TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)

	return db
}

func strPtr(s string) *string { return &s }

func TestCreateAndFindByUsername(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Username:     "alice",
		PasswordHash: "$argon2id$stub",
		Email:        strPtr("alice@example.com"),
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, enums.RoleUser, created.Role)
	assert.True(t, created.IsActive)

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.NotNil(t, found.Email)
	assert.Equal(t, "alice@example.com", *found.Email)
}

func TestFindByUsernameMissing(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestCreateDuplicateUsernameFails(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Username: "google_999", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateUserDTO{Username: "google_999", PasswordHash: "h2"})
	require.Error(t, err)
}

func TestCreateFederatedUser(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Username:     "google_999",
		PasswordHash: "$argon2id$stub",
		Email:        strPtr("fed@example.com"),
		Role:         enums.RoleUser,
		Provider:     strPtr("google"),
		ProviderID:   strPtr("999"),
	})
	require.NoError(t, err)
	assert.True(t, created.IsFederated())

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Provider)
	assert.Equal(t, "google", *found.Provider)
	require.NotNil(t, found.ProviderID)
	assert.Equal(t, "999", *found.ProviderID)
}

func TestListAndCount(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for _, username := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, CreateUserDTO{Username: username, PasswordHash: "h"})
		require.NoError(t, err)
	}

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	page, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestCountByRoleAndProvider(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Username: "local1", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Username: "boss", PasswordHash: "h", Role: enums.RoleAdmin})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{
		Username:     "naver_123",
		PasswordHash: "h",
		Provider:     strPtr("naver"),
		ProviderID:   strPtr("123"),
	})
	require.NoError(t, err)

	byRole, err := repo.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byRole[enums.RoleUser])
	assert.Equal(t, int64(1), byRole[enums.RoleAdmin])

	byProvider, err := repo.CountByProvider(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byProvider["naver"])
	assert.Len(t, byProvider, 1)
}

func TestUpdateRoleAndSetActive(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{Username: "bob", PasswordHash: "h"})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateRole(ctx, created.ID, enums.RoleManager))
	require.NoError(t, repo.SetActive(ctx, created.ID, false))

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleManager, found.Role)
	assert.False(t, found.IsActive)

	err = repo.UpdateRole(ctx, uuid.New(), enums.RoleManager)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUpdateLastLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{Username: "bob", PasswordHash: "h"})
	require.NoError(t, err)
	require.Nil(t, created.LastLoginAt)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, at))

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.WithinDuration(t, at, *found.LastLoginAt, time.Second)
}
