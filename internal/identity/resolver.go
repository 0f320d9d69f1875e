package identity

import (
	"context"
	"errors"

	"github.com/seojindev/idhub-backend/internal/oauth"
	"github.com/seojindev/idhub-backend/internal/users"
	"github.com/seojindev/idhub-backend/pkg/config"
	"github.com/seojindev/idhub-backend/pkg/db"
	"github.com/seojindev/idhub-backend/pkg/db/models"
	"github.com/seojindev/idhub-backend/pkg/enums"
	pkgerrors "github.com/seojindev/idhub-backend/pkg/errors"
	"github.com/seojindev/idhub-backend/pkg/logger"
	"github.com/seojindev/idhub-backend/pkg/security"
	"gorm.io/gorm"
)

// userStore is the slice of the users repository the resolver needs.
type userStore interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Resolver turns credentials or provider profiles into persisted user
// records. It owns the federated sign-up decision: first login creates the
// account, every later login returns the existing record untouched.
type Resolver struct {
	store    userStore
	password config.PasswordConfig
	logg     *logger.Logger
}

func NewResolver(store userStore, password config.PasswordConfig, logg *logger.Logger) *Resolver {
	return &Resolver{store: store, password: password, logg: logg}
}

// ResolveLocal loads the user backing a local login attempt. It is read-only
// and never creates accounts. An absent username is reported as NOT_FOUND;
// the login boundary decides how much of that to disclose on the wire.
func (r *Resolver) ResolveLocal(ctx context.Context, username string) (*models.User, error) {
	user, err := r.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown username")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

// ResolveFederated maps a normalized provider profile onto a local user
// record, creating one on first login. The synthesized username carries the
// uniqueness guarantee, so a concurrent first login loses the insert race
// and falls back to reading the winner's row. Existing records are never
// mutated from provider data; the local record stays authoritative.
func (r *Resolver) ResolveFederated(ctx context.Context, profile oauth.Profile) (*models.User, error) {
	username := profile.Username()

	user, err := r.store.FindByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load federated user")
	}

	placeholder, err := security.GeneratePlaceholderPassword()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate placeholder credential")
	}
	hash, err := security.HashPassword(placeholder, r.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash placeholder credential")
	}

	provider := profile.Provider.String()
	providerID := profile.ProviderID
	created, err := r.store.Create(ctx, users.CreateUserDTO{
		Username:     username,
		PasswordHash: hash,
		Email:        profile.Email,
		Role:         enums.RoleUser,
		Provider:     &provider,
		ProviderID:   &providerID,
	})
	if err == nil {
		if r.logg != nil {
			r.logg.Info(r.logg.WithProvider(ctx, provider), "federated account created")
		}
		return created, nil
	}

	if db.IsUniqueViolation(err, "users_username_key") {
		existing, readErr := r.store.FindByUsername(ctx, username)
		if readErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, readErr, "load federated user after insert race")
		}
		return existing, nil
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create federated user")
}
