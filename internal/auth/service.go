package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/seojindev/idhub-backend/internal/identity"
	"github.com/seojindev/idhub-backend/internal/oauth"
	"github.com/seojindev/idhub-backend/internal/users"
	"github.com/seojindev/idhub-backend/pkg/config"
	"github.com/seojindev/idhub-backend/pkg/db"
	"github.com/seojindev/idhub-backend/pkg/db/models"
	"github.com/seojindev/idhub-backend/pkg/enums"
	pkgerrors "github.com/seojindev/idhub-backend/pkg/errors"
	"github.com/seojindev/idhub-backend/pkg/logger"
	"github.com/seojindev/idhub-backend/pkg/metrics"
	"github.com/seojindev/idhub-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid username or password"

// Service defines the behavior needed by the auth and oauth controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	FederatedLogin(ctx context.Context, registrationID string, attrs map[string]any) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type principalResolver interface {
	ResolveLocal(ctx context.Context, username string) (*models.User, error)
	ResolveFederated(ctx context.Context, profile oauth.Profile) (*models.User, error)
}

type sessionManager interface {
	Put(ctx context.Context, payload any) (string, error)
	Invalidate(ctx context.Context, sessionID string) error
}

type service struct {
	users       userRepository
	resolver    principalResolver
	session     sessionManager
	passwordCfg config.PasswordConfig
	metrics     *metrics.AuthMetrics
	logg        *logger.Logger
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	Resolver       principalResolver
	SessionManager sessionManager
	PasswordConfig config.PasswordConfig
	Metrics        *metrics.AuthMetrics
	Logger         *logger.Logger
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("identity resolver is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		users:       params.UserRepo,
		resolver:    params.Resolver,
		session:     params.SessionManager,
		passwordCfg: params.PasswordConfig,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// Register creates a local account. The role is always ROLE_USER; privileged
// roles are granted out of band, never through self sign-up.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	created, err := s.users.Create(ctx, users.CreateUserDTO{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        normalizeEmail(req.Email),
		Role:         enums.RoleUser,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "users_username_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username is already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return users.FromModel(created), nil
}

// Login authenticates a local account and establishes a session. Password
// verification happens here, at the boundary; nothing downstream ever sees
// the raw credential.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	result, err := s.login(ctx, req)
	s.metrics.ObserveLogin("local", err == nil)
	return result, err
}

func (s *service) login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.resolver.ResolveLocal(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		// An unknown username and a wrong password must be
		// indistinguishable on the wire.
		if te := pkgerrors.As(err); te != nil && te.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
		}
		return nil, err
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeAccountDisabled, "account is disabled")
	}

	return s.establishSession(ctx, user, nil)
}

// FederatedLogin completes an OAuth callback: it normalizes the provider
// payload, resolves it to a local record, and establishes the same session
// shape a local login produces.
func (s *service) FederatedLogin(ctx context.Context, registrationID string, attrs map[string]any) (*LoginResult, error) {
	result, err := s.federatedLogin(ctx, registrationID, attrs)
	s.metrics.ObserveLogin(registrationID, err == nil)
	return result, err
}

func (s *service) federatedLogin(ctx context.Context, registrationID string, attrs map[string]any) (*LoginResult, error) {
	profile, err := oauth.Normalize(registrationID, attrs)
	if err != nil {
		return nil, err
	}

	user, err := s.resolver.ResolveFederated(ctx, profile)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeAccountDisabled, "account is disabled")
	}

	return s.establishSession(ctx, user, attrs)
}

// Logout tears down the server-side session. A missing session is not an
// error; logout is idempotent.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.session.Invalidate(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate session")
	}
	return nil
}

func (s *service) establishSession(ctx context.Context, user *models.User, attrs map[string]any) (*LoginResult, error) {
	now := time.Now().UTC()
	user.LastLoginAt = &now

	principal := identity.NewPrincipal(user, attrs)
	sessionID, err := s.session.Put(ctx, principal)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}

	// The session is the source of truth for a completed login; a failed
	// timestamp write must not undo it.
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "auth.last_login_stamp_failed", err)
	}

	return &LoginResult{
		SessionID: sessionID,
		Principal: principal,
		User:      users.FromModel(user),
	}, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	value := strings.ToLower(strings.TrimSpace(*email))
	if value == "" {
		return nil
	}
	return &value
}
