package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/seojindev/idhub-backend/pkg/db/models"
	"github.com/seojindev/idhub-backend/pkg/enums"
)

// Origin records which login path produced a Principal.
type Origin string

const (
	OriginLocal     Origin = "local"
	OriginFederated Origin = "federated"
)

// Principal is the canonical authenticated identity. Both login paths
// produce the same shape, so downstream authorization never needs to know
// how the user signed in. The struct round-trips through JSON because it is
// what gets serialized into the session store.
type Principal struct {
	UserID     uuid.UUID      `json:"user_id"`
	Username   string         `json:"username"`
	Email      *string        `json:"email,omitempty"`
	Role       enums.Role     `json:"role"`
	Origin     Origin         `json:"origin"`
	Provider   *string        `json:"provider,omitempty"`
	ProviderID *string        `json:"provider_id,omitempty"`
	Disabled   bool           `json:"disabled"`
	ResolvedAt time.Time      `json:"resolved_at"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// NewPrincipal builds a Principal from the persisted user record. Federated
// logins may attach the raw provider attribute map for diagnostics.
func NewPrincipal(user *models.User, attrs map[string]any) *Principal {
	origin := OriginLocal
	if user.IsFederated() {
		origin = OriginFederated
	}

	return &Principal{
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Role:       user.Role,
		Origin:     origin,
		Provider:   user.Provider,
		ProviderID: user.ProviderID,
		Disabled:   !user.IsActive,
		ResolvedAt: time.Now().UTC(),
		Attributes: attrs,
	}
}

// Authorities returns the granted roles. The role model is single-role, so
// the slice always has exactly one entry.
func (p *Principal) Authorities() []enums.Role {
	return []enums.Role{p.Role}
}

// HasRole reports whether the principal holds the given role exactly.
// There is no role hierarchy; ROLE_ADMIN does not imply ROLE_MANAGER.
func (p *Principal) HasRole(role enums.Role) bool {
	return p != nil && p.Role == role
}

// HasAnyRole reports whether the principal holds at least one of the roles.
func (p *Principal) HasAnyRole(roles ...enums.Role) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// Account status predicates. Expiry and locking are not modeled, so those
// report usable unconditionally; only the enabled flag is backed by data.

func (p *Principal) AccountNonExpired() bool { return true }

func (p *Principal) AccountNonLocked() bool { return true }

func (p *Principal) CredentialsNonExpired() bool { return true }

func (p *Principal) Enabled() bool {
	return p != nil && !p.Disabled
}
