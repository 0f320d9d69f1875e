package authz

import (
	"strings"

	"github.com/seojindev/idhub-backend/internal/identity"
	"github.com/seojindev/idhub-backend/pkg/enums"
	pkgerrors "github.com/seojindev/idhub-backend/pkg/errors"
)

// RequirementKind classifies what a rule demands from the caller.
type RequirementKind int

const (
	// PermitAll lets the request through regardless of authentication.
	PermitAll RequirementKind = iota
	// Authenticated requires any signed-in principal.
	Authenticated
	// HasAnyRole requires a signed-in principal holding one of the roles.
	HasAnyRole
)

// Requirement is the demand attached to a path prefix.
type Requirement struct {
	Kind  RequirementKind
	Roles []enums.Role
}

func RequireAuthenticated() Requirement {
	return Requirement{Kind: Authenticated}
}

func RequireAnyRole(roles ...enums.Role) Requirement {
	return Requirement{Kind: HasAnyRole, Roles: roles}
}

// Rule binds a path prefix to a requirement. Rules are evaluated in order
// and the first matching prefix wins, so narrower prefixes must come first.
type Rule struct {
	PathPrefix  string
	Requirement Requirement
}

// Policy is an ordered rule table evaluated purely on the request path and
// the resolved principal. It holds no per-request state and is safe for
// concurrent use.
type Policy struct {
	rules []Rule
}

func NewPolicy(rules []Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy returns the protection table for the API surface. Paths
// outside every protected prefix are open.
func DefaultPolicy() *Policy {
	return NewPolicy([]Rule{
		{PathPrefix: "/api/v1/user/", Requirement: RequireAuthenticated()},
		{PathPrefix: "/api/v1/manager/", Requirement: RequireAnyRole(enums.RoleAdmin, enums.RoleManager)},
		{PathPrefix: "/api/v1/admin/", Requirement: RequireAnyRole(enums.RoleAdmin)},
	})
}

// Decision is the outcome of evaluating a request against the policy.
type Decision struct {
	Allowed bool
	// Rule is the matched path prefix, empty when no rule matched.
	Rule string
	// Err carries the typed denial: UNAUTHORIZED when no principal was
	// present, FORBIDDEN when the principal lacks the required role.
	Err error
}

// Evaluate applies the first matching rule to the principal. A nil principal
// means the request is unauthenticated.
func (p *Policy) Evaluate(principal *identity.Principal, path string) Decision {
	for _, rule := range p.rules {
		if !matchesPrefix(path, rule.PathPrefix) {
			continue
		}
		return p.apply(rule, principal)
	}
	return Decision{Allowed: true}
}

func (p *Policy) apply(rule Rule, principal *identity.Principal) Decision {
	decision := Decision{Rule: rule.PathPrefix}

	switch rule.Requirement.Kind {
	case PermitAll:
		decision.Allowed = true
		return decision
	case Authenticated:
		if principal == nil {
			decision.Err = pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
			return decision
		}
	case HasAnyRole:
		if principal == nil {
			decision.Err = pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
			return decision
		}
		if !principal.HasAnyRole(rule.Requirement.Roles...) {
			decision.Err = pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
			return decision
		}
	}

	decision.Allowed = true
	return decision
}

// matchesPrefix treats the rule prefix as a path subtree: "/api/v1/user/"
// matches "/api/v1/user" itself and everything below it.
func matchesPrefix(path, prefix string) bool {
	if strings.HasPrefix(path, prefix) {
		return true
	}
	trimmed := strings.TrimSuffix(prefix, "/")
	return path == trimmed
}
