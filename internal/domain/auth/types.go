package auth

// Package auth contains domain-level types for credentials and authorization.
// It is pure and free of transport/adapter concerns.

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// RoleSet is an unordered set of roles. A RoleSet is never nil in a
// well-formed Credential; use NewRoleSet or Credential normalization so
// membership checks never fail on a missing collection.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from role strings, dropping empties.
func NewRoleSet(roles ...string) RoleSet {
	rs := make(RoleSet, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		rs[Role(r)] = struct{}{}
	}
	return rs
}

// Has reports whether the set contains the role.
func (rs RoleSet) Has(role Role) bool {
	_, ok := rs[role]
	return ok
}

// Intersects reports whether the two sets share at least one role.
func (rs RoleSet) Intersects(other RoleSet) bool {
	for r := range other {
		if rs.Has(r) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the set holds no roles.
func (rs RoleSet) IsEmpty() bool { return len(rs) == 0 }

// Strings returns the roles as a sorted-free string slice for serialization.
func (rs RoleSet) Strings() []string {
	out := make([]string, 0, len(rs))
	for r := range rs {
		out = append(out, string(r))
	}
	return out
}

// Route names used by HomeRoute and the HTTP layer. Centralized here so the
// post-login redirect, the bootstrap-at-root redirect, and the missing-page
// fallback all resolve identically for the same credential.
const (
	RouteLogin          = "/login"
	RouteAdminDashboard = "/admin/dashboard"
	RouteUserInfo       = "/user/info"
	RouteUnauthorized   = "/unauthorized"
)

// HomeRoute maps a role set to its default landing route.
// Total: admin wins over user, any other non-empty set lands on the user
// page, the empty set goes back to login.
func (rs RoleSet) HomeRoute() string {
	switch {
	case rs.Has(RoleAdmin):
		return RouteAdminDashboard
	case !rs.IsEmpty():
		return RouteUserInfo
	default:
		return RouteLogin
	}
}

// Credential is the gateway's belief about a browser session's identity:
// who the user is, what roles they hold, and the upstream bearer token.
type Credential struct {
	Email       string  `json:"email,omitempty"`
	Roles       RoleSet `json:"roles"`
	AccessToken string  `json:"access_token,omitempty"`
}

// Anonymous returns the unauthenticated credential: empty role set, no
// token. This is the only representation of "logged out".
func Anonymous() Credential {
	return Credential{Roles: RoleSet{}}
}

// Normalize returns a copy with a non-nil role set.
func (c Credential) Normalize() Credential {
	if c.Roles == nil {
		c.Roles = RoleSet{}
	}
	return c
}

// IsAuthenticated reports whether the credential denotes a logged-in user.
func (c Credential) IsAuthenticated() bool {
	return !c.Roles.IsEmpty() && c.AccessToken != ""
}
