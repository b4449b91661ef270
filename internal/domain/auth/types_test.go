package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleSet_Intersects(t *testing.T) {
	tests := []struct {
		name     string
		have     RoleSet
		required RoleSet
		want     bool
	}{
		{"user denied admin subtree", NewRoleSet("user"), NewRoleSet("admin"), false},
		{"admin+user allowed admin subtree", NewRoleSet("admin", "user"), NewRoleSet("admin"), true},
		{"exact match", NewRoleSet("user"), NewRoleSet("user"), true},
		{"empty credential denied", NewRoleSet(), NewRoleSet("user"), false},
		{"empty requirement denies everyone", NewRoleSet("admin"), NewRoleSet(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.have.Intersects(tt.required))
		})
	}
}

func TestRoleSet_HomeRoute(t *testing.T) {
	assert.Equal(t, RouteAdminDashboard, NewRoleSet("admin").HomeRoute())
	assert.Equal(t, RouteAdminDashboard, NewRoleSet("admin", "user").HomeRoute())
	assert.Equal(t, RouteUserInfo, NewRoleSet("user").HomeRoute())
	assert.Equal(t, RouteLogin, NewRoleSet().HomeRoute())

	// Idempotent under repeated calls with the same input.
	rs := NewRoleSet("user")
	assert.Equal(t, rs.HomeRoute(), rs.HomeRoute())
}

func TestNewRoleSet_DropsEmpties(t *testing.T) {
	rs := NewRoleSet("user", "", "admin")
	assert.Len(t, rs, 2)
	assert.True(t, rs.Has(RoleUser))
	assert.True(t, rs.Has(RoleAdmin))
}

func TestCredential_Anonymous(t *testing.T) {
	c := Anonymous()
	assert.NotNil(t, c.Roles)
	assert.False(t, c.IsAuthenticated())
	assert.Equal(t, RouteLogin, c.Roles.HomeRoute())
}

func TestCredential_Normalize(t *testing.T) {
	var c Credential
	assert.Nil(t, c.Roles)
	n := c.Normalize()
	assert.NotNil(t, n.Roles)
	// Role-membership checks never fail on a missing collection.
	assert.False(t, n.Roles.Has(RoleUser))
}

func TestCredential_IsAuthenticated(t *testing.T) {
	assert.False(t, Credential{Roles: NewRoleSet("user")}.IsAuthenticated(), "roles without token")
	assert.False(t, Credential{Roles: NewRoleSet(), AccessToken: "tok"}.IsAuthenticated(), "token without roles")
	assert.True(t, Credential{Roles: NewRoleSet("user"), AccessToken: "tok"}.IsAuthenticated())
}
