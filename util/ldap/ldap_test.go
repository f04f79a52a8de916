package ldaputil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/argo-inference/model-dashboard/config"
)

func TestHasGroup(t *testing.T) {
	id := &Identity{Groups: []string{
		"cn=model-dashboard-users,ou=groups,dc=example,dc=com",
		"cn=everyone,ou=groups,dc=example,dc=com",
	}}

	assert.True(t, id.HasGroup("cn=model-dashboard-users,ou=groups,dc=example,dc=com"))
	// DN comparison is case-insensitive
	assert.True(t, id.HasGroup("CN=Model-Dashboard-Users,OU=Groups,DC=example,DC=com"))
	assert.False(t, id.HasGroup("cn=admins,ou=groups,dc=example,dc=com"))

	empty := &Identity{}
	assert.False(t, empty.HasGroup("cn=everyone,ou=groups,dc=example,dc=com"))
}

func TestSearchRequestEscapesUsername(t *testing.T) {
	cfg := config.Ldap{
		BaseDN:       "dc=example,dc=com",
		SearchFilter: "(&(objectClass=person)(uid={username}))",
	}

	req := searchRequest(cfg, "al*ce", []string{"dn"})
	assert.Equal(t, "(&(objectClass=person)(uid=al\\2ace))", req.Filter)
	assert.Equal(t, "dc=example,dc=com", req.BaseDN)
}

func TestAuthenticateUnreachableServer(t *testing.T) {
	cfg := config.Ldap{
		Enabled:   true,
		ServerURL: "ldap://127.0.0.1:1", // nothing listens here
		BaseDN:    "dc=example,dc=com",
	}

	_, err := Authenticate(cfg, "alice", "pw")
	assert.ErrorIs(t, err, ErrUnreachable)
}
