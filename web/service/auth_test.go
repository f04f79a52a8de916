package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argo-inference/model-dashboard/config"
	ldaputil "github.com/argo-inference/model-dashboard/util/ldap"
)

const testGroup = "cn=model-dashboard-users,ou=groups,dc=example,dc=com"

func ldapConfig(requiredGroup string) config.Ldap {
	return config.Ldap{
		Enabled:        true,
		RequiredGroup:  requiredGroup,
		GroupAttribute: "memberOf",
	}
}

func directoryWith(id *ldaputil.Identity, err error) DirectoryFunc {
	return func(cfg config.Ldap, username, password string) (*ldaputil.Identity, error) {
		return id, err
	}
}

func TestLoginDirectorySuccess(t *testing.T) {
	tests := []struct {
		name           string
		requiredGroup  string
		groups         []string
		wantAuthorized bool
	}{
		{
			name:           "member of required group",
			requiredGroup:  testGroup,
			groups:         []string{"cn=other,dc=example,dc=com", testGroup},
			wantAuthorized: true,
		},
		{
			name:           "not a member of required group",
			requiredGroup:  testGroup,
			groups:         []string{"cn=other,dc=example,dc=com"},
			wantAuthorized: false,
		},
		{
			name:           "no required group configured",
			requiredGroup:  "",
			groups:         nil,
			wantAuthorized: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dirID := &ldaputil.Identity{
				Username:    "alice",
				DisplayName: "Alice Example",
				Email:       "alice@example.com",
				Groups:      tt.groups,
			}
			s := NewAuthServiceWithDirectory(ldapConfig(tt.requiredGroup), directoryWith(dirID, nil))

			id, err := s.Login("alice", "pw")
			require.NoError(t, err)
			assert.Equal(t, AuthMethodDirectory, id.AuthMethod)
			assert.Equal(t, tt.wantAuthorized, id.Authorized)
			assert.Equal(t, "Alice Example", id.DisplayName)
		})
	}
}

func TestLoginDirectoryRejectionIsAuthoritative(t *testing.T) {
	setupTestDB(t)

	// same-named local account with the attempted password
	users := UserService{}
	_, err := users.CreateUser("alice", "pw", "Local Alice", "")
	require.NoError(t, err)

	s := NewAuthServiceWithDirectory(ldapConfig(testGroup),
		directoryWith(nil, ldaputil.ErrInvalidCredentials))

	// explicit rejection must not fall back to the local store
	_, err = s.Login("alice", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginFallsBackWhenDirectoryUnreachable(t *testing.T) {
	setupTestDB(t)

	users := UserService{}
	_, err := users.CreateUser("alice", "s3cret!", "Alice", "")
	require.NoError(t, err)

	s := NewAuthServiceWithDirectory(ldapConfig(testGroup),
		directoryWith(nil, ldaputil.ErrUnreachable))

	id, err := s.Login("alice", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, AuthMethodLocal, id.AuthMethod)
	assert.True(t, id.Authorized)

	// neither store can vouch for the user, so the outage is reported
	_, err = s.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrDirectoryUnreachable)

	_, err = s.Login("mallory", "pw")
	assert.ErrorIs(t, err, ErrDirectoryUnreachable)
}

func TestLoginLocalWhenDirectoryDisabled(t *testing.T) {
	setupTestDB(t)

	users := UserService{}
	_, err := users.CreateUser("alice", "s3cret!", "Alice", "")
	require.NoError(t, err)

	s := NewAuthServiceWithDirectory(config.Ldap{Enabled: false},
		func(cfg config.Ldap, username, password string) (*ldaputil.Identity, error) {
			t.Fatal("directory must not be consulted when disabled")
			return nil, nil
		})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.Login("alice", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("correct password", func(t *testing.T) {
		id, err := s.Login("alice", "s3cret!")
		require.NoError(t, err)
		assert.Equal(t, AuthMethodLocal, id.AuthMethod)
		assert.True(t, id.Authorized)
	})

	t.Run("inactive account", func(t *testing.T) {
		require.NoError(t, users.SetActive("alice", false))
		_, err := s.Login("alice", "s3cret!")
		assert.ErrorIs(t, err, ErrInactiveAccount)
	})
}

func TestLoginEmptyCredentials(t *testing.T) {
	s := NewAuthServiceWithDirectory(config.Ldap{Enabled: false}, nil)

	_, err := s.Login("", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login("alice", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRequireAuthorized(t *testing.T) {
	var nilID *Identity
	assert.ErrorIs(t, nilID.RequireAuthorized(), ErrNotAuthorized)

	id := &Identity{Username: "alice", AuthMethod: AuthMethodDirectory}
	assert.ErrorIs(t, id.RequireAuthorized(), ErrNotAuthorized)

	id.Authorized = true
	assert.NoError(t, id.RequireAuthorized())
}

func TestEnsureShadowUser(t *testing.T) {
	setupTestDB(t)
	users := UserService{}

	dirIdentity := &Identity{
		Username:    "alice",
		DisplayName: "Alice Example",
		Email:       "alice@example.com",
		AuthMethod:  AuthMethodDirectory,
		Authorized:  true,
	}
	s := NewAuthServiceWithDirectory(ldapConfig(""), nil)

	require.NoError(t, s.EnsureShadowUser(dirIdentity))

	user, err := users.GetUser("alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice Example", user.DisplayName)
	assert.True(t, user.IsActive)

	// idempotent for an existing row
	require.NoError(t, s.EnsureShadowUser(dirIdentity))

	// no shadow row for local identities
	localIdentity := &Identity{Username: "bob", AuthMethod: AuthMethodLocal}
	require.NoError(t, s.EnsureShadowUser(localIdentity))
	_, err = users.GetUser("bob")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
