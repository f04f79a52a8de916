package service

import (
	"errors"

	"github.com/argo-inference/model-dashboard/config"
	"github.com/argo-inference/model-dashboard/logger"
	ldaputil "github.com/argo-inference/model-dashboard/util/ldap"
	"github.com/argo-inference/model-dashboard/util/random"
)

// DirectoryFunc is the directory bind seam; tests swap it for a fake.
type DirectoryFunc func(cfg config.Ldap, username, password string) (*ldaputil.Identity, error)

// AuthService decides between the directory and the local credential store
// for interactive logins and applies the group authorization policy. Both
// paths converge on Identity so downstream code never cares which source
// authenticated the user.
type AuthService struct {
	ldap        config.Ldap
	directory   DirectoryFunc
	userService UserService
}

// NewAuthService builds an authenticator with the given immutable directory
// configuration.
func NewAuthService(ldap config.Ldap) *AuthService {
	return &AuthService{
		ldap:      ldap,
		directory: ldaputil.Authenticate,
	}
}

// NewAuthServiceWithDirectory injects a directory implementation, for tests.
func NewAuthServiceWithDirectory(ldap config.Ldap, directory DirectoryFunc) *AuthService {
	return &AuthService{ldap: ldap, directory: directory}
}

// Login authenticates one credential attempt. The directory is tried first
// when enabled; an explicit directory rejection is authoritative and never
// falls back to a same-named local account. Only an unreachable directory
// (or a disabled one) routes the attempt to the local store.
//
// A successful result may still carry Authorized=false when the required
// group check failed: authenticated-but-forbidden is a distinct outcome from
// invalid credentials.
func (s *AuthService) Login(username, password string) (*Identity, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	directoryDown := false
	if s.ldap.Enabled {
		dirID, err := s.directory(s.ldap, username, password)
		switch {
		case err == nil:
			authorized := s.ldap.RequiredGroup == "" || dirID.HasGroup(s.ldap.RequiredGroup)
			if !authorized {
				logger.Warningf("user %s is not in required group: %s", username, s.ldap.RequiredGroup)
			}
			return &Identity{
				Username:    dirID.Username,
				DisplayName: dirID.DisplayName,
				Email:       dirID.Email,
				AuthMethod:  AuthMethodDirectory,
				Authorized:  authorized,
				Groups:      dirID.Groups,
			}, nil
		case errors.Is(err, ldaputil.ErrUnreachable):
			logger.Warningf("directory unreachable, falling back to local store for %s", username)
			directoryDown = true
		default:
			// Explicit rejection: do not consult the local store, otherwise a
			// directory lockout could be masked by a same-named local account.
			return nil, ErrInvalidCredentials
		}
	}

	user, err := s.userService.CheckPassword(username, password)
	if err != nil {
		if directoryDown && errors.Is(err, ErrInvalidCredentials) {
			// The directory's verdict is unknown and the local store cannot
			// vouch for the user either; report the outage, not a rejection.
			return nil, ErrDirectoryUnreachable
		}
		return nil, err
	}

	return &Identity{
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		AuthMethod:  AuthMethodLocal,
		Authorized:  true,
		Groups:      []string{"local-users"},
	}, nil
}

// EnsureShadowUser guarantees a local row exists for a directory user so
// API tokens can be owned by them. The shadow row gets an unguessable random
// password; directory users never log in with it.
func (s *AuthService) EnsureShadowUser(id *Identity) error {
	if id.AuthMethod != AuthMethodDirectory {
		return nil
	}
	_, err := s.userService.GetUser(id.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	_, err = s.userService.CreateUser(id.Username, random.Token(tokenBytes), id.DisplayName, id.Email)
	if errors.Is(err, ErrDuplicateUser) {
		// Concurrent creation, the row exists now.
		return nil
	}
	return err
}
