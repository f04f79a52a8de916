// Package service implements the authentication and authorization core:
// the local credential store, the API token service and the authenticator
// that reconciles directory and local logins into one identity result.
package service

import (
	"github.com/argo-inference/model-dashboard/util/common"
)

// AuthMethod tags which path produced an Identity.
type AuthMethod string

const (
	AuthMethodDirectory AuthMethod = "directory"
	AuthMethodLocal     AuthMethod = "local"
	AuthMethodToken     AuthMethod = "token"
)

// Identity is the unified result of any successful authentication. It is the
// only shape downstream authorization code depends on, regardless of whether
// the user came in through the directory, the local store or a bearer token.
type Identity struct {
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Email       string     `json:"email"`
	AuthMethod  AuthMethod `json:"authMethod"`
	Authorized  bool       `json:"authorized"`
	Groups      []string   `json:"groups,omitempty"`
}

// RequireAuthorized turns an absent or authenticated-but-forbidden identity
// into a typed error for callers that need a hard gate rather than a flag.
func (i *Identity) RequireAuthorized() error {
	if i == nil || !i.Authorized {
		return ErrNotAuthorized
	}
	return nil
}

// Sentinel errors of the authentication core. The web layer maps these to
// user-visible messages and status codes; unknown-user and wrong-password
// both surface as ErrInvalidCredentials to prevent username enumeration.
var (
	ErrInvalidCredentials   = common.NewError("invalid username or password")
	ErrInactiveAccount      = common.NewError("account is disabled")
	ErrNotAuthorized        = common.NewError("not authorized")
	ErrDirectoryUnreachable = common.NewError("directory unreachable")
	ErrDuplicateUser        = common.NewError("username already exists")
	ErrUserNotFound         = common.NewError("user not found")
	ErrInvalidToken         = common.NewError("invalid API token")
)
