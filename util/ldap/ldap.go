// Package ldaputil performs bind-and-search authentication against the
// enterprise directory and extracts group membership.
package ldaputil

import (
	"net"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/argo-inference/model-dashboard/config"
	"github.com/argo-inference/model-dashboard/util/common"
)

// ErrUnreachable reports that the directory could not be contacted. Callers
// may fall back to the local credential store on this error, and only on
// this error.
var ErrUnreachable = common.NewError("directory unreachable")

// ErrInvalidCredentials reports that the directory rejected the bind.
var ErrInvalidCredentials = common.NewError("invalid directory credentials")

// Identity is the ephemeral result of a successful directory bind. It is
// resolved fresh on every login attempt; membership and disablement can
// change between logins, so it is never cached.
type Identity struct {
	Username    string
	DN          string
	DisplayName string
	Email       string
	Groups      []string
}

// HasGroup reports whether the identity carries the given group DN.
func (i *Identity) HasGroup(group string) bool {
	for _, g := range i.Groups {
		if strings.EqualFold(g, group) {
			return true
		}
	}
	return false
}

// Authenticate binds as the user and returns their directory identity. The
// user DN comes from the configured template when one is set, otherwise from
// an anonymous search using the configured filter.
func Authenticate(cfg config.Ldap, username, password string) (*Identity, error) {
	conn, err := dial(cfg)
	if err != nil {
		return nil, ErrUnreachable
	}
	defer conn.Close()

	userDN := ""
	if cfg.UserDNTemplate != "" {
		userDN = strings.ReplaceAll(cfg.UserDNTemplate, "{username}", ldap.EscapeDN(username))
	} else {
		userDN, err = searchUserDN(conn, cfg, username)
		if err != nil {
			return nil, err
		}
	}

	if err := conn.Bind(userDN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		if isNetworkError(err) {
			return nil, ErrUnreachable
		}
		return nil, ErrInvalidCredentials
	}

	id := &Identity{Username: username, DN: userDN, DisplayName: username}

	entry, err := searchEntry(conn, cfg, username)
	if err != nil {
		// Bind succeeded; attribute lookup failure leaves a minimal identity.
		return id, nil
	}

	if v := entry.GetAttributeValue("displayName"); v != "" {
		id.DisplayName = v
	} else if v := entry.GetAttributeValue("cn"); v != "" {
		id.DisplayName = v
	}
	id.Email = entry.GetAttributeValue("mail")
	id.Groups = entry.GetAttributeValues(cfg.GroupAttribute)
	return id, nil
}

func dial(cfg config.Ldap) (*ldap.Conn, error) {
	conn, err := ldap.DialURL(cfg.ServerURL, ldap.DialWithDialer(&net.Dialer{Timeout: cfg.Timeout}))
	if err != nil {
		return nil, err
	}
	conn.SetTimeout(cfg.Timeout)
	return conn, nil
}

func searchUserDN(conn *ldap.Conn, cfg config.Ldap, username string) (string, error) {
	res, err := conn.Search(searchRequest(cfg, username, []string{"dn"}))
	if err != nil {
		if isNetworkError(err) {
			return "", ErrUnreachable
		}
		return "", ErrInvalidCredentials
	}
	if len(res.Entries) != 1 {
		return "", ErrInvalidCredentials
	}
	return res.Entries[0].DN, nil
}

func searchEntry(conn *ldap.Conn, cfg config.Ldap, username string) (*ldap.Entry, error) {
	res, err := conn.Search(searchRequest(cfg, username, []string{"cn", "mail", "displayName", cfg.GroupAttribute}))
	if err != nil {
		return nil, err
	}
	if len(res.Entries) == 0 {
		return nil, common.NewErrorf("user %q not found under %q", username, cfg.BaseDN)
	}
	return res.Entries[0], nil
}

func searchRequest(cfg config.Ldap, username string, attrs []string) *ldap.SearchRequest {
	filter := strings.ReplaceAll(cfg.SearchFilter, "{username}", ldap.EscapeFilter(username))
	return ldap.NewSearchRequest(
		cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		attrs,
		nil,
	)
}

func isNetworkError(err error) bool {
	if _, ok := err.(net.Error); ok {
		return true
	}
	return ldap.IsErrorWithCode(err, ldap.ErrorNetwork)
}
