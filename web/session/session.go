// Package session provides typed accessors over the cookie session store.
// The cookie is signed by the store; a corrupt or tampered cookie simply
// yields no identity and the request is treated as unauthenticated.
package session

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/argo-inference/model-dashboard/web/service"
)

const loginIdentity = "LOGIN_IDENTITY"

func init() {
	gob.Register(service.Identity{})
}

func SetLoginIdentity(c *gin.Context, id *service.Identity) error {
	s := sessions.Default(c)
	s.Set(loginIdentity, *id)
	return s.Save()
}

func SetMaxAge(c *gin.Context, maxAge int) error {
	s := sessions.Default(c)
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	})
	return s.Save()
}

func GetLoginIdentity(c *gin.Context) *service.Identity {
	s := sessions.Default(c)
	if obj := s.Get(loginIdentity); obj != nil {
		if id, ok := obj.(service.Identity); ok {
			return &id
		}
	}
	return nil
}

func IsLogin(c *gin.Context) bool {
	id := GetLoginIdentity(c)
	return id != nil && id.Authorized
}

func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	return s.Save()
}
