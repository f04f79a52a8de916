// Package controller provides the HTTP handlers of the dashboard: the login
// page, the session-backed panel endpoints and the token-authenticated REST
// API. Authorization is enforced here and nowhere downstream.
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/argo-inference/model-dashboard/web/session"
)

// BaseController carries the authentication gate shared by all
// session-backed controllers.
type BaseController struct{}

// checkLogin verifies the session identity before any panel handler runs.
// A missing or tampered session cookie yields no identity and the request
// is bounced to the login page (or 401 for AJAX calls).
func (a *BaseController) checkLogin(c *gin.Context) {
	id := session.GetLoginIdentity(c)
	if id == nil {
		if isAjax(c) {
			pureJsonMsg(c, http.StatusUnauthorized, false, "login required")
		} else {
			c.Redirect(http.StatusTemporaryRedirect, c.GetString("base_path"))
		}
		c.Abort()
		return
	}
	if id.RequireAuthorized() != nil {
		if isAjax(c) {
			pureJsonMsg(c, http.StatusForbidden, false, "not authorized - contact your administrator")
		} else {
			c.Redirect(http.StatusTemporaryRedirect, c.GetString("base_path"))
		}
		c.Abort()
		return
	}
	c.Next()
}
