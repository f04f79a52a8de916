package controller

import (
	"errors"
	"net/http"
	"text/template"

	"github.com/gin-gonic/gin"

	"github.com/argo-inference/model-dashboard/config"
	"github.com/argo-inference/model-dashboard/logger"
	"github.com/argo-inference/model-dashboard/web/service"
	"github.com/argo-inference/model-dashboard/web/session"
)

// LoginForm represents the login request structure.
type LoginForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// IndexController handles the login page, login and logout.
type IndexController struct {
	BaseController

	authService *service.AuthService
}

// NewIndexController creates the controller and registers its routes.
func NewIndexController(g *gin.RouterGroup, authService *service.AuthService) *IndexController {
	a := &IndexController{authService: authService}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/logout", a.logout)
	g.POST("/login", a.login)
}

func (a *IndexController) index(c *gin.Context) {
	if session.IsLogin(c) {
		c.Redirect(http.StatusTemporaryRedirect, "panel/")
		return
	}
	html(c, "login.html", "Sign In", nil)
}

// login authenticates the credential attempt and establishes the session.
// All pre-authorization failures share one generic message so usernames
// cannot be enumerated; only a failed group check gets a distinct one.
func (a *IndexController) login(c *gin.Context) {
	var form LoginForm

	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, "invalid form data")
		return
	}
	if form.Username == "" || form.Password == "" {
		pureJsonMsg(c, http.StatusOK, false, "please enter both username and password")
		return
	}

	safeUser := template.HTMLEscapeString(form.Username)

	id, err := a.authService.Login(form.Username, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrDirectoryUnreachable) {
			logger.Errorf("directory unreachable during login of %q", safeUser)
		} else {
			logger.Warningf("failed login attempt for user: %q, IP: %q", safeUser, getRemoteIp(c))
		}
		pureJsonMsg(c, http.StatusOK, false, "invalid username or password")
		return
	}

	if !id.Authorized {
		logger.Warningf("user %q authenticated but not authorized, IP: %q", safeUser, getRemoteIp(c))
		pureJsonMsg(c, http.StatusOK, false, "not authorized - contact your administrator")
		return
	}

	if err := session.SetMaxAge(c, config.GetSessionMaxAge()*60); err != nil {
		logger.Warning("unable to set session max age:", err)
	}
	if err := session.SetLoginIdentity(c, id); err != nil {
		logger.Warning("unable to save session:", err)
		jsonMsg(c, "login", err)
		return
	}

	logger.Infof("%s logged in successfully (%s), IP: %s", safeUser, id.AuthMethod, getRemoteIp(c))
	jsonMsg(c, "login successful", nil)
}

func (a *IndexController) logout(c *gin.Context) {
	if id := session.GetLoginIdentity(c); id != nil {
		logger.Infof("%s logged out successfully", id.Username)
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("unable to clear session:", err)
	}
	c.Redirect(http.StatusTemporaryRedirect, c.GetString("base_path"))
}
