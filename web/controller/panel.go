package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/argo-inference/model-dashboard/catalog"
	"github.com/argo-inference/model-dashboard/config"
	"github.com/argo-inference/model-dashboard/logger"
	"github.com/argo-inference/model-dashboard/web/service"
	"github.com/argo-inference/model-dashboard/web/session"
)

// PanelController serves the session-backed dashboard: the model catalog
// pages and the per-user token management endpoints.
type PanelController struct {
	BaseController

	store        *catalog.Store
	authService  *service.AuthService
	tokenService service.TokenService
}

// IssueTokenForm is the token creation request.
type IssueTokenForm struct {
	Description string `json:"description" form:"description"`
	TTLDays     int    `json:"ttlDays" form:"ttlDays"`
}

// ModelForm wraps a catalog record plus the overwrite flag of the upload
// page.
type ModelForm struct {
	catalog.Model
	Overwrite bool `json:"overwrite" form:"overwrite"`
}

// NewPanelController creates the controller and registers its routes behind
// the login gate.
func NewPanelController(g *gin.RouterGroup, store *catalog.Store, authService *service.AuthService) *PanelController {
	a := &PanelController{store: store, authService: authService}
	a.initRouter(g)
	return a
}

func (a *PanelController) initRouter(g *gin.RouterGroup) {
	g = g.Group("/panel")
	g.Use(a.checkLogin)

	g.GET("/", a.dashboard)

	g.GET("/api/models", a.listModels)
	g.GET("/api/models/:networkType/:name", a.getModel)
	g.POST("/api/models", a.saveModel)
	g.POST("/api/models/del/:networkType/:name", a.deleteModel)

	g.GET("/api/logs/:count", a.getLogs)

	g.GET("/api/profile", a.profile)
	g.GET("/api/tokens", a.listTokens)
	g.POST("/api/tokens", a.issueToken)
	g.POST("/api/tokens/revoke/:id", a.revokeToken)
	g.POST("/api/tokens/del/:id", a.deleteToken)
}

func (a *PanelController) dashboard(c *gin.Context) {
	id := session.GetLoginIdentity(c)
	html(c, "dashboard.html", "Model Dashboard", gin.H{
		"user":         id,
		"networkTypes": catalog.NetworkTypes,
	})
}

func (a *PanelController) listModels(c *gin.Context) {
	models, err := a.store.List(c.Request.Context())
	jsonObj(c, models, err)
}

func (a *PanelController) getModel(c *gin.Context) {
	m, err := a.store.Get(c.Request.Context(), c.Param("networkType"), c.Param("name"))
	if errors.Is(err, catalog.ErrModelNotFound) {
		pureJsonMsg(c, http.StatusNotFound, false, "model not found")
		return
	}
	jsonObj(c, m, err)
}

func (a *PanelController) saveModel(c *gin.Context) {
	var form ModelForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, "invalid model data", err)
		return
	}

	err := a.store.Put(c.Request.Context(), &form.Model, form.Overwrite)
	if errors.Is(err, catalog.ErrModelExists) {
		pureJsonMsg(c, http.StatusOK, false, "model already exists, enable overwrite to replace it")
		return
	}
	jsonMsg(c, "model saved", err)
}

func (a *PanelController) deleteModel(c *gin.Context) {
	err := a.store.Delete(c.Request.Context(), c.Param("networkType"), c.Param("name"))
	jsonMsg(c, "model deleted", err)
}

func (a *PanelController) getLogs(c *gin.Context) {
	count, err := strconv.Atoi(c.Param("count"))
	if err != nil || count <= 0 {
		count = 100
	}
	level := c.DefaultQuery("level", "INFO")
	jsonObj(c, logger.GetLogs(count, level), nil)
}

func (a *PanelController) profile(c *gin.Context) {
	jsonObj(c, session.GetLoginIdentity(c), nil)
}

func (a *PanelController) listTokens(c *gin.Context) {
	id := session.GetLoginIdentity(c)
	tokens, err := a.tokenService.ListTokens(id.Username)
	jsonObj(c, tokens, err)
}

// issueToken creates a bearer token for the logged-in user. The raw value
// appears in this response and is never retrievable again. Directory users
// get a shadow local row first so the token has an owner record.
func (a *PanelController) issueToken(c *gin.Context) {
	var form IssueTokenForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, "invalid token request", err)
		return
	}
	if form.Description == "" {
		form.Description = "No description"
	}
	if form.TTLDays == 0 {
		form.TTLDays = config.GetTokenExpiryDays()
	}

	id := session.GetLoginIdentity(c)
	if err := a.authService.EnsureShadowUser(id); err != nil {
		jsonMsg(c, "unable to set up token owner", err)
		return
	}

	raw, token, err := a.tokenService.Issue(id.Username, form.Description, form.TTLDays)
	if err != nil {
		jsonMsg(c, "unable to issue token", err)
		return
	}
	jsonObj(c, gin.H{"token": raw, "expiresAt": token.ExpiresAt, "id": token.Id}, nil)
}

func (a *PanelController) revokeToken(c *gin.Context) {
	tokenID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		jsonMsg(c, "invalid token id", err)
		return
	}
	id := session.GetLoginIdentity(c)
	jsonMsg(c, "token revoked", a.tokenService.RevokeByID(id.Username, tokenID))
}

func (a *PanelController) deleteToken(c *gin.Context) {
	tokenID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		jsonMsg(c, "invalid token id", err)
		return
	}
	id := session.GetLoginIdentity(c)
	jsonMsg(c, "token deleted", a.tokenService.DeleteByID(id.Username, tokenID))
}
