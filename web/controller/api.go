package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/argo-inference/model-dashboard/catalog"
	"github.com/argo-inference/model-dashboard/logger"
	"github.com/argo-inference/model-dashboard/web/entity"
	"github.com/argo-inference/model-dashboard/web/service"
)

const identityKey = "identity"

// APIController serves the stateless REST API. Every request presents a
// bearer token; the health endpoint is the single exception.
type APIController struct {
	store        *catalog.Store
	tokenService service.TokenService
}

// APIModelInfo is the trimmed record returned by the list endpoint.
type APIModelInfo struct {
	Name             string `json:"name"`
	NetworkType      string `json:"network_type"`
	Description      string `json:"description"`
	Version          string `json:"version"`
	Enabled          bool   `json:"enabled"`
	Alias            string `json:"alias"`
	CreateDate       string `json:"create_date"`
	LastModifiedDate string `json:"last_modified_date"`
}

// APIModelsResponse is the list endpoint envelope.
type APIModelsResponse struct {
	Total  int            `json:"total"`
	Models []APIModelInfo `json:"models"`
}

// NewAPIController creates the controller and registers its routes.
func NewAPIController(g *gin.RouterGroup, store *catalog.Store) *APIController {
	a := &APIController{store: store}
	a.initRouter(g)
	return a
}

func (a *APIController) initRouter(g *gin.RouterGroup) {
	g.GET("/health", a.health)

	api := g.Group("/api/v1")
	api.Use(a.checkToken)
	api.GET("/models", a.listModels)
	api.GET("/models/:networkType/:name", a.getModel)
}

// checkToken extracts the bearer credential and validates it against the
// token store. Expired, revoked and unknown tokens share one external
// message.
func (a *APIController) checkToken(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || raw == "" {
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, entity.APIError{Detail: "missing bearer token"})
		return
	}

	id, err := a.tokenService.Validate(raw)
	if err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, entity.APIError{Detail: "invalid API token"})
		return
	}
	if id.RequireAuthorized() != nil {
		c.AbortWithStatusJSON(http.StatusForbidden, entity.APIError{Detail: "not authorized"})
		return
	}

	c.Set(identityKey, id)
	c.Next()
}

// health bypasses the authorization gate entirely.
func (a *APIController) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "API is running"})
}

func (a *APIController) listModels(c *gin.Context) {
	models, err := a.store.List(c.Request.Context())
	if err != nil {
		logger.Error("error retrieving models:", err)
		c.JSON(http.StatusInternalServerError, entity.APIError{Detail: "error retrieving models"})
		return
	}

	infos := make([]APIModelInfo, 0, len(models))
	for _, m := range models {
		version := m.Version
		if version == "" {
			if v, ok := m.InferenceInformation["version"].(string); ok {
				version = v
			}
		}
		desc := m.Description
		if len(desc) > 200 {
			desc = desc[:197] + "..."
		}
		infos = append(infos, APIModelInfo{
			Name:             m.Name,
			NetworkType:      m.NetworkType,
			Description:      desc,
			Version:          version,
			Enabled:          m.Enabled,
			Alias:            m.Alias,
			CreateDate:       m.CreateDate,
			LastModifiedDate: m.LastModifiedDate,
		})
	}

	c.JSON(http.StatusOK, APIModelsResponse{Total: len(infos), Models: infos})
}

func (a *APIController) getModel(c *gin.Context) {
	m, err := a.store.Get(c.Request.Context(), c.Param("networkType"), c.Param("name"))
	if err == catalog.ErrModelNotFound {
		c.JSON(http.StatusNotFound, entity.APIError{Detail: "model not found"})
		return
	}
	if err != nil {
		logger.Error("error retrieving model:", err)
		c.JSON(http.StatusInternalServerError, entity.APIError{Detail: "error retrieving model"})
		return
	}
	c.JSON(http.StatusOK, m)
}
