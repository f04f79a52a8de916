// Package web provides the dashboard's web server: routing, cookie sessions,
// templates and the background job scheduler.
package web

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/argo-inference/model-dashboard/catalog"
	"github.com/argo-inference/model-dashboard/config"
	"github.com/argo-inference/model-dashboard/logger"
	"github.com/argo-inference/model-dashboard/util/common"
	"github.com/argo-inference/model-dashboard/util/random"
	"github.com/argo-inference/model-dashboard/web/controller"
	"github.com/argo-inference/model-dashboard/web/job"
	"github.com/argo-inference/model-dashboard/web/middleware"
	"github.com/argo-inference/model-dashboard/web/service"
)

//go:embed html/*
var htmlFS embed.FS

// Server is the dashboard web server with its controllers, services and
// scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	index *controller.IndexController
	panel *controller.PanelController
	api   *controller.APIController

	authService *service.AuthService
	store       *catalog.Store

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a web server instance with a cancellable context.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

func (s *Server) getHtmlTemplate() (*template.Template, error) {
	return template.ParseFS(htmlFS, "html/*.html")
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()
	engine.Use(middleware.RequestIDMiddleware())

	if webDomain := config.GetWebDomain(); webDomain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(webDomain))
	}

	basePath := config.GetBasePath()
	engine.Use(func(c *gin.Context) {
		c.Set("base_path", basePath)
	})
	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{basePath + "api/"}),
	))

	// Session cookies are signed; an unset secret gets a random one, which
	// invalidates sessions across restarts but never leaves them unsigned.
	secret := config.GetSessionSecret()
	if secret == "" {
		logger.Warning("MDB_SESSION_SECRET not set, using a random per-process secret")
		secret = random.Seq(32)
	}
	store := cookie.NewStore([]byte(secret))
	engine.Use(sessions.Sessions("model-dashboard-session", store))

	tpl, err := s.getHtmlTemplate()
	if err != nil {
		return nil, err
	}
	engine.SetHTMLTemplate(tpl)

	g := engine.Group(basePath)
	s.index = controller.NewIndexController(g, s.authService)
	s.panel = controller.NewPanelController(g, s.store, s.authService)
	s.api = controller.NewAPIController(g, s.store)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

func (s *Server) startTask() {
	s.cron.AddJob("@hourly", job.NewTokenSweepJob())
}

// Start initializes the catalog store, the authenticator and the HTTP
// listener, then begins serving.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New()
	s.cron.Start()

	s.authService = service.NewAuthService(config.GetLdap())

	s.store, err = catalog.NewStore(s.ctx, config.GetObjectStore())
	if err != nil {
		return err
	}

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Info("web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{Handler: engine}

	go func() {
		defer common.Recover("web server")
		_ = s.httpServer.Serve(listener)
	}()

	s.startTask()

	return nil
}

// Stop gracefully shuts down the web server and the job scheduler.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	var err1, err2 error
	if s.httpServer != nil {
		err1 = s.httpServer.Shutdown(s.ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
	}
	return common.Combine(err1, err2)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }
