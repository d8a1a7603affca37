// Package server assembles the gin ingress layer: middleware, route
// registration and graceful shutdown, grounded on the teacher's
// hivemind/server.go and hivemind/router.go (Config -> Complete -> New,
// installMiddleware/installController split), with the grpc sidecar,
// plugin framework and MCP module dropped — this pipeline has neither a
// second transport nor a plugin system (see DESIGN.md, dropped teacher
// dependencies).
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/brightpath-edu/iepforge/internal/config"
	"github.com/brightpath-edu/iepforge/internal/handler/middleware"
	v1 "github.com/brightpath-edu/iepforge/internal/handler/v1"
	"github.com/brightpath-edu/iepforge/internal/orchestrator"
	"github.com/brightpath-edu/iepforge/pkg/logger"
	"github.com/brightpath-edu/iepforge/pkg/shutdown"
	"github.com/brightpath-edu/iepforge/pkg/shutdown/posixsignal"
)

// Dependencies bundles everything the router needs beyond the orchestrator
// itself.
type Dependencies struct {
	Orchestrator *orchestrator.Orchestrator
	PrincipalTbl *middleware.PrincipalTable
}

// Server owns the two HTTP listeners (ingress + admin/pprof) and the
// graceful-shutdown coordinator, mirroring apiServer/preparedAPIServer.
type Server struct {
	gs *shutdown.GracefulShutdown

	ingress *http.Server
	admin   *http.Server
}

// New builds a Server from cfg and deps, installing middleware and routes
// but not yet listening.
func New(cfg *config.Config, deps Dependencies) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	installMiddleware(engine, deps)
	installRoutes(engine, deps)

	adminEngine := gin.New()
	adminEngine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	pprof.Register(adminEngine)

	timeout := time.Duration(cfg.ServerRunOptions.RequestTimeoutSeconds) * time.Second

	s := &Server{
		gs: shutdown.New(),
		ingress: &http.Server{
			Addr:         cfg.ServerRunOptions.BindAddress,
			Handler:      engine,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		admin: &http.Server{
			Addr:    cfg.ServerRunOptions.AdminAddress,
			Handler: adminEngine,
		},
	}

	if err := s.gs.AddShutdownManager(posixsignal.NewPosixSignalManager()); err != nil {
		return nil, fmt.Errorf("server: register signal manager: %w", err)
	}
	s.gs.AddShutdownCallback(shutdown.FuncShutdownCallback{
		CallbackName: "http-listeners",
		Func: func(string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = s.ingress.Shutdown(ctx)
			_ = s.admin.Shutdown(ctx)
			return nil
		},
	})

	return s, nil
}

// AddCloser registers a resource (a BoltDB handle, a vector index) to be
// closed when the server stops, run in registration order after the HTTP
// listeners have drained.
func (s *Server) AddCloser(name string, closeFn func() error) {
	s.gs.AddShutdownCallback(shutdown.FuncShutdownCallback{CallbackName: name, Func: func(string) error { return closeFn() }})
}

// Run starts both listeners and blocks until they have both stopped after a
// graceful shutdown triggered by SIGINT/SIGTERM. A listen error from either
// listener is returned at once, without waiting for the other to stop.
func (s *Server) Run() error {
	errCh := make(chan error, 2)
	doneCh := make(chan struct{}, 2)

	go func() {
		logger.Info("[Server] admin/pprof listening on %s", s.admin.Addr)
		err := s.admin.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("admin listener: %w", err)
		}
		doneCh <- struct{}{}
	}()

	go func() {
		logger.Info("[Server] ingress listening on %s", s.ingress.Addr)
		err := s.ingress.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("ingress listener: %w", err)
		}
		doneCh <- struct{}{}
	}()

	stopped := 0
	for stopped < 2 {
		select {
		case err := <-errCh:
			return err
		case <-doneCh:
			stopped++
		}
	}
	return nil
}

func installMiddleware(g *gin.Engine, deps Dependencies) {
	g.Use(gin.Recovery())
	if deps.PrincipalTbl != nil {
		g.Use(middleware.BearerAuth(deps.PrincipalTbl))
	} else {
		logger.Warn("[Server] auth.token-file produced an empty principal table; every request will be rejected")
		g.Use(middleware.BearerAuth(&middleware.PrincipalTable{}))
	}
}

func installRoutes(g *gin.Engine, deps Dependencies) {
	assessmentHandler := v1.NewAssessmentHandler(deps.Orchestrator)
	iepHandler := v1.NewIEPHandler(deps.Orchestrator)
	templateHandler := v1.NewTemplateHandler(deps.Orchestrator)
	auditHandler := v1.NewAuditHandler(deps.Orchestrator)

	g.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	apiV1 := g.Group("/v1")
	{
		apiV1.POST("/assessments", assessmentHandler.Upload)
		apiV1.POST("/assessments/:id/extract", assessmentHandler.ExtractAndQuantify)
		apiV1.POST("/assessments/:id/reset", assessmentHandler.Reset)

		apiV1.POST("/ieps", iepHandler.Generate)
		apiV1.GET("/ieps/:id", iepHandler.Get)
		apiV1.POST("/ieps/:id/approve", iepHandler.Approve)
		apiV1.GET("/students/:id/ieps", iepHandler.List)

		apiV1.POST("/templates", templateHandler.Publish)
		apiV1.GET("/templates", templateHandler.List)

		apiV1.GET("/traces", auditHandler.ListTraces)
		apiV1.POST("/students/:id/reindex", auditHandler.ReindexStudentHistory)
	}
}

// LoadPrincipalTable reads the YAML bearer-token file named by
// auth.token-file, falling back to an empty table (every call 401s) if the
// file does not exist yet, so a fresh checkout can still start up.
func LoadPrincipalTable(path string) (*middleware.PrincipalTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("[Server] principal table %q does not exist, starting with no recognized tokens", path)
			return middleware.LoadPrincipalTable(nil)
		}
		return nil, fmt.Errorf("server: read principal table %q: %w", path, err)
	}
	return middleware.LoadPrincipalTable(data)
}
