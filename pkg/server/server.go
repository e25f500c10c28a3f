// Package server assembles the Parley reference service: gin router,
// SQLite-backed stores, and bearer-token authentication.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parleyhq/parley/pkg/db"
	"github.com/parleyhq/parley/pkg/handler"
	"github.com/parleyhq/parley/pkg/service"
	"gorm.io/gorm"
)

// Options configures a Server.
type Options struct {
	// DBPath is the SQLite database path; ":memory:" for ephemeral.
	DBPath string
	// AdminUser / AdminPassword seed the bootstrap account.
	AdminUser     string
	AdminPassword string
	// Responder produces assistant replies; nil uses the canned echo.
	Responder service.Responder
	Logger    *slog.Logger
}

// Server is the assembled HTTP service.
type Server struct {
	ginEngine *gin.Engine
	gdb       *gorm.DB
	logger    *slog.Logger
}

// New opens the database, seeds the admin account and builds the router.
func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gdb, err := db.Open(opts.DBPath)
	if err != nil {
		return nil, err
	}

	authService := service.NewAuthService(gdb, logger)
	if opts.AdminUser != "" {
		if err := authService.EnsureUser(opts.AdminUser, opts.AdminPassword); err != nil {
			return nil, err
		}
	}

	chatService := service.NewChatService(gdb, opts.Responder, logger)
	projectService := service.NewProjectService(gdb, logger)

	gin.SetMode(gin.ReleaseMode)
	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	projectHandler := handler.NewProjectHandler(projectService)

	public := ginEngine.Group("/api")
	authHandler.RegisterRoutes(public)

	protected := ginEngine.Group("/api/v1")
	protected.Use(authHandler.Middleware())
	chatHandler.RegisterRoutes(protected)
	projectHandler.RegisterRoutes(protected)

	return &Server{ginEngine: ginEngine, gdb: gdb, logger: logger}, nil
}

// Router exposes the handler for embedding in tests (httptest.NewServer).
func (s *Server) Router() http.Handler {
	return s.ginEngine
}

// Start listens on addr and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: s.ginEngine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
