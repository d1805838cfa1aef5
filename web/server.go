package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"prizedraw/application"
	"prizedraw/config"
	"prizedraw/domain/interfaces"
	"prizedraw/domain/services"
	"prizedraw/infrastructure"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP surface: kiosk endpoints, the operator API and the
// live-update websocket.
type Server struct {
	cfg        *config.Config
	uowFactory application.UnitOfWorkFactory
	auth       *Authenticator
	clock      interfaces.Clock
	hub        *infrastructure.Hub
	engine     *gin.Engine
	httpServer *http.Server
}

// NewServer wires routes onto a fresh gin engine.
func NewServer(cfg *config.Config, uowFactory application.UnitOfWorkFactory, bus *infrastructure.Bus, clock interfaces.Clock) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cfg:        cfg,
		uowFactory: uowFactory,
		auth:       NewAuthenticator(cfg, clock),
		clock:      clock,
		engine:     gin.New(),
	}
	s.hub = infrastructure.NewHub(bus, s.stateSnapshot)
	s.engine.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.engine

	r.POST("/api/login", s.handleLogin)
	r.GET("/api/state", s.handleState)
	r.GET("/ws", func(c *gin.Context) {
		s.hub.HandleWS(c.Writer, c.Request)
	})

	// Batch draws were removed when the two-phase protocol landed; the
	// route stays so stale kiosks get a clear signal.
	r.POST("/api/drawBatch", func(c *gin.Context) {
		c.JSON(http.StatusGone, gin.H{"error": "batch draws are no longer supported"})
	})

	// Draw operations are kiosk-only; browsing the ledger is open to
	// any authenticated operator.
	staff := r.Group("/api", s.requireAuth(RoleStaff))
	{
		staff.POST("/startDraw", s.handleStartDraw)
		staff.POST("/confirmChoice", s.handleConfirmChoice)
	}

	operator := r.Group("/api", s.requireAuth(RoleAdmin, RoleStaff))
	{
		operator.GET("/draws", s.handleListDraws)
		operator.GET("/draws/export", s.handleExportDraws)
	}

	admin := r.Group("/api/admin", s.requireAuth(RoleAdmin))
	{
		admin.GET("/metrics", s.handleMetrics)
		admin.POST("/config", s.handleUpdateConfig)
		admin.POST("/setTotals", s.handleSetTotals)
		admin.POST("/reset", s.handleReset)
	}
}

// Start runs the HTTP server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.HTTPAddr, s.cfg.HTTPPort)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	log.Info("HTTP server stopped")
	return nil
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// withUnitOfWork runs fn inside one transaction, committing on success and
// rolling back on any error.
func (s *Server) withUnitOfWork(ctx context.Context, fn func(uow application.UnitOfWork) error) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(uow); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			log.WithError(rbErr).Error("Rollback failed")
		}
		return err
	}
	return uow.Commit()
}

// drawService builds a draw service bound to the unit of work's transaction.
func (s *Server) drawService(uow application.UnitOfWork) interfaces.DrawService {
	return services.NewDrawService(
		uow.TierRepository(),
		uow.ParticipantRepository(),
		uow.SessionRepository(),
		uow.RedemptionRepository(),
		uow.ConfigRepository(),
		uow.EventBus(),
		s.clock,
		services.NewSampler(),
	)
}

// adminService builds an admin service bound to the unit of work's transaction.
func (s *Server) adminService(uow application.UnitOfWork) interfaces.AdminService {
	return services.NewAdminService(
		uow.TierRepository(),
		uow.RedemptionRepository(),
		uow.ConfigRepository(),
		uow.EventBus(),
		s.clock,
	)
}
