// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	certinvHTTP "github.com/certkeep/certkeep/internal/certinv/http"
	dnsproviderHTTP "github.com/certkeep/certkeep/internal/dnsprovider/http"
	eventsHTTP "github.com/certkeep/certkeep/internal/events/http"
	issuanceHTTP "github.com/certkeep/certkeep/internal/issuance/http"
	issuerHTTP "github.com/certkeep/certkeep/internal/issuer/http"
	vaultHTTP "github.com/certkeep/certkeep/internal/vault/http"
)

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// Handlers groups the module handlers the router exposes.
type Handlers struct {
	Secret      *vaultHTTP.SecretHandler
	Provider    *dnsproviderHTTP.ProviderHandler
	Issuer      *issuerHTTP.IssuerHandler
	Issuance    *issuanceHTTP.IssuanceHandler
	Certificate *certinvHTTP.CertificateHandler
	Stream      *eventsHTTP.StreamHandler
}

// NewServer creates a new HTTP server.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the router with middleware and all API routes. Extra
// middleware (request metrics, for instance) runs after the logger.
func (s *Server) SetupRouter(handlers Handlers, corsEnabled bool, corsAllowOrigins string, extraMiddleware ...gin.HandlerFunc) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	for _, middleware := range extraMiddleware {
		router.Use(middleware)
	}

	if corsMiddleware := createCORSMiddleware(corsEnabled, corsAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	if handlers.Secret != nil {
		secrets := v1.Group("/secrets")
		secrets.POST("", handlers.Secret.CreateHandler)
		secrets.GET("", handlers.Secret.ListHandler)
		secrets.GET("/:id", handlers.Secret.GetHandler)
		secrets.PUT("/:id", handlers.Secret.UpdateHandler)
		secrets.DELETE("/:id", handlers.Secret.DeleteHandler)

		vault := v1.Group("/vault")
		vault.POST("/lock", handlers.Secret.LockHandler)
		vault.GET("/status", handlers.Secret.StatusHandler)
	}

	if handlers.Provider != nil {
		providers := v1.Group("/dns-providers")
		providers.POST("", handlers.Provider.CreateHandler)
		providers.GET("", handlers.Provider.ListHandler)
		providers.GET("/resolve", handlers.Provider.ResolveHandler)
		providers.GET("/:id", handlers.Provider.GetHandler)
		providers.PUT("/:id", handlers.Provider.UpdateHandler)
		providers.DELETE("/:id", handlers.Provider.DeleteHandler)
		providers.POST("/:id/test", handlers.Provider.TestHandler)
	}

	if handlers.Issuer != nil {
		issuers := v1.Group("/issuers")
		issuers.POST("", handlers.Issuer.CreateHandler)
		issuers.GET("", handlers.Issuer.ListHandler)
		issuers.GET("/selected", handlers.Issuer.GetSelectedHandler)
		issuers.GET("/:id", handlers.Issuer.GetHandler)
		issuers.PUT("/:id", handlers.Issuer.UpdateHandler)
		issuers.DELETE("/:id", handlers.Issuer.DeleteHandler)
		issuers.POST("/:id/select", handlers.Issuer.SelectHandler)
		issuers.POST("/:id/ensure-account", handlers.Issuer.EnsureAccountHandler)
	}

	if handlers.Issuance != nil {
		issuance := v1.Group("/issuance")
		issuance.POST("", handlers.Issuance.StartHandler)
		issuance.GET("", handlers.Issuance.ListHandler)
		issuance.GET("/:id", handlers.Issuance.GetHandler)
		issuance.POST("/:id/complete", handlers.Issuance.CompleteHandler)
		issuance.POST("/:id/retry-dns", handlers.Issuance.RetryDNSHandler)
		issuance.POST("/:id/retry-finalize", handlers.Issuance.RetryFinalizeHandler)
		issuance.POST("/:id/cancel", handlers.Issuance.CancelHandler)
		issuance.POST("/:id/archive", handlers.Issuance.ArchiveHandler)
	}

	if handlers.Certificate != nil {
		certificates := v1.Group("/certificates")
		certificates.GET("", handlers.Certificate.ListHandler)
		certificates.POST("/import", handlers.Certificate.ImportHandler)
		certificates.GET("/expiring", handlers.Certificate.ListExpiringHandler)
		certificates.GET("/:id", handlers.Certificate.GetHandler)
		certificates.GET("/:id/chain", handlers.Certificate.DownloadChainHandler)
		certificates.PUT("/:id/tags", handlers.Certificate.UpdateTagsHandler)
		certificates.DELETE("/:id", handlers.Certificate.DeleteHandler)
	}

	if handlers.Stream != nil {
		v1.GET("/events", handlers.Stream.StreamHandler)
	}

	s.router = router
}

// GetHandler returns the configured router for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic. The database
// is the only hard dependency checked here; the vault manages its own locked
// state per request.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	ready := true
	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			components["database"] = "error"
			ready = false
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}

// Start starts the HTTP server. SetupRouter must have been called first.
func (s *Server) Start(_ context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
