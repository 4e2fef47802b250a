// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/gin-gonic/gin"

	certinvHTTP "github.com/certkeep/certkeep/internal/certinv/http"
	certinvUseCase "github.com/certkeep/certkeep/internal/certinv/usecase"
	"github.com/certkeep/certkeep/internal/config"
	"github.com/certkeep/certkeep/internal/database"
	dnsAdapter "github.com/certkeep/certkeep/internal/dnsprovider/adapter"
	dnsproviderHTTP "github.com/certkeep/certkeep/internal/dnsprovider/http"
	dnsUseCase "github.com/certkeep/certkeep/internal/dnsprovider/usecase"
	"github.com/certkeep/certkeep/internal/events"
	eventsHTTP "github.com/certkeep/certkeep/internal/events/http"
	"github.com/certkeep/certkeep/internal/http"
	issuanceHTTP "github.com/certkeep/certkeep/internal/issuance/http"
	issuanceUseCase "github.com/certkeep/certkeep/internal/issuance/usecase"
	issuerAcme "github.com/certkeep/certkeep/internal/issuer/acme"
	issuerHTTP "github.com/certkeep/certkeep/internal/issuer/http"
	issuerUseCase "github.com/certkeep/certkeep/internal/issuer/usecase"
	"github.com/certkeep/certkeep/internal/metrics"
	vaultHTTP "github.com/certkeep/certkeep/internal/vault/http"
	vaultService "github.com/certkeep/certkeep/internal/vault/service"
	vaultUseCase "github.com/certkeep/certkeep/internal/vault/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Events
	eventBus *events.Bus

	// Vault
	keyWrapper  vaultService.KeyWrapper
	secretRepo  vaultUseCase.SecretRepository
	secretStore vaultUseCase.SecretStore

	// DNS providers
	providerRepo    dnsUseCase.ProviderRepository
	zoneCache       dnsAdapter.ZoneCache
	adapterFactory  *dnsAdapter.Factory
	providerUseCase dnsUseCase.ProviderUseCase

	// Issuers
	issuerRepo    issuerUseCase.IssuerRepository
	acmeClient    *issuerAcme.Client
	issuerUC      issuerUseCase.IssuerUseCase
	issuanceRepo  issuanceUseCase.RequestRepository
	issuanceUC    issuanceUseCase.IssuanceUseCase
	certRepo      certinvUseCase.CertificateRepository
	certInventory certinvUseCase.CertInventory

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// HTTP handlers
	secretHandler      *vaultHTTP.SecretHandler
	providerHandler    *dnsproviderHTTP.ProviderHandler
	issuerHandler      *issuerHTTP.IssuerHandler
	issuanceHandler    *issuanceHTTP.IssuanceHandler
	certificateHandler *certinvHTTP.CertificateHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	eventBusInit        sync.Once
	keyWrapperInit      sync.Once
	secretRepoInit      sync.Once
	secretStoreInit     sync.Once
	providerRepoInit    sync.Once
	zoneCacheInit       sync.Once
	adapterFactoryInit  sync.Once
	providerUseCaseInit sync.Once
	issuerRepoInit      sync.Once
	acmeClientInit      sync.Once
	issuerUCInit        sync.Once
	issuanceRepoInit    sync.Once
	issuanceUCInit      sync.Once
	certRepoInit        sync.Once
	certInventoryInit   sync.Once
	secretHandlerInit   sync.Once
	providerHandlerInit sync.Once
	issuerHandlerInit   sync.Once
	issuanceHandlerInit sync.Once
	certHandlerInit     sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// EventBus returns the in-process progress event bus.
func (c *Container) EventBus() *events.Bus {
	c.eventBusInit.Do(func() {
		c.eventBus = events.NewBus()
	})
	return c.eventBus
}

// MetricsProvider returns the OpenTelemetry metrics provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance with all routes wired.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics
// are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		provider, perr := c.MetricsProvider()
		if perr != nil {
			err = perr
			c.initErrors["metricsServer"] = perr
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Stop supervised issuance runs first so they can persist final state.
	if c.issuanceUC != nil {
		c.issuanceUC.Close()
	}

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Lock the vault and release the keeper.
	if c.secretStore != nil {
		if err := c.secretStore.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("secret store close: %w", err))
		}
	}

	if c.eventBus != nil {
		c.eventBus.Close()
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	secretHandler, err := c.SecretHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret handler for http server: %w", err)
	}

	providerHandler, err := c.ProviderHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get provider handler for http server: %w", err)
	}

	issuerHandler, err := c.IssuerHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get issuer handler for http server: %w", err)
	}

	issuanceHandler, err := c.IssuanceHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get issuance handler for http server: %w", err)
	}

	certificateHandler, err := c.CertificateHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate handler for http server: %w", err)
	}

	streamHandler := eventsHTTP.NewStreamHandler(c.EventBus(), logger)

	var extraMiddleware []gin.HandlerFunc
	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}
	if metricsProvider != nil {
		extraMiddleware = append(
			extraMiddleware,
			metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), c.config.MetricsNamespace),
		)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(http.Handlers{
		Secret:      secretHandler,
		Provider:    providerHandler,
		Issuer:      issuerHandler,
		Issuance:    issuanceHandler,
		Certificate: certificateHandler,
		Stream:      streamHandler,
	}, c.config.CORSEnabled, c.config.CORSAllowOrigins, extraMiddleware...)

	return server, nil
}
