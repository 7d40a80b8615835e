package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/audit"
	auditPostgres "github.com/frahmantamala/license-portal/internal/audit/postgres"
	"github.com/frahmantamala/license-portal/internal/auth"
	"github.com/frahmantamala/license-portal/internal/cache"
	"github.com/frahmantamala/license-portal/internal/catalog"
	catalogPostgres "github.com/frahmantamala/license-portal/internal/catalog/postgres"
	"github.com/frahmantamala/license-portal/internal/core/events"
	"github.com/frahmantamala/license-portal/internal/crm"
	crmPostgres "github.com/frahmantamala/license-portal/internal/crm/postgres"
	"github.com/frahmantamala/license-portal/internal/license"
	licensePostgres "github.com/frahmantamala/license-portal/internal/license/postgres"
	"github.com/frahmantamala/license-portal/internal/metrics"
	"github.com/frahmantamala/license-portal/internal/ticket"
	ticketPostgres "github.com/frahmantamala/license-portal/internal/ticket/postgres"
	"github.com/frahmantamala/license-portal/internal/transport"
	"github.com/frahmantamala/license-portal/internal/transport/middleware"
	"github.com/frahmantamala/license-portal/internal/transport/rest"
	"github.com/frahmantamala/license-portal/internal/transport/swagger"
	"github.com/frahmantamala/license-portal/internal/user"
	userPostgres "github.com/frahmantamala/license-portal/internal/user/postgres"
	"github.com/frahmantamala/license-portal/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

// Dependencies are the long-lived resources shared by the server and the
// worker commands.
type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Redis    *cache.RedisCache
	Cache    cache.Cache
	Revoked  auth.RevocationStore
	NATS     *nats.Conn
	Bus      *events.EventBus
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Services are built on top of Dependencies.
type Services struct {
	Audit   *audit.Service
	Catalog *catalog.Service
	License *license.Service
	Ticket  *ticket.Service
	User    *user.Service
	Auth    *auth.Service
	CRM     *crm.Service
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	cfg := deps.Config
	lg := deps.Logger
	svcs := buildServices(deps)

	openAPIPath := cfg.Server.OpenAPIPath
	if _, err := swagger.LoadSpec(context.Background(), openAPIPath); err != nil {
		lg.Warn("openapi document unavailable, docs routes disabled", "path", openAPIPath, "error", err)
		openAPIPath = ""
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, buildHandlers(deps, svcs), rest.RouterOptions{
		AllowedOrigins: cfg.Server.Origins(),
		OpenAPIPath:    openAPIPath,
		MetricsPath:    metricsPath(cfg),
		DemoLimiter:    middleware.NewRateLimiter(cfg.RateLimit),
	}, lg)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("starting HTTP server", "address", addr)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			lg.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server failed", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	lg.Info("server stopped")
}

func metricsPath(cfg *internal.Config) string {
	if !cfg.Observability.Metrics.Enabled {
		return ""
	}
	return cfg.Observability.Metrics.Path
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps := &Dependencies{
		Config:   cfg,
		DB:       db,
		Gorm:     gdb,
		Cache:    cache.Noop{},
		Revoked:  cache.Noop{},
		Bus:      events.NewEventBus(lg),
		Registry: prometheus.NewRegistry(),
		Logger:   lg,
	}

	if cfg.Redis.Addr != "" {
		rc, err := cache.InitServer(ctx, cfg.Redis)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.Redis = rc
		deps.Cache = rc
		deps.Revoked = rc
	} else {
		lg.Warn("redis address not configured; query cache and token revocation disabled")
	}

	if cfg.NATS.URL != "" {
		conn, err := events.Connect(cfg.NATS.URL, "license-portal", lg)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.NATS = conn
		events.NewNATSBridge(conn, cfg.NATS.SubjectPrefix, lg).Register(deps.Bus)
	}

	deps.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = metrics.New(deps.Registry, lg)
	deps.Metrics.RegisterEventHandlers(deps.Bus)

	return deps, nil
}

func buildServices(deps *Dependencies) *Services {
	cfg := deps.Config
	lg := deps.Logger

	auditSvc := audit.NewService(auditPostgres.NewAuditRepository(deps.Gorm), cfg.Licensing.AuditPageSize, lg)
	catalogSvc := catalog.NewService(catalogPostgres.NewCatalogRepository(deps.Gorm), auditSvc, cfg.Licensing.DemoTierName, lg)
	licenseSvc := license.NewService(licensePostgres.NewLicenseRepository(deps.Gorm), catalogSvc, auditSvc, cfg.Licensing, lg).
		WithEvents(deps.Bus).
		WithCache(deps.Cache).
		WithMetrics(deps.Metrics)
	ticketSvc := ticket.NewService(ticketPostgres.NewTicketRepository(deps.Gorm), auditSvc, deps.Bus, lg)
	userSvc := user.NewService(userPostgres.NewUserRepository(deps.DB), auditSvc, cfg.Security.BCryptCost, lg)
	authSvc := auth.NewService(userSvc, auth.NewJWTTokenGenerator(cfg.Security), deps.Revoked, lg)
	crmSvc := crm.NewService(crmPostgres.NewCRMRepository(deps.Gorm), licenseSvc, auditSvc, cfg.Licensing.BulkConcurrency, lg)

	return &Services{
		Audit:   auditSvc,
		Catalog: catalogSvc,
		License: licenseSvc,
		Ticket:  ticketSvc,
		User:    userSvc,
		Auth:    authSvc,
		CRM:     crmSvc,
	}
}

func buildHandlers(deps *Dependencies, svcs *Services) rest.Handlers {
	base := transport.NewBaseHandler(deps.Logger)

	components := map[string]rest.Pinger{"postgres": deps.DB, "redis": nil}
	if deps.Redis != nil {
		components["redis"] = rest.PingFunc(deps.Redis.Ping)
	}

	return rest.Handlers{
		Auth:    auth.NewHandler(base, svcs.Auth),
		User:    user.NewHandler(base, svcs.User),
		License: license.NewHandler(base, svcs.License),
		Catalog: catalog.NewHandler(base, svcs.Catalog),
		Ticket:  ticket.NewHandler(base, svcs.Ticket),
		CRM:     crm.NewHandler(base, svcs.CRM),
		Audit:   audit.NewHandler(base, svcs.Audit),
		Health:  rest.NewHealthHandler(components),
		Metrics: deps.Metrics.Handler(),
	}
}

// Close waits for in-flight event handlers before closing the connections
// they may use.
func (d *Dependencies) Close() {
	if d.Bus != nil {
		d.Bus.Wait()
	}
	if d.NATS != nil {
		if err := d.NATS.Drain(); err != nil {
			d.Logger.Error("nats drain error", "error", err)
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("database close error", "error", err)
		}
	}
}

// initDB opens the pgx pool through sqlx. The same *sql.DB backs gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}

func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
}
