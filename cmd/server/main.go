package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/minicrm/internal/api"
	"github.com/lalith-99/minicrm/internal/config"
	"github.com/lalith-99/minicrm/internal/crm"
	"github.com/lalith-99/minicrm/internal/dashboard"
	"github.com/lalith-99/minicrm/internal/db"
	"github.com/lalith-99/minicrm/internal/invalidate"
	"github.com/lalith-99/minicrm/internal/middleware"
	"github.com/lalith-99/minicrm/internal/observ"
	"github.com/lalith-99/minicrm/internal/repository"
	"github.com/lalith-99/minicrm/internal/repository/postgres"
	"github.com/lalith-99/minicrm/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Config and logger
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 2. Postgres (schema first) and Redis
	// ---------------------------------------------------------------
	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	rdb, err := db.NewRedis(ctx, cfg.RedisURL, logger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	// ---------------------------------------------------------------
	// 3. Stores, services, handlers
	//
	// Stores are assigned to the repository interfaces so a missing
	// method fails here at compile time.
	// ---------------------------------------------------------------
	pool := database.Pool()
	var (
		users      repository.UserRepository      = postgres.NewUserStore(pool)
		tags       repository.TagRepository       = postgres.NewTagStore(pool)
		companies  repository.CompanyRepository   = postgres.NewCompanyStore(pool)
		contacts   repository.ContactRepository   = postgres.NewContactStore(pool)
		deals      repository.DealRepository      = postgres.NewDealStore(pool)
		activities repository.ActivityRepository  = postgres.NewActivityStore(pool)
		dashRepo   repository.DashboardRepository = postgres.NewDashboardStore(pool)
	)

	crmSvc := crm.NewService(crm.Stores{
		Companies:  companies,
		Contacts:   contacts,
		Deals:      deals,
		Activities: activities,
	})
	dashSvc := dashboard.NewService(dashRepo)
	sessions := session.NewRedisStore(rdb, cfg.RefreshTokenTTL)
	publisher := invalidate.NewPublisher(rdb, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observ.NewMetrics(reg)
	mutations := api.NewMutations(metrics, publisher, logger)

	// ---------------------------------------------------------------
	// 4. Routes
	// ---------------------------------------------------------------
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(logger),
		middleware.SecurityHeaders(),
		metrics.Middleware(),
	)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Public: health checks for the load balancer and the token endpoints.
	v1 := router.Group("/v1")
	api.NewHealthHandler(map[string]api.Pinger{
		"postgres": api.PingFunc(database.Health),
		"redis":    sessions,
	}, logger).Register(v1)
	api.NewAuthHandler(users, sessions, cfg.JWTSecret, cfg.AccessTokenTTL, logger).Register(v1)

	// Everything else requires a valid access token.
	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	api.NewUserHandler(users, logger).Register(authed)
	api.NewTagHandler(tags, logger).Register(authed)
	api.NewCompanyHandler(crmSvc, companies, mutations, logger).Register(authed)
	api.NewContactHandler(crmSvc, contacts, mutations, logger).Register(authed)
	api.NewDealHandler(crmSvc, deals, mutations, logger).Register(authed)
	api.NewActivityHandler(crmSvc, activities, mutations, logger).Register(authed)
	api.NewDashboardHandler(dashSvc, cfg.DashboardRecentLimit, cfg.DashboardClosingDays, logger).Register(authed)
	events := api.NewEventsHandler(publisher, logger)
	events.Register(authed)

	// ---------------------------------------------------------------
	// 5. Serve until SIGINT/SIGTERM, then drain
	// ---------------------------------------------------------------
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(events.Shutdown)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting minicrm", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}
