// Package main provides the baseline server entry point: the HTTP API
// for portfolio baseline versioning, review, and publishing.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/juris-platform/baseline/pkg/access"
	"github.com/juris-platform/baseline/pkg/audit"
	"github.com/juris-platform/baseline/pkg/baseline"
	"github.com/juris-platform/baseline/pkg/cache"
	"github.com/juris-platform/baseline/pkg/ha"
)

func main() {
	var (
		listenAddr   string
		databaseType string
		databaseDSN  string
		policiesPath string
	)

	flag.StringVar(&listenAddr, "listen", ":8080", "Address to listen on")
	flag.StringVar(&databaseType, "db-type", "", "Database type (postgres, mysql, or sqlite)")
	flag.StringVar(&databaseDSN, "db-dsn", "", "Database connection string")
	flag.StringVar(&policiesPath, "approval-policies", "", "Path to approval policies YAML")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(log)

	if policiesPath == "" {
		policiesPath = envOrDefault("JURIS_APPROVAL_POLICIES", "/config/approval-policies.yaml")
	}

	log.Info("starting baseline server", "listen", listenAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	gormDB, err := setupDatabase(databaseType, databaseDSN)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	store := baseline.NewStore(gormDB)
	approvals := baseline.NewApprovalStore(gormDB)
	auditStore := baseline.NewAuditStore(gormDB)
	memberships := access.NewMembershipStore(gormDB)

	// Migrations run under the HA lock so replicas do not race on
	// AutoMigrate.
	haCfg := ha.ConfigFromEnv()
	migrate := func() error {
		if err := store.AutoMigrate(); err != nil {
			return err
		}
		if err := approvals.AutoMigrate(); err != nil {
			return err
		}
		return memberships.AutoMigrate()
	}
	if haCfg.MigrationLockEnabled {
		locker := ha.NewMigrationLocker(gormDB, haCfg.Identity)
		err = locker.WithLock(ctx, migrate)
	} else {
		err = migrate()
	}
	if err != nil {
		log.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	evaluator, err := baseline.LoadApprovalPolicies(policiesPath)
	if err != nil {
		log.Warn("failed to load approval policies, using single-approval default",
			"path", policiesPath, "error", err)
		evaluator = baseline.NewApprovalEvaluator(nil)
	} else if n := len(evaluator.ListPolicies()); n > 0 {
		log.Info("loaded approval policies", "path", policiesPath, "count", n)
	}

	engine := baseline.NewEngine(store, approvals, auditStore, access.NewResolver(memberships), evaluator)

	auditCfg := audit.ConfigFromEnv()

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Id", "X-Company-Id", "X-Company-Role", "X-Correlation-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", healthHandler)
	router.Get("/livez", healthHandler)
	router.Get("/readyz", readyHandler(gormDB))

	router.Group(func(r chi.Router) {
		r.Use(access.IdentityMiddleware())
		if cacheManager := cache.NewManager(cache.ConfigFromEnv()); cacheManager != nil {
			r.Use(cacheManager.Middleware())
			log.Info("response cache enabled")
		}
		if auditCfg.Enabled {
			r.Use(audit.Middleware(auditStore, auditCfg, log))
			log.Info("request audit middleware enabled",
				"logDenied", auditCfg.LogDenied,
				"retentionDays", auditCfg.RetentionDays)
		}
		r.Mount("/api/v1", baseline.NewRouter(engine, evaluator))
		r.Mount("/api/v1/audit", audit.Router(auditStore))
	})

	// Audit retention runs for the life of the process.
	retention := audit.NewRetentionWorker(auditStore, auditCfg.RetentionDays, log)
	go retention.Run(ctx)

	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	go func() {
		log.Info("baseline server ready", "listen", listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	log.Info("baseline server stopped")
}

func setupDatabase(dbType, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("database DSN is required (use -db-dsn flag or DATABASE_DSN environment variable)")
		}
	}
	if dbType == "" {
		dbType = envOrDefault("DATABASE_TYPE", "postgres")
	}

	var dialector gorm.Dialector
	switch dbType {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q (expected postgres, mysql, or sqlite)", dbType)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", dbType, err)
	}
	return gormDB, nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// readyHandler reports ready once the database answers a ping.
func readyHandler(gormDB *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		sqlDB, err := gormDB.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
