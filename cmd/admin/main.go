package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rossyflor/pos-admin/internal/apiclient"
	"github.com/rossyflor/pos-admin/internal/blob"
	"github.com/rossyflor/pos-admin/internal/config"
	"github.com/rossyflor/pos-admin/internal/dbmigrate"
	"github.com/rossyflor/pos-admin/internal/httpserver"
	"github.com/rossyflor/pos-admin/internal/reports"
	"github.com/rossyflor/pos-admin/internal/session"
	"github.com/rossyflor/pos-admin/internal/storage"
	"github.com/rossyflor/pos-admin/internal/storage/memory"
	"github.com/rossyflor/pos-admin/internal/storage/postgres"
	"github.com/rossyflor/pos-admin/internal/storage/sqlite"
)

const janitorInterval = 5 * time.Minute

func main() {
	cfg := config.Load()

	printStartupBanner(cfg)

	if cfg.RunMigrationsOnStartup {
		dbURL, source, _, err := dbmigrate.SelectDatabaseURL(cfg, true)
		if err != nil {
			log.Fatalf("FATAL startup migrations: %v", err)
		}

		log.Printf("INFO startup migrations: command=up using=%s", source)
		if err := dbmigrate.Run("up", dbURL); err != nil {
			log.Fatalf("FATAL startup migrations failed: %v", err)
		}
		log.Printf("INFO startup migrations: completed")
	}

	validateProductionConfig(cfg)

	loc, err := time.LoadLocation(cfg.Reports.Timezone)
	if err != nil {
		log.Fatalf("FATAL reports: unknown REPORT_TIMEZONE=%q: %v", cfg.Reports.Timezone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStorage(ctx, cfg)
	defer store.Close()

	archive, mode, err := blob.NewReportStore(ctx, cfg.Reports, log.Default())
	if err != nil {
		log.Fatalf("FATAL reports: %v", err)
	}
	log.Printf("INFO reports: archive mode=%s timezone=%s", mode, loc)

	var (
		gatherer prometheus.Gatherer
		metrics  *apiclient.Metrics
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = apiclient.NewMetrics(reg)
		gatherer = reg
	}

	registry := session.NewRegistry(session.Options{
		BackendBaseURL: cfg.BackendBaseURL,
		BackendTimeout: cfg.BackendTimeout,
		PageSize:       cfg.PageSize,
		IdleTimeout:    cfg.SessionIdleTimeout,
		Metrics:        metrics,
	}, store, log.Default())
	go registry.Run(ctx, janitorInterval)

	reportService := reports.NewService(
		reports.NewGenerator(loc),
		archive,
		time.Duration(cfg.Reports.S3.PresignTTLSeconds)*time.Second,
		log.Default(),
	)

	server := httpserver.New(cfg, registry, reportService, gatherer)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("FATAL httpserver: %v", err)
		}
	case <-ctx.Done():
		log.Printf("INFO shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("WARN httpserver: shutdown: %v", err)
		}
	}
}

// openStorage selects the persisted-state backend. A failing Postgres falls
// back to memory outside production.
func openStorage(ctx context.Context, cfg *config.Config) storage.Store {
	switch cfg.StorageMode {
	case config.StorageModeSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("FATAL storage: %v", err)
		}
		log.Printf("INFO storage: sqlite at %s", cfg.SQLitePath)
		return s

	case config.StorageModePostgres:
		log.Printf("INFO storage: connecting to PostgreSQL...")
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		if err == nil {
			log.Printf("INFO storage: PostgreSQL connected")
			return s
		}
		if isProd(cfg) {
			log.Fatalf("FATAL storage: PostgreSQL unavailable in %s: %v", cfg.Env, err)
		}
		log.Printf("WARN storage: PostgreSQL unavailable (%v), fallback to memory", err)
		return memory.New()

	default:
		log.Printf("INFO storage: in-memory (sessions are lost on restart)")
		return memory.New()
	}
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets are shown only as "set" / "not set".
func printStartupBanner(cfg *config.Config) {
	log.Println("========== Ross & Flor POS Admin ==========")
	log.Printf("  env              = %s", cfg.Env)
	log.Printf("  port             = %d", cfg.Port)

	log.Println("---- backend ----")
	log.Printf("  base_url         = %s", cfg.BackendBaseURL)
	log.Printf("  timeout          = %s", cfg.BackendTimeout)
	log.Printf("  page_size        = %d", cfg.PageSize)

	log.Println("---- storage ----")
	log.Printf("  storage_mode     = %s", cfg.StorageMode)
	switch cfg.StorageMode {
	case config.StorageModeSQLite:
		log.Printf("  sqlite_path      = %s", cfg.SQLitePath)
	case config.StorageModePostgres:
		log.Printf("  runtime_url      = %s", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled))
		log.Printf("  pooled           = %s", config.SetOrNot(cfg.DatabaseURLPooled))
		log.Printf("  direct           = %s", config.SetOrNot(cfg.DatabaseURLDirect))
	}
	log.Printf("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)

	log.Println("---- sessions ----")
	log.Printf("  cookie           = %s (secure=%t)", cfg.SessionCookieName, cfg.CookieSecure)
	log.Printf("  idle_timeout     = %s", cfg.SessionIdleTimeout)

	log.Println("---- http ----")
	log.Printf("  cors_origins     = %s", nonEmptyOrDash(strings.Join(cfg.CORSAllowedOrigins, ",")))
	log.Printf("  rate_limit       = %d rps (burst %d)", cfg.RateLimitRPS, cfg.RateLimitBurst)
	log.Printf("  metrics          = %t", cfg.MetricsEnabled)

	log.Println("---- reports ----")
	log.Printf("  reports_mode     = %s", cfg.Reports.Mode)
	log.Printf("  timezone         = %s", cfg.Reports.Timezone)
	if cfg.Reports.Mode != config.BlobModeLocal {
		log.Printf("  s3: %s", cfg.Reports.S3.DiagnosticsSummary())
	}

	log.Println("===========================================")
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(cfg *config.Config) {
	if cfg.Reports.Mode == config.BlobModeS3 {
		if missing := cfg.Reports.S3.MissingRequired(); len(missing) > 0 {
			log.Fatalf("FATAL reports: REPORTS_MODE=s3 but S3 config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	if !isProd(cfg) {
		return
	}
	if cfg.StorageMode == config.StorageModeMemory {
		log.Printf("WARN storage: STORAGE_MODE=memory in %s; logins do not survive restarts", cfg.Env)
	}
	if !cfg.CookieSecure {
		log.Fatalf("FATAL sessions: COOKIE_SECURE must be enabled in %s", cfg.Env)
	}
}

func isProd(cfg *config.Config) bool {
	return cfg.Env == "production" || cfg.Env == "staging"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
