package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	auditpg "3tcapital/ms_saludplus_facturas/internal/adapters/audit/postgres"
	facturapg "3tcapital/ms_saludplus_facturas/internal/adapters/factura/postgres"
	emissionhttp "3tcapital/ms_saludplus_facturas/internal/adapters/http/emission"
	facturahttp "3tcapital/ms_saludplus_facturas/internal/adapters/http/factura"
	healthhttp "3tcapital/ms_saludplus_facturas/internal/adapters/http/health"
	numberinghttp "3tcapital/ms_saludplus_facturas/internal/adapters/http/numbering"
	"3tcapital/ms_saludplus_facturas/internal/adapters/saludplus"
	"3tcapital/ms_saludplus_facturas/internal/application/emission"
	appfactura "3tcapital/ms_saludplus_facturas/internal/application/factura"
	apphealth "3tcapital/ms_saludplus_facturas/internal/application/health"
	"3tcapital/ms_saludplus_facturas/internal/application/numbering"
	"3tcapital/ms_saludplus_facturas/internal/core/audit"
	"3tcapital/ms_saludplus_facturas/internal/core/factura"
	corehealth "3tcapital/ms_saludplus_facturas/internal/core/health"
	"3tcapital/ms_saludplus_facturas/internal/core/search"
	"3tcapital/ms_saludplus_facturas/internal/infrastructure/config"
	"3tcapital/ms_saludplus_facturas/internal/infrastructure/database"
	httpclient "3tcapital/ms_saludplus_facturas/internal/infrastructure/http"
	"3tcapital/ms_saludplus_facturas/internal/infrastructure/http/server"
	"3tcapital/ms_saludplus_facturas/internal/infrastructure/logger"
	"3tcapital/ms_saludplus_facturas/internal/infrastructure/secrets"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditPool, auditRepo := openAudit(ctx, cfg, log)
	if auditPool != nil {
		defer auditPool.Close()
	}

	lookupDB := openLookup(ctx, cfg, log)
	if lookupDB != nil {
		defer lookupDB.Close()
	}

	credentials, err := secrets.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load institution credentials: %w", err)
	}
	if credentials.Len() == 0 {
		log.Warn("No institution credentials loaded, numbering requests will be rejected")
	} else {
		log.Info("Institution credentials loaded", "institutions", credentials.IDs())
	}

	transport := httpclient.NewTracedTransport(
		httpclient.NewPooledTransport(cfg.SaludPlus.MaxConnsPerHost, cfg.SaludPlus.APITimeout),
		httpclient.TracedTransportConfig{
			AuditEnabled:    cfg.Audit.Enabled,
			LogRequestBody:  cfg.Audit.LogRequestBody,
			LogResponseBody: cfg.Audit.LogResponseBody,
			MaxBodySize:     cfg.Audit.MaxBodySize,
		},
		log, auditRepo, "saludplus",
	)
	client := saludplus.NewClient(saludplus.Config{
		BaseURL:          cfg.SaludPlus.BaseURL,
		NumberingTimeout: cfg.SaludPlus.NumberingTimeout,
		RateLimitRPS:     cfg.SaludPlus.RateLimitRPS,
	}, httpclient.NewClient(&httpclient.ClientConfig{
		Timeout:   cfg.SaludPlus.APITimeout,
		Transport: transport,
	}), log)
	log.Info("SaludPlus client configured",
		"base_url", cfg.SaludPlus.BaseURL,
		"rate_limit_rps", cfg.SaludPlus.RateLimitRPS,
		"fallback_cookie_set", cfg.SaludPlus.Cookie != "",
	)

	var (
		lookup        factura.Lookup
		searchHandler search.Handler
		lookupProbe   func(context.Context) error
	)
	if lookupDB != nil {
		repo := facturapg.NewRepository(lookupDB, log)
		lookup = repo
		lookupProbe = lookupDB.PingContext
		if cfg.SaludPlus.LegacySearchEnabled {
			searchHandler = facturapg.SearchHandler(repo)
		}
	}
	log.Info("Invoice resolution capabilities",
		"legacy_search", searchHandler != nil,
		"lookups", lookup != nil,
	)

	resolver := appfactura.NewResolver(searchHandler, lookup, cfg.SaludPlus.LegacySearchTimeout, log)
	documents := appfactura.NewDocumentService(client, log)

	var auditProbe func(context.Context) error
	if auditPool != nil {
		auditProbe = auditPool.Ping
	}
	health := apphealth.NewService(
		apphealth.Metadata{Service: cfg.App.Name, Version: cfg.App.Version, Environment: cfg.App.Environment},
		corehealth.Checker{Name: "lookup_db", Probe: lookupProbe},
		corehealth.Checker{Name: "audit_db", Probe: auditProbe},
	)

	srv, err := server.New(server.Options{
		Config:           cfg,
		Logger:           log,
		HealthHandler:    healthhttp.NewHandler(health, log).Status,
		FacturaHandler:   facturahttp.NewHandler(resolver, documents, log).GetElectronicInvoice,
		EmissionHandler:  emissionhttp.NewHandler(emission.NewService(client, cfg.SaludPlus.Cookie, log), log).ChangeIssueDate,
		NumberingHandler: numberinghttp.NewHandler(numbering.NewService(credentials, client, log), log).NumberInvoices,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	log.Info("Starting HTTP server", "port", cfg.HTTP.Port)
	return srv.Run(ctx)
}

// openAudit connects the audit trail database. Failures only disable auditing.
func openAudit(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (*pgxpool.Pool, audit.Repository) {
	if !cfg.Audit.Enabled {
		log.Info("Audit trail configuration: DISABLED - Audit not enabled in configuration")
		return nil, nil
	}
	if !cfg.Database.Configured() {
		log.Warn("Audit trail configuration: DISABLED - Database not configured")
		return nil, nil
	}

	pool, err := database.NewPool(ctx, dbConfig(cfg.Database))
	if err != nil {
		log.Warn("Failed to connect to audit database, audit trail disabled",
			"error", err,
			"host", cfg.Database.Host,
			"database", cfg.Database.Database,
			"password_set", cfg.Database.Password != "",
		)
		return nil, nil
	}
	if err := database.RunMigrations(ctx, pool, log); err != nil {
		log.Warn("Audit migrations failed, audit trail disabled", "error", err)
		pool.Close()
		return nil, nil
	}

	log.Info("Audit trail configuration: ENABLED",
		"database", cfg.Database.Database,
		"max_body_size", cfg.Audit.MaxBodySize,
	)
	return pool, auditpg.NewRepository(pool, log)
}

// openLookup connects the invoice lookup database. Without it the resolver
// has neither legacy search nor lookups.
func openLookup(ctx context.Context, cfg config.AppConfig, log *slog.Logger) *sql.DB {
	if !cfg.Lookup.Configured() {
		log.Warn("Invoice lookup database not configured, PDF requests will fail to resolve invoices")
		return nil
	}

	db, err := database.OpenSQL(ctx, dbConfig(cfg.Lookup))
	if err != nil {
		log.Warn("Failed to connect to invoice lookup database",
			"error", err,
			"host", cfg.Lookup.Host,
			"database", cfg.Lookup.Database,
			"password_set", cfg.Lookup.Password != "",
		)
		return nil
	}

	log.Info("Invoice lookup database connection established", "database", cfg.Lookup.Database)
	return db
}

func dbConfig(s config.DatabaseSettings) database.Config {
	return database.Config{
		Host:            s.Host,
		Port:            s.Port,
		Database:        s.Database,
		User:            s.User,
		Password:        s.Password,
		SSLMode:         s.SSLMode,
		MaxOpenConns:    s.MaxOpenConns,
		MaxIdleConns:    s.MaxIdleConns,
		ConnMaxLifetime: s.ConnMaxLifetime,
	}
}
