package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brdatabot/internal/admin"
	"brdatabot/internal/bot"
	"brdatabot/internal/governance"
	governanceMetrics "brdatabot/internal/governance/metrics"
	"brdatabot/internal/lookup"
	"brdatabot/internal/platform/config"
	"brdatabot/internal/platform/httpserver"
	"brdatabot/internal/platform/logger"
	platformMetrics "brdatabot/internal/platform/metrics"
	redisplatform "brdatabot/internal/platform/redis"
	"brdatabot/internal/query"
	"brdatabot/internal/storage"
	httptransport "brdatabot/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	// Redis backs rate limiting, block flags and conversation state. When it
	// is absent the in-process store keeps a single instance fully working.
	var governanceStore governance.Store = governance.NewMemoryStore()
	rdb, err := redisplatform.New(initCtx, cfg.RedisURL)
	switch {
	case err != nil:
		log.Warn("redis unavailable, using in-process governance store", "error", err)
	case rdb != nil:
		defer rdb.Close()
		governanceStore = governance.NewRedisStore(rdb.Client)
		log.Info("redis connected")
	default:
		log.Warn("REDIS_URL not set, using in-process governance store")
	}

	gov, err := governance.New(governanceStore, cfg.RateLimit.Requests, cfg.RateLimit.Window,
		governance.WithLogger(log),
		governance.WithMetrics(governanceMetrics.New()),
	)
	if err != nil {
		log.Error("invalid rate limit configuration", "error", err)
		os.Exit(1)
	}

	// Postgres persists users, query logs, blocks and the admin audit trail.
	// Without DATABASE_URL everything stays in memory.
	var (
		users   storage.UserStore        = storage.NewInMemoryUserStore()
		logs    storage.QueryLogStore    = storage.NewInMemoryQueryLogStore()
		blocked storage.BlockedUserStore = storage.NewInMemoryBlockedUserStore()
		audit   storage.AdminLogStore    = storage.NewInMemoryAdminLogStore()
	)
	db, err := openDatabase(initCtx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database initialization failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		users = storage.NewPostgresUserStore(db)
		logs = storage.NewPostgresQueryLogStore(db)
		blocked = storage.NewPostgresBlockedUserStore(db)
		audit = storage.NewPostgresAdminLogStore(db)
		log.Info("database connected")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	brasilAPI := lookup.NewBrasilAPI(cfg.BrasilAPIBaseURL, log)
	transparencia := lookup.NewTransparencia(cfg.TransparenciaBaseURL, cfg.TransparenciaToken, log)
	breaches := lookup.NewBreachClient(cfg.BreachAPIBaseURL, cfg.BreachAPIKey, log)

	queries := query.New(brasilAPI, transparencia, breaches, logs, log)
	engine := bot.NewEngine(gov, queries, users, log)

	sender := bot.LoggingSender{
		Sender: bot.NewCloudSender(cfg.WhatsApp.GraphBaseURL, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.APIToken),
		Logger: log,
	}

	webhooks := httptransport.NewWebhookHandler(engine, sender, cfg.WhatsApp.WebhookVerifyToken, log)
	health := httptransport.NewHealthHandler(db, rdb)

	var adminRoutes httptransport.Registrar
	if cfg.AdminPassword != "" {
		adminRoutes = admin.NewHandler(users, logs, blocked, audit, gov,
			cfg.AdminUsername, cfg.AdminPassword, log)
	} else {
		log.Warn("ADMIN_PASSWORD not set, admin surface disabled")
	}

	router := httptransport.NewRouter(log, webhooks, health, adminRoutes, platformMetrics.NewHTTP())
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// openDatabase connects and applies the schema. An empty URL returns nil
// without error.
func openDatabase(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, nil
	}
	db, err := storage.Open(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := storage.InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
