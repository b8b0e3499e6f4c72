package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/salonops/salon-ledger/internal/completion"
	"github.com/salonops/salon-ledger/internal/config"
	"github.com/salonops/salon-ledger/internal/domain/audit"
	"github.com/salonops/salon-ledger/internal/domain/booking"
	"github.com/salonops/salon-ledger/internal/domain/catalog"
	"github.com/salonops/salon-ledger/internal/domain/inventory"
	"github.com/salonops/salon-ledger/internal/domain/payments"
	"github.com/salonops/salon-ledger/internal/domain/stock"
	"github.com/salonops/salon-ledger/internal/infra/db"
	httpx "github.com/salonops/salon-ledger/internal/infra/http"
	"github.com/salonops/salon-ledger/internal/infra/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/subosito/gotenv"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func configPath() string {
	if p := os.Getenv("APP_CONFIG"); p != "" {
		return p
	}
	return "config/example.yaml"
}

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load(configPath())
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	stockRepo := stock.NewRepo(pool)
	invRepo := inventory.NewRepo(pool)
	auditRepo := audit.NewRepo(pool)
	catalogRepo := catalog.NewRepo(pool)
	bookingRepo := booking.NewRepo(pool)
	paymentsRepo := payments.NewRepo(pool)

	coord := completion.New(log, catalogRepo, bookingRepo, stockRepo, invRepo, paymentsRepo)

	statusHandler := httpx.NewStatusHandler(log, bookingRepo, coord)
	reportHandler := httpx.NewReportHandler(log, auditRepo, bookingRepo)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, statusHandler, reportHandler)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
