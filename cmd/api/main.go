package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "hotel_occupancy/internal/adapters/http_server"
	"hotel_occupancy/internal/adapters/observability"
	redisad "hotel_occupancy/internal/adapters/redis"
	"hotel_occupancy/internal/app"
	"hotel_occupancy/internal/domain"
	"hotel_occupancy/internal/shared"
	"hotel_occupancy/internal/storage/memory"
	mysqlrepo "hotel_occupancy/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	inv, err := shared.LoadInventory(cfg.InventoryFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.InventoryFile).Msg("inventory load failed")
	}
	log.Info().Strs("room_types", inv.RoomTypes()).Int("rooms", inv.Total()).Msg("inventory loaded")

	// store
	var (
		bookings domain.BookingStore
		orders   domain.OrderFeed
	)
	switch cfg.StoreDriver {
	case "memory":
		st := memory.New()
		bookings, orders = st, st
		log.Warn().Msg("using in-memory store; data is lost on exit")
	default:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		if err := mysqlrepo.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		repo := mysqlrepo.New(db)
		if err := repo.SyncInventory(ctx, inv); err != nil {
			log.Fatal().Err(err).Msg("inventory sync failed")
		}
		bookings, orders = repo, repo
	}

	// report cache is optional
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; report cache disabled")
		} else {
			cache = rc
		}
	}

	bookingSvc := app.NewBookingService(bookings, inv, cache)
	reportSvc := app.NewReportService(bookings, orders, inv, cache, cfg.CacheTTL)

	// http
	srv := server.New(cfg.RequestTimeout)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Bookings: bookingSvc, Reports: reportSvc})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
