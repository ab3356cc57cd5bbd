package main

import (
	"context"
	"database/sql"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_occupancy/internal/adapters/backend"
	"hotel_occupancy/internal/adapters/observability"
	redisad "hotel_occupancy/internal/adapters/redis"
	"hotel_occupancy/internal/app"
	"hotel_occupancy/internal/domain"
	"hotel_occupancy/internal/scheduler"
	"hotel_occupancy/internal/shared"
	mysqlrepo "hotel_occupancy/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	observability.RegisterDefault()
	observability.Serve(cfg.MetricsAddr)

	log.Info().
		Str("base", cfg.BackendBase).
		Int("workers", cfg.Workers).
		Int("window_days", cfg.ImportWindowDays).
		Msg("importer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	if err := mysqlrepo.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}
	log.Info().Msg("db ping ok")
	repo := mysqlrepo.New(db)

	client, err := backend.New(cfg.BackendBase, cfg.BackendKey, cfg.BackendRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend client")
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}
	imp := app.NewImportService(client, repo, repo, repo, cache, cfg.ImportPageSize, cfg.DefaultRoomType)

	if cfg.ImportCron != "" {
		runScheduled(ctx, cfg, imp)
		return
	}
	runOnce(ctx, cfg, imp)
}

// runOnce imports [IMPORT_FROM, IMPORT_TO) split into windows, a few at a time.
func runOnce(ctx context.Context, cfg shared.Config, imp *app.ImportService) {
	full, err := importRange(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid import range")
	}
	windows := app.SplitWindows(full, cfg.ImportWindowDays)

	sem := semaphore.NewWeighted(int64(max(cfg.Workers, 1)))
	var wg sync.WaitGroup
	var failed int32

	for _, w := range windows {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("import interrupted")
			break
		}

		wg.Add(1)
		go func(w domain.DateRange) {
			defer wg.Done()
			defer sem.Release(1)

			if _, err := imp.ImportWindow(ctx, w); err != nil {
				atomic.AddInt32(&failed, 1)
				log.Warn().Str("window", w.String()).Err(err).Msg("import window failed")
			}
		}(w)
	}

	wg.Wait()
	log.Info().Int("windows", len(windows)).Int32("failed", failed).Msg("import completed")
}

func runScheduled(ctx context.Context, cfg shared.Config, imp *app.ImportService) {
	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler init failed")
	}
	if err := scheduler.RegisterImportJob(sched, cfg.ImportCron, imp, cfg.ImportLookback, cfg.ImportAhead, 30*time.Minute); err != nil {
		log.Fatal().Err(err).Msg("import job registration failed")
	}
	sched.Start()
	<-ctx.Done()
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler stop failed")
	}
}

// importRange defaults to the scheduled rolling window when IMPORT_FROM/TO are unset.
func importRange(cfg shared.Config) (domain.DateRange, error) {
	w := scheduler.ImportWindowAt(time.Now(), cfg.ImportLookback, cfg.ImportAhead)
	if cfg.ImportFrom != "" {
		t, err := domain.ParseDate(cfg.ImportFrom)
		if err != nil {
			return domain.DateRange{}, err
		}
		w.Start = t
	}
	if cfg.ImportTo != "" {
		t, err := domain.ParseDate(cfg.ImportTo)
		if err != nil {
			return domain.DateRange{}, err
		}
		w.End = t
	}
	return domain.NewDateRange(w.Start, w.End)
}
