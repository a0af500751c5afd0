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

	"github.com/redis/go-redis/v9"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/api"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/cache"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/chart"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/config"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/db"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/external"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/logging"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/metrics"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/notifications"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/pricing"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/repository"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║     Albion Marketplace Tracker       ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Options{
		Service: "albion-marketplace",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	cfg.Log(log)
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	dbLog := logging.Component(log, "db")
	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		dbLog.Error().Err(err).Msg("connection failed")
		os.Exit(1)
	}
	defer func() {
		pool.Close()
		dbLog.Info().Msg("connection pool closed")
	}()

	if err := db.TestConnection(ctx, pool, dbLog); err != nil {
		dbLog.Error().Err(err).Msg("test query failed")
		os.Exit(1)
	}

	// Repos
	itemRepo := repository.NewItemRepo(pool)
	observationRepo := repository.NewObservationRepo(pool)
	trackingRepo := repository.NewTrackingRepo(pool)

	m := metrics.New()

	// Item names, through Redis when configured
	var names pricing.NameSource = itemRepo
	var cachePing api.PingFunc
	if cfg.RedisURL != "" {
		cacheLog := logging.Component(log, "cache")
		rdb, err := cache.Open(ctx, cfg.RedisURL)
		if err != nil {
			cacheLog.Warn().Err(err).Msg("redis unavailable, reading item names from the database")
		} else {
			defer rdb.Close()
			names = cache.NewNameCache(rdb, itemRepo, cfg.ItemNameTTL, cacheLog)
			cachePing = pingRedis(rdb)
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Error().Err(err).Msg("resolve chart timezone")
		os.Exit(1)
	}
	builder := chart.NewBuilder(chart.Options{
		Location:    loc,
		WindowDays:  cfg.ChartWindowDays,
		PaletteSize: cfg.ChartPaletteSize,
	})
	charts := pricing.NewService(observationRepo, names, builder, m, logging.Component(log, "pricing"))

	// 1. API server
	srv := api.NewServer(api.Deps{
		Charts:       charts,
		Items:        itemRepo,
		Observations: observationRepo,
		Tracking:     trackingRepo,
		DBPing:       pool.Ping,
		CachePing:    cachePing,
		Metrics:      m,
		Log:          logging.Component(log, "api"),
		Location:     loc,
	}, api.Options{
		Port:       cfg.APIPort,
		APIKey:     cfg.APIKey,
		CORSOrigin: cfg.CORSAllowOrigin,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("API server error")
			os.Exit(1)
		}
	}()

	// 2. Price collector
	var collector *scheduler.Collector
	if cfg.CollectorEnabled {
		collectorLog := logging.Component(log, "collector")
		notify := notifications.NewSender(cfg.NotifyWebhookURL, cfg.NotifyName, logging.Component(log, "notify"))
		collector = scheduler.NewCollector(
			trackingRepo,
			external.NewMarketClient(cfg.CollectorBaseURL, collectorLog),
			observationRepo,
			notify,
			m,
			collectorLog,
			scheduler.CollectorConfig{
				Interval:  cfg.CollectorInterval,
				Locations: cfg.CollectorLocations,
				Quality:   1,
			},
		)
		collector.Start()
	} else {
		log.Info().Msg("collector disabled")
	}

	log.Info().Msg("all services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("shutting down gracefully")

	if collector != nil {
		collector.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API shutdown error")
	}
	log.Info().Msg("shutdown complete")
}

func pingRedis(rdb *redis.Client) api.PingFunc {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
