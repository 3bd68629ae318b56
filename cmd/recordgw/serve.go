package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"record-gateway/api"
	"record-gateway/config"
	"record-gateway/middleware/resilience"
	"record-gateway/middleware/resilience/application"
	"record-gateway/middleware/resilience/domain"
	"record-gateway/middleware/resilience/infra"
	"record-gateway/records"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (configured through RECORDGW_* env vars)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)

	store, err := records.Open(cfg.DataFile)
	if err != nil {
		logger.Error().Err(err).Str("file", cfg.DataFile).Msg("open record store")
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	memStats := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.StatsTrackKeys))
	var stats domain.StatsStore = memStats
	var redisStats *infra.RedisStatsStore
	if cfg.StatsRedisEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.StatsRedisAddr,
			Password: cfg.StatsRedisPassword,
			DB:       cfg.StatsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			logger.Error().Err(err).Str("addr", cfg.StatsRedisAddr).Msg("redis stats ping")
			return err
		}
		redisStats = infra.NewRedisStatsStore(rdb,
			infra.WithStatsPrefix(cfg.StatsPrefix),
			infra.WithStatsTTL(cfg.StatsTTL),
			infra.WithStatsBucket(cfg.StatsBucket),
			infra.WithStatsTrackKeys(cfg.StatsTrackKeys),
		)
		stats = redisStats
	}

	var rl resilience.RateLimitOptions
	if cfg.RateEnabled {
		rs := infra.NewRateStore(cfg.RateRPS, cfg.RateBurst)
		rs.StartJanitor(ctx)
		rl = resilience.RateLimitOptions{
			Store:              rs,
			KeyHeader:          cfg.RateKeyHeader,
			TrustXForwardedFor: cfg.TrustXFF,
			RetryAfter:         cfg.RetryAfter,
		}
	}

	gate := infra.NewGate(cfg.ConcurrencyMax, cfg.ConcurrencyBacklog)

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: api.NewPipeline(api.PipelineOptions{
			Logger: logger,
			IDs:    infra.IDGenerator{},
			Handlers: &api.Handlers{
				Store:        store,
				DelaySleep:   cfg.DelayDuration,
				TimeoutSleep: cfg.TimeoutDemoDuration,
			},
			RequestTimeout: cfg.RequestTimeout,
			Gate:           gate,
			BacklogTimeout: cfg.ConcurrencyTimeout,
			RateLimit:      rl,
			Stats:          stats,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      max(30*time.Second, cfg.RequestTimeout+5*time.Second),
		IdleTimeout:       90 * time.Second,
		ErrorLog:          newStdLog(logger),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.ListenAddr).
			Str("data_file", cfg.DataFile).
			Int("concurrency_max", cfg.ConcurrencyMax).
			Int("concurrency_backlog", cfg.ConcurrencyBacklog).
			Dur("request_timeout", cfg.RequestTimeout).
			Dur("shutdown_grace", cfg.ShutdownGrace).
			Bool("rate_enabled", cfg.RateEnabled).
			Bool("stats_redis", cfg.StatsRedisEnabled).
			Msg("recordgw listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok && err != nil {
			logger.Error().Err(err).Msg("server error")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Int("in_flight", gate.InFlight()).Msg("shutdown signal received: draining")
	drain := application.DrainService{
		Gate:   gate,
		Server: srv,
		Grace:  cfg.ShutdownGrace,
		OnAbandon: func(inFlight int) {
			logger.Warn().Int("in_flight", inFlight).Dur("grace", cfg.ShutdownGrace).Msg("grace deadline exceeded: abandoning requests")
		},
	}
	err = drain.Drain(context.Background())
	if redisStats != nil {
		logRedisTotals(logger, redisStats)
	} else {
		logTotals(logger, memStats)
	}
	if err != nil && !errors.Is(err, application.ErrDrainDeadline) {
		logger.Error().Err(err).Msg("shutdown")
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}

func logTotals(logger zerolog.Logger, s *infra.MemoryStatsStore) {
	ev := logger.Info()
	for o, n := range s.Total() {
		ev = ev.Int64(o.String(), n)
	}
	ev.Msg("outcome totals")
}

// logRedisTotals loga os totais acumulados no Redis (inclui outras instâncias
// que usam o mesmo prefixo).
func logRedisTotals(logger zerolog.Logger, s *infra.RedisStatsStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	total, err := s.Total(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("read redis outcome totals")
		return
	}
	ev := logger.Info()
	for o, n := range total {
		ev = ev.Str(o, n)
	}
	ev.Msg("outcome totals")
}
