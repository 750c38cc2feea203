package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"code-redemption/internal/config"
	"code-redemption/internal/domain/ports/adapter"
	"code-redemption/internal/domain/ports/repository"
	"code-redemption/internal/infra/adapters/notify"
	pg "code-redemption/internal/infra/db/postgres"
	"code-redemption/internal/infra/i18n"
	"code-redemption/internal/infra/logging"
	"code-redemption/internal/infra/metrics"
	red "code-redemption/internal/infra/redis"
	"code-redemption/internal/infra/sched"
	"code-redemption/internal/infra/web"
	"code-redemption/internal/infra/worker"
	"code-redemption/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second, logger)

	// ---- Repositories ----
	var cardRepo repository.CardRepository = pg.NewPostgresCardRepo(pool)
	codeRepo := pg.NewActivationCodeRepo(pool)
	orderRepo := pg.NewPostgresOrderRepo(pool)
	saleRepo := pg.NewPostgresSaleRepo(pool)
	channelRepo := pg.NewPostgresChannelRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Redis (optional) ----
	var limiter web.Limiter
	var locker red.Locker
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		cardRepo = pg.NewCardRepoCacheDecorator(cardRepo, redisClient, cfg.Redis.TTL, logger)
		limiter = red.NewRateLimiter(redisClient)
		locker = red.NewLocker(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set; card cache and check rate limit disabled")
	}

	// ---- Notifications ----
	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Notify.Lang)
	if err != nil {
		logger.Fatal().Err(err).Msg("translator")
	}
	var notifier adapter.Notifier = notify.NewLogNotifier(logger)
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegramNotifier(&cfg.Telegram, tr, notifier, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		notifier = tg
	}
	workers := worker.NewPool(cfg.Notify.Workers, cfg.Notify.QueueSize, logger)
	workers.Start(context.WithoutCancel(ctx))

	// ---- Use cases ----
	cardUC := usecase.NewCardUseCase(cardRepo, codeRepo, channelRepo, tm, logger)
	codeUC := usecase.NewCodeUseCase(cardRepo, codeRepo, tm, nil, logger)
	orderUC := usecase.NewOrderUseCase(cardRepo, codeRepo, channelRepo, orderRepo, saleRepo, tm, notifier, workers, logger, cfg.Runtime.Dev)
	ledgerUC := usecase.NewLedgerUseCase(saleRepo, saleRepo, logger)
	channelUC := usecase.NewChannelUseCase(channelRepo, cardRepo, tm, logger)

	var bg sync.WaitGroup
	if cfg.Reclaim.Enabled {
		reclaimUC := usecase.NewReclaimUseCase(orderRepo, codeRepo, notifier, cfg.Reclaim.StaleAfter, cfg.Reclaim.BatchSize, logger)
		w := sched.NewReclaimWorker(cfg.Reclaim.Interval, reclaimUC, locker, logger)
		bg.Add(1)
		go func() {
			defer bg.Done()
			_ = w.Run(ctx)
		}()
	}

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth)
	srv := web.NewServer(cardUC, codeUC, orderUC, ledgerUC, channelUC, auth, limiter, cfg.RateLimit.CheckPerMinute, cfg.HTTP.RequestTimeout, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		logger.Error().Err(err).Msg("http server error")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	bg.Wait()
	workers.Stop()
	logger.Info().Msg("bye")
}
