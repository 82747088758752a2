package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"comment_analyzer/internal/api"
	"comment_analyzer/internal/config"
	"comment_analyzer/internal/fetcher"
	"comment_analyzer/internal/keypool"
	"comment_analyzer/internal/publisher"
	"comment_analyzer/internal/scheduler"
	"comment_analyzer/internal/sentiment"
	"comment_analyzer/internal/service"
	"comment_analyzer/internal/source/synthetic"
	"comment_analyzer/internal/source/youtube"
	"comment_analyzer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if len(cfg.APIKeys) == 0 {
		logger.Warn("no api keys configured; every fetch will serve synthetic data")
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	commentStore := postgres.NewCommentStore(db)
	runStore := postgres.NewRunStore(db)
	txManager := postgres.NewTransactionManager(db)

	pool := keypool.New(cfg.APIKeys, logger)

	ytClient := youtube.New(youtube.Config{
		BaseURL:  cfg.YouTube.BaseURL,
		PageSize: cfg.YouTube.PageSize,
		Timeout:  cfg.YouTube.Timeout,
	}, logger)

	pagedFetcher := fetcher.New(pool, ytClient, synthetic.New(), fetcher.Config{
		DefaultMaxItems:  cfg.Server.DefaultMaxItems,
		DefaultMaxPages:  cfg.Server.DefaultMaxPages,
		MaxAttempts:      cfg.YouTube.Retry.MaxAttempts,
		InitialBackoff:   cfg.YouTube.Retry.InitialBackoff,
		MaxBackoff:       cfg.YouTube.Retry.MaxBackoff,
		FallbackCategory: cfg.Server.FallbackCategory,
	}, logger)

	registry := make(map[string]sentiment.ModelConfig, len(cfg.Sentiment.Models))
	for name, upstream := range cfg.Sentiment.Models {
		registry[name] = sentiment.ModelConfig{
			UpstreamModel: upstream,
			BaseURL:       cfg.Sentiment.InferenceBaseURL,
			APIKey:        cfg.Sentiment.InferenceAPIKey,
			Timeout:       cfg.Sentiment.InferenceTimeout,
		}
	}
	dispatcher := sentiment.NewDispatcher(
		sentiment.NewLexicon(cfg.Sentiment.PositiveThreshold, cfg.Sentiment.NegativeThreshold),
		registry,
		logger,
	)

	analysisService := service.NewAnalysisService(
		pagedFetcher,
		dispatcher,
		commentStore,
		runStore,
		txManager,
		rabbitMQ,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	sched := scheduler.NewScheduler(pool, cfg.EpochReset.Interval, logger)
	go func() {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	handler := api.NewHandler(analysisService, dispatcher, pool, logger)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewRouter(handler),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting comment analyzer",
		"addr", cfg.Server.Addr,
		"api_keys", len(cfg.APIKeys),
		"models", len(cfg.Sentiment.Models),
		"epoch_reset_interval", cfg.EpochReset.Interval,
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
