package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/thorchain-quote/internal/cache"
	"github.com/aman-zulfiqar/thorchain-quote/internal/config"
	"github.com/aman-zulfiqar/thorchain-quote/internal/halts"
	"github.com/aman-zulfiqar/thorchain-quote/internal/metrics"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
	"github.com/aman-zulfiqar/thorchain-quote/internal/quote"
	"github.com/aman-zulfiqar/thorchain-quote/internal/refresh"
	"github.com/aman-zulfiqar/thorchain-quote/internal/server"
	"github.com/aman-zulfiqar/thorchain-quote/internal/storage"
	"github.com/aman-zulfiqar/thorchain-quote/internal/thornode"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main wires the snapshot refresher, the quote engine and the HTTP API,
// then serves until SIGINT/SIGTERM
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger.SetLevel(cfg.Level())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Redis backs recent quotes, the live feed, the snapshot cache and halt overrides
	rclient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer func() { _ = rclient.Close() }()

	quoteCache, err := cache.NewRedisCache(rclient, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create quote cache")
	}

	haltStore, err := halts.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create halt store")
	}

	// ClickHouse quote history is optional
	var history storage.QuoteStore
	if cfg.HistoryEnabled() {
		ch, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err != nil {
			logger.WithError(err).Warn("quote history disabled: clickhouse unavailable")
		} else if err := ch.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Warn("quote history disabled: failed to create schema")
			_ = ch.Close()
		} else {
			history = ch
			defer func() { _ = ch.Close() }()
		}
	}

	defaults, err := network.LoadDefaults(cfg.NetworkDefaults)
	if err != nil {
		logger.WithError(err).Fatal("failed to load network defaults")
	}

	m := metrics.Get()
	poolRepo := pools.NewRepository()
	paramRepo := network.NewRepository(defaults)

	node := thornode.NewClient(thornode.ClientConfig{
		BaseURL:      cfg.THORNodeURL,
		ClientID:     cfg.THORNodeClientID,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})

	refresher, err := refresh.New(refresh.Config{
		Source:   node,
		Halts:    haltStore,
		Cache:    quoteCache,
		Pools:    poolRepo,
		Params:   paramRepo,
		Defaults: defaults,
		Interval: cfg.RefreshInterval,
		Logger:   logger,
		Metrics:  m,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create refresher")
	}
	if err := refresher.WarmStart(ctx); err != nil {
		logger.WithError(err).Warn("warm start failed")
	}
	go func() {
		if err := refresher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("refresher stopped")
		}
	}()

	engine := quote.NewEngine(quote.EngineConfig{
		Pools:   poolRepo,
		Params:  paramRepo,
		Quote:   cfg.Quote(),
		Logger:  logger,
		Metrics: m,
	})

	h := &server.Handlers{
		Engine:  engine,
		Pools:   poolRepo,
		Params:  paramRepo,
		Cache:   quoteCache,
		History: history,
		Halts:   haltStore,
		HaltsChanged: func() {
			go func() {
				if err := refresher.Refresh(ctx); err != nil {
					logger.WithError(err).Warn("refresh after halt change failed")
				}
			}()
		},
		Metrics: m,
		DevMode: cfg.DevMode,
		Logger:  logger,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:           cfg.APIAddr,
			DevMode:        cfg.DevMode,
			APIKey:         cfg.APIKey,
			QuoteRateLimit: cfg.QuoteRateLimit,
			QuoteRateBurst: cfg.QuoteRateBurst,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("http shutdown")
		}
	}()

	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("api server failed")
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer waitCancel()
	if err := srv.WaitClosed(waitCtx); err != nil {
		logger.WithError(err).Warn("server did not close cleanly")
	}
}
