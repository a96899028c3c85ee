package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/thorchain-quote/internal/cache"
	"github.com/aman-zulfiqar/thorchain-quote/internal/config"
	"github.com/aman-zulfiqar/thorchain-quote/internal/constants"
	"github.com/aman-zulfiqar/thorchain-quote/internal/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd tails the live quote feed: every quote on the live channel,
// plus any channel matching --pattern
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "subscriber",
		Short:        "Follow published quotes over Redis pub/sub",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runSubscriber,
	}
	cmd.Flags().String("pattern", constants.PubSubPatternAllQuotes, "extra channel pattern to follow; empty disables it")
	cmd.Flags().String("redis-addr", "", "Redis address (default REDIS_ADDR)")
	return cmd
}

func runSubscriber(cmd *cobra.Command, _ []string) error {
	pattern, _ := cmd.Flags().GetString("pattern")
	addr, _ := cmd.Flags().GetString("redis-addr")

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	cfg := config.Load()
	logger.SetLevel(cfg.Level())
	if addr == "" {
		addr = cfg.RedisAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rclient := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = rclient.Close() }()

	feed, err := cache.NewRedisCache(rclient, logger)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	if err := feed.Ping(ctx); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	live, err := feed.SubscribeQuotes(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"channel": constants.PubSubChannelQuotes,
		"pattern": pattern,
	}).Info("subscriber running, press Ctrl+C to stop")

	var wg sync.WaitGroup
	if pattern != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := feed.PSubscribe(ctx, pattern, func(rec *models.QuoteRecord) {
				logger.WithFields(logrus.Fields{"pattern": pattern, "pair": rec.Pair, "id": rec.ID}).Debug("pattern match")
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("pattern subscription ended")
			}
		}()
	}

	for rec := range live {
		logger.WithFields(logrus.Fields{
			"id":       rec.ID,
			"pair":     rec.Pair,
			"route":    rec.Route,
			"in":       rec.InputAmount,
			"out":      rec.NetOutput,
			"slip_bps": rec.SlipBps,
			"can_swap": rec.CanSwap,
		}).Info("quote")
	}

	wg.Wait()
	logger.Info("subscriber stopped")
	return nil
}
