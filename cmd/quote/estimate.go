package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
	"github.com/aman-zulfiqar/thorchain-quote/internal/quote"
	"github.com/aman-zulfiqar/thorchain-quote/internal/refresh"
	"github.com/aman-zulfiqar/thorchain-quote/internal/thornode"
)

func runEstimate(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd)
	flags := cmd.Flags()

	fromStr, _ := flags.GetString("from")
	toStr, _ := flags.GetString("to")
	amountStr, _ := flags.GetString("amount")
	destination, _ := flags.GetString("destination")
	toleranceBps, _ := flags.GetInt64("tolerance-bps")
	affiliate, _ := flags.GetString("affiliate")
	affiliateBps, _ := flags.GetInt64("affiliate-bps")
	conversion, _ := flags.GetString("fee-conversion")
	defaultsPath, _ := flags.GetString("defaults")
	timeout, _ := flags.GetDuration("timeout")
	nodeURL, _ := flags.GetString("node")
	clientID, _ := flags.GetString("client-id")
	if nodeURL == "" {
		nodeURL = os.Getenv("THORNODE_URL")
	}
	if clientID == "" {
		clientID = os.Getenv("THORNODE_CLIENT_ID")
	}

	from, err := asset.Parse(fromStr)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := asset.Parse(toStr)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	if strings.TrimSpace(amountStr) == "" {
		return fmt.Errorf("--amount is required")
	}
	if toleranceBps > 10_000 {
		return fmt.Errorf("--tolerance-bps must be <= 10000")
	}

	qcfg := quote.DefaultConfig()
	if conversion != "" {
		qcfg.OutboundFeeConversion = quote.FeeConversion(strings.ToLower(conversion))
	}
	if err := qcfg.Validate(); err != nil {
		return err
	}

	defaults, err := network.LoadDefaults(defaultsPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolRepo := pools.NewRepository()
	paramRepo := network.NewRepository(defaults)
	refresher, err := refresh.New(refresh.Config{
		Source: thornode.NewClient(thornode.ClientConfig{
			BaseURL:      nodeURL,
			ClientID:     clientID,
			Timeout:      timeout,
			MaxRetries:   2,
			RetryBackoff: 500 * time.Millisecond,
			Logger:       logger,
		}),
		Pools:    poolRepo,
		Params:   paramRepo,
		Defaults: defaults,
		Interval: timeout,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if err := refresher.Refresh(ctx); err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}

	amount, err := asset.ParseHuman(amountStr, poolRepo.Snapshot().Decimals(from))
	if err != nil {
		return fmt.Errorf("--amount: %w", err)
	}
	req := quote.Request{
		Input:              asset.NewCryptoAmount(from, amount),
		DestinationAsset:   to,
		DestinationAddress: destination,
		AffiliateAddress:   affiliate,
		AffiliateFeeBps:    affiliateBps,
	}
	if toleranceBps >= 0 {
		limit := decimal.New(toleranceBps, -4)
		req.SlipLimit = &limit
	}

	engine := quote.NewEngine(quote.EngineConfig{
		Pools:  poolRepo,
		Params: paramRepo,
		Quote:  qcfg,
		Logger: logger,
	})
	q, err := engine.EstimateSwap(req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), q)
}
