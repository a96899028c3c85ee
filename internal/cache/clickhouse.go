package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/thorchain-quote/internal/constants"
	"github.com/aman-zulfiqar/thorchain-quote/internal/models"
	"github.com/aman-zulfiqar/thorchain-quote/internal/storage"
)

// ClickHouseConfig holds connection settings for the quote history store
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

// ClickHouseStore appends served quotes to the quotes table
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

var _ storage.QuoteStore = (*ClickHouseStore)(nil)

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

const createQuotesTable = `
	CREATE TABLE IF NOT EXISTS ` + constants.QuotesTable + ` (
		id                String,
		created_at        DateTime64(3, 'UTC'),
		pair              LowCardinality(String),
		source_asset      LowCardinality(String),
		destination_asset LowCardinality(String),
		input_amount      String,
		gross_output      String,
		net_output        String,
		min_output        String,
		swap_fee          String,
		outbound_fee      String,
		affiliate_fee     String,
		slip_bps          Int64,
		route             LowCardinality(String),
		can_swap          Bool,
		reasons           Array(String),
		memo              String,
		wait_time_seconds Int64,
		pool_generation   UInt64,
		expires_at        DateTime64(3, 'UTC')
	) ENGINE = MergeTree
	ORDER BY (pair, created_at)
`

func (c *ClickHouseStore) EnsureSchema(ctx context.Context) error {
	if err := c.conn.Exec(ctx, createQuotesTable); err != nil {
		return fmt.Errorf("failed to create quotes table: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) InsertQuote(ctx context.Context, rec *models.QuoteRecord) error {
	query := `
		INSERT INTO ` + constants.QuotesTable + ` (
			id, created_at, pair, source_asset, destination_asset,
			input_amount, gross_output, net_output, min_output,
			swap_fee, outbound_fee, affiliate_fee, slip_bps, route,
			can_swap, reasons, memo, wait_time_seconds, pool_generation, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		rec.ID,
		rec.CreatedAt,
		rec.Pair,
		rec.SourceAsset,
		rec.DestinationAsset,
		rec.InputAmount,
		rec.GrossOutput,
		rec.NetOutput,
		rec.MinOutput,
		rec.SwapFee,
		rec.OutboundFee,
		rec.AffiliateFee,
		rec.SlipBps,
		rec.Route,
		rec.CanSwap,
		rec.Reasons,
		rec.Memo,
		rec.WaitTimeSeconds,
		rec.PoolGeneration,
		rec.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
