package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"code-redemption/internal/domain/model"
)

// SaleRepository is the append-only sales ledger.
type SaleRepository interface {
	Append(ctx context.Context, tx Tx, s *model.SaleRecord) error
	List(ctx context.Context, tx Tx, f model.SaleFilter) ([]*model.SaleRecord, int, error)
	// Stats aggregates the entries matching f, ignoring its page.
	Stats(ctx context.Context, tx Tx, f model.SaleFilter) (*model.SaleStats, error)
}

// RevenueRepository aggregates fulfilled orders.
type RevenueRepository interface {
	// ByProxy sums the order price of consumed codes owned by the proxy,
	// windowed on used_at.
	ByProxy(ctx context.Context, tx Tx, proxyID string, from, to *time.Time) (decimal.Decimal, int, error)
	// ByChannel sums completed orders of the channel, windowed on completed_at.
	ByChannel(ctx context.Context, tx Tx, channelID string, from, to *time.Time) (decimal.Decimal, int, error)
	// MatchProxies returns proxy ids owning at least one code that contain query.
	MatchProxies(ctx context.Context, tx Tx, query string, limit int) ([]string, error)
}
