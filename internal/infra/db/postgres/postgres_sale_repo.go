package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/ports/repository"
)

var (
	_ repository.SaleRepository    = (*PostgresSaleRepo)(nil)
	_ repository.RevenueRepository = (*PostgresSaleRepo)(nil)
)

// PostgresSaleRepo owns the append-only ledger and the revenue aggregates.
type PostgresSaleRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSaleRepo(pool *pgxpool.Pool) *PostgresSaleRepo {
	return &PostgresSaleRepo{pool: pool}
}

func (r *PostgresSaleRepo) Append(ctx context.Context, tx repository.Tx, s *model.SaleRecord) error {
	const sql = `
INSERT INTO sale_records (id, code, buyer_email, price, card_name, purchased_at)
VALUES ($1, $2, $3, $4, $5, $6);
`
	if _, err := execSQL(ctx, r.pool, tx, sql, s.ID, s.Code, s.BuyerEmail, s.Price, s.CardName, s.PurchasedAt); err != nil {
		return fmt.Errorf("append sale: %w", err)
	}
	return nil
}

const saleWhere = `
 WHERE ($1::text IS NULL OR card_name ILIKE '%' || $1 || '%')
   AND ($2::timestamptz IS NULL OR purchased_at >= $2)
   AND ($3::timestamptz IS NULL OR purchased_at < $3)
   AND ($4::text IS NULL OR buyer_email = $4)`

func saleArgs(f model.SaleFilter) []interface{} {
	return []interface{}{f.CardName, f.From, f.To, f.BuyerEmail}
}

func (r *PostgresSaleRepo) List(ctx context.Context, tx repository.Tx, f model.SaleFilter) ([]*model.SaleRecord, int, error) {
	args := saleArgs(f)

	var total int
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM sale_records`+saleWhere, args...)
	if err != nil {
		return nil, 0, err
	}
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	sql := `SELECT id, code, buyer_email, price, card_name, purchased_at FROM sale_records` + saleWhere +
		` ORDER BY purchased_at DESC, id DESC LIMIT $5 OFFSET $6;`
	rows, err := queryRows(ctx, r.pool, tx, sql, append(args, f.Page.Limit, f.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []*model.SaleRecord
	for rows.Next() {
		var s model.SaleRecord
		if err := rows.Scan(&s.ID, &s.Code, &s.BuyerEmail, &s.Price, &s.CardName, &s.PurchasedAt); err != nil {
			return nil, 0, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, &s)
	}
	return out, total, rows.Err()
}

// Stats groups the matching entries by card name, highest revenue first.
func (r *PostgresSaleRepo) Stats(ctx context.Context, tx repository.Tx, f model.SaleFilter) (*model.SaleStats, error) {
	sql := `SELECT card_name, COUNT(*), COALESCE(SUM(price), 0) FROM sale_records` + saleWhere +
		` GROUP BY card_name ORDER BY 3 DESC, card_name;`
	rows, err := queryRows(ctx, r.pool, tx, sql, saleArgs(f)...)
	if err != nil {
		return nil, fmt.Errorf("sale stats: %w", err)
	}
	defer rows.Close()

	st := &model.SaleStats{TotalRevenue: decimal.Zero, ByCard: []model.CardSales{}}
	for rows.Next() {
		var cs model.CardSales
		if err := rows.Scan(&cs.CardName, &cs.Count, &cs.Revenue); err != nil {
			return nil, fmt.Errorf("scan sale stats: %w", err)
		}
		st.TotalSales += cs.Count
		st.TotalRevenue = st.TotalRevenue.Add(cs.Revenue)
		st.ByCard = append(st.ByCard, cs)
	}
	return st, rows.Err()
}

// ByProxy sums the frozen order price of the proxy's consumed codes.
func (r *PostgresSaleRepo) ByProxy(ctx context.Context, tx repository.Tx, proxyID string, from, to *time.Time) (decimal.Decimal, int, error) {
	const sql = `
SELECT COALESCE(SUM(o.card_price), 0), COUNT(*)
  FROM activation_codes c
  JOIN orders o ON o.code_id = c.id
 WHERE c.proxy_id = $1
   AND c.status = 'consumed'
   AND ($2::timestamptz IS NULL OR c.used_at >= $2)
   AND ($3::timestamptz IS NULL OR c.used_at < $3);
`
	return r.aggregate(ctx, tx, sql, proxyID, from, to)
}

func (r *PostgresSaleRepo) ByChannel(ctx context.Context, tx repository.Tx, channelID string, from, to *time.Time) (decimal.Decimal, int, error) {
	const sql = `
SELECT COALESCE(SUM(card_price), 0), COUNT(*)
  FROM orders
 WHERE channel_id = $1
   AND status = 'completed'
   AND ($2::timestamptz IS NULL OR completed_at >= $2)
   AND ($3::timestamptz IS NULL OR completed_at < $3);
`
	return r.aggregate(ctx, tx, sql, channelID, from, to)
}

func (r *PostgresSaleRepo) aggregate(ctx context.Context, tx repository.Tx, sql, target string, from, to *time.Time) (decimal.Decimal, int, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, target, from, to)
	if err != nil {
		return decimal.Zero, 0, err
	}
	var (
		total decimal.Decimal
		n     int
	)
	if err := row.Scan(&total, &n); err != nil {
		return decimal.Zero, 0, fmt.Errorf("aggregate revenue: %w", err)
	}
	return total, n, nil
}

// MatchProxies finds proxy ids containing query, case-insensitively.
func (r *PostgresSaleRepo) MatchProxies(ctx context.Context, tx repository.Tx, query string, limit int) ([]string, error) {
	const sql = `
SELECT DISTINCT proxy_id
  FROM activation_codes
 WHERE proxy_id IS NOT NULL AND proxy_id ILIKE '%' || $1 || '%'
 ORDER BY proxy_id
 LIMIT $2;
`
	rows, err := queryRows(ctx, r.pool, tx, sql, query, limit)
	if err != nil {
		return nil, fmt.Errorf("match proxies: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
