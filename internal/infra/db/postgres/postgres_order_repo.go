package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*PostgresOrderRepo)(nil)

type PostgresOrderRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepo(pool *pgxpool.Pool) *PostgresOrderRepo {
	return &PostgresOrderRepo{pool: pool}
}

const orderColumns = `id, code_id, code, status, buyer_id, channel_id, remarks, card_name, card_price, created_at, completed_at`

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.CodeID, &o.Code, &o.Status, &o.BuyerID, &o.ChannelID, &o.Remarks,
		&o.CardName, &o.CardPrice, &o.CreatedAt, &o.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	const sql = `
INSERT INTO orders (id, code_id, code, status, buyer_id, channel_id, remarks, card_name, card_price, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE
  SET status       = EXCLUDED.status,
      remarks      = EXCLUDED.remarks,
      completed_at = EXCLUDED.completed_at;
`
	_, err := execSQL(ctx, r.pool, tx, sql,
		o.ID, o.CodeID, o.Code, o.Status, o.BuyerID, o.ChannelID, o.Remarks,
		o.CardName, o.CardPrice, o.CreatedAt, o.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCodeAlreadyUsed
		}
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

func (r *PostgresOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1` + lockClause(tx)
	row, err := pickRow(ctx, r.pool, tx, sql, id)
	if err != nil {
		return nil, err
	}
	o, err := scanOrder(row)
	if err != nil {
		return nil, scanErr(err, domain.ErrOrderNotFound, "find order")
	}
	return o, nil
}

func (r *PostgresOrderRepo) List(ctx context.Context, tx repository.Tx, f model.OrderFilter) ([]*model.Order, int, error) {
	const where = `
 WHERE (cardinality($1::text[]) = 0 OR status = ANY($1))
   AND ($2::text IS NULL OR channel_id = $2)
   AND ($3::text IS NULL OR buyer_id = $3)`

	statuses := make([]string, 0, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses = append(statuses, string(s))
	}
	args := []interface{}{statuses, f.ChannelID, f.BuyerID}

	var total int
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM orders`+where, args...)
	if err != nil {
		return nil, 0, err
	}
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	order := ` ORDER BY created_at DESC, id DESC`
	if f.OldestFirst {
		order = ` ORDER BY created_at ASC, id ASC`
	}
	sql := `SELECT ` + orderColumns + ` FROM orders` + where + order + ` LIMIT $4 OFFSET $5;`
	rows, err := queryRows(ctx, r.pool, tx, sql, append(args, f.Page.Limit, f.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *PostgresOrderRepo) Stats(ctx context.Context, tx repository.Tx) (*model.OrderStats, error) {
	const sql = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status = 'pending'),
       COUNT(*) FILTER (WHERE status = 'processing'),
       COUNT(*) FILTER (WHERE status = 'completed')
  FROM orders;
`
	row, err := pickRow(ctx, r.pool, tx, sql)
	if err != nil {
		return nil, err
	}
	var st model.OrderStats
	if err := row.Scan(&st.Total, &st.Pending, &st.Processing, &st.Completed); err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	return &st, nil
}

func (r *PostgresOrderRepo) ListStale(ctx context.Context, tx repository.Tx, before time.Time, limit int) ([]*model.Order, error) {
	const sql = `
SELECT ` + orderColumns + `
  FROM orders
 WHERE status IN ('pending', 'processing') AND created_at < $1
 ORDER BY created_at ASC
 LIMIT $2;
`
	rows, err := queryRows(ctx, r.pool, tx, sql, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale orders: %w", err)
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
