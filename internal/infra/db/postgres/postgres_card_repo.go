package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/ports/repository"
)

var _ repository.CardRepository = (*PostgresCardRepo)(nil)

type PostgresCardRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCardRepo(pool *pgxpool.Pool) *PostgresCardRepo {
	return &PostgresCardRepo{pool: pool}
}

const cardColumns = `id, name, description, price, active, channel_id, created_at`

func scanCard(row rowScanner) (*model.Card, error) {
	var c model.Card
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Price, &c.Active, &c.ChannelID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCardRepo) Save(ctx context.Context, tx repository.Tx, card *model.Card) error {
	const sql = `
INSERT INTO cards (id, name, description, price, active, channel_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
  SET name        = EXCLUDED.name,
      description = EXCLUDED.description,
      price       = EXCLUDED.price,
      active      = EXCLUDED.active,
      channel_id  = EXCLUDED.channel_id;
`
	_, err := execSQL(ctx, r.pool, tx, sql,
		card.ID, card.Name, card.Description, card.Price, card.Active, card.ChannelID, card.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCardNameTaken
		}
		if isForeignKeyViolation(err) {
			return domain.ErrUnknownChannel
		}
		return fmt.Errorf("save card: %w", err)
	}
	return nil
}

func (r *PostgresCardRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Card, error) {
	sql := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1` + lockClause(tx)
	row, err := pickRow(ctx, r.pool, tx, sql, id)
	if err != nil {
		return nil, err
	}
	c, err := scanCard(row)
	if err != nil {
		return nil, scanErr(err, domain.ErrCardNotFound, "find card")
	}
	return c, nil
}

func (r *PostgresCardRepo) List(ctx context.Context, tx repository.Tx, includeInactive bool, channelID *string) ([]*model.Card, error) {
	const sql = `
SELECT ` + cardColumns + `
  FROM cards
 WHERE ($1 OR active)
   AND ($2::text IS NULL OR channel_id = $2)
 ORDER BY created_at DESC, id DESC;
`
	rows, err := queryRows(ctx, r.pool, tx, sql, includeInactive, channelID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []*model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresCardRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	ct, err := execSQL(ctx, r.pool, tx, `DELETE FROM cards WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCardNotFound
	}
	return nil
}
