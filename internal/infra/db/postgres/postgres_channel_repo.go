package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/ports/repository"
)

var _ repository.ChannelRepository = (*PostgresChannelRepo)(nil)

type PostgresChannelRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresChannelRepo(pool *pgxpool.Pool) *PostgresChannelRepo {
	return &PostgresChannelRepo{pool: pool}
}

const channelColumns = `id, name, description, created_at`

func scanChannel(row rowScanner) (*model.Channel, error) {
	var c model.Channel
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresChannelRepo) Insert(ctx context.Context, tx repository.Tx, ch *model.Channel) error {
	const sql = `INSERT INTO channels (id, name, description, created_at) VALUES ($1, $2, $3, $4);`
	if _, err := execSQL(ctx, r.pool, tx, sql, ch.ID, ch.Name, ch.Description, ch.CreatedAt); err != nil {
		return channelWriteErr(err, "insert channel")
	}
	return nil
}

func (r *PostgresChannelRepo) Update(ctx context.Context, tx repository.Tx, ch *model.Channel) error {
	const sql = `UPDATE channels SET name = $2, description = $3 WHERE id = $1;`
	ct, err := execSQL(ctx, r.pool, tx, sql, ch.ID, ch.Name, ch.Description)
	if err != nil {
		return channelWriteErr(err, "update channel")
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}

func channelWriteErr(err error, what string) error {
	if isUniqueViolation(err) {
		if violatedConstraint(err) == "channels_pkey" {
			return domain.ErrChannelIDTaken
		}
		return domain.ErrChannelNameTaken
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (r *PostgresChannelRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Channel, error) {
	sql := `SELECT ` + channelColumns + ` FROM channels WHERE id = $1` + lockClause(tx)
	row, err := pickRow(ctx, r.pool, tx, sql, id)
	if err != nil {
		return nil, err
	}
	c, err := scanChannel(row)
	if err != nil {
		return nil, scanErr(err, domain.ErrChannelNotFound, "find channel")
	}
	return c, nil
}

func (r *PostgresChannelRepo) List(ctx context.Context, tx repository.Tx, page model.Page) ([]*model.Channel, int, error) {
	var total int
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM channels`)
	if err != nil {
		return nil, 0, err
	}
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count channels: %w", err)
	}

	sql := `SELECT ` + channelColumns + ` FROM channels ORDER BY lower(name), id LIMIT $1 OFFSET $2;`
	rows, err := queryRows(ctx, r.pool, tx, sql, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []*model.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *PostgresChannelRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	ct, err := execSQL(ctx, r.pool, tx, `DELETE FROM channels WHERE id = $1;`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrChannelInUse
		}
		return fmt.Errorf("delete channel: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}
