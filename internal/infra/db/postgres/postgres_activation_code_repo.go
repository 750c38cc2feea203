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

// Ensure implementation satisfies the interface.
var _ repository.ActivationCodeRepository = (*activationCodeRepo)(nil)

type activationCodeRepo struct {
	pool *pgxpool.Pool
}

func NewActivationCodeRepo(pool *pgxpool.Pool) repository.ActivationCodeRepository {
	return &activationCodeRepo{pool: pool}
}

const codeColumns = `id, card_id, code, status, exported, proxy_id, created_at, used_at`

func scanCode(row rowScanner) (*model.ActivationCode, error) {
	var c model.ActivationCode
	if err := row.Scan(&c.ID, &c.CardID, &c.Code, &c.Status, &c.Exported, &c.ProxyID, &c.CreatedAt, &c.UsedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertIfAbsent reports false when the code string already exists.
func (r *activationCodeRepo) InsertIfAbsent(ctx context.Context, tx repository.Tx, code *model.ActivationCode) (bool, error) {
	const q = `
INSERT INTO activation_codes (id, card_id, code, status, exported, proxy_id, created_at, used_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (code) DO NOTHING;
`
	ct, err := execSQL(ctx, r.pool, tx, q,
		code.ID, code.CardID, code.Code, code.Status, code.Exported, code.ProxyID, code.CreatedAt, code.UsedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert activation code: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *activationCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ActivationCode, error) {
	q := `SELECT ` + codeColumns + ` FROM activation_codes WHERE id = $1` + lockClause(tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	c, err := scanCode(row)
	if err != nil {
		return nil, scanErr(err, domain.ErrCodeNotFound, "find activation code")
	}
	return c, nil
}

func (r *activationCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	q := `SELECT ` + codeColumns + ` FROM activation_codes WHERE code = $1` + lockClause(tx)
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	c, err := scanCode(row)
	if err != nil {
		return nil, scanErr(err, domain.ErrCodeNotFound, "find activation code")
	}
	return c, nil
}

// Allocate claims the oldest available code of the card. Concurrent callers
// skip each other's locked rows, so no code is handed out twice.
func (r *activationCodeRepo) Allocate(ctx context.Context, tx repository.Tx, cardID string, proxyID *string) (*model.ActivationCode, error) {
	const q = `
UPDATE activation_codes
   SET status = 'consuming'
 WHERE id = (
        SELECT id FROM activation_codes
         WHERE card_id = $1
           AND status = 'available'
           AND proxy_id IS NOT DISTINCT FROM $2::text
         ORDER BY created_at, id
         LIMIT 1
         FOR UPDATE SKIP LOCKED)
RETURNING ` + codeColumns + `;
`
	row, err := pickRow(ctx, r.pool, tx, q, cardID, proxyID)
	if err != nil {
		return nil, err
	}
	c, err := scanCode(row)
	if err != nil {
		return nil, scanErr(err, domain.ErrNoCodesAvailable, "allocate activation code")
	}
	return c, nil
}

// ClaimByCode flips one specific code from available to consuming.
func (r *activationCodeRepo) ClaimByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	const q = `
UPDATE activation_codes
   SET status = 'consuming'
 WHERE code = $1 AND status = 'available'
RETURNING ` + codeColumns + `;
`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	c, err := scanCode(row)
	if err == nil {
		return c, nil
	}
	if _, ferr := r.FindByCode(ctx, tx, code); ferr != nil {
		return nil, ferr
	}
	return nil, scanErr(err, domain.ErrCodeAlreadyUsed, "claim activation code")
}

// MarkConsumed moves a consuming code to consumed. Consumed codes are
// returned as they are.
func (r *activationCodeRepo) MarkConsumed(ctx context.Context, tx repository.Tx, id string, at time.Time) (*model.ActivationCode, error) {
	c, err := r.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == model.CodeStatusConsumed {
		return c, nil
	}
	if err := c.Consume(at); err != nil {
		return nil, err
	}
	const q = `UPDATE activation_codes SET status = $2, used_at = $3 WHERE id = $1 AND status = 'consuming';`
	ct, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Status, c.UsedAt)
	if err != nil {
		return nil, fmt.Errorf("consume activation code: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, domain.ErrCodeStateInvalid
	}
	return c, nil
}

func (r *activationCodeRepo) List(ctx context.Context, tx repository.Tx, f model.CodeFilter) ([]*model.ActivationCode, int, error) {
	const where = `
 WHERE card_id = $1
   AND ($2::text IS NULL OR proxy_id = $2)
   AND ($3::text IS NULL OR status = $3)
   AND ($4::boolean IS NULL OR exported = $4)`

	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}
	args := []interface{}{f.CardID, f.ProxyID, status, f.Exported}

	var total int
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM activation_codes`+where, args...)
	if err != nil {
		return nil, 0, err
	}
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activation codes: %w", err)
	}

	q := `SELECT ` + codeColumns + ` FROM activation_codes` + where + `
 ORDER BY created_at DESC, id DESC
 LIMIT $5 OFFSET $6;`
	rows, err := queryRows(ctx, r.pool, tx, q, append(args, f.Page.Limit, f.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list activation codes: %w", err)
	}
	defer rows.Close()

	var out []*model.ActivationCode
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan activation code: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *activationCodeRepo) CountByCard(ctx context.Context, tx repository.Tx, cardID string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM activation_codes WHERE card_id = $1;`, cardID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count activation codes: %w", err)
	}
	return n, nil
}

func (r *activationCodeRepo) CountAvailable(ctx context.Context, tx repository.Tx, cardID string, proxyID *string) (int, error) {
	const q = `
SELECT COUNT(*) FROM activation_codes
 WHERE card_id = $1 AND status = 'available' AND proxy_id IS NOT DISTINCT FROM $2::text;
`
	row, err := pickRow(ctx, r.pool, tx, q, cardID, proxyID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count available codes: %w", err)
	}
	return n, nil
}

// MarkExported returns how many of ids matched; the caller decides whether
// a partial match is acceptable.
func (r *activationCodeRepo) MarkExported(ctx context.Context, tx repository.Tx, ids []string, proxyID *string) (int, error) {
	const q = `
UPDATE activation_codes
   SET exported = TRUE
 WHERE id = ANY($1)
   AND ($2::text IS NULL OR proxy_id = $2);
`
	ct, err := execSQL(ctx, r.pool, tx, q, ids, proxyID)
	if err != nil {
		return 0, fmt.Errorf("mark exported: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

func (r *activationCodeRepo) DeleteAllForCard(ctx context.Context, tx repository.Tx, cardID string) (int, error) {
	// lock the card's codes so no claim slips in between check and delete
	rows, err := queryRows(ctx, r.pool, tx, `SELECT status FROM activation_codes WHERE card_id = $1`+lockClause(tx), cardID)
	if err != nil {
		return 0, fmt.Errorf("lock activation codes: %w", err)
	}
	inUse := false
	for rows.Next() {
		var s model.CodeStatus
		if err := rows.Scan(&s); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan activation code: %w", err)
		}
		if s != model.CodeStatusAvailable {
			inUse = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if inUse {
		return 0, domain.ErrCodesInUse
	}

	ct, err := execSQL(ctx, r.pool, tx, `DELETE FROM activation_codes WHERE card_id = $1 AND status = 'available';`, cardID)
	if err != nil {
		return 0, fmt.Errorf("delete activation codes: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

// ReleaseOrphans returns consuming codes that no order references to the
// pool. SKIP LOCKED leaves codes claimed by an open transaction alone.
func (r *activationCodeRepo) ReleaseOrphans(ctx context.Context, tx repository.Tx, before time.Time, limit int) (int, error) {
	const q = `
UPDATE activation_codes
   SET status = 'available'
 WHERE id IN (
        SELECT c.id FROM activation_codes c
         WHERE c.status = 'consuming'
           AND c.created_at < $1
           AND NOT EXISTS (SELECT 1 FROM orders o WHERE o.code_id = c.id)
         LIMIT $2
         FOR UPDATE SKIP LOCKED);
`
	ct, err := execSQL(ctx, r.pool, tx, q, before, limit)
	if err != nil {
		return 0, fmt.Errorf("release orphaned codes: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
