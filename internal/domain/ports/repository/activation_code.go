package repository

import (
	"context"
	"time"

	"code-redemption/internal/domain/model"
)

// ActivationCodeRepository is the port for the code pool. Every status
// change is a conditional update so two callers can never move the same
// code out of a given state.
type ActivationCodeRepository interface {
	// InsertIfAbsent stores a new code and reports false when the code string
	// already exists.
	InsertIfAbsent(ctx context.Context, tx Tx, code *model.ActivationCode) (bool, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.ActivationCode, error)
	FindByCode(ctx context.Context, tx Tx, code string) (*model.ActivationCode, error)

	// Allocate claims the oldest available code of the card owned by proxyID
	// (nil for direct stock). Returns domain.ErrNoCodesAvailable when empty.
	Allocate(ctx context.Context, tx Tx, cardID string, proxyID *string) (*model.ActivationCode, error)
	// ClaimByCode moves an available code to consuming.
	// Unknown codes yield domain.ErrCodeNotFound, taken ones domain.ErrCodeAlreadyUsed.
	ClaimByCode(ctx context.Context, tx Tx, code string) (*model.ActivationCode, error)
	// MarkConsumed moves a consuming code to consumed, stamping used_at.
	// A code that is already consumed is returned unchanged.
	MarkConsumed(ctx context.Context, tx Tx, id string, at time.Time) (*model.ActivationCode, error)

	List(ctx context.Context, tx Tx, f model.CodeFilter) ([]*model.ActivationCode, int, error)
	CountByCard(ctx context.Context, tx Tx, cardID string) (int, error)
	CountAvailable(ctx context.Context, tx Tx, cardID string, proxyID *string) (int, error)

	// MarkExported flags the given codes, restricted to proxyID when set,
	// and returns how many rows matched.
	MarkExported(ctx context.Context, tx Tx, ids []string, proxyID *string) (int, error)
	// DeleteAllForCard removes every code of the card, or fails with
	// domain.ErrCodesInUse when any of them is not available.
	DeleteAllForCard(ctx context.Context, tx Tx, cardID string) (int, error)

	// ReleaseOrphans returns consuming codes that no order references back to
	// available once they are older than before. The order engine claims a
	// code and inserts its order in one transaction, so this only repairs
	// rows written outside that path, such as imports or manual fixes.
	// Codes locked by an in-flight claim are skipped.
	ReleaseOrphans(ctx context.Context, tx Tx, before time.Time, limit int) (int, error)
}
