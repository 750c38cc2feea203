package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/policy"
	"code-redemption/internal/domain/ports/repository"
	"code-redemption/internal/infra/logging"
	"code-redemption/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

const (
	MaxBatchSize = 1000
	// maxCollisionRetries bounds regeneration of a single code that hit the unique index.
	maxCollisionRetries = 8
)

// Compile-time check
var _ CodeUseCase = (*codeUC)(nil)

// CodeUseCase manages the activation code pool.
type CodeUseCase interface {
	Generate(ctx context.Context, actor model.Actor, cardID string, count int, proxyID *string) ([]*model.ActivationCode, error)
	// List returns codes of one card newest first with the unpaged total.
	// Proxy callers only ever see their own codes.
	List(ctx context.Context, actor model.Actor, f model.CodeFilter) ([]*model.ActivationCode, int, error)
	// Check reports whether code can still be redeemed and nothing else.
	Check(ctx context.Context, actor model.Actor, code string) (bool, error)
	// MarkExported flags every id or none of them.
	MarkExported(ctx context.Context, actor model.Actor, ids []string) (int, error)
	DeleteAllForCard(ctx context.Context, actor model.Actor, cardID string) (int, error)
	// Stock counts available direct-sale codes of a card.
	Stock(ctx context.Context, actor model.Actor, cardID string) (int, error)
}

type codeUC struct {
	cards repository.CardRepository
	codes repository.ActivationCodeRepository
	tm    repository.TransactionManager
	gen   CodeGenerator
	log   *zerolog.Logger
}

// NewCodeUseCase wires the pool; gen may be nil for the default random generator.
func NewCodeUseCase(cards repository.CardRepository, codes repository.ActivationCodeRepository, tm repository.TransactionManager, gen CodeGenerator, logger *zerolog.Logger) *codeUC {
	if gen == nil {
		gen = generateActivationCode
	}
	return &codeUC{cards: cards, codes: codes, tm: tm, gen: gen, log: logger}
}

func (u *codeUC) Generate(ctx context.Context, actor model.Actor, cardID string, count int, proxyID *string) ([]*model.ActivationCode, error) {
	defer logging.TraceDuration(u.log, "CodeUC.Generate")()
	if _, err := authorize(ctx, u.log, actor, policy.CodeGenerate); err != nil {
		return nil, err
	}
	if count < 1 || count > MaxBatchSize {
		return nil, domain.ErrBatchSizeInvalid
	}

	var out []*model.ActivationCode
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		out = out[:0]
		card, err := u.cards.FindByID(ctx, tx, cardID)
		if err != nil {
			return cardErr(err)
		}
		if !card.Active {
			return domain.ErrCardInactive
		}

		now := time.Now().UTC()
		for i := 0; i < count; i++ {
			code, err := u.insertUnique(ctx, tx, card.ID, proxyID, now)
			if err != nil {
				return err
			}
			out = append(out, code)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AddCodesGenerated(len(out))
	logging.With(ctx, u.log).Info().Str("card_id", cardID).Int("count", len(out)).Bool("proxy", proxyID != nil).Msg("codes generated")
	return out, nil
}

func (u *codeUC) insertUnique(ctx context.Context, tx repository.Tx, cardID string, proxyID *string, now time.Time) (*model.ActivationCode, error) {
	for attempt := 0; attempt < maxCollisionRetries; attempt++ {
		s, err := u.gen()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		code := model.NewActivationCode(cardID, s, proxyID, now)
		ok, err := u.codes.InsertIfAbsent(ctx, tx, code)
		if err != nil {
			return nil, err
		}
		if ok {
			return code, nil
		}
		u.log.Debug().Int("attempt", attempt+1).Msg("activation code collision, regenerating")
	}
	return nil, domain.ErrOperationFailed
}

func (u *codeUC) List(ctx context.Context, actor model.Actor, f model.CodeFilter) ([]*model.ActivationCode, int, error) {
	defer logging.TraceDuration(u.log, "CodeUC.List")()
	scope, err := authorize(ctx, u.log, actor, policy.CodeList)
	if err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(f.CardID) == "" {
		return nil, 0, fmt.Errorf("%w: card_id is required", domain.ErrInvalidArgument)
	}
	if f.Status != nil && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, *f.Status)
	}
	if scope == policy.ScopeOwn {
		f.ProxyID = actor.IDRef()
	}
	f.Page = f.Page.Normalize()
	return u.codes.List(ctx, repository.NoTX, f)
}

func (u *codeUC) Check(ctx context.Context, actor model.Actor, code string) (bool, error) {
	if _, err := authorize(ctx, u.log, actor, policy.CodeCheck); err != nil {
		return false, err
	}
	code = normalizeCode(code)
	if code == "" {
		return false, fmt.Errorf("%w: code is required", domain.ErrInvalidArgument)
	}
	c, err := u.codes.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		if isNotFound(err) {
			metrics.IncCodeCheck("unavailable")
			return false, nil
		}
		return false, err
	}
	ok := c.Status == model.CodeStatusAvailable
	if ok {
		metrics.IncCodeCheck("available")
	} else {
		metrics.IncCodeCheck("unavailable")
	}
	return ok, nil
}

func (u *codeUC) MarkExported(ctx context.Context, actor model.Actor, ids []string) (int, error) {
	defer logging.TraceDuration(u.log, "CodeUC.MarkExported")()
	scope, err := authorize(ctx, u.log, actor, policy.CodeExport)
	if err != nil {
		return 0, err
	}
	uniq := dedupe(ids)
	if len(uniq) == 0 {
		return 0, fmt.Errorf("%w: ids are required", domain.ErrInvalidArgument)
	}
	var owner *string
	if scope == policy.ScopeOwn {
		owner = actor.IDRef()
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		n, err := u.codes.MarkExported(ctx, tx, uniq, owner)
		if err != nil {
			return err
		}
		if n != len(uniq) {
			// rolls back the rows that did match
			return domain.ErrCodeNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.AddCodesExported(len(uniq))
	return len(uniq), nil
}

func (u *codeUC) DeleteAllForCard(ctx context.Context, actor model.Actor, cardID string) (int, error) {
	defer logging.TraceDuration(u.log, "CodeUC.DeleteAllForCard")()
	if _, err := authorize(ctx, u.log, actor, policy.CodeDeleteAll); err != nil {
		return 0, err
	}
	var n int
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := u.cards.FindByID(ctx, tx, cardID); err != nil {
			return cardErr(err)
		}
		var err error
		n, err = u.codes.DeleteAllForCard(ctx, tx, cardID)
		return err
	})
	if err != nil {
		return 0, err
	}
	logging.With(ctx, u.log).Info().Str("card_id", cardID).Int("count", n).Msg("codes deleted")
	return n, nil
}

func (u *codeUC) Stock(ctx context.Context, actor model.Actor, cardID string) (int, error) {
	if _, err := authorize(ctx, u.log, actor, policy.CodeStock); err != nil {
		return 0, err
	}
	if _, err := u.cards.FindByID(ctx, repository.NoTX, cardID); err != nil {
		return 0, cardErr(err)
	}
	return u.codes.CountAvailable(ctx, repository.NoTX, cardID, nil)
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
