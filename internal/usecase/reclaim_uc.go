package usecase

import (
	"context"
	"time"

	"code-redemption/internal/domain/ports/adapter"
	"code-redemption/internal/domain/ports/repository"
	ucport "code-redemption/internal/domain/ports/usecase"
	"code-redemption/internal/infra/logging"
	"code-redemption/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ ucport.Reclaimer = (*reclaimUC)(nil)

// reclaimUC reports orders nobody has fulfilled and frees codes stuck in
// consuming without an order. The release half is a safety net: the order
// engine never commits a claim without its order. It never cancels or
// expires an order.
type reclaimUC struct {
	orders     repository.OrderRepository
	codes      repository.ActivationCodeRepository
	notifier   adapter.Notifier
	staleAfter time.Duration
	batch      int
	log        *zerolog.Logger
}

func NewReclaimUseCase(
	orders repository.OrderRepository,
	codes repository.ActivationCodeRepository,
	notifier adapter.Notifier,
	staleAfter time.Duration,
	batch int,
	logger *zerolog.Logger,
) *reclaimUC {
	if batch <= 0 {
		batch = 100
	}
	return &reclaimUC{orders: orders, codes: codes, notifier: notifier, staleAfter: staleAfter, batch: batch, log: logger}
}

func (u *reclaimUC) Reclaim(ctx context.Context) (*ucport.ReclaimReport, error) {
	defer logging.TraceDuration(u.log, "ReclaimUC.Reclaim")()
	cutoff := time.Now().UTC().Add(-u.staleAfter)

	stale, err := u.orders.ListStale(ctx, repository.NoTX, cutoff, u.batch)
	if err != nil {
		return nil, err
	}
	metrics.SetStaleOrders(len(stale))
	if len(stale) > 0 && u.notifier != nil {
		if err := u.notifier.StaleOrders(ctx, stale); err != nil {
			u.log.Warn().Err(err).Int("count", len(stale)).Msg("stale order report not delivered")
		}
	}

	released, err := u.codes.ReleaseOrphans(ctx, repository.NoTX, cutoff, u.batch)
	if err != nil {
		return nil, err
	}
	metrics.AddCodesReleased(released)

	if len(stale) > 0 || released > 0 {
		u.log.Info().Int("stale_orders", len(stale)).Int("released_codes", released).Msg("reclaim sweep")
	}
	return &ucport.ReclaimReport{StaleOrders: len(stale), ReleasedCodes: released}, nil
}
