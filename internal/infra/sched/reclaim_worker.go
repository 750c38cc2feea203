package sched

import (
	"context"
	"errors"
	"time"

	ucport "code-redemption/internal/domain/ports/usecase"
	red "code-redemption/internal/infra/redis"

	"github.com/rs/zerolog"
)

const reclaimLockKey = "lock:reclaim"

// ReclaimWorker periodically runs a reclaim sweep. With a locker, only the
// replica holding the lock sweeps on a given tick.
type ReclaimWorker struct {
	interval time.Duration
	uc       ucport.Reclaimer
	locker   red.Locker
	log      *zerolog.Logger
}

func NewReclaimWorker(interval time.Duration, uc ucport.Reclaimer, locker red.Locker, logger *zerolog.Logger) *ReclaimWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "ReclaimWorker").Logger()
	return &ReclaimWorker{interval: interval, uc: uc, locker: locker, log: &l}
}

func (w *ReclaimWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting reclaim worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping reclaim worker")
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one sweep and reports whether it ran.
func (w *ReclaimWorker) Tick(ctx context.Context) bool {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, reclaimLockKey, w.interval)
		if err != nil {
			if !errors.Is(err, red.ErrLockHeld) {
				w.log.Warn().Err(err).Msg("reclaim lock unavailable")
			}
			return false
		}
		defer func() {
			if err := w.locker.Unlock(context.WithoutCancel(ctx), reclaimLockKey, token); err != nil {
				w.log.Warn().Err(err).Msg("reclaim unlock failed")
			}
		}()
	}

	rep, err := w.uc.Reclaim(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("reclaim worker error")
		return true
	}
	if rep.StaleOrders > 0 || rep.ReleasedCodes > 0 {
		w.log.Debug().Int("stale_orders", rep.StaleOrders).Int("released_codes", rep.ReleasedCodes).Msg("reclaim tick")
	}
	return true
}
