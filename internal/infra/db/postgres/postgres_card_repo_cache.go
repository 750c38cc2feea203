package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/ports/repository"
	"code-redemption/internal/infra/metrics"
	red "code-redemption/internal/infra/redis"
)

var _ repository.CardRepository = (*cardRepoCacheDecorator)(nil)

const cardListKey = "cards:active"

// cardRepoCacheDecorator caches card lookups and the public catalog.
// Reads inside a transaction always go to the database so row locks hold.
// Writes drop the cached entries once the surrounding transaction commits,
// so a concurrent reader cannot refill the cache with the pre-commit row.
type cardRepoCacheDecorator struct {
	inner repository.CardRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewCardRepoCacheDecorator(inner repository.CardRepository, cache red.RedisClient, ttl time.Duration, log *zerolog.Logger) repository.CardRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &cardRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: log}
}

func cardKey(id string) string { return fmt.Sprintf("card:%s", id) }

func (d *cardRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Card, error) {
	if inTx(tx) {
		return d.inner.FindByID(ctx, tx, id)
	}
	key := cardKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var card model.Card
		if json.Unmarshal([]byte(val), &card) == nil {
			metrics.IncCacheRequest("card", "hit")
			return &card, nil
		}
	} else if !red.IsMiss(err) {
		d.log.Warn().Err(err).Str("key", key).Msg("card cache read failed")
	}

	metrics.IncCacheRequest("card", "miss")
	card, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(card); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return card, nil
}

// List caches only the unfiltered public catalog.
func (d *cardRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, includeInactive bool, channelID *string) ([]*model.Card, error) {
	if includeInactive || channelID != nil || inTx(tx) {
		return d.inner.List(ctx, tx, includeInactive, channelID)
	}
	val, err := d.cache.Get(ctx, cardListKey)
	if err == nil {
		var cards []*model.Card
		if json.Unmarshal([]byte(val), &cards) == nil {
			metrics.IncCacheRequest("card_list", "hit")
			return cards, nil
		}
	} else if !red.IsMiss(err) {
		d.log.Warn().Err(err).Msg("card list cache read failed")
	}

	metrics.IncCacheRequest("card_list", "miss")
	cards, err := d.inner.List(ctx, tx, includeInactive, channelID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(cards); err == nil {
		_ = d.cache.Set(ctx, cardListKey, b, d.ttl)
	}
	return cards, nil
}

func (d *cardRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, card *model.Card) error {
	if err := d.inner.Save(ctx, tx, card); err != nil {
		return err
	}
	id := card.ID
	repository.AfterCommit(ctx, func(ctx context.Context) { d.invalidate(ctx, id) })
	return nil
}

func (d *cardRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	if err := d.inner.Delete(ctx, tx, id); err != nil {
		return err
	}
	repository.AfterCommit(ctx, func(ctx context.Context) { d.invalidate(ctx, id) })
	return nil
}

func (d *cardRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	if err := d.cache.Del(ctx, cardKey(id), cardListKey); err != nil {
		d.log.Warn().Err(err).Str("card_id", id).Msg("card cache invalidation failed")
	}
}
