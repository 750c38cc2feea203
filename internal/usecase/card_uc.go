package usecase

import (
	"context"
	"errors"

	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/policy"
	"code-redemption/internal/domain/ports/repository"
	"code-redemption/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Compile-time check
var _ CardUseCase = (*cardUC)(nil)

// CardUseCase manages the product catalog.
type CardUseCase interface {
	Create(ctx context.Context, actor model.Actor, name, description string, price decimal.Decimal, active bool, channelID *string) (*model.Card, error)
	Update(ctx context.Context, actor model.Actor, id string, patch model.CardPatch) (*model.Card, error)
	Get(ctx context.Context, actor model.Actor, id string) (*model.Card, error)
	// List returns cards newest first. Only admin and staff may see inactive cards.
	List(ctx context.Context, actor model.Actor, includeInactive bool, channelID *string) ([]*model.Card, error)
	// Delete removes a card. With cascade it first deletes the card's codes,
	// which fails when any of them has been claimed.
	Delete(ctx context.Context, actor model.Actor, id string, cascade bool) error
}

type cardUC struct {
	cards    repository.CardRepository
	codes    repository.ActivationCodeRepository
	channels repository.ChannelRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewCardUseCase(cards repository.CardRepository, codes repository.ActivationCodeRepository, channels repository.ChannelRepository, tm repository.TransactionManager, logger *zerolog.Logger) *cardUC {
	return &cardUC{cards: cards, codes: codes, channels: channels, tm: tm, log: logger}
}

func (u *cardUC) Create(ctx context.Context, actor model.Actor, name, description string, price decimal.Decimal, active bool, channelID *string) (*model.Card, error) {
	defer logging.TraceDuration(u.log, "CardUC.Create")()
	if _, err := authorize(ctx, u.log, actor, policy.CardCreate); err != nil {
		return nil, err
	}

	card, err := model.NewCard(name, description, price, active, channelID)
	if err != nil {
		return nil, err
	}
	if err := requireChannel(ctx, u.channels, card.ChannelID); err != nil {
		return nil, err
	}
	if err := u.cards.Save(ctx, repository.NoTX, card); err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("card_id", card.ID).Str("name", card.Name).Msg("card created")
	return card, nil
}

func (u *cardUC) Update(ctx context.Context, actor model.Actor, id string, patch model.CardPatch) (*model.Card, error) {
	defer logging.TraceDuration(u.log, "CardUC.Update")()
	if _, err := authorize(ctx, u.log, actor, policy.CardUpdate); err != nil {
		return nil, err
	}
	if err := requireChannel(ctx, u.channels, trimmed(patch.ChannelID)); err != nil {
		return nil, err
	}

	var out *model.Card
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		card, err := u.cards.FindByID(ctx, tx, id)
		if err != nil {
			return cardErr(err)
		}
		updated, err := patch.Apply(card)
		if err != nil {
			return err
		}
		if err := u.cards.Save(ctx, tx, updated); err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *cardUC) Get(ctx context.Context, actor model.Actor, id string) (*model.Card, error) {
	if _, err := authorize(ctx, u.log, actor, policy.CardGet); err != nil {
		return nil, err
	}
	card, err := u.cards.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, cardErr(err)
	}
	if !card.Active && !canSeeInactive(actor) {
		return nil, domain.ErrCardNotFound
	}
	return card, nil
}

func (u *cardUC) List(ctx context.Context, actor model.Actor, includeInactive bool, channelID *string) ([]*model.Card, error) {
	defer logging.TraceDuration(u.log, "CardUC.List")()
	if _, err := authorize(ctx, u.log, actor, policy.CardList); err != nil {
		return nil, err
	}
	if !canSeeInactive(actor) {
		includeInactive = false
	}
	return u.cards.List(ctx, repository.NoTX, includeInactive, channelID)
}

func (u *cardUC) Delete(ctx context.Context, actor model.Actor, id string, cascade bool) error {
	defer logging.TraceDuration(u.log, "CardUC.Delete")()
	if _, err := authorize(ctx, u.log, actor, policy.CardDelete); err != nil {
		return err
	}

	removed := 0
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := u.cards.FindByID(ctx, tx, id); err != nil {
			return cardErr(err)
		}
		n, err := u.codes.CountByCard(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			if !cascade {
				return domain.ErrCardHasCodes
			}
			if removed, err = u.codes.DeleteAllForCard(ctx, tx, id); err != nil {
				return err
			}
		}
		return u.cards.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	logging.With(ctx, u.log).Info().Str("card_id", id).Int("codes_removed", removed).Msg("card deleted")
	return nil
}

func canSeeInactive(actor model.Actor) bool {
	return !actor.IsAnonymous() && (actor.Role == model.RoleAdmin || actor.Role == model.RoleStaff)
}

// cardErr narrows a generic not-found from storage to the card-specific error.
func cardErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrCardNotFound) {
		return domain.ErrCardNotFound
	}
	return err
}
