package usecase

import (
	"context"
	"errors"

	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/policy"
	"code-redemption/internal/domain/ports/repository"
	"code-redemption/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ChannelUseCase = (*channelUC)(nil)

// ChannelUseCase manages the registry of sales channels.
type ChannelUseCase interface {
	// Create registers a channel. An empty id is generated.
	Create(ctx context.Context, actor model.Actor, id, name, description string) (*model.Channel, error)
	Get(ctx context.Context, actor model.Actor, id string) (*model.Channel, error)
	List(ctx context.Context, actor model.Actor, page model.Page) ([]*model.Channel, int, error)
	Update(ctx context.Context, actor model.Actor, id string, patch model.ChannelPatch) (*model.Channel, error)
	// Delete removes a channel no card refers to.
	Delete(ctx context.Context, actor model.Actor, id string) error
}

type channelUC struct {
	channels repository.ChannelRepository
	cards    repository.CardRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewChannelUseCase(channels repository.ChannelRepository, cards repository.CardRepository, tm repository.TransactionManager, logger *zerolog.Logger) *channelUC {
	return &channelUC{channels: channels, cards: cards, tm: tm, log: logger}
}

func (u *channelUC) Create(ctx context.Context, actor model.Actor, id, name, description string) (*model.Channel, error) {
	defer logging.TraceDuration(u.log, "ChannelUC.Create")()
	if _, err := authorize(ctx, u.log, actor, policy.ChannelCreate); err != nil {
		return nil, err
	}
	ch, err := model.NewChannel(id, name, description)
	if err != nil {
		return nil, err
	}
	if err := u.channels.Insert(ctx, repository.NoTX, ch); err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("channel_id", ch.ID).Str("name", ch.Name).Msg("channel created")
	return ch, nil
}

func (u *channelUC) Get(ctx context.Context, actor model.Actor, id string) (*model.Channel, error) {
	if _, err := authorize(ctx, u.log, actor, policy.ChannelGet); err != nil {
		return nil, err
	}
	ch, err := u.channels.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, channelErr(err)
	}
	return ch, nil
}

func (u *channelUC) List(ctx context.Context, actor model.Actor, page model.Page) ([]*model.Channel, int, error) {
	defer logging.TraceDuration(u.log, "ChannelUC.List")()
	if _, err := authorize(ctx, u.log, actor, policy.ChannelList); err != nil {
		return nil, 0, err
	}
	return u.channels.List(ctx, repository.NoTX, page.Normalize())
}

func (u *channelUC) Update(ctx context.Context, actor model.Actor, id string, patch model.ChannelPatch) (*model.Channel, error) {
	defer logging.TraceDuration(u.log, "ChannelUC.Update")()
	if _, err := authorize(ctx, u.log, actor, policy.ChannelUpdate); err != nil {
		return nil, err
	}

	var out *model.Channel
	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		ch, err := u.channels.FindByID(ctx, tx, id)
		if err != nil {
			return channelErr(err)
		}
		updated, err := patch.Apply(ch)
		if err != nil {
			return err
		}
		if err := u.channels.Update(ctx, tx, updated); err != nil {
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

func (u *channelUC) Delete(ctx context.Context, actor model.Actor, id string) error {
	defer logging.TraceDuration(u.log, "ChannelUC.Delete")()
	if _, err := authorize(ctx, u.log, actor, policy.ChannelDelete); err != nil {
		return err
	}

	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		if _, err := u.channels.FindByID(ctx, tx, id); err != nil {
			return channelErr(err)
		}
		cards, err := u.cards.List(ctx, tx, true, &id)
		if err != nil {
			return err
		}
		if len(cards) > 0 {
			return domain.ErrChannelInUse
		}
		return u.channels.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	logging.With(ctx, u.log).Info().Str("channel_id", id).Msg("channel deleted")
	return nil
}

// requireChannel rejects a channel reference that is not registered.
// A nil id means no channel and always passes.
func requireChannel(ctx context.Context, channels repository.ChannelRepository, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := channels.FindByID(ctx, repository.NoTX, *id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUnknownChannel
		}
		return err
	}
	return nil
}

func channelErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrChannelNotFound) {
		return domain.ErrChannelNotFound
	}
	return err
}
