package repository

import (
	"context"

	"code-redemption/internal/domain/model"
)

// ChannelRepository is the port for the sales channel registry.
type ChannelRepository interface {
	// Insert adds a new channel. A taken id yields domain.ErrChannelIDTaken
	// and a taken name domain.ErrChannelNameTaken.
	Insert(ctx context.Context, tx Tx, ch *model.Channel) error
	// Update rewrites name and description of an existing channel.
	Update(ctx context.Context, tx Tx, ch *model.Channel) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Channel, error)
	// List returns channels ordered by name and the total count.
	List(ctx context.Context, tx Tx, page model.Page) ([]*model.Channel, int, error)
	// Delete removes a channel; one still referenced by cards yields
	// domain.ErrChannelInUse.
	Delete(ctx context.Context, tx Tx, id string) error
}
