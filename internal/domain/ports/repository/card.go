package repository

import (
	"context"

	"code-redemption/internal/domain/model"
)

// CardRepository is the port for the card catalog.
type CardRepository interface {
	// Save inserts or updates a card. A duplicate name yields domain.ErrCardNameTaken.
	Save(ctx context.Context, tx Tx, card *model.Card) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Card, error)
	// List returns cards newest first; channelID nil means every channel.
	List(ctx context.Context, tx Tx, includeInactive bool, channelID *string) ([]*model.Card, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
