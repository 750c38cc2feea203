package repository

import (
	"context"
	"time"

	"code-redemption/internal/domain/model"
)

type OrderRepository interface {
	Save(ctx context.Context, tx Tx, o *model.Order) error
	// FindByID locks the row when called with a transaction.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	List(ctx context.Context, tx Tx, f model.OrderFilter) ([]*model.Order, int, error)
	Stats(ctx context.Context, tx Tx) (*model.OrderStats, error)
	// ListStale returns orders still awaiting fulfilment created before the cutoff.
	ListStale(ctx context.Context, tx Tx, before time.Time, limit int) ([]*model.Order, error)
}
