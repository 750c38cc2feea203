package adapter

import (
	"context"

	"code-redemption/internal/domain/model"
)

// Notifier delivers messages outside the system. Implementations must not
// block on slow transports; callers already run them off the request path.
type Notifier interface {
	// OrderCreated alerts staff of the order's channel that work is waiting.
	OrderCreated(ctx context.Context, o *model.Order) error
	// DeliverCode sends a purchased code to the buyer.
	DeliverCode(ctx context.Context, email string, o *model.Order) error
	// StaleOrders reports orders nobody has completed for too long.
	StaleOrders(ctx context.Context, orders []*model.Order) error
}
