package notify

import (
	"context"
	"strings"

	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/ports/adapter"
	"code-redemption/internal/infra/logging"

	"github.com/rs/zerolog"
)

var _ adapter.Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to the log instead of sending them.
// It is the notifier for local runs and the buyer delivery path until a
// mail transport exists.
type LogNotifier struct {
	log *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	l := logger.With().Str("component", "notifier").Logger()
	return &LogNotifier{log: &l}
}

func (n *LogNotifier) OrderCreated(ctx context.Context, o *model.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logging.With(ctx, n.log).Info().
		Str("order_id", o.ID).
		Str("card", o.CardName).
		Str("channel", channelLabel(o.ChannelID, "")).
		Msg("order created")
	return nil
}

func (n *LogNotifier) DeliverCode(ctx context.Context, email string, o *model.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logging.With(ctx, n.log).Info().
		Str("order_id", o.ID).
		Str("to", email).
		Str("code", MaskCode(o.Code)).
		Msg("code delivered")
	return nil
}

func (n *LogNotifier) StaleOrders(ctx context.Context, orders []*model.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	n.log.Warn().Int("count", len(orders)).Strs("order_ids", ids).Msg("stale orders")
	return nil
}

// MaskCode keeps the last four characters of a code.
func MaskCode(code string) string {
	if len(code) <= 4 {
		return strings.Repeat("*", len(code))
	}
	return strings.Repeat("*", len(code)-4) + code[len(code)-4:]
}

func channelLabel(id *string, direct string) string {
	if id == nil || *id == "" {
		return direct
	}
	return *id
}
