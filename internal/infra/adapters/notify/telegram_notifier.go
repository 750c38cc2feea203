package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"code-redemption/internal/config"
	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/ports/adapter"
	"code-redemption/internal/infra/i18n"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// AllChannels is the staff_chats key that receives alerts for every channel.
const AllChannels = "*"

var _ adapter.Notifier = (*TelegramNotifier)(nil)

// sender is the part of *tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts staff alerts to Telegram chats. Buyer delivery goes
// through the fallback notifier since buyers are addressed by email.
type TelegramNotifier struct {
	bot      sender
	chats    map[string]int64
	tr       *i18n.Translator
	fallback adapter.Notifier
	log      *zerolog.Logger
}

func NewTelegramNotifier(cfg *config.TelegramConfig, tr *i18n.Translator, fallback adapter.Notifier, logger *zerolog.Logger) (*TelegramNotifier, error) {
	if cfg == nil || cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if tr == nil {
		return nil, errors.New("translator is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return newTelegramNotifier(bot, cfg.StaffChats, tr, fallback, logger), nil
}

func newTelegramNotifier(bot sender, chats map[string]int64, tr *i18n.Translator, fallback adapter.Notifier, logger *zerolog.Logger) *TelegramNotifier {
	l := logger.With().Str("component", "telegram_notifier").Logger()
	return &TelegramNotifier{bot: bot, chats: chats, tr: tr, fallback: fallback, log: &l}
}

func (n *TelegramNotifier) OrderCreated(ctx context.Context, o *model.Order) error {
	targets := n.chatsFor(o.ChannelID)
	if len(targets) == 0 {
		n.log.Debug().Str("order_id", o.ID).Msg("no staff chat for channel")
		return nil
	}
	text := n.tr.T("order_created", o.ID, o.CardName, channelLabel(o.ChannelID, n.tr.T("no_channel")), o.Remarks)
	var errs []error
	for _, chatID := range targets {
		if err := n.send(ctx, chatID, text); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func (n *TelegramNotifier) DeliverCode(ctx context.Context, email string, o *model.Order) error {
	if n.fallback == nil {
		return nil
	}
	return n.fallback.DeliverCode(ctx, email, o)
}

// StaleOrders sends one summary to the all-channels chat.
func (n *TelegramNotifier) StaleOrders(ctx context.Context, orders []*model.Order) error {
	chatID, ok := n.chats[AllChannels]
	if !ok || len(orders) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(n.tr.T("stale_orders", len(orders)))
	for _, o := range orders {
		b.WriteByte('\n')
		b.WriteString(n.tr.T("stale_order_line", o.ID, o.CardName, channelLabel(o.ChannelID, n.tr.T("no_channel")), o.CreatedAt.Format(time.RFC3339)))
	}
	return n.send(ctx, chatID, b.String())
}

// chatsFor returns the channel's chat followed by the all-channels chat, without duplicates.
func (n *TelegramNotifier) chatsFor(channelID *string) []int64 {
	var out []int64
	if channelID != nil {
		if id, ok := n.chats[*channelID]; ok {
			out = append(out, id)
		}
	}
	if id, ok := n.chats[AllChannels]; ok && (len(out) == 0 || out[0] != id) {
		out = append(out, id)
	}
	return out
}

func (n *TelegramNotifier) send(ctx context.Context, chatID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	_, err := n.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
