package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/policy"
	"code-redemption/internal/domain/ports/adapter"
	"code-redemption/internal/domain/ports/repository"
	"code-redemption/internal/infra/logging"
	"code-redemption/internal/infra/metrics"
	"code-redemption/internal/infra/worker"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

// OrderUseCase turns codes into tracked orders and drives them to completion.
type OrderUseCase interface {
	// Purchase sells the next direct-stock code of an active card to email.
	Purchase(ctx context.Context, actor model.Actor, cardID, email, remarks string) (*model.Order, error)
	// Redeem claims a code the caller already holds.
	Redeem(ctx context.Context, actor model.Actor, code, remarks string, channelID *string) (*model.Order, error)
	Start(ctx context.Context, actor model.Actor, id string) (*model.Order, error)
	// Complete consumes the order's code and closes the order. Completing a
	// completed order returns it unchanged.
	Complete(ctx context.Context, actor model.Actor, id, remarks string) (*model.Order, error)
	Get(ctx context.Context, actor model.Actor, id string) (*model.Order, error)
	List(ctx context.Context, actor model.Actor, f model.OrderFilter) ([]*model.Order, int, error)
	ListMine(ctx context.Context, actor model.Actor, page model.Page) ([]*model.Order, int, error)
	// ListQueue returns orders awaiting fulfilment, oldest first.
	ListQueue(ctx context.Context, actor model.Actor, page model.Page) ([]*model.Order, int, error)
	Stats(ctx context.Context, actor model.Actor) (*model.OrderStats, error)
}

type orderUC struct {
	cards    repository.CardRepository
	codes    repository.ActivationCodeRepository
	channels repository.ChannelRepository
	orders   repository.OrderRepository
	sales    repository.SaleRepository
	tm       repository.TransactionManager
	notifier adapter.Notifier
	pool     *worker.Pool
	log      *zerolog.Logger
	dev      bool
}

// NewOrderUseCase wires the engine. With a nil pool notifications run inline.
func NewOrderUseCase(
	cards repository.CardRepository,
	codes repository.ActivationCodeRepository,
	channels repository.ChannelRepository,
	orders repository.OrderRepository,
	sales repository.SaleRepository,
	tm repository.TransactionManager,
	notifier adapter.Notifier,
	pool *worker.Pool,
	logger *zerolog.Logger,
	dev bool,
) *orderUC {
	return &orderUC{
		cards:    cards,
		codes:    codes,
		channels: channels,
		orders:   orders,
		sales:    sales,
		tm:       tm,
		notifier: notifier,
		pool:     pool,
		log:      logger,
		dev:      dev,
	}
}

var txReadCommitted = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

func (u *orderUC) Purchase(ctx context.Context, actor model.Actor, cardID, email, remarks string) (*model.Order, error) {
	defer logging.TraceDuration(u.log, "OrderUC.Purchase")()
	if _, err := authorize(ctx, u.log, actor, policy.OrderPurchase); err != nil {
		return nil, err
	}
	addr, err := model.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	var order *model.Order
	err = u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		card, err := u.cards.FindByID(ctx, tx, cardID)
		if err != nil {
			return cardErr(err)
		}
		if !card.Active {
			return domain.ErrCardInactive
		}
		code, err := u.codes.Allocate(ctx, tx, card.ID, nil)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		sale, err := model.NewSaleRecord(code.Code, addr, card.Price, card.Name, now)
		if err != nil {
			return err
		}
		if err := u.sales.Append(ctx, tx, sale); err != nil {
			return err
		}
		o, err := model.NewOrder(code, card, actor.IDRef(), nil, strings.TrimSpace(remarks), now)
		if err != nil {
			return err
		}
		if err := u.orders.Save(ctx, tx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		metrics.IncCodeAllocation("purchase", allocationResult(err))
		return nil, err
	}
	metrics.IncCodeAllocation("purchase", "ok")
	metrics.IncOrder("created")
	metrics.ObserveSale(order.CardName, order.CardPrice)

	logging.With(ctx, u.log).Info().
		Str("order_id", order.ID).
		Str("card", order.CardName).
		Str("email", logging.Redact(addr, u.dev)).
		Msg("direct purchase recorded")

	u.dispatch(ctx, "deliver_code", func(ctx context.Context) error {
		return u.notifier.DeliverCode(ctx, addr, order)
	})
	u.dispatch(ctx, "order_created", func(ctx context.Context) error {
		return u.notifier.OrderCreated(ctx, order)
	})
	return order, nil
}

func (u *orderUC) Redeem(ctx context.Context, actor model.Actor, code, remarks string, channelID *string) (*model.Order, error) {
	defer logging.TraceDuration(u.log, "OrderUC.Redeem")()
	if _, err := authorize(ctx, u.log, actor, policy.OrderRedeem); err != nil {
		return nil, err
	}
	code = normalizeCode(code)
	if code == "" {
		return nil, domain.ErrCodeNotFound
	}
	channelID = trimmed(channelID)
	if err := requireChannel(ctx, u.channels, channelID); err != nil {
		return nil, err
	}

	var order *model.Order
	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		claimed, err := u.codes.ClaimByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		// unlocked read: card rows are locked before code rows everywhere else
		card, err := u.cards.FindByID(ctx, repository.NoTX, claimed.CardID)
		if err != nil {
			return cardErr(err)
		}
		if channelID != nil && (card.ChannelID == nil || *channelID != *card.ChannelID) {
			return domain.ErrChannelMismatch
		}
		o, err := model.NewOrder(claimed, card, actor.IDRef(), channelID, strings.TrimSpace(remarks), time.Now().UTC())
		if err != nil {
			return err
		}
		if err := u.orders.Save(ctx, tx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		metrics.IncCodeAllocation("redeem", allocationResult(err))
		return nil, err
	}
	metrics.IncCodeAllocation("redeem", "ok")
	metrics.IncOrder("created")

	logging.With(ctx, u.log).Info().
		Str("order_id", order.ID).
		Str("code", logging.Redact(order.Code, u.dev)).
		Msg("code redeemed")

	u.dispatch(ctx, "order_created", func(ctx context.Context) error {
		return u.notifier.OrderCreated(ctx, order)
	})
	return order, nil
}

func (u *orderUC) Start(ctx context.Context, actor model.Actor, id string) (*model.Order, error) {
	defer logging.TraceDuration(u.log, "OrderUC.Start")()
	if _, err := authorize(ctx, u.log, actor, policy.OrderStart); err != nil {
		return nil, err
	}

	var out *model.Order
	started := false
	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		o, err := u.lockOrder(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		wasPending := o.Status == model.OrderStatusPending
		if err := o.Start(); err != nil {
			return err
		}
		if wasPending {
			if err := u.orders.Save(ctx, tx, o); err != nil {
				return err
			}
			started = true
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if started {
		metrics.IncOrder("started")
	}
	return out, nil
}

func (u *orderUC) Complete(ctx context.Context, actor model.Actor, id, remarks string) (*model.Order, error) {
	defer logging.TraceDuration(u.log, "OrderUC.Complete")()
	if _, err := authorize(ctx, u.log, actor, policy.OrderComplete); err != nil {
		return nil, err
	}

	var out *model.Order
	completed := false
	err := u.tm.WithTx(ctx, txReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		o, err := u.lockOrder(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		out = o
		if o.Status == model.OrderStatusCompleted {
			return nil
		}

		now := time.Now().UTC()
		// code first, then the order
		if _, err := u.codes.MarkConsumed(ctx, tx, o.CodeID, now); err != nil {
			return err
		}
		o.Complete(now, strings.TrimSpace(remarks))
		if err := u.orders.Save(ctx, tx, o); err != nil {
			return err
		}
		completed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if completed {
		metrics.IncOrder("completed")
		logging.With(ctx, u.log).Info().Str("order_id", out.ID).Msg("order completed")
	}
	return out, nil
}

func (u *orderUC) Get(ctx context.Context, actor model.Actor, id string) (*model.Order, error) {
	if _, err := authorize(ctx, u.log, actor, policy.OrderGet); err != nil {
		return nil, err
	}
	o, err := u.orders.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, orderErr(err)
	}
	if !staffChannelAllows(actor, o.ChannelID) {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

func (u *orderUC) List(ctx context.Context, actor model.Actor, f model.OrderFilter) ([]*model.Order, int, error) {
	defer logging.TraceDuration(u.log, "OrderUC.List")()
	if _, err := authorize(ctx, u.log, actor, policy.OrderList); err != nil {
		return nil, 0, err
	}
	for _, s := range f.Statuses {
		if !s.Valid() {
			return nil, 0, domain.ErrInvalidArgument
		}
	}
	f.Page = f.Page.Normalize()
	return u.orders.List(ctx, repository.NoTX, f)
}

func (u *orderUC) ListMine(ctx context.Context, actor model.Actor, page model.Page) ([]*model.Order, int, error) {
	if actor.IsAnonymous() {
		return nil, 0, domain.ErrIdentityRequired
	}
	if _, err := authorize(ctx, u.log, actor, policy.OrderMine); err != nil {
		return nil, 0, err
	}
	return u.orders.List(ctx, repository.NoTX, model.OrderFilter{BuyerID: actor.IDRef(), Page: page.Normalize()})
}

func (u *orderUC) ListQueue(ctx context.Context, actor model.Actor, page model.Page) ([]*model.Order, int, error) {
	defer logging.TraceDuration(u.log, "OrderUC.ListQueue")()
	if _, err := authorize(ctx, u.log, actor, policy.OrderQueue); err != nil {
		return nil, 0, err
	}
	f := model.OrderFilter{
		Statuses:    []model.OrderStatus{model.OrderStatusPending, model.OrderStatusProcessing},
		OldestFirst: true,
		Page:        page.Normalize(),
	}
	if actor.Role == model.RoleStaff && actor.ChannelID != nil {
		f.ChannelID = actor.ChannelID
	}
	return u.orders.List(ctx, repository.NoTX, f)
}

func (u *orderUC) Stats(ctx context.Context, actor model.Actor) (*model.OrderStats, error) {
	if _, err := authorize(ctx, u.log, actor, policy.OrderStats); err != nil {
		return nil, err
	}
	return u.orders.Stats(ctx, repository.NoTX)
}

// lockOrder loads the order for update and enforces staff channel scoping.
func (u *orderUC) lockOrder(ctx context.Context, tx repository.Tx, actor model.Actor, id string) (*model.Order, error) {
	o, err := u.orders.FindByID(ctx, tx, id)
	if err != nil {
		return nil, orderErr(err)
	}
	if !staffChannelAllows(actor, o.ChannelID) {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

// dispatch runs fn on the worker pool, or inline when there is none.
func (u *orderUC) dispatch(ctx context.Context, kind string, fn worker.Task) {
	if u.notifier == nil {
		return
	}
	traceID := logging.TraceID(ctx)
	task := func(ctx context.Context) error {
		if traceID != "" {
			ctx = logging.WithTraceID(ctx, traceID)
		}
		if err := fn(ctx); err != nil {
			metrics.IncNotifyJob(kind, "failed")
			logging.With(ctx, u.log).Warn().Err(err).Str("kind", kind).Msg("notification failed")
			return nil
		}
		metrics.IncNotifyJob(kind, "sent")
		return nil
	}
	if u.pool == nil {
		_ = task(context.WithoutCancel(ctx))
		return
	}
	if err := u.pool.Submit(task); err != nil {
		metrics.IncNotifyJob(kind, "dropped")
		logging.With(ctx, u.log).Warn().Err(err).Str("kind", kind).Msg("notification not queued")
	}
}

func allocationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case domain.IsDomainError(err):
		return "rejected"
	default:
		return "error"
	}
}

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }

func orderErr(err error) error {
	if isNotFound(err) && !errors.Is(err, domain.ErrOrderNotFound) {
		return domain.ErrOrderNotFound
	}
	return err
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
