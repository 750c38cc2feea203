//go:build !integration

package web

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"code-redemption/internal/config"
	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/policy"
	"code-redemption/internal/usecase"
)

// --- Mock use cases ---

type mockCardUC struct {
	usecase.CardUseCase // Embed interface for forward compatibility
	ListFunc            func(ctx context.Context, actor model.Actor, includeInactive bool, channelID *string) ([]*model.Card, error)
	CreateFunc          func(ctx context.Context, actor model.Actor, name, desc string, price decimal.Decimal, active bool, channelID *string) (*model.Card, error)
}

func (m *mockCardUC) List(ctx context.Context, actor model.Actor, includeInactive bool, channelID *string) ([]*model.Card, error) {
	return m.ListFunc(ctx, actor, includeInactive, channelID)
}

func (m *mockCardUC) Create(ctx context.Context, actor model.Actor, name, desc string, price decimal.Decimal, active bool, channelID *string) (*model.Card, error) {
	if _, err := policy.Authorize(actor, policy.CardCreate); err != nil {
		return nil, err
	}
	return m.CreateFunc(ctx, actor, name, desc, price, active, channelID)
}

type mockCodeUC struct {
	usecase.CodeUseCase
	CheckFunc func(ctx context.Context, actor model.Actor, code string) (bool, error)
}

func (m *mockCodeUC) Check(ctx context.Context, actor model.Actor, code string) (bool, error) {
	return m.CheckFunc(ctx, actor, code)
}

type mockOrderUC struct {
	usecase.OrderUseCase
	RedeemFunc    func(ctx context.Context, actor model.Actor, code, remarks string, channelID *string) (*model.Order, error)
	ListFunc      func(ctx context.Context, actor model.Actor, f model.OrderFilter) ([]*model.Order, int, error)
	ListMineFunc  func(ctx context.Context, actor model.Actor, p model.Page) ([]*model.Order, int, error)
	ListQueueFunc func(ctx context.Context, actor model.Actor, p model.Page) ([]*model.Order, int, error)
}

func (m *mockOrderUC) Redeem(ctx context.Context, actor model.Actor, code, remarks string, channelID *string) (*model.Order, error) {
	return m.RedeemFunc(ctx, actor, code, remarks, channelID)
}

func (m *mockOrderUC) List(ctx context.Context, actor model.Actor, f model.OrderFilter) ([]*model.Order, int, error) {
	return m.ListFunc(ctx, actor, f)
}

func (m *mockOrderUC) ListMine(ctx context.Context, actor model.Actor, p model.Page) ([]*model.Order, int, error) {
	if actor.IsAnonymous() {
		return nil, 0, domain.ErrIdentityRequired
	}
	if _, err := policy.Authorize(actor, policy.OrderMine); err != nil {
		return nil, 0, err
	}
	return m.ListMineFunc(ctx, actor, p)
}

func (m *mockOrderUC) ListQueue(ctx context.Context, actor model.Actor, p model.Page) ([]*model.Order, int, error) {
	if _, err := policy.Authorize(actor, policy.OrderQueue); err != nil {
		return nil, 0, err
	}
	return m.ListQueueFunc(ctx, actor, p)
}

type mockLedgerUC struct {
	usecase.LedgerUseCase
	RevenueFunc   func(ctx context.Context, actor model.Actor, q model.RevenueQuery) ([]*model.Revenue, error)
	ListSalesFunc func(ctx context.Context, actor model.Actor, f model.SaleFilter) ([]*model.SaleRecord, int, error)
	StatsFunc     func(ctx context.Context, actor model.Actor, f model.SaleFilter) (*model.SaleStats, error)
}

func (m *mockLedgerUC) Revenue(ctx context.Context, actor model.Actor, q model.RevenueQuery) ([]*model.Revenue, error) {
	return m.RevenueFunc(ctx, actor, q)
}

func (m *mockLedgerUC) ListSales(ctx context.Context, actor model.Actor, f model.SaleFilter) ([]*model.SaleRecord, int, error) {
	return m.ListSalesFunc(ctx, actor, f)
}

func (m *mockLedgerUC) Stats(ctx context.Context, actor model.Actor, f model.SaleFilter) (*model.SaleStats, error) {
	if _, err := policy.Authorize(actor, policy.SaleStats); err != nil {
		return nil, err
	}
	return m.StatsFunc(ctx, actor, f)
}

type mockChannelUC struct {
	usecase.ChannelUseCase
	CreateFunc func(ctx context.Context, actor model.Actor, id, name, description string) (*model.Channel, error)
	GetFunc    func(ctx context.Context, actor model.Actor, id string) (*model.Channel, error)
	UpdateFunc func(ctx context.Context, actor model.Actor, id string, patch model.ChannelPatch) (*model.Channel, error)
	DeleteFunc func(ctx context.Context, actor model.Actor, id string) error
}

func (m *mockChannelUC) Create(ctx context.Context, actor model.Actor, id, name, description string) (*model.Channel, error) {
	if _, err := policy.Authorize(actor, policy.ChannelCreate); err != nil {
		return nil, err
	}
	return m.CreateFunc(ctx, actor, id, name, description)
}

func (m *mockChannelUC) Get(ctx context.Context, actor model.Actor, id string) (*model.Channel, error) {
	return m.GetFunc(ctx, actor, id)
}

func (m *mockChannelUC) Update(ctx context.Context, actor model.Actor, id string, patch model.ChannelPatch) (*model.Channel, error) {
	return m.UpdateFunc(ctx, actor, id, patch)
}

func (m *mockChannelUC) Delete(ctx context.Context, actor model.Actor, id string) error {
	return m.DeleteFunc(ctx, actor, id)
}

// countingLimiter allows the first n calls per key.
type countingLimiter struct {
	mu    sync.Mutex
	seen  map[string]int
	Err   error
	Calls int
}

func (l *countingLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls++
	if l.Err != nil {
		return false, l.Err
	}
	if l.seen == nil {
		l.seen = map[string]int{}
	}
	l.seen[key]++
	return l.seen[key] <= limit, nil
}

// --- helpers ---

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAuth() *AuthManager {
	return NewAuthManager(config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour, CookieName: "session"})
}

func discardLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type testDeps struct {
	cards    *mockCardUC
	codes    *mockCodeUC
	orders   *mockOrderUC
	ledger   *mockLedgerUC
	channels *mockChannelUC
	limiter  *countingLimiter
}

func newTestServer(d testDeps, checkPerMinute int) *Server {
	if d.cards == nil {
		d.cards = &mockCardUC{}
	}
	if d.codes == nil {
		d.codes = &mockCodeUC{}
	}
	if d.orders == nil {
		d.orders = &mockOrderUC{}
	}
	if d.ledger == nil {
		d.ledger = &mockLedgerUC{}
	}
	if d.channels == nil {
		d.channels = &mockChannelUC{}
	}
	var lim Limiter
	if d.limiter != nil {
		lim = d.limiter
	}
	return NewServer(d.cards, d.codes, d.orders, d.ledger, d.channels, newTestAuth(), lim, checkPerMinute, time.Second, discardLogger())
}
