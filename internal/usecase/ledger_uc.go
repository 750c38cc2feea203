package usecase

import (
	"context"
	"fmt"
	"strings"

	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/policy"
	"code-redemption/internal/domain/ports/repository"
	"code-redemption/internal/infra/logging"

	"github.com/rs/zerolog"
)

// maxProxyMatches caps how many proxies a free-text revenue query fans out to.
const maxProxyMatches = 50

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// LedgerUseCase reads the sales ledger and aggregates revenue.
type LedgerUseCase interface {
	// ListSales pages the ledger newest first. BuyerEmail narrows it to one
	// buyer's purchase history.
	ListSales(ctx context.Context, actor model.Actor, f model.SaleFilter) ([]*model.SaleRecord, int, error)
	// Stats totals the ledger entries matching f, with a per-card breakdown.
	Stats(ctx context.Context, actor model.Actor, f model.SaleFilter) (*model.SaleStats, error)
	// Revenue returns one aggregate per target. Proxies always get their own.
	Revenue(ctx context.Context, actor model.Actor, q model.RevenueQuery) ([]*model.Revenue, error)
}

type ledgerUC struct {
	sales   repository.SaleRepository
	revenue repository.RevenueRepository
	log     *zerolog.Logger
}

func NewLedgerUseCase(sales repository.SaleRepository, revenue repository.RevenueRepository, logger *zerolog.Logger) *ledgerUC {
	return &ledgerUC{sales: sales, revenue: revenue, log: logger}
}

func (u *ledgerUC) ListSales(ctx context.Context, actor model.Actor, f model.SaleFilter) ([]*model.SaleRecord, int, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.ListSales")()
	if _, err := authorize(ctx, u.log, actor, policy.SaleList); err != nil {
		return nil, 0, err
	}
	f, err := normalizeSaleFilter(f)
	if err != nil {
		return nil, 0, err
	}
	return u.sales.List(ctx, repository.NoTX, f)
}

func (u *ledgerUC) Stats(ctx context.Context, actor model.Actor, f model.SaleFilter) (*model.SaleStats, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.Stats")()
	if _, err := authorize(ctx, u.log, actor, policy.SaleStats); err != nil {
		return nil, err
	}
	f, err := normalizeSaleFilter(f)
	if err != nil {
		return nil, err
	}
	st, err := u.sales.Stats(ctx, repository.NoTX, f)
	if err != nil {
		return nil, err
	}
	st.From, st.To = f.From, f.To
	return st, nil
}

func normalizeSaleFilter(f model.SaleFilter) (model.SaleFilter, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, fmt.Errorf("%w: end date before start date", domain.ErrInvalidArgument)
	}
	f.CardName = trimmed(f.CardName)
	if email := trimmed(f.BuyerEmail); email != nil {
		addr, err := model.NormalizeEmail(*email)
		if err != nil {
			return f, err
		}
		f.BuyerEmail = &addr
	} else {
		f.BuyerEmail = nil
	}
	f.Page = f.Page.Normalize()
	return f, nil
}

func (u *ledgerUC) Revenue(ctx context.Context, actor model.Actor, q model.RevenueQuery) ([]*model.Revenue, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.Revenue")()
	scope, err := authorize(ctx, u.log, actor, policy.RevenueAggregate)
	if err != nil {
		return nil, err
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, fmt.Errorf("%w: end date before start date", domain.ErrInvalidArgument)
	}
	if scope == policy.ScopeOwn {
		q = model.RevenueQuery{ProxyID: actor.IDRef(), From: q.From, To: q.To}
	}

	switch {
	case trimmed(q.ProxyID) != nil:
		r, err := u.byProxy(ctx, *trimmed(q.ProxyID), q)
		if err != nil {
			return nil, err
		}
		return []*model.Revenue{r}, nil

	case trimmed(q.ChannelID) != nil:
		ch := *trimmed(q.ChannelID)
		total, n, err := u.revenue.ByChannel(ctx, repository.NoTX, ch, q.From, q.To)
		if err != nil {
			return nil, err
		}
		return []*model.Revenue{{ChannelID: &ch, TotalRevenue: total, ConsumedCount: n, From: q.From, To: q.To}}, nil

	case strings.TrimSpace(q.Query) != "":
		ids, err := u.revenue.MatchProxies(ctx, repository.NoTX, strings.TrimSpace(q.Query), maxProxyMatches)
		if err != nil {
			return nil, err
		}
		out := make([]*model.Revenue, 0, len(ids))
		for _, id := range ids {
			r, err := u.byProxy(ctx, id, q)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	}
	return nil, domain.ErrRevenueTargetUnset
}

func (u *ledgerUC) byProxy(ctx context.Context, proxyID string, q model.RevenueQuery) (*model.Revenue, error) {
	total, n, err := u.revenue.ByProxy(ctx, repository.NoTX, proxyID, q.From, q.To)
	if err != nil {
		return nil, err
	}
	return &model.Revenue{ProxyID: &proxyID, TotalRevenue: total, ConsumedCount: n, From: q.From, To: q.To}, nil
}
