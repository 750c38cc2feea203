//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/ports/adapter"
	"code-redemption/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func ptr[T any](v T) *T { return &v }

var (
	admin = model.Actor{ID: "admin-1", Role: model.RoleAdmin}
	staff = model.Actor{ID: "staff-1", Role: model.RoleStaff}
	buyer = model.Actor{ID: "user-1", Role: model.RoleUser}
	anon  = model.Anonymous()
)

func proxyActor(id string) model.Actor { return model.Actor{ID: id, Role: model.RoleProxy} }

func staffOf(channel string) model.Actor {
	return model.Actor{ID: "staff-" + channel, Role: model.RoleStaff, ChannelID: &channel}
}

// =============================
// In-memory store
// =============================

// memStore backs every repository with plain maps. MockTxManager serializes
// transactions and restores a snapshot when fn fails, so rollback behaves
// like the database would.
type memStore struct {
	mu       sync.Mutex
	channels map[string]*model.Channel
	cards    map[string]*model.Card
	codes  map[string]*model.ActivationCode
	orders map[string]*model.Order
	sales  []*model.SaleRecord

	// optional failure injection
	saveOrderErr error
	appendErr    error
}

func newMemStore() *memStore {
	return &memStore{
		channels: map[string]*model.Channel{},
		cards:    map[string]*model.Card{},
		codes:  map[string]*model.ActivationCode{},
		orders: map[string]*model.Order{},
	}
}

type snapshot struct {
	channels map[string]model.Channel
	cards    map[string]model.Card
	codes  map[string]model.ActivationCode
	orders map[string]model.Order
	sales  []*model.SaleRecord
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		channels: make(map[string]model.Channel, len(s.channels)),
		cards:    make(map[string]model.Card, len(s.cards)),
		codes:  make(map[string]model.ActivationCode, len(s.codes)),
		orders: make(map[string]model.Order, len(s.orders)),
		sales:  append([]*model.SaleRecord(nil), s.sales...),
	}
	for k, v := range s.channels {
		snap.channels[k] = *v
	}
	for k, v := range s.cards {
		snap.cards[k] = *v
	}
	for k, v := range s.codes {
		snap.codes[k] = *v
	}
	for k, v := range s.orders {
		snap.orders[k] = *v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = map[string]*model.Channel{}
	for k, v := range snap.channels {
		v := v
		s.channels[k] = &v
	}
	s.cards = map[string]*model.Card{}
	for k, v := range snap.cards {
		v := v
		s.cards[k] = &v
	}
	s.codes = map[string]*model.ActivationCode{}
	for k, v := range snap.codes {
		v := v
		s.codes[k] = &v
	}
	s.orders = map[string]*model.Order{}
	for k, v := range snap.orders {
		v := v
		s.orders[k] = &v
	}
	s.sales = snap.sales
}

// ---- MockTxManager ----

// MockTxManager runs one transaction at a time because rollback restores a
// whole-store snapshot. Concurrent tests against it therefore exercise the
// use case logic under serial transactions only; row-level exclusivity under
// real concurrency is covered by the Postgres integration tests.
type MockTxManager struct {
	mu    sync.Mutex
	store *memStore
	Calls int
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	var snap snapshot
	if m.store != nil {
		snap = m.store.snapshot()
	}
	hooked, runHooks := repository.WithCommitHooks(ctx)
	if err := fn(hooked, nil); err != nil {
		if m.store != nil {
			m.store.restore(snap)
		}
		return err
	}
	runHooks(ctx)
	return nil
}

// ---- Channel repository ----

type memChannelRepo struct{ s *memStore }

var _ repository.ChannelRepository = (*memChannelRepo)(nil)

func (r *memChannelRepo) nameTakenLocked(ch *model.Channel) bool {
	for id, other := range r.s.channels {
		if id != ch.ID && strings.EqualFold(other.Name, ch.Name) {
			return true
		}
	}
	return false
}

func (r *memChannelRepo) Insert(ctx context.Context, tx repository.Tx, ch *model.Channel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.channels[ch.ID]; ok {
		return domain.ErrChannelIDTaken
	}
	if r.nameTakenLocked(ch) {
		return domain.ErrChannelNameTaken
	}
	cp := *ch
	r.s.channels[ch.ID] = &cp
	return nil
}

func (r *memChannelRepo) Update(ctx context.Context, tx repository.Tx, ch *model.Channel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.channels[ch.ID]; !ok {
		return domain.ErrChannelNotFound
	}
	if r.nameTakenLocked(ch) {
		return domain.ErrChannelNameTaken
	}
	cp := *ch
	r.s.channels[ch.ID] = &cp
	return nil
}

func (r *memChannelRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Channel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ch, ok := r.s.channels[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *ch
	return &cp, nil
}

func (r *memChannelRepo) List(ctx context.Context, tx repository.Tx, page model.Page) ([]*model.Channel, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*model.Channel, 0, len(r.s.channels))
	for _, ch := range r.s.channels {
		cp := *ch
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name) })
	return paginate(all, page), len(all), nil
}

func (r *memChannelRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.channels[id]; !ok {
		return domain.ErrChannelNotFound
	}
	for _, c := range r.s.cards {
		if c.ChannelID != nil && *c.ChannelID == id {
			return domain.ErrChannelInUse
		}
	}
	delete(r.s.channels, id)
	return nil
}

// ---- Card repository ----

type memCardRepo struct{ s *memStore }

var _ repository.CardRepository = (*memCardRepo)(nil)

func (r *memCardRepo) Save(ctx context.Context, tx repository.Tx, c *model.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, other := range r.s.cards {
		if id != c.ID && strings.EqualFold(other.Name, c.Name) {
			return domain.ErrCardNameTaken
		}
	}
	cp := *c
	r.s.cards[c.ID] = &cp
	return nil
}

func (r *memCardRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCardRepo) List(ctx context.Context, tx repository.Tx, includeInactive bool, channelID *string) ([]*model.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Card
	for _, c := range r.s.cards {
		if !includeInactive && !c.Active {
			continue
		}
		if channelID != nil && (c.ChannelID == nil || *c.ChannelID != *channelID) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memCardRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cards[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.cards, id)
	return nil
}

// ---- ActivationCode repository ----

type memCodeRepo struct{ s *memStore }

var _ repository.ActivationCodeRepository = (*memCodeRepo)(nil)

func (r *memCodeRepo) byCodeLocked(code string) *model.ActivationCode {
	for _, c := range r.s.codes {
		if c.Code == code {
			return c
		}
	}
	return nil
}

func (r *memCodeRepo) InsertIfAbsent(ctx context.Context, tx repository.Tx, code *model.ActivationCode) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.byCodeLocked(code.Code) != nil {
		return false, nil
	}
	cp := *code
	r.s.codes[code.ID] = &cp
	return true, nil
}

func (r *memCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ActivationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[id]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.byCodeLocked(code)
	if c == nil {
		return nil, domain.ErrCodeNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCodeRepo) Allocate(ctx context.Context, tx repository.Tx, cardID string, proxyID *string) (*model.ActivationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var pick *model.ActivationCode
	for _, c := range r.s.codes {
		if c.CardID != cardID || c.Status != model.CodeStatusAvailable || !sameOwner(c.ProxyID, proxyID) {
			continue
		}
		if pick == nil || c.CreatedAt.Before(pick.CreatedAt) || (c.CreatedAt.Equal(pick.CreatedAt) && c.ID < pick.ID) {
			pick = c
		}
	}
	if pick == nil {
		return nil, domain.ErrNoCodesAvailable
	}
	pick.Status = model.CodeStatusConsuming
	cp := *pick
	return &cp, nil
}

func (r *memCodeRepo) ClaimByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.byCodeLocked(code)
	if c == nil {
		return nil, domain.ErrCodeNotFound
	}
	if err := c.Claim(); err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (r *memCodeRepo) MarkConsumed(ctx context.Context, tx repository.Tx, id string, at time.Time) (*model.ActivationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[id]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	if err := c.Consume(at); err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (r *memCodeRepo) List(ctx context.Context, tx repository.Tx, f model.CodeFilter) ([]*model.ActivationCode, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*model.ActivationCode
	for _, c := range r.s.codes {
		if c.CardID != f.CardID {
			continue
		}
		if f.ProxyID != nil && !c.OwnedBy(*f.ProxyID) {
			continue
		}
		if f.Status != nil && c.Status != *f.Status {
			continue
		}
		if f.Exported != nil && c.Exported != *f.Exported {
			continue
		}
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, f.Page), len(all), nil
}

func (r *memCodeRepo) CountByCard(ctx context.Context, tx repository.Tx, cardID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, c := range r.s.codes {
		if c.CardID == cardID {
			n++
		}
	}
	return n, nil
}

func (r *memCodeRepo) CountAvailable(ctx context.Context, tx repository.Tx, cardID string, proxyID *string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, c := range r.s.codes {
		if c.CardID == cardID && c.Status == model.CodeStatusAvailable && sameOwner(c.ProxyID, proxyID) {
			n++
		}
	}
	return n, nil
}

func (r *memCodeRepo) MarkExported(ctx context.Context, tx repository.Tx, ids []string, proxyID *string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, id := range ids {
		c, ok := r.s.codes[id]
		if !ok || (proxyID != nil && !c.OwnedBy(*proxyID)) {
			continue
		}
		c.Exported = true
		n++
	}
	return n, nil
}

func (r *memCodeRepo) DeleteAllForCard(ctx context.Context, tx repository.Tx, cardID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.codes {
		if c.CardID == cardID && c.Status != model.CodeStatusAvailable {
			return 0, domain.ErrCodesInUse
		}
	}
	n := 0
	for id, c := range r.s.codes {
		if c.CardID == cardID {
			delete(r.s.codes, id)
			n++
		}
	}
	return n, nil
}

func (r *memCodeRepo) ReleaseOrphans(ctx context.Context, tx repository.Tx, before time.Time, limit int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	referenced := map[string]bool{}
	for _, o := range r.s.orders {
		referenced[o.CodeID] = true
	}
	n := 0
	for _, c := range r.s.codes {
		if n >= limit {
			break
		}
		if c.Status == model.CodeStatusConsuming && !referenced[c.ID] && c.CreatedAt.Before(before) {
			c.Status = model.CodeStatusAvailable
			n++
		}
	}
	return n, nil
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ---- Order repository ----

type memOrderRepo struct{ s *memStore }

var _ repository.OrderRepository = (*memOrderRepo)(nil)

func (r *memOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.saveOrderErr != nil {
		return r.s.saveOrderErr
	}
	cp := *o
	r.s.orders[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) List(ctx context.Context, tx repository.Tx, f model.OrderFilter) ([]*model.Order, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*model.Order
	for _, o := range r.s.orders {
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, o.Status) {
			continue
		}
		if f.ChannelID != nil && (o.ChannelID == nil || *o.ChannelID != *f.ChannelID) {
			continue
		}
		if f.BuyerID != nil && (o.BuyerID == nil || *o.BuyerID != *f.BuyerID) {
			continue
		}
		cp := *o
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if f.OldestFirst {
			return all[i].ID < all[j].ID
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, f.Page), len(all), nil
}

func (r *memOrderRepo) Stats(ctx context.Context, tx repository.Tx) (*model.OrderStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := &model.OrderStats{}
	for _, o := range r.s.orders {
		st.Total++
		switch o.Status {
		case model.OrderStatusPending:
			st.Pending++
		case model.OrderStatusProcessing:
			st.Processing++
		case model.OrderStatusCompleted:
			st.Completed++
		}
	}
	return st, nil
}

func (r *memOrderRepo) ListStale(ctx context.Context, tx repository.Tx, before time.Time, limit int) ([]*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Order
	for _, o := range r.s.orders {
		if o.AwaitingFulfilment() && o.CreatedAt.Before(before) && len(out) < limit {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func containsStatus(list []model.OrderStatus, s model.OrderStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// ---- Sales & revenue ----

type memSaleRepo struct{ s *memStore }

var _ repository.SaleRepository = (*memSaleRepo)(nil)
var _ repository.RevenueRepository = (*memSaleRepo)(nil)

func (r *memSaleRepo) Append(ctx context.Context, tx repository.Tx, rec *model.SaleRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.appendErr != nil {
		return r.s.appendErr
	}
	cp := *rec
	r.s.sales = append(r.s.sales, &cp)
	return nil
}

func (r *memSaleRepo) List(ctx context.Context, tx repository.Tx, f model.SaleFilter) ([]*model.SaleRecord, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*model.SaleRecord
	for i := len(r.s.sales) - 1; i >= 0; i-- {
		s := r.s.sales[i]
		if !saleMatches(s, f) {
			continue
		}
		cp := *s
		all = append(all, &cp)
	}
	return paginate(all, f.Page), len(all), nil
}

func (r *memSaleRepo) Stats(ctx context.Context, tx repository.Tx, f model.SaleFilter) (*model.SaleStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := &model.SaleStats{TotalRevenue: decimal.Zero, ByCard: []model.CardSales{}}
	idx := map[string]int{}
	for _, s := range r.s.sales {
		if !saleMatches(s, f) {
			continue
		}
		i, ok := idx[s.CardName]
		if !ok {
			i = len(st.ByCard)
			idx[s.CardName] = i
			st.ByCard = append(st.ByCard, model.CardSales{CardName: s.CardName, Revenue: decimal.Zero})
		}
		st.ByCard[i].Count++
		st.ByCard[i].Revenue = st.ByCard[i].Revenue.Add(s.Price)
		st.TotalSales++
		st.TotalRevenue = st.TotalRevenue.Add(s.Price)
	}
	sort.Slice(st.ByCard, func(i, j int) bool {
		if c := st.ByCard[i].Revenue.Cmp(st.ByCard[j].Revenue); c != 0 {
			return c > 0
		}
		return st.ByCard[i].CardName < st.ByCard[j].CardName
	})
	return st, nil
}

func saleMatches(s *model.SaleRecord, f model.SaleFilter) bool {
	if f.CardName != nil && !strings.Contains(strings.ToLower(s.CardName), strings.ToLower(*f.CardName)) {
		return false
	}
	if f.BuyerEmail != nil && s.BuyerEmail != *f.BuyerEmail {
		return false
	}
	return inWindow(s.PurchasedAt, f.From, f.To)
}

func (r *memSaleRepo) ByProxy(ctx context.Context, tx repository.Tx, proxyID string, from, to *time.Time) (decimal.Decimal, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total, n := decimal.Zero, 0
	for _, o := range r.s.orders {
		c, ok := r.s.codes[o.CodeID]
		if !ok || !c.OwnedBy(proxyID) || c.Status != model.CodeStatusConsumed || !inWindow(*c.UsedAt, from, to) {
			continue
		}
		total = total.Add(o.CardPrice)
		n++
	}
	return total, n, nil
}

func (r *memSaleRepo) ByChannel(ctx context.Context, tx repository.Tx, channelID string, from, to *time.Time) (decimal.Decimal, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total, n := decimal.Zero, 0
	for _, o := range r.s.orders {
		if o.Status != model.OrderStatusCompleted || o.ChannelID == nil || *o.ChannelID != channelID || !inWindow(*o.CompletedAt, from, to) {
			continue
		}
		total = total.Add(o.CardPrice)
		n++
	}
	return total, n, nil
}

func (r *memSaleRepo) MatchProxies(ctx context.Context, tx repository.Tx, query string, limit int) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, c := range r.s.codes {
		if c.ProxyID == nil || seen[*c.ProxyID] {
			continue
		}
		if strings.Contains(strings.ToLower(*c.ProxyID), strings.ToLower(query)) {
			seen[*c.ProxyID] = true
			out = append(out, *c.ProxyID)
		}
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func inWindow(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}

func paginate[T any](all []T, p model.Page) []T {
	p = p.Normalize()
	if p.Offset >= len(all) {
		return nil
	}
	end := p.Offset + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[p.Offset:end]
}

// =============================
// Adapters
// =============================

type MockNotifier struct {
	mu        sync.Mutex
	Created   []*model.Order
	Delivered map[string]string // email -> code
	Stale     int

	DeliverCodeFunc func(ctx context.Context, email string, o *model.Order) error
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) OrderCreated(ctx context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, o)
	return nil
}

func (m *MockNotifier) DeliverCode(ctx context.Context, email string, o *model.Order) error {
	if m.DeliverCodeFunc != nil {
		return m.DeliverCodeFunc(ctx, email, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Delivered == nil {
		m.Delivered = map[string]string{}
	}
	m.Delivered[email] = o.Code
	return nil
}

func (m *MockNotifier) StaleOrders(ctx context.Context, orders []*model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stale += len(orders)
	return nil
}

// =============================
// Fixture
// =============================

type fixture struct {
	store    *memStore
	tm       *MockTxManager
	channels *memChannelRepo
	cards    *memCardRepo
	codes    *memCodeRepo
	orders   *memOrderRepo
	sales    *memSaleRepo
	notifier *MockNotifier
}

func newFixture() *fixture {
	s := newMemStore()
	return &fixture{
		store:    s,
		tm:       &MockTxManager{store: s},
		channels: &memChannelRepo{s: s},
		cards:    &memCardRepo{s: s},
		codes:    &memCodeRepo{s: s},
		orders:   &memOrderRepo{s: s},
		sales:    &memSaleRepo{s: s},
		notifier: &MockNotifier{},
	}
}

// seedChannel registers a channel directly; registering twice is harmless.
func (f *fixture) seedChannel(id string) {
	ch, err := model.NewChannel(id, "channel "+id, "")
	if err != nil {
		panic(err)
	}
	_ = f.channels.Insert(context.Background(), nil, ch)
}

// seedCard stores an active card directly, bypassing the use case. Its
// channel is registered first.
func (f *fixture) seedCard(name string, price string, channelID *string) *model.Card {
	if channelID != nil {
		f.seedChannel(*channelID)
	}
	c, err := model.NewCard(name, "", decimal.RequireFromString(price), true, channelID)
	if err != nil {
		panic(err)
	}
	_ = f.cards.Save(context.Background(), nil, c)
	return c
}

// seedCodes stores n available codes for the card.
func (f *fixture) seedCodes(cardID string, n int, proxyID *string) []*model.ActivationCode {
	out := make([]*model.ActivationCode, 0, n)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < n; i++ {
		c := model.NewActivationCode(cardID, model.NewID(), proxyID, base.Add(time.Duration(i)*time.Millisecond))
		_, _ = f.codes.InsertIfAbsent(context.Background(), nil, c)
		out = append(out, c)
	}
	return out
}

func (f *fixture) code(id string) *model.ActivationCode {
	c, err := f.codes.FindByID(context.Background(), nil, id)
	if err != nil {
		panic(err)
	}
	return c
}
