//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
)

func bearer(t *testing.T, actor model.Actor) string {
	t.Helper()
	tok, err := newTestAuth().Mint(actor)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	return "Bearer " + tok
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCards_ListIsPublicAndCounted(t *testing.T) {
	var gotActor model.Actor
	cards := &mockCardUC{
		ListFunc: func(ctx context.Context, actor model.Actor, includeInactive bool, channelID *string) ([]*model.Card, error) {
			gotActor = actor
			if !includeInactive || channelID == nil || *channelID != "ch-1" {
				t.Errorf("query not forwarded: %v %v", includeInactive, channelID)
			}
			return []*model.Card{{ID: "c1", Name: "Plus"}, {ID: "c2", Name: "Pro"}}, nil
		},
	}
	h := newTestServer(testDeps{cards: cards}, 0).Routes()

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/v1/cards?include_inactive=true&channel_id=ch-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Total-Count") != "2" {
		t.Errorf("X-Total-Count = %q", rec.Header().Get("X-Total-Count"))
	}
	if !gotActor.IsAnonymous() {
		t.Errorf("no credentials should mean anonymous, got %+v", gotActor)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("trace id header missing")
	}
}

func TestCards_CreateCarriesActorFromToken(t *testing.T) {
	cards := &mockCardUC{
		CreateFunc: func(ctx context.Context, actor model.Actor, name, desc string, price decimal.Decimal, active bool, channelID *string) (*model.Card, error) {
			if actor.ID != "root" || actor.Role != model.RoleAdmin {
				t.Errorf("actor = %+v", actor)
			}
			if !active || !price.Equal(decimal.RequireFromString("158")) {
				t.Errorf("body not decoded: active=%v price=%s", active, price)
			}
			return &model.Card{ID: "c1", Name: name, Price: price, Active: active}, nil
		},
	}
	h := newTestServer(testDeps{cards: cards}, 0).Routes()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cards", strings.NewReader(`{"name":"Plus-1M","price":"158"}`))
	req.Header.Set("Authorization", bearer(t, model.Actor{ID: "root", Role: model.RoleAdmin}))
	rec := do(h, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDeniedRequests(t *testing.T) {
	cards := &mockCardUC{}
	h := newTestServer(testDeps{cards: cards}, 0).Routes()
	userToken := bearer(t, model.Actor{ID: "u1", Role: model.RoleUser})
	staffToken := bearer(t, model.Actor{ID: "s1", Role: model.RoleStaff})

	t.Run("api client gets 403 with redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cards", strings.NewReader(`{"name":"x","price":"1"}`))
		req.Header.Set("Authorization", staffToken)
		rec := do(h, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("want 403, got %d", rec.Code)
		}
		var body errorBody
		_ = json.NewDecoder(rec.Body).Decode(&body)
		if body.Redirect != "/staff/orders" {
			t.Errorf("redirect = %q", body.Redirect)
		}
	})

	t.Run("browser navigation is redirected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cards", strings.NewReader(`{"name":"x","price":"1"}`))
		req.Header.Set("Authorization", userToken)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		rec := do(h, req)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
			t.Fatalf("want 303 to /, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("anonymous queue is forbidden with catalog redirect", func(t *testing.T) {
		rec := do(h, httptest.NewRequest(http.MethodGet, "/api/v1/orders/queue", nil))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("want 403, got %d", rec.Code)
		}
		var body errorBody
		_ = json.NewDecoder(rec.Body).Decode(&body)
		if body.Redirect != "/" {
			t.Errorf("redirect = %q", body.Redirect)
		}
	})

	t.Run("anonymous history asks for identity", func(t *testing.T) {
		rec := do(h, httptest.NewRequest(http.MethodGet, "/api/v1/orders/mine", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cards", nil)
		req.Header.Set("Authorization", userToken+"x")
		if rec := do(h, req); rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})
}

func TestSessionCookieAuthenticates(t *testing.T) {
	orders := &mockOrderUC{
		ListMineFunc: func(ctx context.Context, actor model.Actor, p model.Page) ([]*model.Order, int, error) {
			if actor.ID != "u1" {
				t.Errorf("actor = %+v", actor)
			}
			if p.Limit != 5 {
				t.Errorf("limit = %d", p.Limit)
			}
			return []*model.Order{{ID: "o1"}}, 1, nil
		},
	}
	h := newTestServer(testDeps{orders: orders}, 0).Routes()
	tok, _ := newTestAuth().Mint(model.Actor{ID: "u1", Role: model.RoleUser})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/mine?limit=5", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: tok})
	rec := do(h, req)
	if rec.Code != http.StatusOK || rec.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("want 200 with total, got %d %q", rec.Code, rec.Header().Get("X-Total-Count"))
	}

	out := do(h, httptest.NewRequest(http.MethodDelete, "/api/v1/session", nil))
	if out.Code != http.StatusNoContent || !strings.Contains(out.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Fatalf("logout should clear the cookie: %d %q", out.Code, out.Header().Get("Set-Cookie"))
	}
}

func TestRedeem_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrCodeNotFound, http.StatusNotFound},
		{domain.ErrCodeAlreadyUsed, http.StatusConflict},
		{domain.ErrNoCodesAvailable, http.StatusConflict},
		{domain.ErrChannelMismatch, http.StatusBadRequest},
		{domain.ErrUnknownChannel, http.StatusBadRequest},
		{domain.ErrConcurrentUpdate, http.StatusConflict},
		{errors.New("pg: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			orders := &mockOrderUC{
				RedeemFunc: func(ctx context.Context, actor model.Actor, code, remarks string, channelID *string) (*model.Order, error) {
					return nil, tc.err
				},
			}
			h := newTestServer(testDeps{orders: orders}, 0).Routes()
			rec := do(h, httptest.NewRequest(http.MethodPost, "/api/v1/orders/redeem", strings.NewReader(`{"code":"ABCD-EFGH-JKLM"}`)))
			if rec.Code != tc.want {
				t.Fatalf("want %d, got %d", tc.want, rec.Code)
			}
			if tc.want == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "pg:") {
				t.Error("storage detail leaked to the client")
			}
		})
	}
}

func TestRedeem_RejectsUnknownFields(t *testing.T) {
	h := newTestServer(testDeps{}, 0).Routes()
	rec := do(h, httptest.NewRequest(http.MethodPost, "/api/v1/orders/redeem", strings.NewReader(`{"code":"x","price":0}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestOrders_ListParsesStatuses(t *testing.T) {
	orders := &mockOrderUC{
		ListFunc: func(ctx context.Context, actor model.Actor, f model.OrderFilter) ([]*model.Order, int, error) {
			if len(f.Statuses) != 2 || f.Statuses[0] != model.OrderStatusPending || f.Statuses[1] != model.OrderStatusProcessing {
				t.Errorf("statuses = %v", f.Statuses)
			}
			if f.Page.Limit != model.DefaultPageSize || f.Page.Offset != 10 {
				t.Errorf("page = %+v", f.Page)
			}
			return nil, 0, nil
		},
	}
	h := newTestServer(testDeps{orders: orders}, 0).Routes()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=pending,processing&offset=10", nil)
	req.Header.Set("Authorization", bearer(t, model.Actor{ID: "root", Role: model.RoleAdmin}))
	rec := do(h, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Fatalf("want empty list, got %d %s", rec.Code, rec.Body.String())
	}

	bad := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=abc", nil)
	if rec := do(h, bad); rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for bad limit, got %d", rec.Code)
	}
}

func TestCheck_RateLimited(t *testing.T) {
	codes := &mockCodeUC{
		CheckFunc: func(ctx context.Context, actor model.Actor, code string) (bool, error) { return true, nil },
	}
	lim := &countingLimiter{}
	h := newTestServer(testDeps{codes: codes, limiter: lim}, 2).Routes()

	for i := 0; i < 2; i++ {
		rec := do(h, httptest.NewRequest(http.MethodGet, "/api/v1/codes/check?code=ABCD", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"available":true`) {
			t.Fatalf("call %d: %d %s", i, rec.Code, rec.Body.String())
		}
	}
	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/v1/codes/check?code=ABCD", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", rec.Code)
	}

	lim.Err = errors.New("redis down")
	if rec := do(h, httptest.NewRequest(http.MethodGet, "/api/v1/codes/check?code=ABCD", nil)); rec.Code != http.StatusOK {
		t.Fatalf("limiter outage should fail open, got %d", rec.Code)
	}
}

func TestRevenue_DateParsing(t *testing.T) {
	ledger := &mockLedgerUC{
		RevenueFunc: func(ctx context.Context, actor model.Actor, q model.RevenueQuery) ([]*model.Revenue, error) {
			if q.From == nil || q.From.Format("2006-01-02") != "2026-01-01" || q.Query != "alpha" {
				t.Errorf("query = %+v", q)
			}
			return []*model.Revenue{{TotalRevenue: decimal.NewFromInt(158), ConsumedCount: 1}}, nil
		},
	}
	h := newTestServer(testDeps{ledger: ledger}, 0).Routes()
	admin := bearer(t, model.Actor{ID: "root", Role: model.RoleAdmin})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/revenue?q=alpha&from=2026-01-01", nil)
	req.Header.Set("Authorization", admin)
	if rec := do(h, req); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"158"`) {
		t.Fatalf("want 200 with total, got %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/revenue?q=alpha&from=yesterday", nil)
	req.Header.Set("Authorization", admin)
	if rec := do(h, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(testDeps{}, 0).Routes()
	if rec := do(h, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec := do(h, httptest.NewRequest(http.MethodGet, "/metrics", nil)); rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
}

func TestChannels_Routes(t *testing.T) {
	channels := &mockChannelUC{
		CreateFunc: func(ctx context.Context, actor model.Actor, id, name, description string) (*model.Channel, error) {
			if id != "web" || name != "Web shop" {
				t.Errorf("body not decoded: %q %q", id, name)
			}
			return &model.Channel{ID: id, Name: name, Description: description}, nil
		},
		GetFunc: func(ctx context.Context, actor model.Actor, id string) (*model.Channel, error) {
			return nil, domain.ErrChannelNotFound
		},
		UpdateFunc: func(ctx context.Context, actor model.Actor, id string, patch model.ChannelPatch) (*model.Channel, error) {
			if id != "web" || patch.Name == nil || *patch.Name != "Tg" {
				t.Errorf("patch not forwarded: %s %+v", id, patch)
			}
			return nil, domain.ErrChannelNameTaken
		},
		DeleteFunc: func(ctx context.Context, actor model.Actor, id string) error {
			if id == "busy" {
				return domain.ErrChannelInUse
			}
			return nil
		},
	}
	h := newTestServer(testDeps{channels: channels}, 0).Routes()
	admin := bearer(t, model.Actor{ID: "root", Role: model.RoleAdmin})
	send := func(method, path, body, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", auth)
		return do(h, req)
	}

	rec := send(http.MethodPost, "/api/v1/channels", `{"id":"web","name":"Web shop"}`, admin)
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"id":"web"`) {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	staffToken := bearer(t, model.Actor{ID: "s1", Role: model.RoleStaff})
	if rec := send(http.MethodPost, "/api/v1/channels", `{"name":"x"}`, staffToken); rec.Code != http.StatusForbidden {
		t.Fatalf("staff create: want 403, got %d", rec.Code)
	}
	if rec := send(http.MethodGet, "/api/v1/channels/missing", "", admin); rec.Code != http.StatusNotFound {
		t.Fatalf("get: want 404, got %d", rec.Code)
	}
	if rec := send(http.MethodPatch, "/api/v1/channels/web", `{"name":"Tg"}`, admin); rec.Code != http.StatusConflict {
		t.Fatalf("update: want 409, got %d", rec.Code)
	}
	if rec := send(http.MethodDelete, "/api/v1/channels/busy", "", admin); rec.Code != http.StatusConflict {
		t.Fatalf("delete in use: want 409, got %d", rec.Code)
	}
	if rec := send(http.MethodDelete, "/api/v1/channels/web", "", admin); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: want 204, got %d", rec.Code)
	}
}

func TestSales_BuyerHistoryAndStats(t *testing.T) {
	ledger := &mockLedgerUC{
		ListSalesFunc: func(ctx context.Context, actor model.Actor, f model.SaleFilter) ([]*model.SaleRecord, int, error) {
			if f.BuyerEmail == nil || *f.BuyerEmail != "a@b.com" || f.Page.Limit != 5 {
				t.Errorf("filter not forwarded: %+v", f)
			}
			return []*model.SaleRecord{{ID: "s1", BuyerEmail: "a@b.com"}}, 1, nil
		},
		StatsFunc: func(ctx context.Context, actor model.Actor, f model.SaleFilter) (*model.SaleStats, error) {
			if f.From == nil || f.CardName == nil || *f.CardName != "plus" {
				t.Errorf("filter not forwarded: %+v", f)
			}
			return &model.SaleStats{
				TotalSales:   2,
				TotalRevenue: decimal.NewFromInt(316),
				ByCard:       []model.CardSales{{CardName: "Plus-1M", Count: 2, Revenue: decimal.NewFromInt(316)}},
			}, nil
		},
	}
	h := newTestServer(testDeps{ledger: ledger}, 0).Routes()
	admin := bearer(t, model.Actor{ID: "root", Role: model.RoleAdmin})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales?buyer_email=a@b.com&limit=5", nil)
	req.Header.Set("Authorization", admin)
	if rec := do(h, req); rec.Code != http.StatusOK || rec.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("buyer history: %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sales/stats?card_name=plus&from=2026-01-01", nil)
	req.Header.Set("Authorization", admin)
	rec := do(h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: want 200, got %d", rec.Code)
	}
	var st model.SaleStats
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.TotalSales != 2 || len(st.ByCard) != 1 || !st.TotalRevenue.Equal(decimal.NewFromInt(316)) {
		t.Fatalf("unexpected stats %+v", st)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sales/stats", nil)
	req.Header.Set("Authorization", bearer(t, model.Actor{ID: "p1", Role: model.RoleProxy}))
	if rec := do(h, req); rec.Code != http.StatusForbidden {
		t.Fatalf("proxy stats: want 403, got %d", rec.Code)
	}
}
