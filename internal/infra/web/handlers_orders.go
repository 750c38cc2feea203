package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"code-redemption/internal/domain/model"
)

type purchaseRequest struct {
	Email   string `json:"email"`
	Remarks string `json:"remarks"`
}

func (s *Server) purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	o, err := s.orderUC.Purchase(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "cardID"), req.Email, req.Remarks)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

type redeemRequest struct {
	Code      string  `json:"code"`
	Remarks   string  `json:"remarks"`
	ChannelID *string `json:"channel_id"`
}

func (s *Server) redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	o, err := s.orderUC.Redeem(r.Context(), ActorFrom(r.Context()), req.Code, req.Remarks, req.ChannelID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	f := model.OrderFilter{ChannelID: optString(r, "channel_id"), Page: page}
	// status=pending,processing or repeated status params
	for _, v := range r.URL.Query()["status"] {
		for _, st := range strings.Split(v, ",") {
			if st = strings.TrimSpace(st); st != "" {
				f.Statuses = append(f.Statuses, model.OrderStatus(st))
			}
		}
	}
	orders, total, err := s.orderUC.List(r.Context(), ActorFrom(r.Context()), f)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeList(w, orders, total)
}

func (s *Server) orderStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.orderUC.Stats(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) myOrders(w http.ResponseWriter, r *http.Request) {
	s.pagedOrders(w, r, s.orderUC.ListMine)
}

func (s *Server) orderQueue(w http.ResponseWriter, r *http.Request) {
	s.pagedOrders(w, r, s.orderUC.ListQueue)
}

func (s *Server) pagedOrders(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, actor model.Actor, p model.Page) ([]*model.Order, int, error)) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	orders, total, err := list(r.Context(), ActorFrom(r.Context()), page)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeList(w, orders, total)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.orderUC.Get(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) startOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.orderUC.Start(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type completeRequest struct {
	Remarks string `json:"remarks"`
}

func (s *Server) completeOrder(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, s.log, err)
			return
		}
	}
	o, err := s.orderUC.Complete(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "orderID"), req.Remarks)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// ===== ledger =====

// saleFilterFrom reads the ledger filter shared by the list and stats views.
func saleFilterFrom(r *http.Request) (model.SaleFilter, error) {
	page, err := pageFrom(r)
	if err != nil {
		return model.SaleFilter{}, err
	}
	from, err := optTime(r, "from")
	if err != nil {
		return model.SaleFilter{}, err
	}
	to, err := optTime(r, "to")
	if err != nil {
		return model.SaleFilter{}, err
	}
	return model.SaleFilter{
		CardName:   optString(r, "card_name"),
		BuyerEmail: optString(r, "buyer_email"),
		From:       from,
		To:         to,
		Page:       page,
	}, nil
}

func (s *Server) listSales(w http.ResponseWriter, r *http.Request) {
	f, err := saleFilterFrom(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	sales, total, err := s.ledgerUC.ListSales(r.Context(), ActorFrom(r.Context()), f)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeList(w, sales, total)
}

func (s *Server) salesStats(w http.ResponseWriter, r *http.Request) {
	f, err := saleFilterFrom(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	st, err := s.ledgerUC.Stats(r.Context(), ActorFrom(r.Context()), f)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) revenue(w http.ResponseWriter, r *http.Request) {
	from, err := optTime(r, "from")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	to, err := optTime(r, "to")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out, err := s.ledgerUC.Revenue(r.Context(), ActorFrom(r.Context()), model.RevenueQuery{
		ProxyID:   optString(r, "proxy_id"),
		ChannelID: optString(r, "channel_id"),
		Query:     r.URL.Query().Get("q"),
		From:      from,
		To:        to,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeList(w, out, len(out))
}
