package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"code-redemption/internal/domain/model"
)

type cardCreateRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Active      *bool           `json:"active"`
	ChannelID   *string         `json:"channel_id"`
}

func (s *Server) listCards(w http.ResponseWriter, r *http.Request) {
	includeInactive, err := optBool(r, "include_inactive")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	cards, err := s.cardUC.List(r.Context(), ActorFrom(r.Context()), includeInactive != nil && *includeInactive, optString(r, "channel_id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeList(w, cards, len(cards))
}

func (s *Server) createCard(w http.ResponseWriter, r *http.Request) {
	var req cardCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	card, err := s.cardUC.Create(r.Context(), ActorFrom(r.Context()), req.Name, req.Description, req.Price, active, req.ChannelID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) getCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.cardUC.Get(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "cardID"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) updateCard(w http.ResponseWriter, r *http.Request) {
	var patch model.CardPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	card, err := s.cardUC.Update(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "cardID"), patch)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) deleteCard(w http.ResponseWriter, r *http.Request) {
	cascade, err := optBool(r, "cascade")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.cardUC.Delete(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "cardID"), cascade != nil && *cascade); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cardStock(w http.ResponseWriter, r *http.Request) {
	n, err := s.codeUC.Stock(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "cardID"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"available": n})
}

// ===== codes =====

type generateRequest struct {
	Count   int     `json:"count"`
	ProxyID *string `json:"proxy_id"`
}

func (s *Server) generateCodes(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	codes, err := s.codeUC.Generate(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "cardID"), req.Count, req.ProxyID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(codes)))
	writeJSON(w, http.StatusCreated, struct {
		Items []*model.ActivationCode `json:"items"`
		Total int                     `json:"total"`
	}{codes, len(codes)})
}

func (s *Server) listCodes(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	exported, err := optBool(r, "exported")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	f := model.CodeFilter{
		CardID:   chi.URLParam(r, "cardID"),
		ProxyID:  optString(r, "proxy_id"),
		Exported: exported,
		Page:     page,
	}
	if st := optString(r, "status"); st != nil {
		status := model.CodeStatus(*st)
		f.Status = &status
	}
	codes, total, err := s.codeUC.List(r.Context(), ActorFrom(r.Context()), f)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeList(w, codes, total)
}

func (s *Server) deleteCodes(w http.ResponseWriter, r *http.Request) {
	n, err := s.codeUC.DeleteAllForCard(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "cardID"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) checkCode(w http.ResponseWriter, r *http.Request) {
	ok, err := s.codeUC.Check(r.Context(), ActorFrom(r.Context()), r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": ok})
}

type exportRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) exportCodes(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	n, err := s.codeUC.MarkExported(r.Context(), ActorFrom(r.Context()), req.IDs)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"exported": n})
}
