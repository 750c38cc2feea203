package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"code-redemption/internal/domain/model"
)

type channelCreateRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) listChannels(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	channels, total, err := s.channelUC.List(r.Context(), ActorFrom(r.Context()), page)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeList(w, channels, total)
}

func (s *Server) createChannel(w http.ResponseWriter, r *http.Request) {
	var req channelCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	ch, err := s.channelUC.Create(r.Context(), ActorFrom(r.Context()), req.ID, req.Name, req.Description)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

func (s *Server) getChannel(w http.ResponseWriter, r *http.Request) {
	ch, err := s.channelUC.Get(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "channelID"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) updateChannel(w http.ResponseWriter, r *http.Request) {
	var patch model.ChannelPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	ch, err := s.channelUC.Update(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "channelID"), patch)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) deleteChannel(w http.ResponseWriter, r *http.Request) {
	if err := s.channelUC.Delete(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "channelID")); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
