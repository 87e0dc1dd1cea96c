package web

import (
	"net/http"

	"github.com/JonMunkholm/setdecoder/internal/history"
	"github.com/JonMunkholm/setdecoder/internal/web/templates"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const defaultRunLimit = 50

// handleListRuns returns recorded runs, newest first (?limit=, default 50).
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultRunLimit)
	if limit > maxRowLimit {
		limit = maxRowLimit
	}

	runs, err := s.runs.List(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	s.respond(w, r, runs, templates.HistoryTable(runs))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, history.ErrRunNotFound, http.StatusNotFound)
		return
	}

	run, err := s.runs.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}
