package http

import (
	"net/http"

	"budgetly/internal/core"
	"budgetly/internal/log"
)

type budgetResponse struct {
	Budget core.Money `json:"budget"`
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, budgetResponse{Budget: s.store.Snapshot().Budget})
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.logger.WarnContext(r.Context(), "Invalid request body", log.FieldError, err, log.FieldPath, r.URL.Path)
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	budget, err := ParseBudget(p)
	if err != nil {
		writeMutationError(w, r, err)
		return
	}
	if err := s.store.SetBudget(r.Context(), budget); err != nil {
		writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{Budget: budget})
}
