package http

import (
	"net/http"

	"budgetly/internal/analytics"
	"budgetly/internal/core"
	"budgetly/internal/log"
)

type expenseListResponse struct {
	Expenses []core.Expense `json:"expenses"`
	Count    int            `json:"count"`
	Total    core.Money     `json:"total"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	items := analytics.Filter(s.store.Snapshot().Expenses, q)
	writeJSON(w, http.StatusOK, expenseListResponse{
		Expenses: items,
		Count:    len(items),
		Total:    analytics.TotalSpending(items),
	})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "expense not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.logger.WarnContext(r.Context(), "Invalid request body", log.FieldError, err, log.FieldPath, r.URL.Path)
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := ParseExpense(p, core.DateOf(s.clock.Now()))
	if err != nil {
		writeMutationError(w, r, err)
		return
	}

	created, err := s.store.Add(r.Context(), e)
	if err != nil {
		writeMutationError(w, r, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+created.ID).
		Body(created).
		Write(w)
}

// handleUpdateExpense replaces every field of an existing expense. The id in
// the path wins over any id in the body.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, ok := s.store.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "expense not found")
		return
	}

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.logger.WarnContext(r.Context(), "Invalid request body", log.FieldError, err, log.FieldPath, r.URL.Path)
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := ParseExpense(p, existing.Date)
	if err != nil {
		writeMutationError(w, r, err)
		return
	}
	e.ID = id

	updated, err := s.store.Edit(r.Context(), e)
	if err != nil {
		writeMutationError(w, r, err)
		return
	}
	if !updated {
		// Removed between the lookup and the edit.
		writeError(w, r, http.StatusNotFound, "expense not found")
		return
	}

	e, _ = s.store.Get(id)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if !s.store.Remove(r.Context(), r.PathValue("id")) {
		writeError(w, r, http.StatusNotFound, "expense not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
