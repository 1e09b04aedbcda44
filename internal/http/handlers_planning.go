package http

import (
	"net/http"

	"ledger/internal/core"
)

// Budgets

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.ledger.ListBudgets(r.Context())
	s.reply(w, r, http.StatusOK, budgets, err)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if !bodyOrFail(w, r, &b) {
		return
	}
	b.ID = 0
	created, err := s.ledger.CreateBudget(r.Context(), b)
	s.reply(w, r, http.StatusCreated, created, err)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	b, err := s.ledger.GetBudget(r.Context(), id)
	s.reply(w, r, http.StatusOK, b, err)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	var b core.Budget
	if !bodyOrFail(w, r, &b) {
		return
	}
	b.ID = id
	updated, err := s.ledger.UpdateBudget(r.Context(), b)
	s.reply(w, r, http.StatusOK, updated, err)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	s.reply(w, r, http.StatusNoContent, nil, s.ledger.DeleteBudget(r.Context(), id))
}

// handleBudgetCategory returns the budget's category, or null for an
// overall budget.
func (s *Server) handleBudgetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	c, err := s.ledger.BudgetCategory(r.Context(), id)
	s.reply(w, r, http.StatusOK, c, err)
}

// Goals

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.ledger.ListGoals(r.Context())
	s.reply(w, r, http.StatusOK, goals, err)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if !bodyOrFail(w, r, &g) {
		return
	}
	g.ID = 0
	created, err := s.ledger.CreateGoal(r.Context(), g)
	s.reply(w, r, http.StatusCreated, created, err)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	g, err := s.ledger.GetGoal(r.Context(), id)
	s.reply(w, r, http.StatusOK, g, err)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	var g core.Goal
	if !bodyOrFail(w, r, &g) {
		return
	}
	g.ID = id
	updated, err := s.ledger.UpdateGoal(r.Context(), g)
	s.reply(w, r, http.StatusOK, updated, err)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	s.reply(w, r, http.StatusNoContent, nil, s.ledger.DeleteGoal(r.Context(), id))
}
