package http

import (
	"net/http"

	"ledger/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	typ := core.CategoryType(r.URL.Query().Get("type"))
	categories, err := s.ledger.ListCategories(r.Context(), typ)
	s.reply(w, r, http.StatusOK, categories, err)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if !bodyOrFail(w, r, &c) {
		return
	}
	c.ID = 0
	created, err := s.ledger.CreateCategory(r.Context(), c)
	s.reply(w, r, http.StatusCreated, created, err)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	c, err := s.ledger.GetCategory(r.Context(), id)
	s.reply(w, r, http.StatusOK, c, err)
}

// renameRequest is the body of PUT /categories/{id}. Only the name of a
// category can change.
type renameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if !bodyOrFail(w, r, &req) {
		return
	}
	c, err := s.ledger.RenameCategory(r.Context(), id, req.Name)
	s.reply(w, r, http.StatusOK, c, err)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	s.reply(w, r, http.StatusNoContent, nil, s.ledger.DeleteCategory(r.Context(), id))
}

func (s *Server) handleCategoryTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	txs, err := s.ledger.CategoryTransactions(r.Context(), id)
	s.reply(w, r, http.StatusOK, txs, err)
}

func (s *Server) handleCategoryBudgets(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	budgets, err := s.ledger.CategoryBudgets(r.Context(), id)
	s.reply(w, r, http.StatusOK, budgets, err)
}
