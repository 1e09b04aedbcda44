package http

import (
	"net/http"

	"ledger/internal/core"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context())
	s.reply(w, r, http.StatusOK, accounts, err)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a core.Account
	if !bodyOrFail(w, r, &a) {
		return
	}
	a.ID = 0
	created, err := s.ledger.CreateAccount(r.Context(), a)
	s.reply(w, r, http.StatusCreated, created, err)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	a, err := s.ledger.GetAccount(r.Context(), id)
	s.reply(w, r, http.StatusOK, a, err)
}

// handleUpdateAccount replaces the mutable fields; the type in the body is
// ignored.
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	var a core.Account
	if !bodyOrFail(w, r, &a) {
		return
	}
	a.ID = id
	updated, err := s.ledger.UpdateAccount(r.Context(), a)
	s.reply(w, r, http.StatusOK, updated, err)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	s.reply(w, r, http.StatusNoContent, nil, s.ledger.DeleteAccount(r.Context(), id))
}

func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	txs, err := s.ledger.AccountTransactions(r.Context(), id)
	s.reply(w, r, http.StatusOK, txs, err)
}
