package http

import (
	"net/http"

	"ledger/internal/core"
	"ledger/internal/repository"
)

// handleListTransactions accepts optional accountId, categoryId and limit
// query parameters.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var filter repository.TransactionFilter
	var err error
	if filter.AccountID, err = queryInt(r, "accountId"); err != nil {
		withRequestID(BadRequestError(err.Error()), r).Write(w)
		return
	}
	if filter.CategoryID, err = queryInt(r, "categoryId"); err != nil {
		withRequestID(BadRequestError(err.Error()), r).Write(w)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		withRequestID(BadRequestError(err.Error()), r).Write(w)
		return
	}
	filter.Limit = int(limit)

	txs, err := s.ledger.ListTransactions(r.Context(), filter)
	s.reply(w, r, http.StatusOK, txs, err)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if !bodyOrFail(w, r, &tx) {
		return
	}
	tx.ID = 0
	created, err := s.ledger.CreateTransaction(r.Context(), tx)
	s.reply(w, r, http.StatusCreated, created, err)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	tx, err := s.ledger.GetTransaction(r.Context(), id)
	s.reply(w, r, http.StatusOK, tx, err)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	var tx core.Transaction
	if !bodyOrFail(w, r, &tx) {
		return
	}
	tx.ID = id
	updated, err := s.ledger.UpdateTransaction(r.Context(), tx)
	s.reply(w, r, http.StatusOK, updated, err)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	s.reply(w, r, http.StatusNoContent, nil, s.ledger.DeleteTransaction(r.Context(), id))
}

func (s *Server) handleTransactionDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idOrFail(w, r)
	if !ok {
		return
	}
	detail, err := s.ledger.GetTransactionDetail(r.Context(), id)
	s.reply(w, r, http.StatusOK, detail, err)
}
