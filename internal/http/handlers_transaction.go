package http

import (
	"fmt"
	"net/http"
	"strconv"

	"finmood/internal/core"
	"finmood/internal/ledger"
	"finmood/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Transactions: toTransactionResponses(st.Transactions),
		Balance:      st.Total.Float(),
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tx, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.parseTransaction(w, r, 0)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	created, err := s.ledger.Create(r.Context(), tx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.events.LogTransaction(r.Context(), log.OpCreate, created.ID, created.Date.String(), created.Amount.Cents)

	w.Header().Set("Location", "/transactions/"+strconv.FormatInt(created.ID, 10))
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tx, err := s.parseTransaction(w, r, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	updated, err := s.ledger.Update(r.Context(), tx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.events.LogTransaction(r.Context(), log.OpUpdate, updated.ID, updated.Date.String(), updated.Amount.Cents)
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.events.LogTransaction(r.Context(), log.OpDelete, id, "", 0)
	w.WriteHeader(http.StatusNoContent)
}

// handleSearchTransactions reads min_amount and max_amount from the query
// on GET and from the body on POST.
func (s *Server) handleSearchTransactions(w http.ResponseWriter, r *http.Request) {
	p := NewQueryParser(r.URL.Query())
	if r.Method == http.MethodPost {
		p = NewRequestBodyParser(w, r)
	}
	if err := p.Parse(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	req := searchRequest{MinAmount: p.Get("min_amount"), MaxAmount: p.Get("max_amount")}
	if err := s.validate.Struct(req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	rng, err := req.toRange()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := rng.Validate(); err != nil {
		writeDomainError(w, r, fmt.Errorf("%w: %w", ledger.ErrInvalidRange, err))
		return
	}

	st, err := s.ledger.Search(r.Context(), rng)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Transactions: toTransactionResponses(st.Transactions),
		TotalBalance: st.Total.Float(),
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	b, err := s.ledger.Balance(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: b.Float()})
}

func (s *Server) parseTransaction(w http.ResponseWriter, r *http.Request, id int64) (core.Transaction, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return core.Transaction{}, err
	}
	req := transactionRequest{
		Date:        p.Get("date"),
		Amount:      p.Get("amount"),
		Description: p.Get("description"),
	}
	if err := s.validate.Struct(req); err != nil {
		return core.Transaction{}, err
	}
	return req.toTransaction(id)
}

// pathID parses the {id} wildcard, answering 400 itself when it is not a
// positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid transaction id")
		return 0, false
	}
	return id, true
}
