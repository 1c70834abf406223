package http

import (
	"net/http"
	"strings"

	"ledger/internal/core"
	"ledger/internal/services"
)

type transactionRequest struct {
	Type            string      `json:"type"`
	CategoryID      int64       `json:"categoryId"`
	Amount          numberField `json:"amount"`
	Note            string      `json:"note"`
	TransactionDate core.Date   `json:"transactionDate"`
}

// toTransaction normalizes the type and reports every invalid field at once.
func (req transactionRequest) toTransaction() (core.Transaction, error) {
	tx := core.Transaction{
		Type:       core.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		CategoryID: req.CategoryID,
		Note:       strings.TrimSpace(req.Note),
		Date:       req.TransactionDate,
	}
	var amountErr error
	tx.Amount, amountErr = req.Amount.amount()
	if err := withAmountError(amountErr, tx.Validate()); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	categoryID, err := queryInt64(r, "categoryId")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	page, err := queryInt(r, "page", 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	size, err := queryInt(r, "size", 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	result, err := s.svc.Transactions.List(r.Context(), ownerID(r), services.FilterParams{
		Type:       q.Get("type"),
		CategoryID: categoryID,
		Month:      strings.TrimSpace(q.Get("month")),
	}, core.PageRequest{Page: page, Size: size})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := s.svc.Transactions.Get(r.Context(), ownerID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	in, err := req.toTransaction()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := s.svc.Transactions.Create(r.Context(), ownerID(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	in, err := req.toTransaction()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := s.svc.Transactions.Update(r.Context(), ownerID(r), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.svc.Transactions.Delete(r.Context(), ownerID(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
