package http

import (
	"net/http"
	"strings"

	"ledger/internal/core"
)

type recurringRequest struct {
	Type       string      `json:"type"`
	CategoryID int64       `json:"categoryId"`
	Amount     numberField `json:"amount"`
	Note       string      `json:"note"`
	Frequency  string      `json:"frequency"`
	NextRun    core.Date   `json:"nextRun"`
	Active     *bool       `json:"active"`
}

// toPayment defaults active to true when omitted.
func (req recurringRequest) toPayment() (core.RecurringPayment, error) {
	r := core.RecurringPayment{
		Type:       core.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		CategoryID: req.CategoryID,
		Note:       strings.TrimSpace(req.Note),
		Frequency:  core.Frequency(strings.ToUpper(strings.TrimSpace(req.Frequency))),
		NextRun:    req.NextRun,
		Active:     req.Active == nil || *req.Active,
	}
	var amountErr error
	r.Amount, amountErr = req.Amount.amount()
	if err := withAmountError(amountErr, r.Validate()); err != nil {
		return core.RecurringPayment{}, err
	}
	return r, nil
}

type activeRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Recurring.List(r.Context(), ownerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if out == nil {
		out = []core.RecurringPayment{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	in, err := req.toPayment()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	created, err := s.svc.Recurring.Create(r.Context(), ownerID(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSetRecurringActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req activeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.Active == nil {
		writeServiceError(w, r, core.Invalid("active", "is required"))
		return
	}
	updated, err := s.svc.Recurring.SetActive(r.Context(), ownerID(r), id, *req.Active)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.svc.Recurring.Delete(r.Context(), ownerID(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
