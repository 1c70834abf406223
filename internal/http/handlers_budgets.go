package http

import (
	"errors"
	"net/http"

	"ledger/internal/core"
)

type budgetRequest struct {
	Category         string      `json:"category"`
	Month            string      `json:"month"`
	LimitAmount      numberField `json:"limitAmount"`
	WarningThreshold numberField `json:"warningThreshold"`
}

func (req budgetRequest) toBudget() (core.Budget, error) {
	var errs []error
	b := core.Budget{Category: req.Category}

	if m, err := core.ParseMonth(req.Month); err != nil {
		errs = append(errs, err)
	} else {
		b.Month = m
	}

	if !req.LimitAmount.isSet() {
		errs = append(errs, core.Invalid("limitAmount", "is required"))
	} else if limit, err := req.LimitAmount.nonNegative("limitAmount"); err != nil {
		errs = append(errs, err)
	} else {
		b.Limit = limit
	}

	// Zero is replaced by the service default.
	if req.WarningThreshold.isSet() {
		t, err := core.ParseThreshold(string(req.WarningThreshold))
		if err != nil {
			errs = append(errs, err)
		} else {
			b.WarningThreshold = t
		}
	}
	return b, errors.Join(errs...)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Budgets.ListWithStatus(r.Context(), ownerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if out == nil {
		out = []core.BudgetSummary{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	in, err := req.toBudget()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	b, err := s.svc.Budgets.Create(r.Context(), ownerID(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), ownerID(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
