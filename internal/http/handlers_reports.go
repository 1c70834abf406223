package http

import (
	"net/http"
	"strings"

	"ledger/internal/core"
)

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	monthsBack, err := queryInt(r, "monthsBack", 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items, err := s.svc.Reports.Monthly(r.Context(), ownerID(r), monthsBack)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []core.MonthlyReportItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Reports.ByCategory(r.Context(), ownerID(r), strings.TrimSpace(r.URL.Query().Get("month")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []core.CategoryReportItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSpendingTrend(w http.ResponseWriter, r *http.Request) {
	monthsBack, err := queryInt(r, "monthsBack", 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items, err := s.svc.Reports.SpendingTrend(r.Context(), ownerID(r), monthsBack)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []core.MonthlyReportItem{}
	}
	writeJSON(w, http.StatusOK, items)
}
