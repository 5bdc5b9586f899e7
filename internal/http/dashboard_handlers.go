package http

import (
	"net/http"
	"time"

	"finova/internal/analytics"
	"finova/internal/core"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	list, err := s.txSvc.Snapshot(r.Context(), ownerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": analytics.Summarize(list),
		"recent":  analytics.Recent(list, 5),
	})
}

type categoryRow struct {
	Category string `json:"category"`
	Cents    int64  `json:"cents"`
	Share    int    `json:"share"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.txSvc.Snapshot(r.Context(), ownerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	spend := analytics.CategorySpend(list)
	totalExpense := analytics.TotalByKind(list, core.Expense)
	rows := make([]categoryRow, 0, len(spend))
	for _, c := range spend {
		rows = append(rows, categoryRow{
			Category: string(c.Category),
			Cents:    c.Cents,
			Share:    analytics.ExpenseShare(c.Cents, totalExpense),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": rows,
		"max_spend":  analytics.MaxSpend(spend),
	})
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	list, err := s.txSvc.Snapshot(r.Context(), ownerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	series := analytics.MonthlySeries(list, time.Now())
	writeJSON(w, http.StatusOK, map[string]any{
		"months":      series,
		"max_monthly": analytics.MaxMonthly(series),
	})
}
