package handler

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/config"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/httpx"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/repository"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/router"
)

// AnalyticsHandler serves the read-only /api/v1/analytics endpoints.
type AnalyticsHandler struct {
	analytics repository.AnalyticsRepository
	responder
}

func NewAnalyticsHandler(analytics repository.AnalyticsRepository, cfg config.Config, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		responder: responder{logger: logger, development: cfg.Environment == "development"},
	}
}

type spendDTO struct {
	CategoryID   int64  `json:"categoryId,string"`
	CategoryName string `json:"categoryName"`
	Total        int64  `json:"total"`
}

// Spending reports expense totals per category for a date range, defaulting
// to the current calendar month.
func (h *AnalyticsHandler) Spending(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	ctx := r.Context()
	if raw := router.QueryParam(ctx, "from"); raw != "" {
		if from, err = parseDate(raw); err != nil {
			h.fail(w, r, httpx.Validation("Invalid from filter."))
			return
		}
	}
	if raw := router.QueryParam(ctx, "to"); raw != "" {
		if to, err = parseDate(raw); err != nil {
			h.fail(w, r, httpx.Validation("Invalid to filter."))
			return
		}
	}
	if !from.Before(to) {
		h.fail(w, r, httpx.Validation("from must precede to."))
		return
	}

	rows, err := h.analytics.SpendingByCategory(ctx, id.UserID, from, to)
	if err != nil {
		h.fail(w, r, httpx.Internal(err))
		return
	}
	out := make([]spendDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, spendDTO(row))
	}
	h.ok(w, http.StatusOK, out)
}

type summaryDTO struct {
	Month   string `json:"month"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
	Net     int64  `json:"net"`
}

// Summary reports income/expense totals per month.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	months := 6
	if raw := router.QueryParam(r.Context(), "months"); raw != "" {
		months, err = strconv.Atoi(raw)
		if err != nil || months <= 0 || months > 36 {
			h.fail(w, r, httpx.Validation("months must be between 1 and 36."))
			return
		}
	}

	rows, err := h.analytics.MonthlySummary(r.Context(), id.UserID, months)
	if err != nil {
		h.fail(w, r, httpx.Internal(err))
		return
	}
	out := make([]summaryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, monthlyDTO(row))
	}
	h.ok(w, http.StatusOK, out)
}

func monthlyDTO(m domain.MonthlySummary) summaryDTO {
	return summaryDTO{Month: m.Month, Income: m.Income, Expense: m.Expense, Net: m.Income - m.Expense}
}
