package handler

import (
	"net/http"
	"regexp"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/config"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/httpx"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/repository"
)

// BudgetHandler serves /api/v1/budgets.
type BudgetHandler struct {
	budgets repository.BudgetRepository
	node    *snowflake.Node
	responder
}

func NewBudgetHandler(budgets repository.BudgetRepository, node *snowflake.Node, cfg config.Config, logger *zap.Logger) *BudgetHandler {
	return &BudgetHandler{
		budgets:   budgets,
		node:      node,
		responder: responder{logger: logger, development: cfg.Environment == "development"},
	}
}

type budgetRequest struct {
	CategoryID int64  `json:"categoryId,string"`
	Month      string `json:"month"`
	Limit      int64  `json:"limit"`
}

type budgetDTO struct {
	ID         int64  `json:"id,string"`
	CategoryID int64  `json:"categoryId,string"`
	Month      string `json:"month"`
	Limit      int64  `json:"limit"`
}

func toBudgetDTO(b domain.Budget) budgetDTO {
	return budgetDTO{ID: b.ID, CategoryID: b.CategoryID, Month: b.Month, Limit: b.Limit}
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func (req *budgetRequest) validate() (domain.Budget, error) {
	if req.CategoryID <= 0 {
		return domain.Budget{}, httpx.Validation("categoryId is required.")
	}
	if !monthPattern.MatchString(req.Month) {
		return domain.Budget{}, httpx.Validation("Month must be YYYY-MM.")
	}
	if req.Limit <= 0 {
		return domain.Budget{}, httpx.Validation("Limit must be positive.")
	}
	return domain.Budget{CategoryID: req.CategoryID, Month: req.Month, Limit: req.Limit}, nil
}

func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	budgets, err := h.budgets.List(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, r, httpx.Internal(err))
		return
	}
	out := make([]budgetDTO, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetDTO(b))
	}
	h.ok(w, http.StatusOK, out)
}

func (h *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	budgetID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	budget, err := h.budgets.Get(r.Context(), id.UserID, budgetID)
	if err != nil {
		h.fail(w, r, mapRepoErr(err, "Budget"))
		return
	}
	h.ok(w, http.StatusOK, toBudgetDTO(budget))
}

func (h *BudgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req budgetRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	budget, err := req.validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	budget.ID = h.node.Generate().Int64()
	budget.UserID = id.UserID

	created, err := h.budgets.Create(r.Context(), budget)
	if err != nil {
		h.fail(w, r, httpx.Internal(err))
		return
	}
	h.ok(w, http.StatusCreated, toBudgetDTO(created))
}

func (h *BudgetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	budgetID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req budgetRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	budget, err := req.validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	budget.ID = budgetID
	budget.UserID = id.UserID

	updated, err := h.budgets.Update(r.Context(), budget)
	if err != nil {
		h.fail(w, r, mapRepoErr(err, "Budget"))
		return
	}
	h.ok(w, http.StatusOK, toBudgetDTO(updated))
}

func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	budgetID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.budgets.Delete(r.Context(), id.UserID, budgetID); err != nil {
		h.fail(w, r, mapRepoErr(err, "Budget"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
