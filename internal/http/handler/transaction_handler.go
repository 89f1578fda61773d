package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/config"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/httpx"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/repository"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/router"
)

// TransactionHandler serves /api/v1/transactions.
type TransactionHandler struct {
	transactions repository.TransactionRepository
	node         *snowflake.Node
	responder
}

func NewTransactionHandler(transactions repository.TransactionRepository, node *snowflake.Node, cfg config.Config, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactions: transactions,
		node:         node,
		responder:    responder{logger: logger, development: cfg.Environment == "development"},
	}
}

type transactionRequest struct {
	AccountID   int64  `json:"accountId,string"`
	CategoryID  int64  `json:"categoryId,string"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	OccurredAt  string `json:"occurredAt"`
}

type transactionDTO struct {
	ID          int64     `json:"id,string"`
	AccountID   int64     `json:"accountId,string"`
	CategoryID  int64     `json:"categoryId,string"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func toTransactionDTO(t domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID,
		Amount:      t.Amount,
		Description: t.Description,
		OccurredAt:  t.OccurredAt,
	}
}

func (req *transactionRequest) validate() (domain.Transaction, error) {
	if req.AccountID <= 0 {
		return domain.Transaction{}, httpx.Validation("accountId is required.")
	}
	if req.CategoryID <= 0 {
		return domain.Transaction{}, httpx.Validation("categoryId is required.")
	}
	if req.Amount == 0 {
		return domain.Transaction{}, httpx.Validation("Amount must be non-zero.")
	}
	occurredAt, err := parseDate(req.OccurredAt)
	if err != nil {
		return domain.Transaction{}, err
	}
	return domain.Transaction{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		OccurredAt:  occurredAt,
	}, nil
}

// parseDate accepts RFC 3339 timestamps or bare dates.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, httpx.Validation("occurredAt is required.")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, httpx.Validation("occurredAt must be an RFC 3339 timestamp or YYYY-MM-DD.")
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	filter, err := listFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	transactions, err := h.transactions.List(r.Context(), id.UserID, filter)
	if err != nil {
		h.fail(w, r, httpx.Internal(err))
		return
	}
	out := make([]transactionDTO, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionDTO(t))
	}
	h.ok(w, http.StatusOK, out)
}

func listFilter(r *http.Request) (domain.TransactionFilter, error) {
	ctx := r.Context()
	var filter domain.TransactionFilter

	parseID := func(name string) (int64, error) {
		raw := router.QueryParam(ctx, name)
		if raw == "" {
			return 0, nil
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return 0, httpx.Validation("Invalid " + name + " filter.")
		}
		return id, nil
	}

	var err error
	if filter.AccountID, err = parseID("account"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = parseID("category"); err != nil {
		return filter, err
	}
	if raw := router.QueryParam(ctx, "from"); raw != "" {
		if filter.From, err = parseDate(raw); err != nil {
			return filter, httpx.Validation("Invalid from filter.")
		}
	}
	if raw := router.QueryParam(ctx, "to"); raw != "" {
		if filter.To, err = parseDate(raw); err != nil {
			return filter, httpx.Validation("Invalid to filter.")
		}
	}
	if raw := router.QueryParam(ctx, "limit"); raw != "" {
		if filter.Limit, err = strconv.Atoi(raw); err != nil || filter.Limit < 0 {
			return filter, httpx.Validation("Invalid limit filter.")
		}
	}
	if raw := router.QueryParam(ctx, "offset"); raw != "" {
		if filter.Offset, err = strconv.Atoi(raw); err != nil || filter.Offset < 0 {
			return filter, httpx.Validation("Invalid offset filter.")
		}
	}
	return filter, nil
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	txID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tx, err := h.transactions.Get(r.Context(), id.UserID, txID)
	if err != nil {
		h.fail(w, r, mapRepoErr(err, "Transaction"))
		return
	}
	h.ok(w, http.StatusOK, toTransactionDTO(tx))
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req transactionRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	tx, err := req.validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tx.ID = h.node.Generate().Int64()
	tx.UserID = id.UserID

	created, err := h.transactions.Create(r.Context(), tx)
	if err != nil {
		h.fail(w, r, httpx.Internal(err))
		return
	}
	h.ok(w, http.StatusCreated, toTransactionDTO(created))
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	txID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req transactionRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	tx, err := req.validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tx.ID = txID
	tx.UserID = id.UserID

	updated, err := h.transactions.Update(r.Context(), tx)
	if err != nil {
		h.fail(w, r, mapRepoErr(err, "Transaction"))
		return
	}
	h.ok(w, http.StatusOK, toTransactionDTO(updated))
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	txID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.transactions.Delete(r.Context(), id.UserID, txID); err != nil {
		h.fail(w, r, mapRepoErr(err, "Transaction"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
