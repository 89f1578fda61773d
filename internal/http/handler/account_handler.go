package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/config"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/httpx"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/repository"
)

// AccountHandler serves /api/v1/accounts.
type AccountHandler struct {
	accounts repository.AccountRepository
	node     *snowflake.Node
	responder
}

func NewAccountHandler(accounts repository.AccountRepository, node *snowflake.Node, cfg config.Config, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accounts:  accounts,
		node:      node,
		responder: responder{logger: logger, development: cfg.Environment == "development"},
	}
}

type accountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
	Balance  int64  `json:"balance"`
}

type accountDTO struct {
	ID       int64  `json:"id,string"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
	Balance  int64  `json:"balance"`
}

func toAccountDTO(a domain.Account) accountDTO {
	return accountDTO{ID: a.ID, Name: a.Name, Type: a.Type, Currency: a.Currency, Balance: a.Balance}
}

var accountTypes = map[string]bool{"checking": true, "savings": true, "credit": true, "cash": true, "investment": true}

func (req *accountRequest) validate() (domain.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Account{}, httpx.Validation("Account name is required.")
	}
	accType := req.Type
	if accType == "" {
		accType = "checking"
	}
	if !accountTypes[accType] {
		return domain.Account{}, httpx.Validation("Unknown account type.")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "BRL"
	}
	if len(currency) != 3 {
		return domain.Account{}, httpx.Validation("Currency must be a 3-letter code.")
	}
	return domain.Account{Name: name, Type: accType, Currency: currency, Balance: req.Balance}, nil
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	accounts, err := h.accounts.List(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, r, httpx.Internal(err))
		return
	}
	out := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountDTO(a))
	}
	h.ok(w, http.StatusOK, out)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	accountID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	account, err := h.accounts.Get(r.Context(), id.UserID, accountID)
	if err != nil {
		h.fail(w, r, mapRepoErr(err, "Account"))
		return
	}
	h.ok(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req accountRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	account, err := req.validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	account.ID = h.node.Generate().Int64()
	account.UserID = id.UserID

	created, err := h.accounts.Create(r.Context(), account)
	if err != nil {
		h.fail(w, r, httpx.Internal(err))
		return
	}
	h.ok(w, http.StatusCreated, toAccountDTO(created))
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	accountID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req accountRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	account, err := req.validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	account.ID = accountID
	account.UserID = id.UserID

	updated, err := h.accounts.Update(r.Context(), account)
	if err != nil {
		h.fail(w, r, mapRepoErr(err, "Account"))
		return
	}
	h.ok(w, http.StatusOK, toAccountDTO(updated))
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	accountID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.accounts.Delete(r.Context(), id.UserID, accountID); err != nil {
		h.fail(w, r, mapRepoErr(err, "Account"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapRepoErr(err error, noun string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return httpx.NotFound(noun + " not found.")
	}
	return httpx.Internal(err)
}
