package handler

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/config"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/httpx"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/repository"
)

// CategoryHandler serves /api/v1/categories.
type CategoryHandler struct {
	categories repository.CategoryRepository
	node       *snowflake.Node
	responder
}

func NewCategoryHandler(categories repository.CategoryRepository, node *snowflake.Node, cfg config.Config, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		node:       node,
		responder:  responder{logger: logger, development: cfg.Environment == "development"},
	}
}

type categoryRequest struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color"`
}

type categoryDTO struct {
	ID    int64  `json:"id,string"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color"`
}

func toCategoryDTO(c domain.Category) categoryDTO {
	return categoryDTO{ID: c.ID, Name: c.Name, Kind: c.Kind, Color: c.Color}
}

func (req *categoryRequest) validate() (domain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, httpx.Validation("Category name is required.")
	}
	kind := req.Kind
	if kind == "" {
		kind = "expense"
	}
	if kind != "income" && kind != "expense" {
		return domain.Category{}, httpx.Validation("Kind must be income or expense.")
	}
	return domain.Category{Name: name, Kind: kind, Color: strings.TrimSpace(req.Color)}, nil
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	categories, err := h.categories.List(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, r, httpx.Internal(err))
		return
	}
	out := make([]categoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryDTO(c))
	}
	h.ok(w, http.StatusOK, out)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	categoryID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	category, err := h.categories.Get(r.Context(), id.UserID, categoryID)
	if err != nil {
		h.fail(w, r, mapRepoErr(err, "Category"))
		return
	}
	h.ok(w, http.StatusOK, toCategoryDTO(category))
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	category, err := req.validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	category.ID = h.node.Generate().Int64()
	category.UserID = id.UserID

	created, err := h.categories.Create(r.Context(), category)
	if err != nil {
		h.fail(w, r, httpx.Internal(err))
		return
	}
	h.ok(w, http.StatusCreated, toCategoryDTO(created))
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	categoryID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	category, err := req.validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	category.ID = categoryID
	category.UserID = id.UserID

	updated, err := h.categories.Update(r.Context(), category)
	if err != nil {
		h.fail(w, r, mapRepoErr(err, "Category"))
		return
	}
	h.ok(w, http.StatusOK, toCategoryDTO(updated))
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	categoryID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.categories.Delete(r.Context(), id.UserID, categoryID); err != nil {
		h.fail(w, r, mapRepoErr(err, "Category"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
