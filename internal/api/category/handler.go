package category

import (
	"context"
	"net/http"

	"gomarket/internal/domain"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/projection"
	"gomarket/internal/pkg/response"
)

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

// ListResponse é o envelope da listagem de categorias.
type ListResponse struct {
	Categories []projection.CategoryListView `json:"categories"`
}

type Handler struct {
	Service CategoryService
	Logger  logger.Logger
}

func NewHandler(svc CategoryService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ListCategoriesHandler lida com a requisição GET /v1/categories.
// @Summary Lista as categorias
// @Tags categories
// @Produce json
// @Success 200 {object} ListResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /categories [get]
func (h *Handler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, ListResponse{Categories: projection.List(items, projection.Category)})
}
