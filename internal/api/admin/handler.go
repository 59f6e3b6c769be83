// Package admin expõe a administração de contas de usuário.
package admin

import (
	"context"
	"net/http"

	"gomarket/internal/api/params"
	"gomarket/internal/domain"
	"gomarket/internal/pkg/listing"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/middleware"
	"gomarket/internal/pkg/projection"
	"gomarket/internal/pkg/response"
	"gomarket/internal/service/userservice"
)

// UserAdminService é o recorte administrativo do serviço de usuários.
type UserAdminService interface {
	ListUsers(ctx context.Context, id domain.Identity, req userservice.ListRequest) (domain.Page[domain.User], error)
	UpdateStatus(ctx context.Context, id domain.Identity, userID, status string) (domain.User, error)
}

// ListUsersResponse é o envelope da listagem de usuários.
type ListUsersResponse struct {
	Users      []projection.UserView `json:"users"`
	Pagination domain.Pagination     `json:"pagination"`
}

// StatusRequest é o corpo do PATCH de status da conta.
type StatusRequest struct {
	Status string `json:"status" example:"SUSPENDED"`
}

type Handler struct {
	Service UserAdminService
	Logger  logger.Logger
}

func NewHandler(svc UserAdminService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ListUsersHandler lida com a requisição GET /v1/admin/users.
// @Summary Lista usuários
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Página"
// @Param limit query int false "Itens por página"
// @Param role query string false "ADMIN | SELLER | INSTRUCTOR | CUSTOMER"
// @Param status query string false "ACTIVE | INACTIVE | SUSPENDED"
// @Param search query string false "Busca em nome e e-mail"
// @Success 200 {object} ListUsersResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /admin/users [get]
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, sort, err := params.Listing(q, listing.UserSort)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	result, err := h.Service.ListUsers(r.Context(), middleware.IdentityFromContext(r.Context()), userservice.ListRequest{
		Page:   page,
		Sort:   sort,
		Filter: listing.ParseUserFilter(q),
	})
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, ListUsersResponse{
		Users:      projection.List(result.Items, projection.User),
		Pagination: result.Pagination,
	})
}

// UpdateUserStatusHandler lida com a requisição PATCH /v1/admin/users/{id}/status.
// @Summary Altera o status de uma conta
// @Description O admin não pode desativar a própria conta nem o último admin ativo.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID do usuário"
// @Param status body StatusRequest true "Novo status"
// @Success 200 {object} projection.UserView
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /admin/users/{id}/status [patch]
func (h *Handler) UpdateUserStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := params.ID(r, "id", "Usuário")
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	var req StatusRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	u, err := h.Service.UpdateStatus(r.Context(), middleware.IdentityFromContext(r.Context()), userID, req.Status)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, projection.User(u))
}
