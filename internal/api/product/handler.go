package product

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
	"gomarket/internal/pkg/validation"
	"gomarket/internal/service/productservice"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	List(ctx context.Context, id domain.Identity, req productservice.ListRequest) (domain.Page[domain.Product], error)
	ListMine(ctx context.Context, id domain.Identity, req productservice.ListRequest) (domain.Page[domain.Product], error)
	Get(ctx context.Context, id domain.Identity, productID string) (domain.Product, error)
	Create(ctx context.Context, id domain.Identity, in domain.ProductInput) (domain.Product, error)
	Update(ctx context.Context, id domain.Identity, productID string, in domain.ProductInput) (domain.Product, error)
	ChangeStatus(ctx context.Context, id domain.Identity, productID, status string) (domain.Product, error)
	Delete(ctx context.Context, id domain.Identity, productID string) error
	Related(ctx context.Context, id domain.Identity, productID string, limit int) ([]domain.Product, error)
	AdjustStock(ctx context.Context, id domain.Identity, productID string, delta int) (domain.Product, error)
}

// PayloadValidator valida o corpo bruto contra um JSON Schema.
type PayloadValidator interface {
	Validate(schemaName string, body []byte) error
}

// ListResponse é o envelope da listagem de produtos.
type ListResponse struct {
	Products   []projection.ProductView `json:"products"`
	Pagination domain.Pagination        `json:"pagination"`
}

// RelatedResponse é o envelope dos produtos relacionados.
type RelatedResponse struct {
	Products []projection.ProductView `json:"products"`
}

// StatusRequest é o corpo do PATCH de status.
type StatusRequest struct {
	Status string `json:"status" example:"ACTIVE"`
}

// StockRequest é o ajuste de estoque: positivo para entrada, negativo para baixa.
type StockRequest struct {
	Delta int `json:"delta" example:"-2"`
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service   ProductService
	Validator PayloadValidator
	Logger    logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, validator PayloadValidator, log logger.Logger) *Handler {
	return &Handler{
		Service:   svc,
		Validator: validator,
		Logger:    log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, successStatus, data)
}

func (h *Handler) listRequest(r *http.Request) (productservice.ListRequest, error) {
	q := r.URL.Query()
	page, sort, err := params.Listing(q, listing.ProductSort)
	if err != nil {
		return productservice.ListRequest{}, err
	}
	return productservice.ListRequest{Page: page, Sort: sort, Filter: listing.ParseProductFilter(q)}, nil
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, page domain.Page[domain.Product], err error) {
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, ListResponse{
		Products:   projection.List(page.Items, projection.Product),
		Pagination: page.Pagination,
	}, nil, http.StatusOK)
}

// ListProductsHandler lida com a requisição GET /v1/products.
// @Summary Lista produtos
// @Description Listagem paginada com filtros. Visitantes veem apenas produtos ACTIVE.
// @Tags products
// @Produce json
// @Param page query int false "Página (padrão 1)"
// @Param limit query int false "Itens por página (padrão 12, máximo 100)"
// @Param sortBy query string false "createdAt | price | name"
// @Param sortOrder query string false "asc | desc"
// @Param categoryId query string false "UUID da categoria"
// @Param minPrice query number false "Preço mínimo"
// @Param maxPrice query number false "Preço máximo"
// @Param search query string false "Busca em nome, descrição e marca"
// @Param brand query string false "Marca"
// @Param skinType query string false "Tipo de pele"
// @Param tag query string false "Tag"
// @Param sellerId query string false "UUID do vendedor"
// @Param status query string false "Status (apenas admin)"
// @Success 200 {object} ListResponse
// @Failure 400 {object} domain.ErrorResponse "page ou limit não inteiros"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	req, err := h.listRequest(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	page, err := h.Service.List(r.Context(), middleware.IdentityFromContext(r.Context()), req)
	h.respondList(w, r, page, err)
}

// ListMyProductsHandler lida com a requisição GET /v1/seller/products.
// @Summary Lista os produtos do vendedor autenticado
// @Description Todos os status; o filtro sellerId é sempre o do token.
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param page query int false "Página"
// @Param limit query int false "Itens por página"
// @Param status query string false "Status"
// @Success 200 {object} ListResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /seller/products [get]
func (h *Handler) ListMyProductsHandler(w http.ResponseWriter, r *http.Request) {
	req, err := h.listRequest(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	page, err := h.Service.ListMine(r.Context(), middleware.IdentityFromContext(r.Context()), req)
	h.respondList(w, r, page, err)
}

// GetProductByIDHandler lida com a requisição GET /v1/products/{id}.
// @Summary Busca um produto pelo ID
// @Tags products
// @Produce json
// @Param id path string true "UUID do produto"
// @Success 200 {object} projection.ProductView
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id} [get]
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := params.ID(r, "id", "Produto")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	p, err := h.Service.Get(r.Context(), middleware.IdentityFromContext(r.Context()), productID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, projection.ProductDetail(p), nil, http.StatusOK)
}

// RelatedProductsHandler lida com a requisição GET /v1/products/{id}/related.
// @Summary Produtos relacionados
// @Description Produtos ativos da mesma categoria ou marca, ordenados por semelhança.
// @Tags products
// @Produce json
// @Param id path string true "UUID do produto"
// @Param limit query int false "Quantidade (padrão 4, máximo 12)"
// @Success 200 {object} RelatedResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /products/{id}/related [get]
func (h *Handler) RelatedProductsHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := params.ID(r, "id", "Produto")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	limit, err := params.OptionalInt(r.URL.Query(), "limit")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	related, err := h.Service.Related(r.Context(), middleware.IdentityFromContext(r.Context()), productID, limit)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, RelatedResponse{Products: projection.List(related, projection.Product)}, nil, http.StatusOK)
}

// readInput lê o corpo, valida contra o schema e decodifica o ProductInput.
func (h *Handler) readInput(w http.ResponseWriter, r *http.Request) (domain.ProductInput, error) {
	body, err := params.Body(w, r)
	if err != nil {
		return domain.ProductInput{}, err
	}
	if err := h.Validator.Validate(validation.SchemaProduct, body); err != nil {
		return domain.ProductInput{}, err
	}
	var in domain.ProductInput
	if err := params.Unmarshal(body, &in); err != nil {
		return domain.ProductInput{}, err
	}
	return in, nil
}

// CreateProductHandler lida com a requisição POST /v1/products.
// @Summary Cadastra um produto
// @Description O produto nasce em DRAFT e pertence ao vendedor do token.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body domain.ProductInput true "Dados do produto"
// @Success 201 {object} projection.ProductView
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	in, err := h.readInput(w, r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	id := middleware.IdentityFromContext(r.Context())
	h.Logger.Info("Tentativa de criação de produto por", map[string]interface{}{"user_id": id.UserID, "role": id.Role})

	p, err := h.Service.Create(r.Context(), id, in)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	h.handleServiceResponse(w, r, projection.ProductDetail(p), nil, http.StatusCreated)
}

// UpdateProductHandler lida com a requisição PUT /v1/products/{id}.
// @Summary Atualiza um produto
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID do produto"
// @Param product body domain.ProductInput true "Dados do produto"
// @Success 200 {object} projection.ProductView
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /products/{id} [put]
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := params.ID(r, "id", "Produto")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	in, err := h.readInput(w, r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	p, err := h.Service.Update(r.Context(), middleware.IdentityFromContext(r.Context()), productID, in)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, projection.ProductDetail(p), nil, http.StatusOK)
}

// ChangeStatusHandler lida com a requisição PATCH /v1/products/{id}/status.
// @Summary Altera o status de um produto
// @Description Segue a máquina de estados; SUSPENDED é exclusivo de admins.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID do produto"
// @Param status body StatusRequest true "Novo status"
// @Success 200 {object} projection.ProductView
// @Failure 400 {object} domain.ErrorResponse "Status inválido ou transição não permitida"
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /products/{id}/status [patch]
func (h *Handler) ChangeStatusHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := params.ID(r, "id", "Produto")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	var req StatusRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	p, err := h.Service.ChangeStatus(r.Context(), middleware.IdentityFromContext(r.Context()), productID, req.Status)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, projection.Product(p), nil, http.StatusOK)
}

// AdjustStockHandler lida com a requisição POST /v1/products/{id}/stock.
// @Summary Ajusta o estoque de um produto
// @Description Soma delta ao estoque atual. O resultado não pode ficar negativo.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID do produto"
// @Param stock body StockRequest true "Ajuste"
// @Success 200 {object} projection.ProductView
// @Failure 400 {object} domain.ErrorResponse "Delta zero ou estoque insuficiente"
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /products/{id}/stock [post]
func (h *Handler) AdjustStockHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := params.ID(r, "id", "Produto")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	var req StockRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	p, err := h.Service.AdjustStock(r.Context(), middleware.IdentityFromContext(r.Context()), productID, req.Delta)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, projection.Product(p), nil, http.StatusOK)
}

// DeleteProductHandler lida com a requisição DELETE /v1/products/{id}.
// @Summary Remove (logicamente) um produto
// @Description O produto passa para INACTIVE.
// @Tags products
// @Security BearerAuth
// @Param id path string true "UUID do produto"
// @Success 204
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /products/{id} [delete]
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := params.ID(r, "id", "Produto")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
		return
	}
	err = h.Service.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), productID)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
