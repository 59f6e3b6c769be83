package course

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
	"gomarket/internal/service/courseservice"
)

// CourseService define o contrato que o Handler espera da camada de Serviço.
type CourseService interface {
	List(ctx context.Context, id domain.Identity, req courseservice.ListRequest) (domain.Page[domain.Course], error)
	ListMine(ctx context.Context, id domain.Identity, req courseservice.ListRequest) (domain.Page[domain.Course], error)
	Get(ctx context.Context, id domain.Identity, courseID string) (domain.Course, error)
	Create(ctx context.Context, id domain.Identity, in domain.CourseInput) (domain.Course, error)
	Update(ctx context.Context, id domain.Identity, courseID string, in domain.CourseInput) (domain.Course, error)
	ChangeStatus(ctx context.Context, id domain.Identity, courseID, status string) (domain.Course, error)
}

// PayloadValidator valida o corpo bruto contra um JSON Schema.
type PayloadValidator interface {
	Validate(schemaName string, body []byte) error
}

// ListResponse é o envelope da listagem de cursos.
type ListResponse struct {
	Courses    []projection.CourseView `json:"courses"`
	Pagination domain.Pagination       `json:"pagination"`
}

// StatusRequest é o corpo do PATCH de status.
type StatusRequest struct {
	Status string `json:"status" example:"PUBLISHED"`
}

// Handler agrupa os handlers de curso.
type Handler struct {
	Service   CourseService
	Validator PayloadValidator
	Logger    logger.Logger
}

func NewHandler(svc CourseService, validator PayloadValidator, log logger.Logger) *Handler {
	return &Handler{Service: svc, Validator: validator, Logger: log}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, successStatus, data)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request,
	fetch func(context.Context, domain.Identity, courseservice.ListRequest) (domain.Page[domain.Course], error)) {
	q := r.URL.Query()
	page, sort, err := params.Listing(q, listing.CourseSort)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	result, err := fetch(r.Context(), middleware.IdentityFromContext(r.Context()), courseservice.ListRequest{
		Page:   page,
		Sort:   sort,
		Filter: listing.ParseCourseFilter(q),
	})
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, ListResponse{
		Courses:    projection.List(result.Items, projection.Course),
		Pagination: result.Pagination,
	}, nil, http.StatusOK)
}

// ListCoursesHandler lida com a requisição GET /v1/courses.
// @Summary Lista cursos
// @Description Listagem paginada com filtros. Visitantes veem apenas cursos PUBLISHED.
// @Tags courses
// @Produce json
// @Param page query int false "Página (padrão 1)"
// @Param limit query int false "Itens por página (padrão 12, máximo 100)"
// @Param sortBy query string false "createdAt | price | title | publishedAt"
// @Param sortOrder query string false "asc | desc"
// @Param categoryId query string false "UUID da categoria"
// @Param minPrice query number false "Preço mínimo"
// @Param maxPrice query number false "Preço máximo"
// @Param search query string false "Busca em título e descrição"
// @Param level query string false "BEGINNER | INTERMEDIATE | ADVANCED"
// @Param tag query string false "Tag"
// @Param instructorId query string false "UUID do instrutor"
// @Success 200 {object} ListResponse
// @Failure 400 {object} domain.ErrorResponse
// @Router /courses [get]
func (h *Handler) ListCoursesHandler(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.List)
}

// ListMyCoursesHandler lida com a requisição GET /v1/instructor/courses.
// @Summary Lista os cursos do instrutor autenticado
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ListResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /instructor/courses [get]
func (h *Handler) ListMyCoursesHandler(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.ListMine)
}

// GetCourseByIDHandler lida com a requisição GET /v1/courses/{id}.
// @Summary Busca um curso pelo ID
// @Tags courses
// @Produce json
// @Param id path string true "UUID do curso"
// @Success 200 {object} projection.CourseView
// @Failure 404 {object} domain.ErrorResponse
// @Router /courses/{id} [get]
func (h *Handler) GetCourseByIDHandler(w http.ResponseWriter, r *http.Request) {
	courseID, err := params.ID(r, "id", "Curso")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	c, err := h.Service.Get(r.Context(), middleware.IdentityFromContext(r.Context()), courseID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, projection.CourseDetail(c), nil, http.StatusOK)
}

func (h *Handler) readInput(w http.ResponseWriter, r *http.Request) (domain.CourseInput, error) {
	body, err := params.Body(w, r)
	if err != nil {
		return domain.CourseInput{}, err
	}
	if err := h.Validator.Validate(validation.SchemaCourse, body); err != nil {
		return domain.CourseInput{}, err
	}
	var in domain.CourseInput
	err = params.Unmarshal(body, &in)
	return in, err
}

// CreateCourseHandler lida com a requisição POST /v1/courses.
// @Summary Cadastra um curso
// @Description O curso nasce em DRAFT; o slug é gerado a partir do título.
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param course body domain.CourseInput true "Dados do curso"
// @Success 201 {object} projection.CourseView
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /courses [post]
func (h *Handler) CreateCourseHandler(w http.ResponseWriter, r *http.Request) {
	in, err := h.readInput(w, r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	c, err := h.Service.Create(r.Context(), middleware.IdentityFromContext(r.Context()), in)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	h.handleServiceResponse(w, r, projection.CourseDetail(c), nil, http.StatusCreated)
}

// UpdateCourseHandler lida com a requisição PUT /v1/courses/{id}.
// @Summary Atualiza um curso
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID do curso"
// @Param course body domain.CourseInput true "Dados do curso"
// @Success 200 {object} projection.CourseView
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /courses/{id} [put]
func (h *Handler) UpdateCourseHandler(w http.ResponseWriter, r *http.Request) {
	courseID, err := params.ID(r, "id", "Curso")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	in, err := h.readInput(w, r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	c, err := h.Service.Update(r.Context(), middleware.IdentityFromContext(r.Context()), courseID, in)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, projection.CourseDetail(c), nil, http.StatusOK)
}

// ChangeStatusHandler lida com a requisição PATCH /v1/courses/{id}/status.
// @Summary Altera o status de um curso
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID do curso"
// @Param status body StatusRequest true "Novo status"
// @Success 200 {object} projection.CourseView
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /courses/{id}/status [patch]
func (h *Handler) ChangeStatusHandler(w http.ResponseWriter, r *http.Request) {
	courseID, err := params.ID(r, "id", "Curso")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	var req StatusRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	c, err := h.Service.ChangeStatus(r.Context(), middleware.IdentityFromContext(r.Context()), courseID, req.Status)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, projection.Course(c), nil, http.StatusOK)
}
