// Package enrollment expõe matrícula em cursos e progresso nas aulas.
package enrollment

import (
	"context"
	"net/http"

	"gomarket/internal/api/params"
	"gomarket/internal/domain"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/middleware"
	"gomarket/internal/pkg/projection"
	"gomarket/internal/pkg/response"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, id domain.Identity, courseID string) (domain.Enrollment, error)
	CompleteLesson(ctx context.Context, id domain.Identity, courseID, lessonID string) (domain.CourseProgress, error)
	Progress(ctx context.Context, id domain.Identity, courseID string) (domain.CourseProgress, error)
	ListMine(ctx context.Context, id domain.Identity) ([]domain.Enrollment, error)
}

// ListResponse é o envelope das matrículas do aluno.
type ListResponse struct {
	Enrollments []projection.EnrollmentView `json:"enrollments"`
}

type Handler struct {
	Service EnrollmentService
	Logger  logger.Logger
}

func NewHandler(svc EnrollmentService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, successStatus, data)
}

// EnrollHandler lida com a requisição POST /v1/courses/{id}/enroll.
// @Summary Matricula o usuário autenticado no curso
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID do curso"
// @Success 201 {object} projection.EnrollmentView
// @Failure 400 {object} domain.ErrorResponse "Curso não publicado"
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Já matriculado"
// @Router /courses/{id}/enroll [post]
func (h *Handler) EnrollHandler(w http.ResponseWriter, r *http.Request) {
	courseID, err := params.ID(r, "id", "Curso")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	e, err := h.Service.Enroll(r.Context(), middleware.IdentityFromContext(r.Context()), courseID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	h.handleServiceResponse(w, r, projection.Enrollment(e), nil, http.StatusCreated)
}

// CompleteLessonHandler lida com a requisição POST /v1/courses/{id}/lessons/{lessonId}/complete.
// @Summary Marca uma aula como concluída
// @Description Idempotente. Devolve o progresso atualizado.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID do curso"
// @Param lessonId path string true "UUID da aula"
// @Success 200 {object} domain.CourseProgress
// @Failure 403 {object} domain.ErrorResponse "Não matriculado"
// @Failure 404 {object} domain.ErrorResponse
// @Router /courses/{id}/lessons/{lessonId}/complete [post]
func (h *Handler) CompleteLessonHandler(w http.ResponseWriter, r *http.Request) {
	courseID, err := params.ID(r, "id", "Curso")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	lessonID, err := params.ID(r, "lessonId", "Aula")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	progress, err := h.Service.CompleteLesson(r.Context(), middleware.IdentityFromContext(r.Context()), courseID, lessonID)
	h.handleServiceResponse(w, r, progress, err, http.StatusOK)
}

// ProgressHandler lida com a requisição GET /v1/courses/{id}/progress.
// @Summary Progresso do aluno no curso
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID do curso"
// @Success 200 {object} domain.CourseProgress
// @Failure 403 {object} domain.ErrorResponse
// @Router /courses/{id}/progress [get]
func (h *Handler) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	courseID, err := params.ID(r, "id", "Curso")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	progress, err := h.Service.Progress(r.Context(), middleware.IdentityFromContext(r.Context()), courseID)
	h.handleServiceResponse(w, r, progress, err, http.StatusOK)
}

// ListMyEnrollmentsHandler lida com a requisição GET /v1/me/enrollments.
// @Summary Matrículas do usuário autenticado
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ListResponse
// @Failure 401 {object} domain.ErrorResponse
// @Router /me/enrollments [get]
func (h *Handler) ListMyEnrollmentsHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListMine(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, ListResponse{Enrollments: projection.List(items, projection.Enrollment)}, nil, http.StatusOK)
}
