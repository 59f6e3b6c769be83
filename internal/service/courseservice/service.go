package courseservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/listing"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/pagination"
	"gomarket/internal/pkg/slug"
)

// CourseRepository é o contrato de persistência de cursos.
type CourseRepository interface {
	List(ctx context.Context, q domain.ListingQuery) (domain.Page[domain.Course], error)
	FindByID(ctx context.Context, id string) (domain.Course, error)
	Save(ctx context.Context, c domain.Course) (domain.Course, error)
	Update(ctx context.Context, c domain.Course) (domain.Course, error)
	UpdateStatus(ctx context.Context, id string, status domain.CourseStatus, at time.Time) error
}

// ListRequest são os parâmetros já lidos da query string.
type ListRequest struct {
	Page   listing.PageParams
	Sort   domain.Sort
	Filter listing.CourseFilter
}

// Service implementa as regras de negócio dos cursos.
type Service struct {
	repo     CourseRepository
	logger   logger.Logger
	maxLimit int
	now      func() time.Time
}

// NewService cria o serviço de cursos.
func NewService(repo CourseRepository, logger logger.Logger, maxLimit int) *Service {
	return &Service{
		repo:     repo,
		logger:   logger,
		maxLimit: maxLimit,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List é a listagem pública (apenas PUBLISHED, exceto para admins).
func (s *Service) List(ctx context.Context, id domain.Identity, req ListRequest) (domain.Page[domain.Course], error) {
	visibility := listing.VisibilityPublic
	if id.IsAdmin() {
		visibility = listing.VisibilityAll
	}
	return s.list(ctx, req, req.Filter.Predicate(visibility))
}

// ListMine lista os cursos do próprio instrutor em todos os status.
func (s *Service) ListMine(ctx context.Context, id domain.Identity, req ListRequest) (domain.Page[domain.Course], error) {
	if !id.HasRole(domain.RoleInstructor, domain.RoleAdmin) {
		return domain.Page[domain.Course]{}, apperror.NewForbiddenError("Apenas instrutores possuem cursos.")
	}
	req.Filter.InstructorID = id.UserID
	return s.list(ctx, req, req.Filter.Predicate(listing.VisibilityAll))
}

func (s *Service) list(ctx context.Context, req ListRequest, p domain.Predicate) (domain.Page[domain.Course], error) {
	page, limit := pagination.Normalize(req.Page.Page, req.Page.Limit, s.maxLimit)
	return s.repo.List(ctx, domain.ListingQuery{Page: page, Limit: limit, Sort: req.Sort, Predicate: p})
}

// Get busca um curso. Curso fora de PUBLISHED só existe para o instrutor e para admins.
func (s *Service) Get(ctx context.Context, id domain.Identity, courseID string) (domain.Course, error) {
	c, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		return domain.Course{}, err
	}
	if c.Status != domain.CoursePublished && !id.Owns(c.InstructorID) {
		return domain.Course{}, apperror.NewNotFoundError(fmt.Sprintf("Curso com ID %s não foi encontrado.", courseID))
	}
	return c, nil
}

// Create cadastra o curso em DRAFT. O slug sai do título; em colisão ganha um sufixo.
func (s *Service) Create(ctx context.Context, id domain.Identity, in domain.CourseInput) (domain.Course, error) {
	if !id.HasRole(domain.RoleInstructor, domain.RoleAdmin) {
		return domain.Course{}, apperror.NewForbiddenError("Apenas instrutores podem cadastrar cursos.")
	}

	c := domain.Course{
		ID:           uuid.NewString(),
		InstructorID: id.UserID,
		Status:       domain.CourseDraft,
	}
	if err := apply(&c, in); err != nil {
		return domain.Course{}, err
	}
	c.Slug = slug.Make(c.Title)
	if c.Slug == "" {
		return domain.Course{}, apperror.NewValidationError("O título precisa conter letras ou números.")
	}
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt

	created, err := s.repo.Save(ctx, c)
	if apperror.IsConflict(err) {
		c.Slug = fmt.Sprintf("%s-%s", c.Slug, c.ID[:8])
		created, err = s.repo.Save(ctx, c)
	}
	if err != nil {
		return domain.Course{}, err
	}

	s.log(ctx).Info("Curso criado.", map[string]interface{}{"course_id": created.ID, "slug": created.Slug})
	return s.repo.FindByID(ctx, created.ID)
}

// Update substitui os campos editáveis. O slug permanece o mesmo.
func (s *Service) Update(ctx context.Context, id domain.Identity, courseID string, in domain.CourseInput) (domain.Course, error) {
	c, err := s.owned(ctx, id, courseID)
	if err != nil {
		return domain.Course{}, err
	}
	if err := apply(&c, in); err != nil {
		return domain.Course{}, err
	}
	c.UpdatedAt = s.now()

	if _, err := s.repo.Update(ctx, c); err != nil {
		return domain.Course{}, err
	}
	return s.repo.FindByID(ctx, courseID)
}

// ChangeStatus aplica a máquina de estados do curso.
func (s *Service) ChangeStatus(ctx context.Context, id domain.Identity, courseID, status string) (domain.Course, error) {
	next, ok := domain.ParseCourseStatus(status)
	if !ok {
		return domain.Course{}, apperror.NewValidationError(fmt.Sprintf("Status '%s' inválido.", status))
	}

	c, err := s.owned(ctx, id, courseID)
	if err != nil {
		return domain.Course{}, err
	}
	if !c.Status.CanTransitionTo(next, id.IsAdmin()) {
		return domain.Course{}, apperror.NewBusinessRuleError(
			fmt.Sprintf("Transição de status inválida: %s -> %s.", c.Status, next))
	}

	at := s.now()
	if err := s.repo.UpdateStatus(ctx, courseID, next, at); err != nil {
		return domain.Course{}, err
	}

	s.log(ctx).Info("Status do curso alterado.", map[string]interface{}{"course_id": courseID, "from": c.Status, "to": next})
	if next == domain.CoursePublished && c.PublishedAt == nil {
		c.PublishedAt = &at
	}
	c.Status = next
	c.UpdatedAt = at
	return c, nil
}

func (s *Service) owned(ctx context.Context, id domain.Identity, courseID string) (domain.Course, error) {
	c, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		return domain.Course{}, err
	}
	if !id.Owns(c.InstructorID) {
		return domain.Course{}, apperror.NewForbiddenError("Você não tem permissão para alterar este curso.")
	}
	return c, nil
}

func apply(c *domain.Course, in domain.CourseInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return apperror.NewValidationError("O título do curso é obrigatório.")
	}
	if _, err := uuid.Parse(in.CategoryID); err != nil {
		return apperror.NewValidationError("A categoria deve ser um UUID válido.")
	}
	level, ok := domain.ParseCourseLevel(in.Level)
	if !ok {
		return apperror.NewValidationError("O nível deve ser BEGINNER, INTERMEDIATE ou ADVANCED.")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil || price.IsNegative() {
		return apperror.NewValidationError("O preço deve ser um valor numérico não negativo.")
	}
	if price.GreaterThan(domain.MaxPrice) {
		return apperror.NewValidationError("O preço excede o valor máximo permitido.")
	}

	c.CategoryID = in.CategoryID
	c.Title = title
	c.Description = strings.TrimSpace(in.Description)
	c.Level = level
	c.Price = price.Round(2)
	c.Tags = slug.Tags(in.Tags)
	return nil
}

// log devolve o logger da requisição (com request_id) ou o logger do serviço.
func (s *Service) log(ctx context.Context) logger.Logger {
	return logger.FromContext(ctx, s.logger)
}
