package enrollmentservice

import (
	"context"
	"time"

	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/logger"
)

// EnrollmentRepository é o contrato de persistência de matrículas.
type EnrollmentRepository interface {
	Create(ctx context.Context, e domain.Enrollment) (domain.Enrollment, error)
	Find(ctx context.Context, userID, courseID string) (domain.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error)
	LessonInCourse(ctx context.Context, courseID, lessonID string) (bool, error)
	CompleteLesson(ctx context.Context, enrollmentID, lessonID string, at time.Time) error
	Progress(ctx context.Context, e domain.Enrollment) (domain.CourseProgress, error)
}

// CourseFinder é o recorte do repositório de cursos usado aqui.
type CourseFinder interface {
	FindByID(ctx context.Context, id string) (domain.Course, error)
}

// Service implementa matrícula e progresso nas aulas.
type Service struct {
	repo    EnrollmentRepository
	courses CourseFinder
	logger  logger.Logger
	now     func() time.Time
}

func NewService(repo EnrollmentRepository, courses CourseFinder, logger logger.Logger) *Service {
	return &Service{
		repo:    repo,
		courses: courses,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enroll matricula o chamador. Só cursos PUBLISHED aceitam matrícula.
func (s *Service) Enroll(ctx context.Context, id domain.Identity, courseID string) (domain.Enrollment, error) {
	if !id.IsAuthenticated() {
		return domain.Enrollment{}, apperror.NewUnauthorizedError("Autenticação necessária.")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	if course.Status != domain.CoursePublished {
		return domain.Enrollment{}, apperror.NewBusinessRuleError("O curso não está aberto para matrículas.")
	}

	e, err := s.repo.Create(ctx, domain.Enrollment{UserID: id.UserID, CourseID: courseID, CreatedAt: s.now()})
	if err != nil {
		return domain.Enrollment{}, err
	}

	progress := domain.NewCourseProgress(courseID, course.LessonCount, 0)
	e.Course = &course
	e.Progress = &progress
	return e, nil
}

// CompleteLesson marca a aula como concluída e devolve o progresso atualizado.
func (s *Service) CompleteLesson(ctx context.Context, id domain.Identity, courseID, lessonID string) (domain.CourseProgress, error) {
	e, err := s.enrollment(ctx, id, courseID)
	if err != nil {
		return domain.CourseProgress{}, err
	}

	ok, err := s.repo.LessonInCourse(ctx, courseID, lessonID)
	if err != nil {
		return domain.CourseProgress{}, err
	}
	if !ok {
		return domain.CourseProgress{}, apperror.NewNotFoundError("Aula não encontrada neste curso.")
	}

	if err := s.repo.CompleteLesson(ctx, e.ID, lessonID, s.now()); err != nil {
		return domain.CourseProgress{}, err
	}
	s.log(ctx).Debug("Aula concluída.", map[string]interface{}{"enrollment_id": e.ID, "lesson_id": lessonID})

	return s.repo.Progress(ctx, e)
}

// Progress devolve o progresso do chamador no curso.
func (s *Service) Progress(ctx context.Context, id domain.Identity, courseID string) (domain.CourseProgress, error) {
	e, err := s.enrollment(ctx, id, courseID)
	if err != nil {
		return domain.CourseProgress{}, err
	}
	return s.repo.Progress(ctx, e)
}

// ListMine lista as matrículas do chamador com o progresso de cada uma.
func (s *Service) ListMine(ctx context.Context, id domain.Identity) ([]domain.Enrollment, error) {
	if !id.IsAuthenticated() {
		return nil, apperror.NewUnauthorizedError("Autenticação necessária.")
	}
	return s.repo.ListByUser(ctx, id.UserID)
}

// enrollment exige matrícula; sem ela o aluno recebe 403.
func (s *Service) enrollment(ctx context.Context, id domain.Identity, courseID string) (domain.Enrollment, error) {
	if !id.IsAuthenticated() {
		return domain.Enrollment{}, apperror.NewUnauthorizedError("Autenticação necessária.")
	}
	e, err := s.repo.Find(ctx, id.UserID, courseID)
	if apperror.IsNotFound(err) {
		return domain.Enrollment{}, apperror.NewForbiddenError("Você não está matriculado neste curso.")
	}
	return e, err
}

// log devolve o logger da requisição (com request_id) ou o logger do serviço.
func (s *Service) log(ctx context.Context) logger.Logger {
	return logger.FromContext(ctx, s.logger)
}
