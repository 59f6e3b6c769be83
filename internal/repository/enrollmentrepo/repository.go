package enrollmentrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/database"
	"gomarket/internal/pkg/logger"
)

// EnrollmentRepository guarda matrículas e aulas concluídas.
type EnrollmentRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewEnrollmentRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

// Create matricula o aluno. Matrícula repetida vira ConflictError.
func (r *EnrollmentRepository) Create(ctx context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctxTimeout,
		`INSERT INTO enrollments (id, user_id, course_id, created_at) VALUES ($1, $2, $3, $4)`,
		e.ID, e.UserID, e.CourseID, e.CreatedAt,
	)
	if database.IsUniqueViolation(err) {
		return domain.Enrollment{}, apperror.NewConflictError("Você já está matriculado neste curso.")
	}
	if err != nil {
		r.logger.Error("Falha ao inserir matrícula no DB.", err)
		return domain.Enrollment{}, apperror.NewDBError("Falha ao criar matrícula", err)
	}

	r.logger.Info("Matrícula criada.", map[string]interface{}{"enrollment_id": e.ID, "course_id": e.CourseID})
	return e, nil
}

// Find busca a matrícula do aluno no curso.
func (r *EnrollmentRepository) Find(ctx context.Context, userID, courseID string) (domain.Enrollment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var e domain.Enrollment
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, user_id, course_id, created_at FROM enrollments WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	).Scan(&e.ID, &e.UserID, &e.CourseID, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Enrollment{}, apperror.NewNotFoundError("Você não está matriculado neste curso.")
	}
	if err != nil {
		return domain.Enrollment{}, apperror.NewDBError("Falha ao buscar matrícula", err)
	}
	return e, nil
}

const listByUserSQL = `
	SELECT e.id, e.user_id, e.course_id, e.created_at,
	       co.title, co.slug, co.level, co.price, co.status,
	       (SELECT COUNT(*) FROM lessons l WHERE l.course_id = e.course_id) AS total_lessons,
	       (SELECT COUNT(*) FROM lesson_completions lc WHERE lc.enrollment_id = e.id) AS completed_lessons
	FROM enrollments e
	JOIN courses co ON co.id = e.course_id
	WHERE e.user_id = $1
	ORDER BY e.created_at DESC, e.id DESC`

// ListByUser lista as matrículas do aluno já com o progresso de cada curso.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, listByUserSQL, userID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao listar matrículas", err)
	}
	defer rows.Close()

	enrollments := []domain.Enrollment{}
	for rows.Next() {
		var (
			e                domain.Enrollment
			c                domain.Course
			level, status    string
			total, completed int
		)
		err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.CreatedAt,
			&c.Title, &c.Slug, &level, &c.Price, &status, &total, &completed)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler matrícula", err)
		}
		c.ID = e.CourseID
		c.Level = domain.CourseLevel(level)
		c.Status = domain.CourseStatus(status)
		c.LessonCount = total
		progress := domain.NewCourseProgress(e.CourseID, total, completed)
		e.Course = &c
		e.Progress = &progress
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao listar matrículas", err)
	}
	return enrollments, nil
}

// LessonInCourse indica se a aula pertence ao curso.
func (r *EnrollmentRepository) LessonInCourse(ctx context.Context, courseID, lessonID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT EXISTS (SELECT 1 FROM lessons WHERE id = $1 AND course_id = $2)`, lessonID, courseID,
	).Scan(&exists)
	if err != nil {
		return false, apperror.NewDBError("Falha ao verificar aula", err)
	}
	return exists, nil
}

// CompleteLesson marca a aula como concluída. Repetir a chamada não tem efeito.
func (r *EnrollmentRepository) CompleteLesson(ctx context.Context, enrollmentID, lessonID string, at time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctxTimeout,
		`INSERT INTO lesson_completions (enrollment_id, lesson_id, completed_at) VALUES ($1, $2, $3)
		 ON CONFLICT (enrollment_id, lesson_id) DO NOTHING`,
		enrollmentID, lessonID, at,
	)
	if err != nil {
		r.logger.Error("Falha ao registrar aula concluída.", err)
		return apperror.NewDBError("Falha ao registrar aula concluída", err)
	}
	return nil
}

// Progress conta as aulas do curso e as concluídas na matrícula.
func (r *EnrollmentRepository) Progress(ctx context.Context, e domain.Enrollment) (domain.CourseProgress, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total, completed int
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT (SELECT COUNT(*) FROM lessons WHERE course_id = $1),
		        (SELECT COUNT(*) FROM lesson_completions WHERE enrollment_id = $2)`,
		e.CourseID, e.ID,
	).Scan(&total, &completed)
	if err != nil {
		return domain.CourseProgress{}, apperror.NewDBError("Falha ao calcular progresso", err)
	}
	return domain.NewCourseProgress(e.CourseID, total, completed), nil
}
