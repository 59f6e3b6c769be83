package courserepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gomarket/internal/domain"
	"gomarket/internal/errors"
	"gomarket/internal/pkg/cache"
	"gomarket/internal/pkg/database"
	"gomarket/internal/pkg/listing"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/pagination"
	"gomarket/internal/pkg/sqlbuilder"
)

// ReviewSampleSize é quantas avaliações recentes acompanham cada curso.
const ReviewSampleSize = 10

const courseCacheKey = "course:%s"

var columns = sqlbuilder.Columns{
	listing.FieldCategoryID:   {Expr: "co.category_id"},
	listing.FieldPrice:        {Expr: "co.price"},
	listing.FieldTitle:        {Expr: "co.title"},
	listing.FieldDescription:  {Expr: "co.description"},
	listing.FieldLevel:        {Expr: "co.level"},
	listing.FieldTags:         {Expr: "co.tags", Array: true},
	listing.FieldStatus:       {Expr: "co.status"},
	listing.FieldInstructorID: {Expr: "co.instructor_id"},
	listing.FieldCreatedAt:    {Expr: "co.created_at"},
	listing.FieldPublishedAt:  {Expr: "co.published_at"},
}

const selectCourse = `
	SELECT co.id, co.instructor_id, co.category_id, co.title, co.slug, co.description, co.level,
	       co.price, co.tags, co.status, co.published_at, co.created_at, co.updated_at,
	       (SELECT COUNT(*) FROM lessons l WHERE l.course_id = co.id) AS lesson_count,
	       cat.name, cat.slug, u.name, ip.headline, ip.avatar_url
	FROM courses co
	LEFT JOIN categories cat ON cat.id = co.category_id
	LEFT JOIN users u ON u.id = co.instructor_id
	LEFT JOIN instructor_profiles ip ON ip.user_id = co.instructor_id`

// CourseRepository acessa cursos no PostgreSQL com cache-aside no Redis para a busca por ID.
type CourseRepository struct {
	DB        *sql.DB
	Cache     cache.Client // opcional
	DBTimeout time.Duration
	CacheTTL  time.Duration
	Logger    logger.Logger
}

// NewCourseRepository cria o repositório de cursos.
func NewCourseRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *CourseRepository {
	return &CourseRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		Logger:    log,
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCourse(row scanner) (domain.Course, error) {
	var (
		c                          domain.Course
		level, status              string
		publishedAt                sql.NullTime
		categoryName, categorySlug sql.NullString
		instructorName             sql.NullString
		headline, avatarURL        sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.InstructorID, &c.CategoryID, &c.Title, &c.Slug, &c.Description, &level,
		&c.Price, pq.Array(&c.Tags), &status, &publishedAt, &c.CreatedAt, &c.UpdatedAt,
		&c.LessonCount,
		&categoryName, &categorySlug, &instructorName, &headline, &avatarURL,
	)
	if err != nil {
		return domain.Course{}, err
	}
	c.Level = domain.CourseLevel(level)
	c.Status = domain.CourseStatus(status)
	if publishedAt.Valid {
		t := publishedAt.Time
		c.PublishedAt = &t
	}
	if categoryName.Valid {
		c.Category = &domain.CategoryRef{ID: c.CategoryID, Name: categoryName.String, Slug: categorySlug.String}
	}
	if instructorName.Valid {
		c.Instructor = &domain.InstructorRef{
			ID:        c.InstructorID,
			Name:      instructorName.String,
			Headline:  nullable(headline),
			AvatarURL: nullable(avatarURL),
		}
	}
	return c, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// List executa a contagem e a janela em paralelo sobre o mesmo predicado.
func (r *CourseRepository) List(ctx context.Context, q domain.ListingQuery) (domain.Page[domain.Course], error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	b := sqlbuilder.New()
	where, err := b.Where(q.Predicate, columns)
	if err != nil {
		return domain.Page[domain.Course]{}, errors.NewInternalError("Predicado de curso inválido", err)
	}
	orderBy, err := sqlbuilder.OrderBy(q.Sort, columns, "co.id")
	if err != nil {
		return domain.Page[domain.Course]{}, errors.NewInternalError("Ordenação de curso inválida", err)
	}

	countSQL := "SELECT COUNT(*) FROM courses co " + where
	countArgs := append([]interface{}{}, b.Args()...)

	windowSQL := fmt.Sprintf("%s %s %s LIMIT %s OFFSET %s",
		selectCourse, where, orderBy, b.Arg(q.Limit), b.Arg(pagination.Offset(q.Page, q.Limit)))
	windowArgs := b.Args()

	items, total, err := pagination.Fetch(ctx,
		func(ctx context.Context) (int, error) {
			var total int
			err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total)
			return total, err
		},
		func(ctx context.Context) ([]domain.Course, error) {
			courses, err := r.query(ctx, windowSQL, windowArgs...)
			if err != nil {
				return nil, err
			}
			return courses, r.attachReviews(ctx, courses)
		},
	)
	if err != nil {
		return domain.Page[domain.Course]{}, errors.NewDBError("Falha ao listar cursos", err)
	}

	return domain.Page[domain.Course]{
		Items:      items,
		Pagination: pagination.New(q.Page, q.Limit, total),
	}, nil
}

func (r *CourseRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Course, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []domain.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

const reviewSampleSQL = `
	SELECT course_id, id, rating, comment, author_name, created_at FROM (
		SELECT r.course_id, r.id, r.rating, r.comment, u.name AS author_name, r.created_at,
		       ROW_NUMBER() OVER (PARTITION BY r.course_id ORDER BY r.created_at DESC) AS rn
		FROM course_reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.course_id = ANY($1)
	) s
	WHERE rn <= $2
	ORDER BY course_id, created_at DESC`

func (r *CourseRepository) attachReviews(ctx context.Context, courses []domain.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]string, len(courses))
	index := make(map[string]int, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
		index[c.ID] = i
	}

	rows, err := r.DB.QueryContext(ctx, reviewSampleSQL, pq.Array(ids), ReviewSampleSize)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			courseID string
			rv       domain.Review
		)
		if err := rows.Scan(&courseID, &rv.ID, &rv.Rating, &rv.Comment, &rv.AuthorName, &rv.CreatedAt); err != nil {
			return err
		}
		if i, ok := index[courseID]; ok {
			courses[i].Reviews = append(courses[i].Reviews, rv)
		}
	}
	return rows.Err()
}

// FindByID busca um curso pelo ID (cache-aside).
func (r *CourseRepository) FindByID(ctx context.Context, id string) (domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(courseCacheKey, id)
	if r.Cache != nil {
		cached, err := r.Cache.Get(ctx, key)
		if err == nil {
			var course domain.Course
			if json.Unmarshal([]byte(cached), &course) == nil {
				return course, nil
			}
		} else if err != cache.ErrCacheMiss {
			r.Logger.Warn("Falha ao ler curso do cache", map[string]interface{}{"course_id": id, "error": err.Error()})
		}
	}

	course, err := scanCourse(r.DB.QueryRowContext(ctx, selectCourse+" WHERE co.id = $1", id))
	if err == sql.ErrNoRows {
		return domain.Course{}, errors.NewNotFoundError(fmt.Sprintf("Curso com ID %s não existe.", id))
	}
	if err != nil {
		return domain.Course{}, errors.NewDBError("Falha ao buscar curso no DB", err)
	}

	courses := []domain.Course{course}
	if err := r.attachReviews(ctx, courses); err != nil {
		return domain.Course{}, errors.NewDBError("Falha ao buscar avaliações do curso", err)
	}
	course = courses[0]

	if r.Cache != nil {
		if data, err := json.Marshal(course); err == nil {
			if err := r.Cache.Set(ctx, key, data, r.CacheTTL); err != nil {
				r.Logger.Warn("Falha ao gravar curso no cache", map[string]interface{}{"course_id": id, "error": err.Error()})
			}
		}
	}
	return course, nil
}

// Save persiste um novo curso. Slug duplicado vira ConflictError.
func (r *CourseRepository) Save(ctx context.Context, c domain.Course) (domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `INSERT INTO courses
		(id, instructor_id, category_id, title, slug, description, level, price, tags, status, published_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := r.DB.ExecContext(ctx, insertSQL,
		c.ID, c.InstructorID, c.CategoryID, c.Title, c.Slug, c.Description, string(c.Level),
		c.Price, sqlbuilder.StringArray(c.Tags), string(c.Status), c.PublishedAt, c.CreatedAt, c.UpdatedAt,
	)
	switch {
	case database.IsUniqueViolation(err):
		return domain.Course{}, errors.NewConflictError(fmt.Sprintf("Já existe um curso com o slug '%s'.", c.Slug))
	case database.IsForeignKeyViolation(err):
		return domain.Course{}, errors.NewValidationError("A categoria informada não existe.")
	case err != nil:
		return domain.Course{}, errors.NewDBError("Falha ao inserir curso", err)
	}
	return c, nil
}

// Update grava os campos editáveis e invalida o cache. O slug não muda depois de criado.
func (r *CourseRepository) Update(ctx context.Context, c domain.Course) (domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE courses SET
		category_id = $2, title = $3, description = $4, level = $5, price = $6, tags = $7, updated_at = $8
		WHERE id = $1`

	res, err := r.DB.ExecContext(ctx, updateSQL,
		c.ID, c.CategoryID, c.Title, c.Description, string(c.Level), c.Price, sqlbuilder.StringArray(c.Tags), c.UpdatedAt,
	)
	if database.IsForeignKeyViolation(err) {
		return domain.Course{}, errors.NewValidationError("A categoria informada não existe.")
	}
	if err != nil {
		return domain.Course{}, errors.NewDBError("Falha ao atualizar curso", err)
	}
	if err := r.requireAffected(res, c.ID); err != nil {
		return domain.Course{}, err
	}

	r.invalidate(ctx, c.ID)
	return c, nil
}

// UpdateStatus aplica a transição de status. published_at é gravado só na primeira publicação.
func (r *CourseRepository) UpdateStatus(ctx context.Context, id string, status domain.CourseStatus, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE courses SET
		status = $2,
		published_at = CASE WHEN $2 = 'PUBLISHED' THEN COALESCE(published_at, $3) ELSE published_at END,
		updated_at = $3
		WHERE id = $1`

	res, err := r.DB.ExecContext(ctx, updateSQL, id, string(status), at)
	if err != nil {
		return errors.NewDBError("Falha ao atualizar status do curso", err)
	}
	if err := r.requireAffected(res, id); err != nil {
		return err
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *CourseRepository) requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao ler linhas afetadas", err)
	}
	if n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Curso com ID %s não existe.", id))
	}
	return nil
}

func (r *CourseRepository) invalidate(ctx context.Context, id string) {
	if r.Cache == nil {
		return
	}
	if err := r.Cache.Delete(ctx, fmt.Sprintf(courseCacheKey, id)); err != nil {
		r.Logger.Warn("Falha ao invalidar curso no cache", map[string]interface{}{"course_id": id, "error": err.Error()})
	}
}
