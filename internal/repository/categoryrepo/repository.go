package categoryrepo

import (
	"context"
	"database/sql"
	"time"

	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/logger"
)

// CategoryRepository lê as categorias compartilhadas por produtos e cursos.
type CategoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewCategoryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CategoryRepository {
	return &CategoryRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

// List devolve todas as categorias em ordem alfabética.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT id, name, slug, parent_id, created_at FROM categories ORDER BY name, id`)
	if err != nil {
		r.logger.Error("Falha ao listar categorias no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar categorias", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var (
			c        domain.Category
			parentID sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &parentID, &c.CreatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao ler categoria", err)
		}
		if parentID.Valid {
			p := parentID.String
			c.ParentID = &p
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao listar categorias", err)
	}
	return categories, nil
}
