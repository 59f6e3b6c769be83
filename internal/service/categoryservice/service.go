package categoryservice

import (
	"context"

	"gomarket/internal/domain"
)

// CategoryRepository é o contrato de leitura de categorias.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
}

// Service expõe as categorias públicas.
type Service struct {
	repo CategoryRepository
}

func NewService(repo CategoryRepository) *Service {
	return &Service{repo: repo}
}

// List devolve todas as categorias.
func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}
