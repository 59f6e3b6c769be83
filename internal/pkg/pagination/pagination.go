package pagination

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"gomarket/internal/domain"
)

// MaxLimit é o teto de itens por página (limita o tamanho da resposta e a carga no banco).
const MaxLimit = 100

// Normalize aplica o clamp: page >= 1, 1 <= limit <= maxLimit.
// maxLimit <= 0 usa MaxLimit. page também é limitada para que o offset caiba em int;
// uma página além do fim continua devolvendo janela vazia.
func Normalize(page, limit, maxLimit int) (int, int) {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

// Offset calcula o skip da janela: (page - 1) * limit.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// TotalPages = ceil(total / limit).
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// New monta o sub-objeto de paginação.
func New(page, limit, total int) domain.Pagination {
	return domain.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: TotalPages(total, limit),
	}
}

// Fetch executa a contagem e a busca da janela em paralelo e espera as duas.
// Sem isolamento transacional: uma escrita entre as duas leituras pode deixar
// total e itens momentaneamente inconsistentes. Se qualquer uma falhar, nada é devolvido.
func Fetch[T any](
	ctx context.Context,
	count func(ctx context.Context) (int, error),
	window func(ctx context.Context) ([]T, error),
) ([]T, int, error) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		total int
		items []T
	)
	g.Go(func() error {
		var err error
		total, err = count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = window(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []T{}
	}
	return items, total, nil
}
