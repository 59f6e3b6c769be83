package productservice

import (
	"context"
	"fmt"
	"sort"
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

// Limites da vitrine de relacionados.
const (
	DefaultRelatedLimit = 4
	MaxRelatedLimit     = 12
	relatedCandidates   = 50
)

// ProductRepository define o contrato (interface) que este Serviço espera
// da camada de Persistência (DB, Cache).
type ProductRepository interface {
	List(ctx context.Context, q domain.ListingQuery) (domain.Page[domain.Product], error)
	FindByID(ctx context.Context, id string) (domain.Product, error)
	Save(ctx context.Context, p domain.Product) (domain.Product, error)
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	UpdateStatus(ctx context.Context, id string, status domain.ProductStatus, at time.Time) error
	FindRelatedCandidates(ctx context.Context, p domain.Product, limit int) ([]domain.Product, error)
	AdjustStock(ctx context.Context, id string, delta int, at time.Time) (int, error)
}

// ListRequest são os parâmetros já lidos da query string.
type ListRequest struct {
	Page   listing.PageParams
	Sort   domain.Sort
	Filter listing.ProductFilter
}

// Service implementa as regras de negócio do catálogo de produtos.
type Service struct {
	repo     ProductRepository
	logger   logger.Logger
	maxLimit int
	now      func() time.Time
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
// maxLimit <= 0 usa o teto padrão da paginação.
func NewService(repo ProductRepository, logger logger.Logger, maxLimit int) *Service {
	return &Service{
		repo:     repo,
		logger:   logger,
		maxLimit: maxLimit,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List é a listagem pública. Só admins enxergam (e filtram) status além de ACTIVE.
func (s *Service) List(ctx context.Context, id domain.Identity, req ListRequest) (domain.Page[domain.Product], error) {
	visibility := listing.VisibilityPublic
	if id.IsAdmin() {
		visibility = listing.VisibilityAll
	}
	return s.list(ctx, req, req.Filter.Predicate(visibility))
}

// ListMine lista os produtos do próprio vendedor em todos os status.
func (s *Service) ListMine(ctx context.Context, id domain.Identity, req ListRequest) (domain.Page[domain.Product], error) {
	if !id.HasRole(domain.RoleSeller, domain.RoleAdmin) {
		return domain.Page[domain.Product]{}, apperror.NewForbiddenError("Apenas vendedores possuem produtos.")
	}
	req.Filter.SellerID = id.UserID
	return s.list(ctx, req, req.Filter.Predicate(listing.VisibilityAll))
}

func (s *Service) list(ctx context.Context, req ListRequest, p domain.Predicate) (domain.Page[domain.Product], error) {
	page, limit := pagination.Normalize(req.Page.Page, req.Page.Limit, s.maxLimit)

	s.log(ctx).Debug("Listando produtos.", map[string]interface{}{"page": page, "limit": limit, "sort": req.Sort.Field})

	return s.repo.List(ctx, domain.ListingQuery{
		Page:      page,
		Limit:     limit,
		Sort:      req.Sort,
		Predicate: p,
	})
}

// Get busca um produto. Produto fora de ACTIVE só existe para o dono e para admins.
func (s *Service) Get(ctx context.Context, id domain.Identity, productID string) (domain.Product, error) {
	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if p.Status != domain.ProductActive && !id.Owns(p.SellerID) {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não foi encontrado.", productID))
	}
	return p, nil
}

// Create cadastra um produto em DRAFT para o vendedor autenticado.
func (s *Service) Create(ctx context.Context, id domain.Identity, in domain.ProductInput) (domain.Product, error) {
	if !id.HasRole(domain.RoleSeller, domain.RoleAdmin) {
		return domain.Product{}, apperror.NewForbiddenError("Apenas vendedores podem cadastrar produtos.")
	}

	p := domain.Product{
		ID:       uuid.NewString(),
		SellerID: id.UserID,
		Status:   domain.ProductDraft,
	}
	if err := apply(&p, in); err != nil {
		return domain.Product{}, err
	}
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt

	created, err := s.repo.Save(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}

	s.log(ctx).Info("Produto criado.", map[string]interface{}{"product_id": created.ID, "seller_id": created.SellerID})
	return s.repo.FindByID(ctx, created.ID)
}

// Update substitui os campos editáveis. Só o dono (ou admin) pode editar.
func (s *Service) Update(ctx context.Context, id domain.Identity, productID string, in domain.ProductInput) (domain.Product, error) {
	p, err := s.owned(ctx, id, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if err := apply(&p, in); err != nil {
		return domain.Product{}, err
	}
	p.UpdatedAt = s.now()

	if _, err := s.repo.Update(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return s.repo.FindByID(ctx, productID)
}

// ChangeStatus aplica a máquina de estados do produto.
func (s *Service) ChangeStatus(ctx context.Context, id domain.Identity, productID, status string) (domain.Product, error) {
	next, ok := domain.ParseProductStatus(status)
	if !ok {
		return domain.Product{}, apperror.NewValidationError(fmt.Sprintf("Status '%s' inválido.", status))
	}

	p, err := s.owned(ctx, id, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if !p.Status.CanTransitionTo(next, id.IsAdmin()) {
		return domain.Product{}, apperror.NewBusinessRuleError(
			fmt.Sprintf("Transição de status inválida: %s -> %s.", p.Status, next))
	}

	at := s.now()
	if err := s.repo.UpdateStatus(ctx, productID, next, at); err != nil {
		return domain.Product{}, err
	}

	s.log(ctx).Info("Status do produto alterado.", map[string]interface{}{"product_id": productID, "from": p.Status, "to": next})
	p.Status = next
	p.UpdatedAt = at
	return p, nil
}

// Delete é a remoção lógica: o produto vai para INACTIVE e sai da vitrine.
func (s *Service) Delete(ctx context.Context, id domain.Identity, productID string) error {
	p, err := s.owned(ctx, id, productID)
	if err != nil {
		return err
	}
	if p.Status == domain.ProductInactive {
		return nil
	}
	return s.repo.UpdateStatus(ctx, productID, domain.ProductInactive, s.now())
}

// AdjustStock aplica uma entrada (delta > 0) ou baixa (delta < 0) no estoque do produto.
func (s *Service) AdjustStock(ctx context.Context, id domain.Identity, productID string, delta int) (domain.Product, error) {
	if delta == 0 {
		return domain.Product{}, apperror.NewValidationError("O ajuste de estoque (delta) não pode ser zero.")
	}
	if delta > domain.MaxStock || delta < -domain.MaxStock {
		return domain.Product{}, apperror.NewValidationError("O ajuste de estoque (delta) está fora do intervalo permitido.")
	}

	p, err := s.owned(ctx, id, productID)
	if err != nil {
		return domain.Product{}, err
	}

	at := s.now()
	stock, err := s.repo.AdjustStock(ctx, productID, delta, at)
	if err != nil {
		return domain.Product{}, err
	}

	s.log(ctx).Info("Estoque ajustado.", map[string]interface{}{"product_id": productID, "delta": delta, "stock": stock})
	p.Stock = stock
	p.UpdatedAt = at
	return p, nil
}

// Related sugere produtos ativos parecidos com o informado.
func (s *Service) Related(ctx context.Context, id domain.Identity, productID string, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	if limit > MaxRelatedLimit {
		limit = MaxRelatedLimit
	}

	p, err := s.Get(ctx, id, productID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.repo.FindRelatedCandidates(ctx, p, relatedCandidates)
	if err != nil {
		return nil, err
	}
	return rankRelated(p, candidates, limit), nil
}

// rankRelated ordena por pontuação e, no empate, pelos mais recentes.
// Pontuação: 3 pela categoria, 2 pela marca, 1 por tag e por tipo de pele em comum.
func rankRelated(p domain.Product, candidates []domain.Product, limit int) []domain.Product {
	type scored struct {
		product domain.Product
		score   int
	}

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == p.ID {
			continue
		}
		score := overlap(p.Tags, c.Tags) + overlap(p.SkinTypes, c.SkinTypes)
		if c.CategoryID == p.CategoryID {
			score += 3
		}
		if p.Brand != "" && strings.EqualFold(c.Brand, p.Brand) {
			score += 2
		}
		ranked = append(ranked, scored{product: c, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].product.CreatedAt.After(ranked[j].product.CreatedAt)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]domain.Product, len(ranked))
	for i, r := range ranked {
		out[i] = r.product
	}
	return out
}

func overlap(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	n := 0
	for _, v := range b {
		if _, ok := set[v]; ok {
			n++
			delete(set, v)
		}
	}
	return n
}

// owned carrega o produto e exige que o chamador seja o dono ou admin.
func (s *Service) owned(ctx context.Context, id domain.Identity, productID string) (domain.Product, error) {
	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if !id.Owns(p.SellerID) {
		s.log(ctx).Warn("Tentativa de alterar produto de outro vendedor.", map[string]interface{}{"product_id": productID, "user_id": id.UserID})
		return domain.Product{}, apperror.NewForbiddenError("Você não tem permissão para alterar este produto.")
	}
	return p, nil
}

// apply copia o payload para o produto, normalizando preço, tags e tipos de pele.
func apply(p *domain.Product, in domain.ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperror.NewValidationError("O nome do produto é obrigatório.")
	}
	if _, err := uuid.Parse(in.CategoryID); err != nil {
		return apperror.NewValidationError("A categoria deve ser um UUID válido.")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil || price.IsNegative() {
		return apperror.NewValidationError("O preço deve ser um valor numérico não negativo.")
	}
	if price.GreaterThan(domain.MaxPrice) {
		return apperror.NewValidationError("O preço excede o valor máximo permitido.")
	}
	if in.Stock < 0 {
		return apperror.NewValidationError("O estoque não pode ser negativo.")
	}
	if in.Stock > domain.MaxStock {
		return apperror.NewValidationError("O estoque excede o valor máximo permitido.")
	}

	p.CategoryID = in.CategoryID
	p.Name = name
	p.Description = strings.TrimSpace(in.Description)
	p.Brand = strings.TrimSpace(in.Brand)
	p.Price = price.Round(2)
	p.Stock = in.Stock
	p.Tags = slug.Tags(in.Tags)
	p.SkinTypes = slug.Tags(in.SkinTypes)
	p.Images = in.Images
	if p.Images == nil {
		p.Images = []string{}
	}
	return nil
}

// log devolve o logger da requisição (com request_id) ou o logger do serviço.
func (s *Service) log(ctx context.Context) logger.Logger {
	return logger.FromContext(ctx, s.logger)
}
