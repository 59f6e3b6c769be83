package productservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/listing"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, q domain.ListingQuery) (domain.Page[domain.Product], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(domain.Page[domain.Product]), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) UpdateStatus(ctx context.Context, id string, status domain.ProductStatus, at time.Time) error {
	return m.Called(ctx, id, status, at).Error(0)
}

func (m *MockProductRepository) FindRelatedCandidates(ctx context.Context, p domain.Product, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, p, limit)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, id string, delta int, at time.Time) (int, error) {
	args := m.Called(ctx, id, delta, at)
	return args.Int(0), args.Error(1)
}

var (
	seller   = domain.Identity{UserID: "seller-1", Role: domain.RoleSeller}
	other    = domain.Identity{UserID: "seller-2", Role: domain.RoleSeller}
	admin    = domain.Identity{UserID: "admin-1", Role: domain.RoleAdmin}
	customer = domain.Identity{UserID: "cust-1", Role: domain.RoleCustomer}
)

func newService(repo *MockProductRepository) *productservice.Service {
	return productservice.NewService(repo, logger.NewLogger("debug"), 100)
}

// TestList_PublicForcesActive testa que um status pedido por anônimo é ignorado.
func TestList_PublicForcesActive(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo)

	inactive := domain.ProductInactive
	req := productservice.ListRequest{
		Page:   listing.PageParams{Page: 0, Limit: 500},
		Sort:   listing.ProductSort.Default,
		Filter: listing.ProductFilter{Status: &inactive},
	}

	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(q domain.ListingQuery) bool {
		return q.Page == 1 && q.Limit == 100 &&
			len(q.Predicate.Conditions) == 1 &&
			q.Predicate.Conditions[0].Value == "ACTIVE"
	})).Return(domain.Page[domain.Product]{Items: []domain.Product{}}, nil).Once()

	_, err := svc.List(context.Background(), domain.Anonymous, req)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestList_AdminHonorsStatus(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo)

	suspended := domain.ProductSuspended
	req := productservice.ListRequest{
		Page:   listing.PageParams{Page: 1, Limit: 12},
		Sort:   listing.ProductSort.Default,
		Filter: listing.ProductFilter{Status: &suspended},
	}

	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(q domain.ListingQuery) bool {
		return q.Predicate.Conditions[0].Value == "SUSPENDED"
	})).Return(domain.Page[domain.Product]{Items: []domain.Product{}}, nil).Once()

	_, err := svc.List(context.Background(), admin, req)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestListMine_ForcesSeller(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo)

	req := productservice.ListRequest{Page: listing.PageParams{Page: 1, Limit: 12}, Sort: listing.ProductSort.Default,
		Filter: listing.ProductFilter{SellerID: "someone-else"}}

	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(q domain.ListingQuery) bool {
		return len(q.Predicate.Conditions) == 1 &&
			q.Predicate.Conditions[0] == domain.Condition{Field: listing.FieldSellerID, Op: domain.OpEq, Value: "seller-1"}
	})).Return(domain.Page[domain.Product]{Items: []domain.Product{}}, nil).Once()

	_, err := svc.ListMine(context.Background(), seller, req)
	assert.NoError(t, err)

	_, err = svc.ListMine(context.Background(), customer, req)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	mockRepo.AssertExpectations(t)
}

func TestGet_DraftHiddenFromOthers(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo)

	draft := domain.Product{ID: "p-1", SellerID: "seller-1", Status: domain.ProductDraft}
	mockRepo.On("FindByID", mock.Anything, "p-1").Return(draft, nil)

	_, err := svc.Get(context.Background(), domain.Anonymous, "p-1")
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Get(context.Background(), other, "p-1")
	assert.True(t, apperror.IsNotFound(err))

	p, err := svc.Get(context.Background(), seller, "p-1")
	assert.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)

	_, err = svc.Get(context.Background(), admin, "p-1")
	assert.NoError(t, err)
}

func TestCreate_StartsAsDraft(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo)

	categoryID := uuid.NewString()
	in := domain.ProductInput{
		CategoryID: categoryID,
		Name:       "  Sérum Vitamina C ",
		Price:      "89.9",
		Stock:      5,
		Tags:       []string{"Vegano", "vegano", " "},
	}

	var saved domain.Product
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Product")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Product) }).
		Return(domain.Product{ID: "new"}, nil).Once()
	mockRepo.On("FindByID", mock.Anything, "new").Return(domain.Product{ID: "new"}, nil).Once()

	_, err := svc.Create(context.Background(), seller, in)

	require.NoError(t, err)
	assert.Equal(t, domain.ProductDraft, saved.Status)
	assert.Equal(t, "seller-1", saved.SellerID)
	assert.Equal(t, "Sérum Vitamina C", saved.Name)
	assert.True(t, saved.Price.Equal(decimal.RequireFromString("89.90")))
	assert.Equal(t, []string{"vegano"}, saved.Tags)
	assert.NotNil(t, saved.Images)
	mockRepo.AssertExpectations(t)
}

func TestCreate_Validation(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo)

	_, err := svc.Create(context.Background(), customer, domain.ProductInput{})
	assert.IsType(t, &apperror.ForbiddenError{}, err)

	_, err = svc.Create(context.Background(), seller, domain.ProductInput{Name: "X", CategoryID: uuid.NewString(), Price: "-1"})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.Create(context.Background(), seller, domain.ProductInput{Name: "X", CategoryID: "cat", Price: "1"})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.Create(context.Background(), seller, domain.ProductInput{Name: "X", CategoryID: uuid.NewString(), Price: "10000000000"})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.Create(context.Background(), seller, domain.ProductInput{Name: "X", CategoryID: uuid.NewString(), Price: "1", Stock: domain.MaxStock + 1})
	assert.IsType(t, &apperror.ValidationError{}, err)

	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestChangeStatus(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo)

	mockRepo.On("FindByID", mock.Anything, "p-1").
		Return(domain.Product{ID: "p-1", SellerID: "seller-1", Status: domain.ProductDraft}, nil)
	mockRepo.On("UpdateStatus", mock.Anything, "p-1", domain.ProductActive, mock.AnythingOfType("time.Time")).Return(nil).Once()

	p, err := svc.ChangeStatus(context.Background(), seller, "p-1", "active")
	require.NoError(t, err)
	assert.Equal(t, domain.ProductActive, p.Status)

	_, err = svc.ChangeStatus(context.Background(), seller, "p-1", "SOLD")
	assert.IsType(t, &apperror.BusinessRuleError{}, err)

	_, err = svc.ChangeStatus(context.Background(), seller, "p-1", "SUSPENDED")
	assert.IsType(t, &apperror.BusinessRuleError{}, err)

	_, err = svc.ChangeStatus(context.Background(), other, "p-1", "ACTIVE")
	assert.IsType(t, &apperror.ForbiddenError{}, err)

	_, err = svc.ChangeStatus(context.Background(), seller, "p-1", "ARCHIVED")
	assert.IsType(t, &apperror.ValidationError{}, err)

	mockRepo.AssertExpectations(t)
}

func TestDelete_SoftDeletes(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo)

	mockRepo.On("FindByID", mock.Anything, "p-1").
		Return(domain.Product{ID: "p-1", SellerID: "seller-1", Status: domain.ProductActive}, nil)
	mockRepo.On("UpdateStatus", mock.Anything, "p-1", domain.ProductInactive, mock.Anything).Return(nil).Once()

	assert.NoError(t, svc.Delete(context.Background(), seller, "p-1"))
	mockRepo.AssertExpectations(t)
}

func TestDelete_PropagatesRepositoryError(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo)

	dbErr := apperror.NewDBError("falha", errors.New("connection reset"))
	mockRepo.On("FindByID", mock.Anything, "p-1").Return(domain.Product{}, dbErr)

	err := svc.Delete(context.Background(), seller, "p-1")
	assert.Equal(t, dbErr, err)
}

// TestRelated_Ranking testa a pontuação: categoria 3, marca 2, tags e tipos de pele 1 cada.
func TestRelated_Ranking(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := domain.Product{ID: "p-1", CategoryID: "c-1", Brand: "Acme", Tags: []string{"vegano", "natural"},
		SkinTypes: []string{"oleosa"}, Status: domain.ProductActive}

	// pontuações esperadas: all=6, cat-tags=5, cat-new=3, cat-old=3, brand-only=2
	candidates := []domain.Product{
		{ID: "brand-only", CategoryID: "c-9", Brand: "Acme", CreatedAt: base},
		{ID: "cat-old", CategoryID: "c-1", CreatedAt: base},
		{ID: "cat-new", CategoryID: "c-1", CreatedAt: base.Add(time.Hour)},
		{ID: "cat-tags", CategoryID: "c-1", Tags: []string{"vegano", "natural"}, CreatedAt: base},
		{ID: "all", CategoryID: "c-1", Brand: "Acme", SkinTypes: []string{"oleosa"}, CreatedAt: base},
		{ID: "p-1", CategoryID: "c-1", Brand: "Acme", CreatedAt: base},
	}

	mockRepo.On("FindByID", mock.Anything, "p-1").Return(p, nil)
	mockRepo.On("FindRelatedCandidates", mock.Anything, p, 50).Return(candidates, nil)

	related, err := svc.Related(context.Background(), domain.Anonymous, "p-1", 0)
	require.NoError(t, err)

	ids := make([]string, len(related))
	for i, r := range related {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"all", "cat-tags", "cat-new", "cat-old"}, ids)

	related, err = svc.Related(context.Background(), domain.Anonymous, "p-1", 99)
	require.NoError(t, err)
	assert.Len(t, related, 5)
}

func TestAdjustStock(t *testing.T) {
	owned := domain.Product{ID: "p-1", SellerID: seller.UserID, Stock: 3, Status: domain.ProductActive}

	t.Run("Sucesso - dono ajusta", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		svc := newService(mockRepo)
		mockRepo.On("FindByID", mock.Anything, "p-1").Return(owned, nil).Once()
		mockRepo.On("AdjustStock", mock.Anything, "p-1", -2, mock.AnythingOfType("time.Time")).Return(1, nil).Once()

		p, err := svc.AdjustStock(context.Background(), seller, "p-1", -2)

		require.NoError(t, err)
		assert.Equal(t, 1, p.Stock)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Falha - delta zero", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		svc := newService(mockRepo)

		_, err := svc.AdjustStock(context.Background(), seller, "p-1", 0)

		assert.IsType(t, &apperror.ValidationError{}, err)
		mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("Falha - delta fora do intervalo", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		svc := newService(mockRepo)

		_, err := svc.AdjustStock(context.Background(), seller, "p-1", domain.MaxStock+1)

		assert.IsType(t, &apperror.ValidationError{}, err)
		mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("Falha - outro vendedor", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		svc := newService(mockRepo)
		mockRepo.On("FindByID", mock.Anything, "p-1").Return(owned, nil).Once()

		_, err := svc.AdjustStock(context.Background(), other, "p-1", 5)

		assert.IsType(t, &apperror.ForbiddenError{}, err)
		mockRepo.AssertNotCalled(t, "AdjustStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
