package product_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gomarket/internal/api/product"
	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/middleware"
	"gomarket/internal/pkg/validation"
	"gomarket/internal/service/productservice"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, id domain.Identity, req productservice.ListRequest) (domain.Page[domain.Product], error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(domain.Page[domain.Product]), args.Error(1)
}

func (m *MockProductService) ListMine(ctx context.Context, id domain.Identity, req productservice.ListRequest) (domain.Page[domain.Product], error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(domain.Page[domain.Product]), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id domain.Identity, productID string) (domain.Product, error) {
	args := m.Called(ctx, id, productID)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, id domain.Identity, in domain.ProductInput) (domain.Product, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id domain.Identity, productID string, in domain.ProductInput) (domain.Product, error) {
	args := m.Called(ctx, id, productID, in)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductService) ChangeStatus(ctx context.Context, id domain.Identity, productID, status string) (domain.Product, error) {
	args := m.Called(ctx, id, productID, status)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id domain.Identity, productID string) error {
	return m.Called(ctx, id, productID).Error(0)
}

func (m *MockProductService) Related(ctx context.Context, id domain.Identity, productID string, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, id, productID, limit)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductService) AdjustStock(ctx context.Context, id domain.Identity, productID string, delta int) (domain.Product, error) {
	args := m.Called(ctx, id, productID, delta)
	return args.Get(0).(domain.Product), args.Error(1)
}

const productID = "6f1c2a8e-8d4b-4c2e-9a51-3b7e2f0d9c11"

var seller = domain.Identity{UserID: "seller-1", Role: domain.RoleSeller}

// newRouter monta as rotas do handler; identity simula o middleware de autenticação.
func newRouter(svc *MockProductService, identity domain.Identity) http.Handler {
	h := product.NewHandler(svc, validation.MustNew(), logger.NewLogger("debug"))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), identity)))
		})
	})
	r.Get("/v1/products", h.ListProductsHandler)
	r.Post("/v1/products", h.CreateProductHandler)
	r.Get("/v1/products/{id}", h.GetProductByIDHandler)
	r.Get("/v1/products/{id}/related", h.RelatedProductsHandler)
	r.Patch("/v1/products/{id}/status", h.ChangeStatusHandler)
	r.Delete("/v1/products/{id}", h.DeleteProductHandler)
	r.Post("/v1/products/{id}/stock", h.AdjustStockHandler)
	return r
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListProducts_Envelope(t *testing.T) {
	svc := new(MockProductService)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	svc.On("List", mock.Anything, domain.Anonymous, mock.MatchedBy(func(req productservice.ListRequest) bool {
		return req.Page.Page == 1 && req.Page.Limit == 2 && req.Filter.Brand == "Acme"
	})).Return(domain.Page[domain.Product]{
		Items: []domain.Product{{
			ID: "p-1", Name: "Sérum", Price: decimal.RequireFromString("12.50"), Status: domain.ProductActive,
			CreatedAt: now, UpdatedAt: now,
		}},
		Pagination: domain.Pagination{Page: 1, Limit: 2, Total: 5, TotalPages: 3},
	}, nil).Once()

	rec := do(newRouter(svc, domain.Anonymous), http.MethodGet, "/v1/products?page=1&limit=2&brand=Acme&foo=bar", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"page": 1.0, "limit": 2.0, "total": 5.0, "totalPages": 3.0}, body["pagination"])

	items := body["products"].([]interface{})
	require.Len(t, items, 1)
	first := items[0].(map[string]interface{})
	assert.Equal(t, 12.5, first["price"])
	assert.Equal(t, "2024-06-01T12:00:00Z", first["createdAt"])
	assert.Nil(t, first["category"])
	svc.AssertExpectations(t)
}

func TestListProducts_NonIntegerPage(t *testing.T) {
	svc := new(MockProductService)

	rec := do(newRouter(svc, domain.Anonymous), http.MethodGet, "/v1/products?page=abc", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Category)
	assert.Equal(t, 400, body.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestListProducts_EmptyIsArray(t *testing.T) {
	svc := new(MockProductService)
	svc.On("List", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.Page[domain.Product]{Items: []domain.Product{}, Pagination: domain.Pagination{Page: 9, Limit: 12, Total: 0}}, nil)

	rec := do(newRouter(svc, domain.Anonymous), http.MethodGet, "/v1/products?page=9", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"products":[]`)
}

func TestListProducts_DataAccessErrorIsGeneric(t *testing.T) {
	svc := new(MockProductService)
	svc.On("List", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.Page[domain.Product]{}, apperror.NewDBError("Falha ao listar produtos", assert.AnError))

	rec := do(newRouter(svc, domain.Anonymous), http.MethodGet, "/v1/products", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	assert.NotContains(t, rec.Body.String(), "pagination")
}

func TestGetProduct_InvalidIDIsNotFound(t *testing.T) {
	svc := new(MockProductService)

	rec := do(newRouter(svc, domain.Anonymous), http.MethodGet, "/v1/products/nao-e-uuid", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateProduct_SchemaValidation(t *testing.T) {
	svc := new(MockProductService)

	rec := do(newRouter(svc, seller), http.MethodPost, "/v1/products", `{"name":"Sérum"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateProduct_Created(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Create", mock.Anything, seller, mock.MatchedBy(func(in domain.ProductInput) bool {
		return in.Name == "Sérum" && in.Price == "10.90"
	})).Return(domain.Product{ID: "p-1", Name: "Sérum", Status: domain.ProductDraft}, nil).Once()

	payload := `{"categoryId":"` + productID + `","name":"Sérum","price":"10.90","tags":["vegano"]}`
	rec := do(newRouter(svc, seller), http.MethodPost, "/v1/products", payload)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"DRAFT"`)
	svc.AssertExpectations(t)
}

func TestChangeStatus_BusinessRule(t *testing.T) {
	svc := new(MockProductService)
	svc.On("ChangeStatus", mock.Anything, seller, productID, "SOLD").
		Return(domain.Product{}, apperror.NewBusinessRuleError("Transição de status inválida: DRAFT -> SOLD.")).Once()

	rec := do(newRouter(svc, seller), http.MethodPatch, "/v1/products/"+productID+"/status", `{"status":"SOLD"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BUSINESS_RULE_VIOLATION")
}

func TestRelated_LimitMustBeInteger(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Related", mock.Anything, domain.Anonymous, productID, 6).Return([]domain.Product{}, nil).Once()

	rec := do(newRouter(svc, domain.Anonymous), http.MethodGet, "/v1/products/"+productID+"/related?limit=6", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":[]}`, rec.Body.String())

	rec = do(newRouter(svc, domain.Anonymous), http.MethodGet, "/v1/products/"+productID+"/related?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProduct_NoContent(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Delete", mock.Anything, seller, productID).Return(nil).Once()

	rec := do(newRouter(svc, seller), http.MethodDelete, "/v1/products/"+productID, "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestAdjustStock(t *testing.T) {
	svc := new(MockProductService)
	svc.On("AdjustStock", mock.Anything, seller, productID, -2).
		Return(domain.Product{ID: productID, Stock: 1, Status: domain.ProductActive}, nil).Once()
	svc.On("AdjustStock", mock.Anything, seller, productID, -9).
		Return(domain.Product{}, apperror.NewBusinessRuleError("Estoque insuficiente: disponível 1, ajuste -9.")).Once()

	rec := do(newRouter(svc, seller), http.MethodPost, "/v1/products/"+productID+"/stock", `{"delta":-2}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stock":1`)

	rec = do(newRouter(svc, seller), http.MethodPost, "/v1/products/"+productID+"/stock", `{"delta":-9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(newRouter(svc, seller), http.MethodPost, "/v1/products/"+productID+"/stock", `{"delta":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertExpectations(t)
}
