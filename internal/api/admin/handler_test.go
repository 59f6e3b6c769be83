package admin_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gomarket/internal/api/admin"
	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/middleware"
	"gomarket/internal/service/userservice"
)

type MockUserAdminService struct {
	mock.Mock
}

func (m *MockUserAdminService) ListUsers(ctx context.Context, id domain.Identity, req userservice.ListRequest) (domain.Page[domain.User], error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(domain.Page[domain.User]), args.Error(1)
}

func (m *MockUserAdminService) UpdateStatus(ctx context.Context, id domain.Identity, userID, status string) (domain.User, error) {
	args := m.Called(ctx, id, userID, status)
	return args.Get(0).(domain.User), args.Error(1)
}

var adminID = domain.Identity{UserID: "9b2f4f7a-2c1d-4a77-8f3e-1d2c3b4a5f60", Role: domain.RoleAdmin}

func newRouter(svc *MockUserAdminService) http.Handler {
	h := admin.NewHandler(svc, logger.NewLogger("debug"))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), adminID)))
		})
	})
	r.Get("/v1/admin/users", h.ListUsersHandler)
	r.Patch("/v1/admin/users/{id}/status", h.UpdateUserStatusHandler)
	return r
}

func TestListUsersHandler_Envelope(t *testing.T) {
	svc := new(MockUserAdminService)
	svc.On("ListUsers", mock.Anything, adminID, mock.MatchedBy(func(req userservice.ListRequest) bool {
		return req.Filter.Role != nil && *req.Filter.Role == domain.RoleSeller
	})).Return(domain.Page[domain.User]{
		Items:      []domain.User{{ID: "u-1", Role: domain.RoleSeller, Status: domain.UserActive}},
		Pagination: domain.Pagination{Page: 1, Limit: 12, Total: 1, TotalPages: 1},
	}, nil).Once()

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/users?role=seller", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"users":[`)
	assert.Contains(t, rec.Body.String(), `"totalPages":1`)
	svc.AssertExpectations(t)
}

func TestUpdateUserStatusHandler_SelfDeactivation(t *testing.T) {
	svc := new(MockUserAdminService)
	svc.On("UpdateStatus", mock.Anything, adminID, adminID.UserID, "INACTIVE").
		Return(domain.User{}, apperror.NewBusinessRuleError("Você não pode desativar a própria conta.")).Once()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/v1/admin/users/"+adminID.UserID+"/status", strings.NewReader(`{"status":"INACTIVE"}`))
	newRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BUSINESS_RULE_VIOLATION")
}
