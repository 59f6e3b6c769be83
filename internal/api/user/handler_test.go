package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gomarket/internal/api/user"
	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/middleware"
	"gomarket/internal/service/userservice"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	args := m.Called(ctx, registration)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email string, password string) (userservice.LoginResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(userservice.LoginResult), args.Error(1)
}

func (m *MockUserService) Me(ctx context.Context, id domain.Identity) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockUserService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	return m.Called(ctx, rawToken, newPassword).Error(0)
}

func post(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegisterUserHandler(t *testing.T) {
	svc := new(MockUserService)
	h := user.NewHandler(svc, logger.NewLogger("debug"))

	t.Run("Sucesso - sem hash na resposta", func(t *testing.T) {
		svc.On("Register", mock.Anything, domain.UserRegistration{Email: "ana@exemplo.com", Name: "Ana", Password: "segredo123"}).
			Return(domain.User{ID: "u-1", Email: "ana@exemplo.com", Name: "Ana", PasswordHash: "$2a$hash", Role: domain.RoleCustomer}, nil).Once()

		rec := post(h.RegisterUserHandler, `{"email":"ana@exemplo.com","name":"Ana","password":"segredo123"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"role":"CUSTOMER"`)
		assert.NotContains(t, rec.Body.String(), "$2a$hash")
	})

	t.Run("Falha - e-mail duplicado", func(t *testing.T) {
		svc.On("Register", mock.Anything, mock.Anything).
			Return(domain.User{}, apperror.NewConflictError("E-mail já cadastrado.")).Once()

		rec := post(h.RegisterUserHandler, `{"email":"ana@exemplo.com","name":"Ana","password":"segredo123"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Falha - JSON inválido", func(t *testing.T) {
		rec := post(h.RegisterUserHandler, `{"email":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginUserHandler(t *testing.T) {
	svc := new(MockUserService)
	h := user.NewHandler(svc, logger.NewLogger("debug"))

	svc.On("Login", mock.Anything, "ana@exemplo.com", "segredo123").
		Return(userservice.LoginResult{Token: "jwt", User: domain.User{ID: "u-1", Role: domain.RoleSeller}}, nil).Once()
	svc.On("Login", mock.Anything, "ana@exemplo.com", "errada").
		Return(userservice.LoginResult{}, apperror.NewUnauthorizedError("Credenciais inválidas.")).Once()

	rec := post(h.LoginUserHandler, `{"email":"ana@exemplo.com","password":"segredo123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body user.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "jwt", body.Token)
	assert.Equal(t, "SELLER", body.User.Role)

	rec = post(h.LoginUserHandler, `{"email":"ana@exemplo.com","password":"errada"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertExpectations(t)
}

func TestMeHandler_UsesIdentityFromContext(t *testing.T) {
	svc := new(MockUserService)
	h := user.NewHandler(svc, logger.NewLogger("debug"))
	id := domain.Identity{UserID: "u-1", Role: domain.RoleCustomer}

	svc.On("Me", mock.Anything, id).Return(domain.User{ID: "u-1", Email: "ana@exemplo.com"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	h.MeHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"lastLoginAt":null`)
	svc.AssertExpectations(t)
}

func TestForgotPasswordHandler_AlwaysAccepted(t *testing.T) {
	svc := new(MockUserService)
	h := user.NewHandler(svc, logger.NewLogger("debug"))
	svc.On("ForgotPassword", mock.Anything, "ninguem@exemplo.com").Return(nil).Once()

	rec := post(h.ForgotPasswordHandler, `{"email":"ninguem@exemplo.com"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "message")
}

func TestResetPasswordHandler_InvalidToken(t *testing.T) {
	svc := new(MockUserService)
	h := user.NewHandler(svc, logger.NewLogger("debug"))
	svc.On("ResetPassword", mock.Anything, "abc", "novasenha1").
		Return(apperror.NewValidationError("Token inválido ou expirado.")).Once()

	rec := post(h.ResetPasswordHandler, `{"token":"abc","password":"novasenha1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sucesso")
}
