package user

import (
	"context"
	"net/http"

	"gomarket/internal/api/params"
	"gomarket/internal/domain"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/middleware"
	"gomarket/internal/pkg/projection"
	"gomarket/internal/pkg/response"
	"gomarket/internal/service/userservice"
)

// UserService define o contrato para registro, login e recuperação de senha.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error)
	Login(ctx context.Context, email string, password string) (userservice.LoginResult, error)
	Me(ctx context.Context, id domain.Identity) (domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email" example:"ana@exemplo.com"`
	Password string `json:"password" example:"segredo123"`
}

// LoginResponse é o token emitido junto com o usuário autenticado.
type LoginResponse struct {
	Token string              `json:"token"`
	User  projection.UserView `json:"user"`
}

// ForgotPasswordRequest pede o envio do link de redefinição.
type ForgotPasswordRequest struct {
	Email string `json:"email" example:"ana@exemplo.com"`
}

// ResetPasswordRequest troca a senha usando o token recebido por e-mail.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// MessageResponse é a resposta das operações sem corpo de domínio.
type MessageResponse struct {
	Message string `json:"message"`
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, successStatus, data)
}

// RegisterUserHandler lida com a requisição POST /v1/register.
// @Summary Registra um novo usuário
// @Description Cria a conta com papel CUSTOMER, SELLER ou INSTRUCTOR. Nunca ADMIN.
// @Tags users
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Dados de registro"
// @Success 201 {object} projection.UserView
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "E-mail já cadastrado"
// @Router /register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var reg domain.UserRegistration
	if err := params.DecodeJSON(w, r, &reg); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	newUser, err := h.Service.Register(r.Context(), reg)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	h.handleServiceResponse(w, r, projection.User(newUser), nil, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /v1/login.
// @Summary Autentica um usuário e retorna um JWT
// @Tags users
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Credenciais do usuário"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Router /login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, LoginResponse{Token: result.Token, User: projection.User(result.User)}, nil, http.StatusOK)
}

// MeHandler lida com a requisição GET /v1/me.
// @Summary Dados do usuário autenticado
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} projection.UserView
// @Failure 401 {object} domain.ErrorResponse
// @Router /me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Me(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, projection.User(u), nil, http.StatusOK)
}

// ForgotPasswordHandler lida com a requisição POST /v1/password/forgot.
// @Summary Solicita o link de redefinição de senha
// @Description Sempre responde 202, exista ou não a conta.
// @Tags users
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "E-mail da conta"
// @Success 202 {object} MessageResponse
// @Failure 400 {object} domain.ErrorResponse
// @Router /password/forgot [post]
func (h *Handler) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusAccepted)
		return
	}

	err := h.Service.ForgotPassword(r.Context(), req.Email)
	h.handleServiceResponse(w, r, MessageResponse{
		Message: "Se o e-mail estiver cadastrado, você receberá um link de redefinição.",
	}, err, http.StatusAccepted)
}

// ResetPasswordHandler lida com a requisição POST /v1/password/reset.
// @Summary Redefine a senha com o token recebido por e-mail
// @Tags users
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Token e nova senha"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} domain.ErrorResponse "Token inválido ou expirado"
// @Router /password/reset [post]
func (h *Handler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	err := h.Service.ResetPassword(r.Context(), req.Token, req.Password)
	h.handleServiceResponse(w, r, MessageResponse{Message: "Senha redefinida com sucesso."}, err, http.StatusOK)
}
