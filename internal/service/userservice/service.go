package userservice

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/listing"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/notifier"
	"gomarket/internal/pkg/pagination"
	"gomarket/internal/pkg/token"
)

// MinPasswordLength é o tamanho mínimo aceito para senhas.
const MinPasswordLength = 8

// UserRepository é o contrato de persistência de usuários e tokens de redefinição.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	List(ctx context.Context, q domain.ListingQuery) (domain.Page[domain.User], error)
	DeactivateAdmin(ctx context.Context, id string, status domain.UserStatus, at time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	SaveResetToken(ctx context.Context, t domain.PasswordResetToken) error
	FindResetToken(ctx context.Context, tokenHash string) (domain.PasswordResetToken, error)
	MarkResetTokenUsed(ctx context.Context, id string, at time.Time) (bool, error)
}

// TokenService é o contrato da camada de token (internal/pkg/token)
type TokenService interface {
	GenerateToken(userID string, role domain.UserRole) (string, error)
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// Config agrupa os parâmetros do fluxo de redefinição de senha.
type Config struct {
	ResetTTL    time.Duration
	AppBaseURL  string
	MaxListSize int
}

// LoginResult é o token emitido junto com o usuário autenticado.
type LoginResult struct {
	Token string
	User  domain.User
}

// UserService define o serviço de lógica de negócio para a entidade User.
type UserService struct {
	UserRepo  UserRepository
	TokenSvc  TokenService
	Publisher notifier.Publisher
	cfg       Config
	logger    logger.Logger
	now       func() time.Time
}

// NewService cria uma nova instância do UserService, injetando o Repositório.
func NewService(repo UserRepository, tokenSvc TokenService, publisher notifier.Publisher, cfg Config, logger logger.Logger) *UserService {
	return &UserService{
		UserRepo:  repo,
		TokenSvc:  tokenSvc,
		Publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register registra um novo usuário no sistema.
// Ele faz o hashing da senha e lida com validações básicas.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	email := normalizeEmail(registration.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, apperror.NewValidationError("Informe um e-mail válido.")
	}
	name := strings.TrimSpace(registration.Name)
	if name == "" {
		return domain.User{}, apperror.NewValidationError("O nome é obrigatório.")
	}
	if len(registration.Password) < MinPasswordLength {
		return domain.User{}, apperror.NewValidationError(fmt.Sprintf("A senha deve ter pelo menos %d caracteres.", MinPasswordLength))
	}

	role := domain.RoleCustomer
	if registration.Role != "" {
		r, ok := domain.ParseUserRole(string(registration.Role))
		if !ok || r == domain.RoleAdmin {
			return domain.User{}, apperror.NewValidationError("Papel inválido para cadastro.")
		}
		role = r
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	now := s.now()
	user, err := s.UserRepo.Save(ctx, domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hashedPassword),
		Role:         role,
		Status:       domain.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return domain.User{}, err
	}

	s.notify(ctx, notifier.Email{
		Template: notifier.TemplateWelcome,
		To:       user.Email,
		Data:     map[string]string{"name": user.Name},
	})
	return user, nil
}

// Login autentica um usuário, verifica a senha e gera um JWT.
func (s *UserService) Login(ctx context.Context, email string, password string) (LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return LoginResult{}, apperror.NewUnauthorizedError("Email e senha são obrigatórios.")
	}

	user, err := s.UserRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		// NotFound vira 401 para não revelar quais e-mails existem
		if apperror.IsNotFound(err) {
			return LoginResult{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}
	if user.Status != domain.UserActive {
		return LoginResult{}, apperror.NewUnauthorizedError("Conta inativa ou suspensa.")
	}

	tokenString, err := s.TokenSvc.GenerateToken(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	at := s.now()
	if err := s.UserRepo.UpdateLastLogin(ctx, user.ID, at); err != nil {
		s.log(ctx).Warn("Falha ao registrar último login.", map[string]interface{}{"user_id": user.ID, "error": err.Error()})
	} else {
		user.LastLoginAt = &at
	}

	return LoginResult{Token: tokenString, User: user}, nil
}

// Me devolve o usuário autenticado.
func (s *UserService) Me(ctx context.Context, id domain.Identity) (domain.User, error) {
	if !id.IsAuthenticated() {
		return domain.User{}, apperror.NewUnauthorizedError("Autenticação necessária.")
	}
	return s.UserRepo.FindByID(ctx, id.UserID)
}

// ListRequest são os parâmetros já lidos da query string.
type ListRequest struct {
	Page   listing.PageParams
	Sort   domain.Sort
	Filter listing.UserFilter
}

// ListUsers é a listagem administrativa.
func (s *UserService) ListUsers(ctx context.Context, id domain.Identity, req ListRequest) (domain.Page[domain.User], error) {
	if !id.IsAdmin() {
		return domain.Page[domain.User]{}, apperror.NewForbiddenError("Apenas administradores podem listar usuários.")
	}
	page, limit := pagination.Normalize(req.Page.Page, req.Page.Limit, s.cfg.MaxListSize)
	return s.UserRepo.List(ctx, domain.ListingQuery{
		Page:      page,
		Limit:     limit,
		Sort:      req.Sort,
		Predicate: req.Filter.Predicate(),
	})
}

// UpdateStatus altera o status de uma conta. Ninguém desativa a própria conta
// e o último administrador ativo não pode ser desativado.
func (s *UserService) UpdateStatus(ctx context.Context, id domain.Identity, userID, status string) (domain.User, error) {
	if !id.IsAdmin() {
		return domain.User{}, apperror.NewForbiddenError("Apenas administradores podem alterar o status de usuários.")
	}
	next, ok := domain.ParseUserStatus(status)
	if !ok {
		return domain.User{}, apperror.NewValidationError(fmt.Sprintf("Status '%s' inválido.", status))
	}
	if userID == id.UserID && next != domain.UserActive {
		return domain.User{}, apperror.NewBusinessRuleError("Você não pode desativar a sua própria conta.")
	}

	target, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if target.Status == next {
		return target, nil
	}

	at := s.now()
	if target.Role == domain.RoleAdmin && target.Status == domain.UserActive && next != domain.UserActive {
		err = s.UserRepo.DeactivateAdmin(ctx, userID, next, at)
	} else {
		err = s.UserRepo.UpdateStatus(ctx, userID, next, at)
	}
	if err != nil {
		return domain.User{}, err
	}

	s.log(ctx).Info("Status de usuário alterado.", map[string]interface{}{
		"user_id": userID, "from": target.Status, "to": next, "by": id.UserID,
	})
	target.Status = next
	target.UpdatedAt = at
	return target, nil
}

// ForgotPassword gera um token de redefinição e pede o envio do e-mail.
// E-mail desconhecido responde como sucesso para não revelar cadastros.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.UserRepo.FindByEmail(ctx, normalizeEmail(email))
	if apperror.IsNotFound(err) {
		s.log(ctx).Debug("Redefinição pedida para e-mail desconhecido.", nil)
		return nil
	}
	if err != nil {
		return err
	}

	raw, err := newResetToken()
	if err != nil {
		return apperror.NewInternalError("Falha ao gerar token de redefinição.", err)
	}

	now := s.now()
	err = s.UserRepo.SaveResetToken(ctx, domain.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: now.Add(s.cfg.ResetTTL),
		CreatedAt: now,
	})
	if err != nil {
		return err
	}

	s.notify(ctx, notifier.Email{
		Template: notifier.TemplatePasswordReset,
		To:       user.Email,
		Data: map[string]string{
			"name": user.Name,
			"link": fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.AppBaseURL, "/"), raw),
		},
	})
	return nil
}

// ResetPassword consome o token (uma única vez) e grava a nova senha.
func (s *UserService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return apperror.NewValidationError(fmt.Sprintf("A senha deve ter pelo menos %d caracteres.", MinPasswordLength))
	}
	invalid := apperror.NewValidationError("Token de redefinição inválido ou expirado.")

	t, err := s.UserRepo.FindResetToken(ctx, hashToken(strings.TrimSpace(rawToken)))
	if apperror.IsNotFound(err) {
		return invalid
	}
	if err != nil {
		return err
	}
	now := s.now()
	if t.UsedAt != nil || t.Expired(now) {
		return invalid
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	consumed, err := s.UserRepo.MarkResetTokenUsed(ctx, t.ID, now)
	if err != nil {
		return err
	}
	if !consumed {
		return invalid
	}

	if err := s.UserRepo.UpdatePassword(ctx, t.UserID, string(hashed), now); err != nil {
		return err
	}
	s.log(ctx).Info("Senha redefinida.", map[string]interface{}{"user_id": t.UserID})
	return nil
}

// notify publica o e-mail sem afetar o resultado da operação.
func (s *UserService) notify(ctx context.Context, email notifier.Email) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishEmail(ctx, email); err != nil {
		s.log(ctx).Warn("Falha ao publicar e-mail.", map[string]interface{}{"template": email.Template, "error": err.Error()})
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// log devolve o logger da requisição (com request_id) ou o logger do serviço.
func (s *UserService) log(ctx context.Context) logger.Logger {
	return logger.FromContext(ctx, s.logger)
}
