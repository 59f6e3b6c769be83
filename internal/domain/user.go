package domain

import "time"

// User representa a entidade do usuário no sistema.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"` // Oculta o hash da senha no JSON de resposta
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleSeller     UserRole = "SELLER"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleCustomer   UserRole = "CUSTOMER"
)

// ParseUserRole converte uma string (case-insensitive) no papel correspondente.
func ParseUserRole(s string) (UserRole, bool) {
	switch UserRole(upper(s)) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleSeller:
		return RoleSeller, true
	case RoleInstructor:
		return RoleInstructor, true
	case RoleCustomer:
		return RoleCustomer, true
	}
	return "", false
}

// UserStatus controla se a conta pode autenticar.
type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserInactive  UserStatus = "INACTIVE"
	UserSuspended UserStatus = "SUSPENDED"
)

// ParseUserStatus converte uma string (case-insensitive) no status correspondente.
func ParseUserStatus(s string) (UserStatus, bool) {
	switch UserStatus(upper(s)) {
	case UserActive:
		return UserActive, true
	case UserInactive:
		return UserInactive, true
	case UserSuspended:
		return UserSuspended, true
	}
	return "", false
}

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	Role     UserRole `json:"role,omitempty"`
}

// PasswordResetToken guarda apenas o hash do token enviado por e-mail.
type PasswordResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Expired indica se o token passou da validade no instante informado.
func (t PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
