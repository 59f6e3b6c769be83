package domain

// Identity é a capacidade explícita do chamador, extraída do token pelo middleware
// e repassada pelos handlers a cada operação de serviço.
// O valor zero representa um visitante anônimo.
type Identity struct {
	UserID string
	Role   UserRole
}

// Anonymous é a identidade de quem não apresentou token.
var Anonymous = Identity{}

// IsAuthenticated indica se a identidade veio de um token válido.
func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

// IsAdmin indica se o chamador tem papel de administrador.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Owns indica se o chamador é o dono do recurso (ou admin, que pode tudo).
func (i Identity) Owns(ownerID string) bool {
	return i.IsAdmin() || (i.IsAuthenticated() && i.UserID == ownerID)
}

// HasRole verifica se o papel do chamador está na lista.
func (i Identity) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}
