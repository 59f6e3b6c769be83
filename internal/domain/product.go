package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product representa o item principal do catálogo de um vendedor.
// O preço é mantido em ponto fixo; a conversão para float acontece só na projeção.
type Product struct {
	ID          string
	SellerID    string
	CategoryID  string
	Name        string
	Description string
	Brand       string
	Price       decimal.Decimal
	Stock       int
	SkinTypes   []string
	Tags        []string
	Images      []string
	Status      ProductStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relações carregadas pelo repositório (podem vir vazias)
	Category *CategoryRef
	Seller   *SellerRef
	Reviews  []Review // amostra limitada, não o histórico completo
}

// ProductInput é o payload de criação/atualização de produto.
type ProductInput struct {
	CategoryID  string   `json:"categoryId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Price       string   `json:"price"` // string para não perder precisão no JSON
	Stock       int      `json:"stock"`
	SkinTypes   []string `json:"skinTypes"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
}

// SellerRef é o recorte do vendedor carregado junto com o produto.
type SellerRef struct {
	ID      string
	Name    string
	Profile *SellerProfile // nil quando o vendedor ainda não criou perfil de loja
}

// SellerProfile é o perfil público da loja.
type SellerProfile struct {
	StoreName string
	LogoURL   string
}

// ProductStatus é o ciclo de vida do produto.
type ProductStatus string

const (
	ProductDraft     ProductStatus = "DRAFT"
	ProductActive    ProductStatus = "ACTIVE"
	ProductInactive  ProductStatus = "INACTIVE"
	ProductSuspended ProductStatus = "SUSPENDED"
	ProductSold      ProductStatus = "SOLD"
)

// ParseProductStatus converte uma string (case-insensitive) no status correspondente.
func ParseProductStatus(s string) (ProductStatus, bool) {
	switch st := ProductStatus(upper(s)); st {
	case ProductDraft, ProductActive, ProductInactive, ProductSuspended, ProductSold:
		return st, true
	}
	return "", false
}

// productTransitions lista as transições que o dono pode fazer.
var productTransitions = map[ProductStatus][]ProductStatus{
	ProductDraft:    {ProductActive},
	ProductActive:   {ProductInactive, ProductSold},
	ProductInactive: {ProductActive},
}

// CanTransitionTo aplica a máquina de estados do produto.
// SUSPENDED só entra e sai pelas mãos de um admin; SOLD é absorvente.
func (s ProductStatus) CanTransitionTo(next ProductStatus, admin bool) bool {
	if s == next || s == ProductSold {
		return false
	}
	if next == ProductSuspended {
		return admin
	}
	if s == ProductSuspended {
		return admin && (next == ProductActive || next == ProductInactive)
	}
	for _, allowed := range productTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
