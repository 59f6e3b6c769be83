package listing

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gomarket/internal/domain"
)

// Campos lógicos usados nos predicados. Cada repositório mapeia estes nomes para colunas.
const (
	FieldCategoryID   = "categoryId"
	FieldPrice        = "price"
	FieldName         = "name"
	FieldDescription  = "description"
	FieldBrand        = "brand"
	FieldSkinTypes    = "skinTypes"
	FieldTags         = "tags"
	FieldStatus       = "status"
	FieldSellerID     = "sellerId"
	FieldTitle        = "title"
	FieldLevel        = "level"
	FieldInstructorID = "instructorId"
	FieldRole         = "role"
	FieldEmail        = "email"
	FieldCreatedAt    = "createdAt"
	FieldPublishedAt  = "publishedAt"
)

// Visibility decide se a listagem é pública (restrita ao status visível)
// ou privilegiada (admin/dono: o filtro de status é respeitado, sem restrição implícita).
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityAll
)

// Ordenações aceitas por entidade.
var (
	ProductSort = SortSpec{
		Allowed: map[string]string{"createdAt": FieldCreatedAt, "price": FieldPrice, "name": FieldName},
		Default: domain.Sort{Field: FieldCreatedAt, Desc: true},
	}
	CourseSort = SortSpec{
		Allowed: map[string]string{"createdAt": FieldCreatedAt, "price": FieldPrice, "title": FieldTitle, "publishedAt": FieldPublishedAt},
		Default: domain.Sort{Field: FieldCreatedAt, Desc: true},
	}
	UserSort = SortSpec{
		Allowed: map[string]string{"createdAt": FieldCreatedAt, "name": FieldName, "email": FieldEmail},
		Default: domain.Sort{Field: FieldCreatedAt, Desc: true},
	}
)

// --- Produtos ---

// ProductFilter é o conjunto fechado de filtros da listagem de produtos.
// Campo vazio/nil = sem restrição.
type ProductFilter struct {
	CategoryID string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Search     string // nome + descrição + marca
	Brand      string
	SkinType   string
	Tag        string
	SellerID   string
	Status     *domain.ProductStatus
}

// ParseProductFilter lê os filtros de produto. Chaves desconhecidas e valores
// que não convertem (preço não numérico, status inexistente) são ignorados.
func ParseProductFilter(q url.Values) ProductFilter {
	f := ProductFilter{
		CategoryID: uuidParam(q, "categoryId"),
		MinPrice:   decimalParam(q, "minPrice", "priceMin"),
		MaxPrice:   decimalParam(q, "maxPrice", "priceMax"),
		Search:     get(q, "search"),
		Brand:      get(q, "brand"),
		SkinType:   get(q, "skinType"),
		Tag:        get(q, "tag"),
		SellerID:   uuidParam(q, "sellerId"),
	}
	if st, ok := domain.ParseProductStatus(get(q, "status")); ok {
		f.Status = &st
	}
	return f
}

// Predicate monta o predicado. Na visibilidade pública o status é sempre ACTIVE.
func (f ProductFilter) Predicate(v Visibility) domain.Predicate {
	var p domain.Predicate

	switch {
	case v == VisibilityPublic:
		p.And(FieldStatus, domain.OpEq, string(domain.ProductActive))
	case f.Status != nil:
		p.And(FieldStatus, domain.OpEq, string(*f.Status))
	}

	eq(&p, FieldCategoryID, f.CategoryID)
	eq(&p, FieldBrand, f.Brand)
	eq(&p, FieldSellerID, f.SellerID)
	priceRange(&p, f.MinPrice, f.MaxPrice)
	hasElement(&p, FieldSkinTypes, f.SkinType)
	hasElement(&p, FieldTags, f.Tag)
	search(&p, f.Search, FieldName, FieldDescription, FieldBrand)

	return p
}

// --- Cursos ---

// CourseFilter é o conjunto fechado de filtros da listagem de cursos.
type CourseFilter struct {
	CategoryID   string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Search       string // título + descrição
	Level        *domain.CourseLevel
	Tag          string
	InstructorID string
	Status       *domain.CourseStatus
}

// ParseCourseFilter lê os filtros de curso com as mesmas regras de ParseProductFilter.
func ParseCourseFilter(q url.Values) CourseFilter {
	f := CourseFilter{
		CategoryID:   uuidParam(q, "categoryId"),
		MinPrice:     decimalParam(q, "minPrice", "priceMin"),
		MaxPrice:     decimalParam(q, "maxPrice", "priceMax"),
		Search:       get(q, "search"),
		Tag:          get(q, "tag"),
		InstructorID: uuidParam(q, "instructorId"),
	}
	if lvl, ok := domain.ParseCourseLevel(get(q, "level")); ok {
		f.Level = &lvl
	}
	if st, ok := domain.ParseCourseStatus(get(q, "status")); ok {
		f.Status = &st
	}
	return f
}

// Predicate monta o predicado. Na visibilidade pública o status é sempre PUBLISHED.
func (f CourseFilter) Predicate(v Visibility) domain.Predicate {
	var p domain.Predicate

	switch {
	case v == VisibilityPublic:
		p.And(FieldStatus, domain.OpEq, string(domain.CoursePublished))
	case f.Status != nil:
		p.And(FieldStatus, domain.OpEq, string(*f.Status))
	}

	eq(&p, FieldCategoryID, f.CategoryID)
	eq(&p, FieldInstructorID, f.InstructorID)
	if f.Level != nil {
		p.And(FieldLevel, domain.OpEq, string(*f.Level))
	}
	priceRange(&p, f.MinPrice, f.MaxPrice)
	hasElement(&p, FieldTags, f.Tag)
	search(&p, f.Search, FieldTitle, FieldDescription)

	return p
}

// --- Usuários (somente admin) ---

// UserFilter é o conjunto fechado de filtros da listagem administrativa de usuários.
type UserFilter struct {
	Role   *domain.UserRole
	Status *domain.UserStatus
	Search string // nome + e-mail
}

// ParseUserFilter lê os filtros de usuário; role/status inválidos são ignorados.
func ParseUserFilter(q url.Values) UserFilter {
	f := UserFilter{Search: get(q, "search")}
	if role, ok := domain.ParseUserRole(get(q, "role")); ok {
		f.Role = &role
	}
	if st, ok := domain.ParseUserStatus(get(q, "status")); ok {
		f.Status = &st
	}
	return f
}

// Predicate monta o predicado. Não existe restrição implícita de status.
func (f UserFilter) Predicate() domain.Predicate {
	var p domain.Predicate
	if f.Role != nil {
		p.And(FieldRole, domain.OpEq, string(*f.Role))
	}
	if f.Status != nil {
		p.And(FieldStatus, domain.OpEq, string(*f.Status))
	}
	search(&p, f.Search, FieldName, FieldEmail)
	return p
}

// --- Funções Auxiliares ---

func get(q url.Values, key string) string {
	return strings.TrimSpace(q.Get(key))
}

// uuidParam lê um identificador; valor que não é UUID = filtro ausente.
func uuidParam(q url.Values, key string) string {
	raw := get(q, key)
	if raw == "" {
		return ""
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return ""
	}
	return id.String()
}

// decimalParam lê o primeiro alias presente; valor inválido = filtro ausente.
func decimalParam(q url.Values, keys ...string) *decimal.Decimal {
	for _, key := range keys {
		raw := get(q, key)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil
		}
		return &d
	}
	return nil
}

func eq(p *domain.Predicate, field, value string) {
	if value != "" {
		p.And(field, domain.OpEq, value)
	}
}

func hasElement(p *domain.Predicate, field, value string) {
	if value != "" {
		p.And(field, domain.OpHasElement, value)
	}
}

func priceRange(p *domain.Predicate, min, max *decimal.Decimal) {
	if min != nil {
		p.And(FieldPrice, domain.OpGte, *min)
	}
	if max != nil {
		p.And(FieldPrice, domain.OpLte, *max)
	}
}

// search expande o termo num grupo OR de substrings case-insensitive.
func search(p *domain.Predicate, term string, fields ...string) {
	if term == "" {
		return
	}
	group := make([]domain.Condition, 0, len(fields))
	for _, field := range fields {
		group = append(group, domain.Condition{Field: field, Op: domain.OpContains, Value: term})
	}
	p.AnyOf(group...)
}
