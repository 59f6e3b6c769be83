package domain

// --- Estruturas da listagem paginada (filtro -> predicado -> página) ---

// Operator é o tipo de comparação de uma condição.
type Operator string

const (
	OpEq         Operator = "eq"          // igualdade
	OpGte        Operator = "gte"         // limite inferior (inclusivo)
	OpLte        Operator = "lte"         // limite superior (inclusivo)
	OpContains   Operator = "contains"    // substring, case-insensitive
	OpHasElement Operator = "has_element" // o valor está contido no campo multivalorado
)

// Condition é uma restrição sobre um campo lógico (não uma coluna SQL).
// A tradução campo -> coluna fica no repositório.
type Condition struct {
	Field string
	Op    Operator
	Value interface{}
}

// Predicate é a conjunção de Conditions com grupos OR (cada grupo vira "(a OR b OR c)").
// O valor zero significa "sem restrições".
type Predicate struct {
	Conditions []Condition
	OrGroups   [][]Condition
}

// IsEmpty indica um predicado sem nenhuma restrição.
func (p Predicate) IsEmpty() bool {
	return len(p.Conditions) == 0 && len(p.OrGroups) == 0
}

// And adiciona uma condição ao predicado.
func (p *Predicate) And(field string, op Operator, value interface{}) {
	p.Conditions = append(p.Conditions, Condition{Field: field, Op: op, Value: value})
}

// AnyOf adiciona um grupo OR. Grupos vazios são ignorados.
func (p *Predicate) AnyOf(group ...Condition) {
	if len(group) == 0 {
		return
	}
	p.OrGroups = append(p.OrGroups, group)
}

// Sort é a ordenação já validada contra a allow-list da entidade.
type Sort struct {
	Field string
	Desc  bool
}

// ListingQuery é o pedido de página já normalizado.
type ListingQuery struct {
	Page      int
	Limit     int
	Sort      Sort
	Predicate Predicate
}

// Pagination é o sub-objeto uniforme de todas as listagens.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page é o resultado bruto de uma listagem (antes da projeção).
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}
