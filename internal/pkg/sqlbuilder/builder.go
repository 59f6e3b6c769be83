// Package sqlbuilder renderiza um domain.Predicate em cláusulas WHERE/ORDER BY do
// PostgreSQL com argumentos posicionais ($1, $2, ...).
package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"gomarket/internal/domain"
)

// Column descreve como um campo lógico é lido no SQL.
type Column struct {
	Expr  string // e.g. "p.name"
	Array bool   // coluna text[] (aceita apenas OpHasElement)
}

// Columns é a allow-list campo lógico -> coluna de um repositório.
// Campo fora do mapa é erro de programação e nunca chega ao SQL.
type Columns map[string]Column

// Query acumula condições e argumentos.
type Query struct {
	conditions []string
	args       []interface{}
}

// New cria um builder vazio.
func New() *Query {
	return &Query{}
}

func (q *Query) nextArg(v interface{}) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// Args devolve os argumentos acumulados, na ordem dos placeholders.
func (q *Query) Args() []interface{} {
	return q.args
}

// Arg adiciona um argumento extra (e.g. LIMIT/OFFSET) e devolve o placeholder.
func (q *Query) Arg(v interface{}) string {
	return q.nextArg(v)
}

// Where traduz o predicado. Devolve "" quando não há restrições.
func (q *Query) Where(p domain.Predicate, cols Columns) (string, error) {
	if p.IsEmpty() {
		return "", nil
	}
	for _, c := range p.Conditions {
		sql, err := q.condition(c, cols)
		if err != nil {
			return "", err
		}
		q.conditions = append(q.conditions, sql)
	}

	for _, group := range p.OrGroups {
		parts := make([]string, 0, len(group))
		for _, c := range group {
			sql, err := q.condition(c, cols)
			if err != nil {
				return "", err
			}
			parts = append(parts, sql)
		}
		q.conditions = append(q.conditions, "("+strings.Join(parts, " OR ")+")")
	}

	if len(q.conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(q.conditions, " AND "), nil
}

func (q *Query) condition(c domain.Condition, cols Columns) (string, error) {
	col, ok := cols[c.Field]
	if !ok {
		return "", fmt.Errorf("sqlbuilder: campo '%s' não permitido", c.Field)
	}
	if col.Array != (c.Op == domain.OpHasElement) {
		return "", fmt.Errorf("sqlbuilder: operador '%s' inválido para o campo '%s'", c.Op, c.Field)
	}

	switch c.Op {
	case domain.OpEq:
		return fmt.Sprintf("%s = %s", col.Expr, q.nextArg(c.Value)), nil
	case domain.OpGte:
		return fmt.Sprintf("%s >= %s", col.Expr, q.nextArg(c.Value)), nil
	case domain.OpLte:
		return fmt.Sprintf("%s <= %s", col.Expr, q.nextArg(c.Value)), nil
	case domain.OpContains:
		term, _ := c.Value.(string)
		return fmt.Sprintf("%s ILIKE %s", col.Expr, q.nextArg("%"+EscapeLike(term)+"%")), nil
	case domain.OpHasElement:
		return fmt.Sprintf("%s = ANY(%s)", q.nextArg(c.Value), col.Expr), nil
	}
	return "", fmt.Errorf("sqlbuilder: operador desconhecido '%s'", c.Op)
}

// OrderBy traduz a ordenação; o id entra como desempate para manter a paginação estável.
func OrderBy(s domain.Sort, cols Columns, tieBreaker string) (string, error) {
	col, ok := cols[s.Field]
	if !ok || col.Array {
		return "", fmt.Errorf("sqlbuilder: ordenação por '%s' não permitida", s.Field)
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, %s %s", col.Expr, dir, tieBreaker, dir), nil
}

// EscapeLike neutraliza os curingas do LIKE no termo do usuário.
func EscapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

// StringArray adapta []string para colunas text[].
func StringArray(values []string) interface{} {
	if values == nil {
		values = []string{}
	}
	return pq.Array(values)
}
