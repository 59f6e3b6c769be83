// Package listing traduz os parâmetros de query das listagens (página, ordenação e
// filtros por entidade) em valores tipados e no domain.Predicate consumido pelos repositórios.
package listing

import (
	"net/url"
	"strconv"
	"strings"

	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
)

const (
	DefaultPage  = 1
	DefaultLimit = 12
)

// PageParams são page/limit como vieram do cliente (ainda sem clamp).
type PageParams struct {
	Page  int
	Limit int
}

// ParsePage lê page e limit. Ausentes usam o padrão; valores não inteiros ou negativos
// são rejeitados com ValidationError. Zero e o teto são ajustados pela paginação.
func ParsePage(q url.Values) (PageParams, error) {
	p := PageParams{Page: DefaultPage, Limit: DefaultLimit}

	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return PageParams{}, apperror.NewValidationError("O parâmetro 'page' deve ser um número inteiro.")
		}
		if v < 0 {
			return PageParams{}, apperror.NewValidationError("O parâmetro 'page' não pode ser negativo.")
		}
		p.Page = v
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return PageParams{}, apperror.NewValidationError("O parâmetro 'limit' deve ser um número inteiro.")
		}
		if v < 0 {
			return PageParams{}, apperror.NewValidationError("O parâmetro 'limit' não pode ser negativo.")
		}
		p.Limit = v
	}
	return p, nil
}

// SortSpec é a allow-list de ordenação de uma entidade.
// Allowed mapeia o valor aceito em sortBy para o campo lógico.
type SortSpec struct {
	Allowed map[string]string
	Default domain.Sort
}

// ParseSort valida sortBy/sortOrder. Campo fora da allow-list cai no padrão da entidade.
func ParseSort(q url.Values, spec SortSpec) domain.Sort {
	field, ok := spec.Allowed[strings.TrimSpace(q.Get("sortBy"))]
	if !ok {
		return spec.Default
	}

	desc := true
	if strings.EqualFold(strings.TrimSpace(q.Get("sortOrder")), "asc") {
		desc = false
	}
	return domain.Sort{Field: field, Desc: desc}
}
