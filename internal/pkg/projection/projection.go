// Package projection converte as entidades do domínio na representação externa
// das respostas JSON: dinheiro em ponto fixo vira número, datas viram ISO-8601
// e relações aninhadas são recortadas (ausentes viram null).
// Nenhuma função aqui consulta o banco.
package projection

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"gomarket/internal/domain"
)

// Money converte o valor monetário para número. Precisão além de 2 casas não é garantida.
func Money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// MoneyString formata o valor numérico para exibição com 2 casas ("12.50").
func MoneyString(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Timestamp formata a data em RFC 3339 (UTC).
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// OptionalTimestamp devolve nil para datas ausentes.
func OptionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := Timestamp(*t)
	return &s
}

// AverageRating é a média da amostra já carregada, com uma casa decimal. Amostra vazia = 0.
func AverageRating(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return math.Round(avg*10) / 10
}

// List aplica o projetor a cada item; o resultado nunca é nil (serializa como []).
func List[T any, V any](items []T, project func(T) V) []V {
	out := make([]V, 0, len(items))
	for _, item := range items {
		out = append(out, project(item))
	}
	return out
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
