// Package params lê parâmetros de rota, query e corpo comuns a todos os handlers.
package params

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/listing"
)

// MaxBodyBytes limita o corpo das requisições JSON.
const MaxBodyBytes = 1 << 20

// ID lê um parâmetro de rota. Valor que não é UUID nunca chega ao banco: vira 404.
func ID(r *http.Request, name, entity string) (string, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperror.NewNotFoundError(entity + " não encontrado.")
	}
	return id.String(), nil
}

// Listing lê page/limit e a ordenação da entidade.
func Listing(q url.Values, spec listing.SortSpec) (listing.PageParams, domain.Sort, error) {
	page, err := listing.ParsePage(q)
	if err != nil {
		return listing.PageParams{}, domain.Sort{}, err
	}
	return page, listing.ParseSort(q, spec), nil
}

// OptionalInt lê um inteiro opcional da query; ausente devolve 0.
func OptionalInt(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewValidationError("O parâmetro '" + key + "' deve ser um número inteiro.")
	}
	return v, nil
}

// Body lê o corpo inteiro respeitando MaxBodyBytes.
func Body(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.NewValidationError("Payload excede o tamanho máximo permitido.")
		}
		return nil, apperror.NewValidationError("Não foi possível ler o payload.")
	}
	return body, nil
}

// DecodeJSON decodifica o corpo em v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := Body(w, r)
	if err != nil {
		return err
	}
	return Unmarshal(body, v)
}

// Unmarshal converte o JSON já lido em v.
func Unmarshal(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	return nil
}
