package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/validation"
)

func TestValidateProduct(t *testing.T) {
	v := validation.MustNew()

	ok := `{"categoryId":"c-1","name":"Sérum","price":"89.90","stock":3,"tags":["vegano"],"images":["https://cdn.exemplo.com/a.png"]}`
	require.NoError(t, v.Validate(validation.SchemaProduct, []byte(ok)))

	cases := map[string]string{
		"preço numérico":     `{"categoryId":"c-1","name":"Sérum","price":89.9}`,
		"preço com 3 casas":  `{"categoryId":"c-1","name":"Sérum","price":"1.999"}`,
		"sem nome":           `{"categoryId":"c-1","price":"10"}`,
		"estoque negativo":   `{"categoryId":"c-1","name":"Sérum","price":"10","stock":-1}`,
		"estoque acima int4": `{"categoryId":"c-1","name":"Sérum","price":"10","stock":3000000000}`,
		"preço 11 dígitos":   `{"categoryId":"c-1","name":"Sérum","price":"12345678901"}`,
		"campo desconhecido": `{"categoryId":"c-1","name":"Sérum","price":"10","sellerId":"x"}`,
		"json quebrado":      `{"categoryId":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			err := v.Validate(validation.SchemaProduct, []byte(body))
			require.Error(t, err)
			assert.IsType(t, &apperror.ValidationError{}, err)
		})
	}
}

func TestValidateCourse(t *testing.T) {
	v := validation.MustNew()

	require.NoError(t, v.Validate(validation.SchemaCourse, []byte(`{"categoryId":"c-1","title":"Go do Zero","level":"beginner","price":"0"}`)))

	err := v.Validate(validation.SchemaCourse, []byte(`{"categoryId":"c-1","title":"Go do Zero","level":"expert","price":"0"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/level")

	err = v.Validate(validation.SchemaCourse, []byte(`{"categoryId":"c-1","title":"Go do Zero","level":"beginner","price":"99999999999"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/price")

	require.NoError(t, v.Validate(validation.SchemaCourse, []byte(`{"categoryId":"c-1","title":"Go do Zero","level":"beginner","price":"9999999999.99"}`)))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := validation.MustNew().Validate("order", []byte(`{}`))
	assert.IsType(t, &apperror.InternalError{}, err)
}
