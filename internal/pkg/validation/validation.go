// Package validation valida os payloads de escrita contra JSON Schemas embutidos no binário.
package validation

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	apperror "gomarket/internal/errors"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Nomes dos schemas (nome do arquivo sem extensão).
const (
	SchemaProduct = "product"
	SchemaCourse  = "course"
)

// Validator guarda os schemas compilados.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compila todos os schemas de schemas/.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	files, err := fs.Glob(schemaFS, "schemas/*.json")
	if err != nil {
		return nil, err
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(files))}
	for _, file := range files {
		f, err := schemaFS.Open(file)
		if err != nil {
			return nil, err
		}
		err = compiler.AddResource(file, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("validation: falha ao registrar schema %s: %w", file, err)
		}

		schema, err := compiler.Compile(file)
		if err != nil {
			return nil, fmt.Errorf("validation: falha ao compilar schema %s: %w", file, err)
		}
		v.schemas[strings.TrimSuffix(path.Base(file), ".json")] = schema
	}
	return v, nil
}

// MustNew é New para inicialização (main e testes).
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate confere o corpo JSON contra o schema e devolve um ValidationError legível.
func (v *Validator) Validate(schemaName string, body []byte) error {
	schema, ok := v.schemas[schemaName]
	if !ok {
		return apperror.NewInternalError("schema desconhecido: "+schemaName, nil)
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}

	if err := schema.Validate(doc); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return apperror.NewValidationError(describe(ve))
		}
		return apperror.NewValidationError(err.Error())
	}
	return nil
}

// describe devolve a primeira causa folha ("/price: does not match pattern ...").
func describe(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	location := ve.InstanceLocation
	if location == "" {
		location = "/"
	}
	return fmt.Sprintf("Campo '%s' inválido: %s", location, ve.Message)
}
