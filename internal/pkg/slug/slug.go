// Package slug gera identificadores legíveis para URLs e normaliza etiquetas.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// stripMarks remove acentos: "Introdução" -> "Introducao".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Make converte um título em slug: minúsculas, sem acentos, palavras separadas por "-".
// "Go Avançado: Concorrência & Canais" -> "go-avancado-concorrencia-canais".
func Make(title string) string {
	s := lower.String(stripMarks(title))

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Tag normaliza uma etiqueta (minúsculas, sem espaços nas pontas, acentos preservados).
func Tag(s string) string {
	return lower.String(strings.TrimSpace(s))
}

// Tags normaliza e remove duplicadas/vazias, preservando a ordem.
func Tags(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		t := Tag(v)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
