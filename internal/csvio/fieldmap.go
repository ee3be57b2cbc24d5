package csvio

import (
	"regexp"
	"strings"
)

// FieldMap maps each canonical review field to the original header string of
// the uploaded CSV, or "" when no header matched. ExternalID is the only
// field the import treats as mandatory: it is the sole deduplication key.
type FieldMap struct {
	Name       string
	Title      string
	TextPos    string
	TextNeg    string
	Rating     string
	Date       string
	ExternalID string
}

// Known header synonyms per canonical field, in priority order. Entries are
// pre-normalized (lowercase, accents stripped, punctuation collapsed).
var fieldSynonyms = map[string][]string{
	"name":        {"nome do hospede", "hospede", "guest name", "reviewer name", "name", "autor", "author"},
	"title":       {"titulo da avaliacao", "review title", "title", "titulo"},
	"text_pos":    {"avaliacao positiva", "positive", "pros", "comentario positivo"},
	"text_neg":    {"avaliacao negativa", "negative", "cons", "comentario negativo"},
	"rating":      {"nota de avaliacao", "score", "rating", "nota", "overall score", "overall", "puntuacion", "pontuacao"},
	"date":        {"data da avaliacao", "submission date", "date", "data", "review date", "created", "created at"},
	"external_id": {"numero da reserva", "review id", "id", "booking id", "reviewid"},
}

var nonWordRe = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeHeader canonicalizes a header for synonym matching: accents are
// stripped (NFKD, combining marks removed), the result lowercased, and runs
// of non-word characters collapsed to single spaces.
func NormalizeHeader(s string) string {
	s = strings.ToLower(StripAccents(s))
	s = nonWordRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// DetectFields maps the raw header row to canonical fields. The first header
// matching a synonym wins; unmatched fields stay empty.
func DetectFields(headers []string) FieldMap {
	lookup := make(map[string]string, len(headers))
	for _, h := range headers {
		key := NormalizeHeader(h)
		if key == "" {
			continue
		}
		if _, ok := lookup[key]; !ok {
			lookup[key] = h
		}
	}

	pick := func(field string) string {
		for _, synonym := range fieldSynonyms[field] {
			if original, ok := lookup[synonym]; ok {
				return original
			}
		}
		return ""
	}

	return FieldMap{
		Name:       pick("name"),
		Title:      pick("title"),
		TextPos:    pick("text_pos"),
		TextNeg:    pick("text_neg"),
		Rating:     pick("rating"),
		Date:       pick("date"),
		ExternalID: pick("external_id"),
	}
}
