package csvio

import "testing"

// TestNormalizeHeader_AccentCaseSpacing verifies that accents, case and
// repeated punctuation all collapse to the same canonical key.
func TestNormalizeHeader_AccentCaseSpacing(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Nota de Avaliação", "nota de avaliacao"},
		{"NOTA DE AVALIACAO", "nota de avaliacao"},
		{"nota  de   avaliacao", "nota de avaliacao"},
		{"Número da reserva", "numero da reserva"},
		{"  Review-Title  ", "review title"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeHeader(c.in); got != c.want {
			t.Fatalf("NormalizeHeader(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// TestDetectFields_PortugueseBookingExport maps the headers of a typical
// Booking export in Portuguese.
func TestDetectFields_PortugueseBookingExport(t *testing.T) {
	headers := []string{
		"Número da reserva",
		"Nome do hóspede",
		"Avaliação positiva",
		"Avaliação negativa",
		"Nota de Avaliação",
		"Data da Avaliação",
	}
	got := DetectFields(headers)

	if got.ExternalID != "Número da reserva" {
		t.Fatalf("ExternalID = %q, want %q", got.ExternalID, "Número da reserva")
	}
	if got.Name != "Nome do hóspede" {
		t.Fatalf("Name = %q, want %q", got.Name, "Nome do hóspede")
	}
	if got.TextPos != "Avaliação positiva" {
		t.Fatalf("TextPos = %q, want %q", got.TextPos, "Avaliação positiva")
	}
	if got.TextNeg != "Avaliação negativa" {
		t.Fatalf("TextNeg = %q, want %q", got.TextNeg, "Avaliação negativa")
	}
	if got.Rating != "Nota de Avaliação" {
		t.Fatalf("Rating = %q, want %q", got.Rating, "Nota de Avaliação")
	}
	if got.Date != "Data da Avaliação" {
		t.Fatalf("Date = %q, want %q", got.Date, "Data da Avaliação")
	}
}

// TestDetectFields_EnglishExport maps an English-language export.
func TestDetectFields_EnglishExport(t *testing.T) {
	got := DetectFields([]string{"Review ID", "Guest Name", "Score", "Submission Date"})
	if got.ExternalID != "Review ID" {
		t.Fatalf("ExternalID = %q, want %q", got.ExternalID, "Review ID")
	}
	if got.Name != "Guest Name" {
		t.Fatalf("Name = %q, want %q", got.Name, "Guest Name")
	}
	if got.Rating != "Score" {
		t.Fatalf("Rating = %q, want %q", got.Rating, "Score")
	}
	if got.Date != "Submission Date" {
		t.Fatalf("Date = %q, want %q", got.Date, "Submission Date")
	}
}

// TestDetectFields_SynonymPriority checks that the higher-priority synonym
// wins when several headers could serve the same field.
func TestDetectFields_SynonymPriority(t *testing.T) {
	got := DetectFields([]string{"ID", "Review ID"})
	if got.ExternalID != "Review ID" {
		t.Fatalf("ExternalID = %q, want %q", got.ExternalID, "Review ID")
	}
}

// TestDetectFields_UnmatchedStaysEmpty leaves fields with no matching header
// empty rather than guessing.
func TestDetectFields_UnmatchedStaysEmpty(t *testing.T) {
	got := DetectFields([]string{"coluna misteriosa", "outra coluna"})
	if got != (FieldMap{}) {
		t.Fatalf("got %+v, want zero FieldMap", got)
	}
}
