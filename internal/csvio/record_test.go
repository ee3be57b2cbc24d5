package csvio

import "testing"

// TestDetectDelimiter_Semicolon sniffs a semicolon-separated header.
func TestDetectDelimiter_Semicolon(t *testing.T) {
	if got := DetectDelimiter("Número da reserva;Nome do hóspede;Nota"); got != ';' {
		t.Fatalf("got %q, want ';'", got)
	}
}

// TestDetectDelimiter_Tab sniffs a tab-separated header.
func TestDetectDelimiter_Tab(t *testing.T) {
	if got := DetectDelimiter("id\tname\trating"); got != '\t' {
		t.Fatalf("got %q, want tab", got)
	}
}

// TestDetectDelimiter_DefaultsToComma falls back to comma when the header
// carries no candidate separator at all.
func TestDetectDelimiter_DefaultsToComma(t *testing.T) {
	if got := DetectDelimiter("justoneheader"); got != ',' {
		t.Fatalf("got %q, want ','", got)
	}
}

// TestDetectDelimiter_IgnoresQuotedSeparators does not count separators
// inside quoted regions: commas within one quoted field must not outvote the
// actual semicolon delimiter.
func TestDetectDelimiter_IgnoresQuotedSeparators(t *testing.T) {
	header := `"a, b, c, d";x;y`
	if got := DetectDelimiter(header); got != ';' {
		t.Fatalf("got %q, want ';'", got)
	}
}

// TestSplitRecord_QuotedComma keeps a quoted comma inside its field.
func TestSplitRecord_QuotedComma(t *testing.T) {
	got := SplitRecord(`1234567,"Silva, Maria",9`, ',')
	if len(got) != 3 {
		t.Fatalf("got %d fields %v, want 3", len(got), got)
	}
	if got[1] != "Silva, Maria" {
		t.Fatalf("got %q, want %q", got[1], "Silva, Maria")
	}
}

// TestSplitRecord_BrokenQuotesDegrade verifies a structurally broken line
// still yields fields via the plain split fallback instead of failing.
func TestSplitRecord_BrokenQuotesDegrade(t *testing.T) {
	got := SplitRecord(`a,"unclosed,b`, ',')
	if len(got) == 0 {
		t.Fatalf("expected fields, got none")
	}
}

// TestSplitRecord_TrailingDelimiter yields an empty final field.
func TestSplitRecord_TrailingDelimiter(t *testing.T) {
	got := SplitRecord("a,b,", ',')
	if len(got) != 3 || got[2] != "" {
		t.Fatalf("got %v, want [a b \"\"]", got)
	}
}
