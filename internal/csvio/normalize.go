package csvio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// GuestPlaceholder substitutes reviewer names rejected by the sanitization
// heuristics (column misalignment can put a review excerpt where the guest
// name should be).
const GuestPlaceholder = "Hóspede Booking"

// Date formats accepted for the review submission date, tried in order:
// ISO with and without time, Brazilian D/M/Y, dashed D-M-Y, US M/D/Y.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"02-01-2006 15:04",
	"02-01-2006",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

var saoPaulo = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.Local
	}
	return loc
}()

// NowBRT returns the current time in the America/Sao_Paulo zone, the
// substitute for rows with an unparseable date.
func NowBRT() time.Time {
	return time.Now().In(saoPaulo)
}

// StripAccents removes combining marks after NFKD decomposition, so that
// "Avaliação" and "Avaliacao" compare equal.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// ParseFloat parses a float tolerating a comma decimal separator. Empty or
// unparseable input yields nil.
func ParseFloat(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// FiveScale normalizes a rating to the 0-5 scale by range detection: values
// already in [0,5] pass through, (5,10] are halved, (10,100] are rescaled,
// out-of-range values clamp. Results are rounded to one decimal.
func FiveScale(x *float64) *float64 {
	if x == nil {
		return nil
	}
	v := *x
	var out float64
	switch {
	case v >= 0 && v <= 5:
		out = round1(v)
	case v > 5 && v <= 10:
		out = round1(v / 2)
	case v > 10 && v <= 100:
		out = round1(v / 100 * 5)
	case v < 0:
		out = 0.0
	default:
		out = 5.0
	}
	return &out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ParseDate tries the accepted date layouts in order, interpreting the value
// in the America/Sao_Paulo zone. ok is false when no layout matched; rows
// are never rejected for a bad date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, saoPaulo); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidExternalID reports whether s is a plausible booking reservation
// number: digits only, between 6 and 16 characters.
func ValidExternalID(s string) bool {
	if len(s) < 6 || len(s) > 16 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NeutralizeFormula prefixes a leading spreadsheet-formula character with a
// single quote so re-exported data cannot execute as a formula.
func NeutralizeFormula(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}

// MergeText merges the positive and negative commentary columns into the
// single review text.
func MergeText(pos, neg string) string {
	pos = strings.TrimSpace(pos)
	neg = strings.TrimSpace(neg)
	switch {
	case pos != "" && neg != "":
		return fmt.Sprintf("Positivo: %s\nNegativo: %s", pos, neg)
	case pos != "":
		return pos
	default:
		return neg
	}
}

// SanitizeGuestName rejects reviewer names that look like review text rather
// than a person: too long, too many words, terminal punctuation, or textual
// overlap with the title/commentary columns. Rejected names become
// GuestPlaceholder.
func SanitizeGuestName(name, title, pos, neg string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsRune(name, '\n') {
		return GuestPlaceholder
	}
	if utf8.RuneCountInString(name) >= 60 {
		return GuestPlaceholder
	}
	if len(strings.Fields(name)) > 8 {
		return GuestPlaceholder
	}
	switch name[len(name)-1] {
	case '.', '!', '?':
		return GuestPlaceholder
	}

	for _, other := range []string{title, pos, neg} {
		other = strings.TrimSpace(other)
		if other == "" {
			continue
		}
		if name == other {
			return GuestPlaceholder
		}
		if utf8.RuneCountInString(name) > 25 && strings.Contains(other, name) {
			return GuestPlaceholder
		}
	}
	return name
}
