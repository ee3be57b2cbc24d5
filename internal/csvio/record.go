package csvio

import (
	"encoding/csv"
	"strings"
)

// DetectDelimiter sniffs the record delimiter from the header line, counting
// candidate separators outside quoted regions. Comma is the safe fallback.
func DetectDelimiter(header string) rune {
	counts := map[rune]int{}
	inQuotes := false
	for _, r := range header {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',', ';', '\t':
			if !inQuotes {
				counts[r]++
			}
		}
	}

	best, bestCount := ',', counts[',']
	if counts[';'] > bestCount {
		best, bestCount = ';', counts[';']
	}
	if counts['\t'] > bestCount {
		best = '\t'
	}
	return best
}

// SplitRecord splits one delimited line into fields. Quoting is handled
// leniently; a structurally broken line degrades to a plain split so the row
// can still go through validation instead of aborting the file.
func SplitRecord(line string, delim rune) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	record, err := r.Read()
	if err != nil {
		return strings.Split(line, string(delim))
	}
	return record
}
