package services

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// fingerprint computes the legacy content hash stored on each review. With
// an external id the hash binds (user, source, external id); without one it
// falls back to hashing author, title, date and a text prefix, the key the
// older index-less deduplication path relied on.
func fingerprint(userID, source, externalID, author, title string, date time.Time, text string) string {
	base := []string{userID, source}
	if externalID != "" {
		base = append(base, "extid:", externalID)
	} else {
		t := strings.ToLower(strings.TrimSpace(text))
		if len(t) > 200 {
			t = t[:200]
		}
		base = append(base,
			"author:", strings.ToLower(strings.TrimSpace(author)),
			"title:", strings.ToLower(strings.TrimSpace(title)),
			"date:", date.Format(time.RFC3339),
			"text:", t,
		)
	}
	sum := xxh3.Hash128([]byte(strings.Join(base, "|"))).Bytes()
	return hex.EncodeToString(sum[:])
}
