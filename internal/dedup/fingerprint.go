package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Fingerprint returns the content hash used as the dedup and identity key of
// a posting: hex SHA-256 of the normalized "title|organization|lastDate".
// Organization and lastDate may be empty.
func Fingerprint(title, organization, lastDate string) string {
	key := Normalize(title) + "|" + Normalize(organization) + "|" + Normalize(lastDate)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Normalize brings s to NFC, lowercases it, turns every run of characters
// that are not letters, combining marks or digits into a single space, and
// trims the result. Marks are kept: Devanagari vowel signs and the virama
// distinguish otherwise identical consonant sequences.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSpace = true
	}
	return b.String()
}
