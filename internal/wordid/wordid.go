// Package wordid computes the stable identity used to join word records
// across the shared content store and the per-user stores.
package wordid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// separator keeps ("ab","c") and ("a","bc") from colliding
const separator = "|"

// Compute returns the identity hash for a (word, language, native language)
// triple. The hash is deterministic across restarts and backends, and it is
// case-preserving: "Hallo" and "hallo" are distinct identities.
func Compute(word, language, nativeLanguage string) string {
	sum := sha256.Sum256([]byte(word + separator + language + separator + nativeLanguage))
	return hex.EncodeToString(sum[:])
}

// ComputeAll returns the identity for every word in order
func ComputeAll(words []string, language, nativeLanguage string) []string {
	hashes := make([]string, len(words))
	for i, w := range words {
		hashes[i] = Compute(w, language, nativeLanguage)
	}
	return hashes
}

// NormalizeWord prepares a raw token for lookup and aggregation: surrounding
// whitespace and trailing punctuation are removed, case is preserved.
func NormalizeWord(word string) string {
	return strings.TrimRight(strings.TrimSpace(word), ".,;:!?\"'")
}

// NormalizeAll normalizes and deduplicates a word list, preserving order
func NormalizeAll(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		n := NormalizeWord(w)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
