package textproc

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strings"
)

// EstimateTokens approximates token count as words * 1.3, the heuristic
// used consistently across the chunker, embedding gateway, and evaluation
// harness.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) * 1.3))
}

// WordCount returns the whitespace-delimited token count of text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// LastNWords returns the last n whitespace-delimited words of text.
func LastNWords(text string, n int) string {
	words := strings.Fields(text)
	if n >= len(words) {
		return text
	}
	return strings.Join(words[len(words)-n:], " ")
}

// ContentHash returns the hex sha256 digest of s, used as the chunk
// content hash and the embedding/judge cache key.
func ContentHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}

// Normalize collapses the document text to the normalized form offsets are
// computed against: CRLF/CR folded to LF. Other whitespace, including
// trailing whitespace on a line, is kept, so offsets shift only by
// line-ending normalization.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}
