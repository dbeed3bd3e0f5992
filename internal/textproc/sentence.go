package textproc

import "strings"

// abbreviations lists the lower-cased tokens (periods stripped) after which
// a '.' never ends a sentence: titles, Latin abbreviations, and medical
// dose units. Matched against the word immediately preceding the period,
// so both "e.g." and "eg." forms of the token resolve the same way.
var abbreviations = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true,
	"sr": true, "jr": true, "st": true, "rev": true,
	"e.g": true, "eg": true, "i.e": true, "ie": true, "etc": true,
	"vs": true, "approx": true,
	"mg": true, "ml": true, "mcg": true, "mcg/ml": true, "kg": true, "g": true, "iu": true,
}

// trademarkSigils are characters that, immediately preceding a period,
// mark a product name (e.g. "Newest®.") rather than a sentence boundary.
var trademarkSigils = "®™"

// SplitSentences splits text on '.', '!', '?' boundaries, skipping splits
// after a recognized abbreviation or a trademarked product name so that
// "Administered by Dr. Smith." and "Apply Newest®. Results in 2 weeks."
// are not cut mid-sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r != '.' && r != '!' && r != '?' {
			continue
		}

		followedByBoundary := i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t'
		if !followedByBoundary {
			continue
		}

		if r == '.' && isAbbreviationBoundary(runes, i) {
			continue
		}

		sentences = append(sentences, strings.TrimSpace(current.String()))
		current.Reset()
	}
	if current.Len() > 0 {
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// isAbbreviationBoundary reports whether the period at runes[idx] closes a
// known abbreviation or trademark sigil rather than a sentence.
func isAbbreviationBoundary(runes []rune, idx int) bool {
	if idx > 0 && strings.ContainsRune(trademarkSigils, runes[idx-1]) {
		return true
	}

	start := idx
	for start > 0 {
		prev := runes[start-1]
		if prev == '.' || (prev >= 'a' && prev <= 'z') || (prev >= 'A' && prev <= 'Z') || (prev >= '0' && prev <= '9') {
			start--
			continue
		}
		break
	}
	word := strings.ToLower(strings.TrimSuffix(string(runes[start:idx]), "."))
	if word == "" {
		return false
	}
	return abbreviations[word]
}

// SplitParagraphs splits text on blank lines into paragraphs, filtering
// whitespace-only entries.
func SplitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	result := make([]string, 0, len(raw))
	for _, p := range raw {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// SplitByWords splits text into chunks of approximately targetTokens tokens
// by word count, the last-resort splitter when a single sentence exceeds
// the target size.
func SplitByWords(text string, targetTokens int) []string {
	words := strings.Fields(text)
	wordsPerChunk := int(float64(targetTokens) / 1.3)
	if wordsPerChunk <= 0 {
		wordsPerChunk = 1
	}

	var chunks []string
	for i := 0; i < len(words); i += wordsPerChunk {
		end := i + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
