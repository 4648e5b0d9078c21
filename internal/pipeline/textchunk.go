package pipeline

import (
	"strings"
	"unicode/utf8"
)

// EstimateTokens approximates token count at ~4 characters per token.
// It is a heuristic; every budget built on it is conservative by
// convention, not guarantee.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ChunkText splits text into sentence-aligned chunks of roughly maxTokens
// estimated tokens. Each chunk after the first is seeded with the trailing
// overlapTokens*4 characters of the previous chunk so downstream merging
// can deduplicate across the boundary. A single sentence larger than the
// budget is kept whole; chunks may exceed maxTokens for such inputs.
func ChunkText(text string, maxTokens, overlapTokens int) []string {
	var chunks []string
	sentences := splitSentences(text)

	current := ""
	currentTokens := 0

	for _, sentence := range sentences {
		sentenceTokens := EstimateTokens(sentence)

		if currentTokens+sentenceTokens > maxTokens && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))

			overlapChars := overlapTokens * 4
			overlap := current
			if len(current) > overlapChars {
				cut := len(current) - overlapChars
				// never slice mid-rune
				for cut < len(current) && !utf8.RuneStart(current[cut]) {
					cut++
				}
				overlap = current[cut:]
			}
			current = overlap + " " + sentence
			currentTokens = EstimateTokens(current)
		} else {
			current += " " + sentence
			currentTokens += sentenceTokens
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}

// splitSentences breaks text after '.', '!' or '?' followed by whitespace.
// The separating whitespace is dropped; the punctuation stays with its
// sentence.
func splitSentences(text string) []string {
	var out []string
	start := 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && i+1 < len(text) && isSpace(text[i+1]) {
			out = append(out, text[start:i+1])
			j := i + 1
			for j < len(text) && isSpace(text[j]) {
				j++
			}
			start = j
			i = j - 1
		}
	}

	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
