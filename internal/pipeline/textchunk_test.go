package pipeline

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, c := range cases {
		if got := EstimateTokens(c.text); got != c.want {
			t.Fatalf("EstimateTokens(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}

func TestChunkTextShortInputSingleChunk(t *testing.T) {
	text := "One sentence. Another sentence."
	chunks := ChunkText(text, 1000, 10)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestChunkTextKeepsEverySentenceInOrder(t *testing.T) {
	var sentences []string
	for i := 0; i < 30; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence number %02d has a bit of content in it.", i))
	}
	text := strings.Join(sentences, " ")

	chunks := ChunkText(text, 30, 5)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	joined := strings.Join(chunks, "\n")
	lastIdx := -1
	for _, s := range sentences {
		idx := strings.Index(joined, s)
		if idx < 0 {
			t.Fatalf("sentence dropped: %q", s)
		}
		if idx < lastIdx {
			t.Fatalf("sentence out of order: %q", s)
		}
		lastIdx = idx
	}
}

func TestChunkTextSeedsOverlap(t *testing.T) {
	var sentences []string
	for i := 0; i < 10; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence %d is right here and fairly long indeed.", i))
	}
	text := strings.Join(sentences, " ")

	overlapTokens := 5
	chunks := ChunkText(text, 25, overlapTokens)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Each chunk after the first starts with the tail of the previous one.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		overlapChars := overlapTokens * 4
		if len(prev) < overlapChars {
			overlapChars = len(prev)
		}
		tail := prev[len(prev)-overlapChars:]
		if !strings.Contains(chunks[i], strings.TrimSpace(tail)) {
			t.Fatalf("chunk %d missing overlap from previous chunk: %q vs %q", i, tail, chunks[i][:min(len(chunks[i]), 80)])
		}
	}
}

func TestChunkTextOverlapKeepsRunesWhole(t *testing.T) {
	// every sentence is multi-byte, so a byte-count overlap boundary
	// would land mid-rune without adjustment
	var sentences []string
	for i := 0; i < 8; i++ {
		sentences = append(sentences, "ééééééééé.")
	}
	text := strings.Join(sentences, " ")

	chunks := ChunkText(text, 10, 1)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d contains a split rune: %q", i, c)
		}
	}
}

func TestChunkTextOversizedSentenceStaysWhole(t *testing.T) {
	big := strings.Repeat("word ", 100) + "end."
	text := "Small one. " + big

	chunks := ChunkText(text, 10, 2)
	found := false
	for _, c := range chunks {
		if strings.Contains(c, big) {
			found = true
		}
	}
	if !found {
		t.Fatalf("oversized sentence was split across chunks")
	}
}
