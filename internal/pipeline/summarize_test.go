package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"podbrief/internal/ai"
)

func newTestSummarizer(t *testing.T, cfg SummarizerConfig) *Summarizer {
	t.Helper()
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = time.Millisecond
	}
	s, err := NewSummarizer(cfg)
	if err != nil {
		t.Fatalf("new summarizer: %v", err)
	}
	return s
}

func TestNewSummarizerRequiresProvider(t *testing.T) {
	_, err := NewSummarizer(SummarizerConfig{})
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSummarizeDirect(t *testing.T) {
	prov := &fakeProvider{fn: func(req ai.Request) (string, error) {
		return "## Overview\nGreat episode.", nil
	}}
	s := newTestSummarizer(t, SummarizerConfig{Provider: prov})

	out, err := s.Summarize(context.Background(), "A short cleaned transcript.", testMeta)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !strings.Contains(out, "## Overview") {
		t.Fatalf("unexpected summary: %q", out)
	}
	if len(prov.calls) != 1 {
		t.Fatalf("direct path should make exactly 1 call, got %d", len(prov.calls))
	}
	if !strings.Contains(prov.calls[0].Prompt, "Title: Test Episode") {
		t.Fatalf("prompt missing metadata: %q", prov.calls[0].Prompt)
	}
	if !strings.Contains(prov.calls[0].System, "## Notable Quotes") {
		t.Fatalf("system prompt missing section structure")
	}
}

func TestSummarizeDirectEmptyOutput(t *testing.T) {
	prov := &fakeProvider{fn: func(req ai.Request) (string, error) {
		return "", nil
	}}
	s := newTestSummarizer(t, SummarizerConfig{Provider: prov})

	_, err := s.Summarize(context.Background(), "A short cleaned transcript.", testMeta)
	if err == nil || !strings.Contains(err.Error(), "failed to generate summary") {
		t.Fatalf("expected generation error, got %v", err)
	}
}

func TestSummarizeMapReduce(t *testing.T) {
	var finalPrompt string
	prov := &fakeProvider{fn: func(req ai.Request) (string, error) {
		if strings.Contains(req.System, "Section summaries") || strings.Contains(req.System, "section summaries") {
			finalPrompt = req.Prompt
			return "## Overview\nsynthesized", nil
		}
		return "section insights", nil
	}}
	s := newTestSummarizer(t, SummarizerConfig{
		Provider:       prov,
		ChunkThreshold: 20,
		ChunkTokens:    15,
		OverlapTokens:  2,
	})

	var sentences []string
	for i := 0; i < 12; i++ {
		sentences = append(sentences, fmt.Sprintf("Cleaned sentence number %d with some length to it.", i))
	}
	cleaned := strings.Join(sentences, " ")

	out, err := s.Summarize(context.Background(), cleaned, testMeta)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if out != "## Overview\nsynthesized" {
		t.Fatalf("expected synthesis output, got %q", out)
	}

	// one call per chunk plus one synthesis call
	if len(prov.calls) < 3 {
		t.Fatalf("expected map-reduce calls, got %d", len(prov.calls))
	}
	chunkCalls := prov.calls[:len(prov.calls)-1]
	for i, call := range chunkCalls {
		want := fmt.Sprintf("part %d of %d", i+1, len(chunkCalls))
		if !strings.Contains(call.System, want) {
			t.Fatalf("chunk call %d system missing %q", i, want)
		}
	}

	if !strings.Contains(finalPrompt, "### Part 1") {
		t.Fatalf("synthesis prompt missing part labels: %q", finalPrompt)
	}
	if !strings.Contains(finalPrompt, "\n\n---\n\n") {
		t.Fatalf("synthesis prompt missing section separator")
	}
}

func TestSummarizeMapReduceEmptySynthesis(t *testing.T) {
	prov := &fakeProvider{fn: func(req ai.Request) (string, error) {
		if strings.Contains(req.System, "section summaries") {
			return "", nil
		}
		return "section insights", nil
	}}
	s := newTestSummarizer(t, SummarizerConfig{
		Provider:       prov,
		ChunkThreshold: 20,
		ChunkTokens:    15,
		OverlapTokens:  2,
	})

	cleaned := strings.Repeat("Another cleaned sentence for the long transcript. ", 12)
	_, err := s.Summarize(context.Background(), cleaned, testMeta)
	if err == nil || !strings.Contains(err.Error(), "final summary") {
		t.Fatalf("expected final-summary error, got %v", err)
	}
}

func TestSummarizeChunkFailurePropagates(t *testing.T) {
	prov := &fakeProvider{fn: func(req ai.Request) (string, error) {
		return "", errors.New("provider down")
	}}
	s := newTestSummarizer(t, SummarizerConfig{
		Provider:       prov,
		ChunkThreshold: 20,
		ChunkTokens:    15,
		OverlapTokens:  2,
	})

	cleaned := strings.Repeat("Another cleaned sentence for the long transcript. ", 12)
	_, err := s.Summarize(context.Background(), cleaned, testMeta)
	if err == nil || !strings.Contains(err.Error(), "provider down") {
		t.Fatalf("expected provider error, got %v", err)
	}
}
