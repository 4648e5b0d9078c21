package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"podbrief/internal/ai"
	"podbrief/internal/youtube"
)

// PromptVersion tags each stored summary with the prompt template that
// produced it, for later auditing and migration.
const PromptVersion = "v2"

const summarySystemPrompt = `You are an expert at summarizing podcasts. Create a comprehensive summary that captures the key information.

Format your summary as follows:

## Overview
A 2-3 sentence overview of what this podcast episode is about.

## Key Topics
- Topic 1
- Topic 2
- etc.

## Key Insights & Takeaways
- Insight 1 (with any relevant quotes or attributions)
- Insight 2
- etc.

## Notable Quotes
> "Quote 1" — Speaker Name
> "Quote 2" — Speaker Name

## Action Items / Recommendations
(If any were mentioned in the podcast)
- Item 1
- Item 2

Guidelines:
- Be thorough but concise
- Attribute quotes and insights to speakers when known
- Focus on information that would be valuable to someone who hasn't listened
- Use bullet points for easy scanning
- Include 3-5 notable quotes that capture key ideas`

const synthesisSystemPrompt = `You have section summaries from a long podcast. Create a cohesive final summary that:
1. Synthesizes all sections into a unified overview
2. Identifies the main themes across all sections
3. Highlights the most important insights
4. Includes the best quotes from across the podcast

Use this format:
## Overview
## Key Topics
## Key Insights & Takeaways
## Notable Quotes
## Action Items / Recommendations (if any)`

// Summarizer produces a structured markdown summary from cleaned text,
// directly for short inputs and map-reduce for very long ones.
type Summarizer struct {
	provider       ai.Provider
	chunkThreshold int
	chunkTokens    int
	overlapTokens  int
	maxAttempts    int
	baseDelay      time.Duration
}

type SummarizerConfig struct {
	Provider ai.Provider

	ChunkThreshold int // switch to map-reduce above this, default 80000
	ChunkTokens    int // map-reduce chunk budget, default 40000
	OverlapTokens  int // default 500

	MaxAttempts int
	BaseDelay   time.Duration
}

func NewSummarizer(cfg SummarizerConfig) (*Summarizer, error) {
	if cfg.Provider == nil {
		return nil, errors.New("completion provider not configured")
	}
	if cfg.ChunkThreshold <= 0 {
		cfg.ChunkThreshold = 80000
	}
	if cfg.ChunkTokens <= 0 {
		cfg.ChunkTokens = 40000
	}
	if cfg.OverlapTokens <= 0 {
		cfg.OverlapTokens = 500
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	return &Summarizer{
		provider:       cfg.Provider,
		chunkThreshold: cfg.ChunkThreshold,
		chunkTokens:    cfg.ChunkTokens,
		overlapTokens:  cfg.OverlapTokens,
		maxAttempts:    cfg.MaxAttempts,
		baseDelay:      cfg.BaseDelay,
	}, nil
}

func (s *Summarizer) Summarize(ctx context.Context, cleanedText string, meta youtube.Metadata) (string, error) {
	if EstimateTokens(cleanedText) > s.chunkThreshold {
		return s.summarizeInChunks(ctx, cleanedText, meta)
	}
	return s.summarizeDirect(ctx, cleanedText, meta)
}

func (s *Summarizer) summarizeDirect(ctx context.Context, cleanedText string, meta youtube.Metadata) (string, error) {
	userPrompt := fmt.Sprintf("Summarize this podcast:\n\nTitle: %s\nChannel: %s\n\nTranscript:\n%s",
		meta.Title, meta.Channel, cleanedText)

	summary, err := Retry(ctx, s.maxAttempts, s.baseDelay, func() (string, error) {
		return s.provider.Complete(ctx, ai.Request{
			System:    summarySystemPrompt,
			Prompt:    userPrompt,
			MaxTokens: 8000,
		})
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary) == "" {
		return "", errors.New("failed to generate summary")
	}
	return summary, nil
}

// summarizeInChunks summarizes each chunk independently, then issues one
// synthesis call over the joined section summaries.
func (s *Summarizer) summarizeInChunks(ctx context.Context, cleanedText string, meta youtube.Metadata) (string, error) {
	chunks := ChunkText(cleanedText, s.chunkTokens, s.overlapTokens)

	var sectionSummaries []string
	for i, chunk := range chunks {
		system := fmt.Sprintf("Summarize this section of a podcast transcript. Focus on key points, insights, and notable quotes. This is part %d of %d.", i+1, len(chunks))
		userPrompt := fmt.Sprintf("Podcast: %s\n\nSection %d:\n%s", meta.Title, i+1, chunk)

		section, err := Retry(ctx, s.maxAttempts, s.baseDelay, func() (string, error) {
			return s.provider.Complete(ctx, ai.Request{
				System:    system,
				Prompt:    userPrompt,
				MaxTokens: 4000,
			})
		})
		if err != nil {
			return "", fmt.Errorf("summarizing section %d/%d: %w", i+1, len(chunks), err)
		}
		if strings.TrimSpace(section) == "" {
			continue
		}
		sectionSummaries = append(sectionSummaries, fmt.Sprintf("### Part %d\n%s", i+1, section))
	}

	combined := strings.Join(sectionSummaries, "\n\n---\n\n")
	finalPrompt := fmt.Sprintf("Podcast: %s by %s\n\nSection summaries to synthesize:\n%s",
		meta.Title, meta.Channel, combined)

	final, err := Retry(ctx, s.maxAttempts, s.baseDelay, func() (string, error) {
		return s.provider.Complete(ctx, ai.Request{
			System:    synthesisSystemPrompt,
			Prompt:    finalPrompt,
			MaxTokens: 8000,
		})
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(final) == "" {
		return "", errors.New("failed to generate final summary")
	}
	return final, nil
}
