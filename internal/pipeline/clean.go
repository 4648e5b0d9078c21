package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"podbrief/internal/ai"
	"podbrief/internal/youtube"
)

// ProgressFunc reports chunk progress. It is called before the chunk's
// model call so a polling client sees "current chunk in flight".
type ProgressFunc func(current, total int)

// Searcher supplies optional web context about likely speakers. Any
// failure degrades to empty context.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
}

type CleanResult struct {
	CleanedText string
	Speakers    []string
}

// Cleaner turns a raw transcript into speaker-labeled, paragraphed text,
// chunking when the input exceeds the per-chunk token ceiling.
type Cleaner struct {
	provider         ai.Provider
	searcher         Searcher
	maxChunkTokens   int
	overlapTokens    int
	skipFailedChunks bool
	maxAttempts      int
	baseDelay        time.Duration
}

type CleanerConfig struct {
	Provider ai.Provider
	Searcher Searcher // may be nil

	MaxChunkTokens int // default 30000
	OverlapTokens  int // default 500

	// SkipFailedChunks continues past a chunk whose model call failed
	// instead of failing the whole stage.
	SkipFailedChunks bool

	MaxAttempts int
	BaseDelay   time.Duration
}

func NewCleaner(cfg CleanerConfig) (*Cleaner, error) {
	if cfg.Provider == nil {
		return nil, errors.New("completion provider not configured")
	}
	if cfg.MaxChunkTokens <= 0 {
		cfg.MaxChunkTokens = 30000
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
	return &Cleaner{
		provider:         cfg.Provider,
		searcher:         cfg.Searcher,
		maxChunkTokens:   cfg.MaxChunkTokens,
		overlapTokens:    cfg.OverlapTokens,
		skipFailedChunks: cfg.SkipFailedChunks,
		maxAttempts:      cfg.MaxAttempts,
		baseDelay:        cfg.BaseDelay,
	}, nil
}

func (c *Cleaner) Clean(ctx context.Context, rawText string, meta youtube.Metadata, onProgress ProgressFunc) (CleanResult, error) {
	speakerContext := c.searchSpeakers(ctx, meta)

	if EstimateTokens(rawText) <= c.maxChunkTokens {
		if onProgress != nil {
			onProgress(1, 1)
		}
		cleaned, err := c.cleanChunk(ctx, rawText, meta, speakerContext, true)
		if err != nil {
			return CleanResult{}, err
		}
		return CleanResult{CleanedText: cleaned, Speakers: ExtractSpeakers(cleaned)}, nil
	}

	chunks := ChunkText(rawText, c.maxChunkTokens, c.overlapTokens)
	cleanedChunks := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		if onProgress != nil {
			onProgress(i+1, len(chunks))
		}

		cleaned, err := c.cleanChunk(ctx, chunk, meta, speakerContext, i == 0)
		if err != nil {
			if c.skipFailedChunks {
				log.Printf("clean chunk %d/%d failed, skipping: %v", i+1, len(chunks), err)
				continue
			}
			return CleanResult{}, fmt.Errorf("cleaning chunk %d/%d: %w", i+1, len(chunks), err)
		}
		cleanedChunks = append(cleanedChunks, cleaned)
	}

	if len(cleanedChunks) == 0 {
		return CleanResult{}, errors.New("all transcript chunks failed to clean")
	}

	merged := MergeChunks(cleanedChunks)
	return CleanResult{CleanedText: merged, Speakers: ExtractSpeakers(merged)}, nil
}

// searchSpeakers is best-effort: a missing searcher or any search failure
// yields empty context, never an error.
func (c *Cleaner) searchSpeakers(ctx context.Context, meta youtube.Metadata) string {
	if c.searcher == nil {
		return ""
	}
	query := fmt.Sprintf("Who are the speakers in %q by %s? podcast guests host names", meta.Title, meta.Channel)
	snippets, err := c.searcher.Search(ctx, query, 3)
	if err != nil {
		return ""
	}
	return strings.Join(snippets, "\n\n")
}

func (c *Cleaner) cleanChunk(ctx context.Context, chunk string, meta youtube.Metadata, speakerContext string, isFirstChunk bool) (string, error) {
	var sb strings.Builder
	sb.WriteString(`You are formatting a podcast transcript. Your job is to:
1. Add speaker labels in the format [Speaker Name]:
2. Fix obvious transcription errors
3. Add paragraph breaks for readability
4. Preserve the EXACT wording - do not summarize or paraphrase

`)
	fmt.Fprintf(&sb, "The podcast is: %q from channel %q\n\n", meta.Title, meta.Channel)
	if speakerContext != "" {
		fmt.Fprintf(&sb, "Additional context about the speakers:\n%s\n\n", speakerContext)
	}
	sb.WriteString(`Rules:
- If you can identify speakers from the title, channel name, or context, use their actual names
- If you cannot identify a speaker, use "Speaker 1", "Speaker 2", etc. and be consistent
- Start each speaker's turn on a new line with their name in brackets
- Group related sentences into paragraphs
- Do NOT add any commentary or notes - just format the transcript`)

	userPrompt := "Format this podcast transcript:\n\n" + chunk
	if !isFirstChunk {
		userPrompt = "Continue formatting this podcast transcript (maintain the same speaker labels as before):\n\n" + chunk
	}

	out, err := Retry(ctx, c.maxAttempts, c.baseDelay, func() (string, error) {
		return c.provider.Complete(ctx, ai.Request{
			System:    sb.String(),
			Prompt:    userPrompt,
			MaxTokens: 16000,
		})
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", errors.New("model returned no cleaned text")
	}
	return out, nil
}

// MergeChunks concatenates cleaned chunk outputs, trimming duplicated
// overlap where it can find it. For each chunk after the first it looks
// for the last 200 characters of the previous two paragraphs inside the
// first 500 characters of the chunk; on a match it appends only what
// follows the overlap. Best-effort: repetitive transcripts can false-match
// and heavily reworded output can miss, leaving duplicates.
func MergeChunks(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}
	merged := chunks[0]

	for _, chunk := range chunks[1:] {
		if chunk == "" {
			continue
		}

		paras := strings.Split(merged, "\n\n")
		if len(paras) > 2 {
			paras = paras[len(paras)-2:]
		}
		tail := strings.Join(paras, "\n\n")
		if len(tail) > 200 {
			tail = tail[len(tail)-200:]
		}

		idx := strings.Index(chunk, tail)
		if idx > 0 && idx < 500 {
			merged += "\n\n" + strings.TrimSpace(chunk[idx+len(tail):])
		} else {
			merged += "\n\n" + chunk
		}
	}

	return strings.TrimSpace(merged)
}

var speakerPattern = regexp.MustCompile(`\[([^\]]+)\]:`)

// ExtractSpeakers returns the distinct speaker labels in first-seen order.
func ExtractSpeakers(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range speakerPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
