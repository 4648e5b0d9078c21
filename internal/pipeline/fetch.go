package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Fetcher retrieves raw transcripts from a youtube-transcript.io style API.
type Fetcher struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	maxAttempts int
	baseDelay   time.Duration
}

type FetcherConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	// retry tuning; defaults are 3 attempts with a 2s base delay
	MaxAttempts int
	BaseDelay   time.Duration
}

func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("transcript api key not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.youtube-transcript.io"
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	return &Fetcher{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		client:      cfg.Client,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
	}, nil
}

type transcriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

type transcriptResp struct {
	Content []transcriptSegment `json:"content"`
	Title   string              `json:"title,omitempty"`
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// FetchTranscript returns the video's transcript as one flat string:
// segments trimmed, joined with single spaces, repeated whitespace
// collapsed. Provider status codes are mapped to user-facing errors.
func (f *Fetcher) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	data, err := Retry(ctx, f.maxAttempts, f.baseDelay, func() (*transcriptResp, error) {
		return f.request(ctx, videoID)
	})
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) || strings.Contains(err.Error(), "connection refused") {
			return "", errors.New("could not connect to transcript service; please try again")
		}
		return "", err
	}

	if len(data.Content) == 0 {
		return "", errors.New("no transcript content found for this video")
	}

	parts := make([]string, 0, len(data.Content))
	for _, seg := range data.Content {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	fullText := strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.Join(parts, " "), " "))
	if fullText == "" {
		return "", errors.New("transcript is empty")
	}
	return fullText, nil
}

func (f *Fetcher) request(ctx context.Context, videoID string) (*transcriptResp, error) {
	endpoint := fmt.Sprintf("%s/v1/transcript?video_id=%s", f.baseURL, url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Basic "+f.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))

		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, errors.New("no transcript available for this video; the video may not have captions enabled")
		case http.StatusForbidden:
			return nil, errors.New("cannot access transcript; the video may be private or restricted")
		case http.StatusTooManyRequests:
			return nil, errors.New("rate limit exceeded; please try again in a few minutes")
		}

		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("failed to fetch transcript: %s", msg)
	}

	var decoded transcriptResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	return &decoded, nil
}
