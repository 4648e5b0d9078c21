package youtube

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"
)

type Metadata struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Channel      string `json:"channel"`
	ThumbnailURL string `json:"thumbnail_url"`
}

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ExtractVideoID pulls the 11-char video id out of the usual URL shapes
// (watch, youtu.be, embed, mobile) or accepts a bare id. The library is
// permissive about what it extracts, so the result is validated against
// the id alphabet. Returns "" when nothing matches.
func ExtractVideoID(raw string) string {
	id, err := youtube.ExtractVideoID(strings.TrimSpace(raw))
	if err != nil || !idPattern.MatchString(id) {
		return ""
	}
	return id
}

type Client struct {
	yt youtube.Client
}

func NewClient() *Client {
	return &Client{yt: youtube.Client{}}
}

// FetchMetadata looks up title/channel/thumbnail through the player API.
// Returns (nil, nil) when the video is private or unavailable; only a
// cancelled context surfaces as an error.
func (c *Client) FetchMetadata(ctx context.Context, videoID string) (*Metadata, error) {
	video, err := c.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, nil
	}

	meta := &Metadata{
		ID:      videoID,
		Title:   video.Title,
		Channel: video.Author,
	}
	var best youtube.Thumbnail
	for _, t := range video.Thumbnails {
		if t.Width >= best.Width {
			best = t
		}
	}
	meta.ThumbnailURL = best.URL

	if meta.Title == "" {
		meta.Title = "Unknown Title"
	}
	if meta.Channel == "" {
		meta.Channel = "Unknown Channel"
	}
	if meta.ThumbnailURL == "" {
		meta.ThumbnailURL = fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID)
	}
	return meta, nil
}
