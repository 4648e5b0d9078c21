// Package search wraps the Tavily web-search API. It is a best-effort
// collaborator: callers treat any failure as "no context available".
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type searchReq struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResp struct {
	Results []struct {
		Content string `json:"content"`
	} `json:"results"`
}

// Search returns up to maxResults text snippets for the query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("tavily: api key is required")
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	b, err := json.Marshal(searchReq{
		APIKey:      c.APIKey,
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: status %d", resp.StatusCode)
	}

	var decoded searchResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(decoded.Results))
	for i, r := range decoded.Results {
		if i >= maxResults {
			break
		}
		out = append(out, r.Content)
	}
	return out, nil
}
