// Package email sends the optional completion notice through the Resend
// HTTP API. Failures here never fail a job; the orchestrator logs and
// moves on.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	APIKey  string
	From    string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey, from string) *Client {
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		From:    from,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type sendReq struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("resend: api key is required")
	}

	b, err := json.Marshal(sendReq{
		From:    c.From,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return err
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/emails"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("resend: %s", msg)
	}
	return nil
}

// SendCompletion mails the "summary ready" notice with a link back to the
// job page.
func (c *Client) SendCompletion(ctx context.Context, to, jobURL, videoTitle string) error {
	subject := "Your podcast summary is ready: " + videoTitle

	var b strings.Builder
	b.WriteString("<h2>Your summary is ready!</h2>")
	b.WriteString("<p>We've finished summarizing: <strong>" + html.EscapeString(videoTitle) + "</strong></p>")
	b.WriteString(`<p><a href="` + jobURL + `" style="display: inline-block; padding: 12px 24px; background: #000; color: #fff; text-decoration: none; border-radius: 6px;">View Your Summary</a></p>`)
	b.WriteString(`<p style="color: #666; font-size: 14px;">This link will remain active so you can access your summary anytime.</p>`)

	return c.Send(ctx, to, subject, b.String())
}
