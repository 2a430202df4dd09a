// Package rss downloads and parses RSS/Atom feeds.
package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmcdole/gofeed"
)

// UserAgent is sent with feed requests; some deal sites refuse Go's default.
const UserAgent = "Mozilla/5.0 (compatible; freegames/1.0; +https://t.me)"

// Client fetches feeds over an injected HTTP client.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

func New(client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{http: client, logger: logger}
}

// Fetch downloads and parses the feed at url.
func (c *Client) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: HTTP %d", url, resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}
	c.logger.Debug("Loaded feed", "url", url, "items", len(feed.Items))
	return feed, nil
}
