// Package sources fetches free-game candidates from upstream services.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/deusflow/freegames/internal/config"
	"github.com/deusflow/freegames/internal/games"
	"github.com/deusflow/freegames/internal/rss"
)

// Source is one upstream. Fetch returns candidates in upstream order; an
// error means the whole upstream was unusable for this run.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]games.RawCandidate, error)
}

// Kinds of upstream understood by Build.
const (
	KindEpic       = "epic"
	KindGamerPower = "gamerpower"
	KindFeed       = "feed"
	KindPage       = "page"
)

// UserAgent is sent with API requests.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBody bounds JSON responses.
const maxBody = 8 << 20

// Build constructs one Source per config entry, in order.
func Build(cfgs []config.SourceConfig, client *http.Client, logger *slog.Logger) ([]Source, error) {
	feeds := rss.New(client, logger)
	out := make([]Source, 0, len(cfgs))
	for _, cfg := range cfgs {
		var src Source
		switch cfg.Kind {
		case KindEpic:
			src = NewEpic(cfg, client)
		case KindGamerPower:
			src = NewGamerPower(cfg, client)
		case KindFeed:
			src = NewFeed(cfg, feeds)
		case KindPage:
			if cfg.Selectors.Item == "" || cfg.Selectors.Title == "" {
				return nil, fmt.Errorf("source %q: page sources need item and title selectors", cfg.Name)
			}
			src = NewPage(cfg, client)
		default:
			return nil, fmt.Errorf("source %q: unknown kind %q", cfg.Name, cfg.Kind)
		}
		out = append(out, src)
	}
	return out, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read %s: %w", url, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// capped returns the first limit elements of items; limit 0 keeps all.
func capped[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
