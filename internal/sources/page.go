package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/deusflow/freegames/internal/config"
	"github.com/deusflow/freegames/internal/games"
	"github.com/deusflow/freegames/internal/scraper"
)

// Page scrapes a storefront listing with configured selectors.
type Page struct {
	cfg    config.SourceConfig
	client *http.Client
}

func NewPage(cfg config.SourceConfig, client *http.Client) *Page {
	if client == nil {
		client = http.DefaultClient
	}
	return &Page{cfg: cfg, client: client}
}

func (p *Page) Name() string { return p.cfg.Name }

func (p *Page) Fetch(ctx context.Context) ([]games.RawCandidate, error) {
	base, err := url.Parse(p.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := scraper.FetchDocument(ctx, p.client, p.cfg.URL)
	if err != nil {
		return nil, err
	}

	sel := p.cfg.Selectors
	items := scraper.Extract(doc, base, scraper.Selectors{
		Item:        sel.Item,
		Title:       sel.Title,
		Link:        sel.Link,
		Description: sel.Description,
		End:         sel.End,
		Image:       sel.Image,
	})

	var out []games.RawCandidate
	for _, it := range capped(items, p.cfg.Limit) {
		c := games.RawCandidate{
			SourceTitle:         it.Title,
			SourceDescription:   it.Description,
			SourceURL:           it.Link,
			SourcePlatformLabel: p.cfg.Platform,
			RawEnd:              it.End,
			DefaultDescription:  p.cfg.DefaultDescription,
			ImageURL:            it.Image,
		}
		if p.cfg.DateLayout != "" {
			c.DateLayouts = []string{p.cfg.DateLayout}
		}
		out = append(out, c)
	}
	return out, nil
}
