package sources

import (
	"context"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/freegames/internal/config"
	"github.com/deusflow/freegames/internal/games"
	"github.com/deusflow/freegames/internal/scraper"
)

// FeedFetcher downloads and parses a feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (*gofeed.Feed, error)
}

// Feed reads an RSS or Atom deals feed.
type Feed struct {
	cfg     config.SourceConfig
	fetcher FeedFetcher
}

func NewFeed(cfg config.SourceConfig, fetcher FeedFetcher) *Feed {
	return &Feed{cfg: cfg, fetcher: fetcher}
}

func (f *Feed) Name() string { return f.cfg.Name }

// Fetch returns feed items that pass the title keyword filter. With
// LinkContains set, the link is the first matching href in the item body,
// falling back to the item link.
func (f *Feed) Fetch(ctx context.Context) ([]games.RawCandidate, error) {
	feed, err := f.fetcher.Fetch(ctx, f.cfg.URL)
	if err != nil {
		return nil, err
	}

	var out []games.RawCandidate
	for _, item := range capped(feed.Items, f.cfg.Limit) {
		if item == nil || !f.matchesTitle(item.Title) {
			continue
		}
		c := games.RawCandidate{
			SourceTitle:         strings.TrimSpace(item.Title),
			SourceDescription:   scraper.Text(item.Description),
			SourceURL:           f.link(item),
			SourcePlatformLabel: f.cfg.Platform,
			RawCategories:       item.Categories,
			DefaultDescription:  f.cfg.DefaultDescription,
		}
		// feeds carry no end date; with a layout configured the publication
		// date stands in for it
		if f.cfg.DateLayout != "" {
			c.RawEnd = strings.TrimSpace(item.Published)
			c.DateLayouts = []string{f.cfg.DateLayout}
		}
		if item.Image != nil {
			c.ImageURL = item.Image.URL
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *Feed) matchesTitle(title string) bool {
	if len(f.cfg.TitleKeywords) == 0 {
		return true
	}
	lower := strings.ToLower(title)
	for _, kw := range f.cfg.TitleKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (f *Feed) link(item *gofeed.Item) string {
	link := strings.TrimSpace(item.Link)
	want := f.cfg.LinkContains
	if want == "" || strings.Contains(link, want) {
		return link
	}
	for _, body := range []string{item.Description, item.Content} {
		if body == "" {
			continue
		}
		if l := scraper.FirstLink(body, want); l != "" {
			return l
		}
	}
	return link
}
