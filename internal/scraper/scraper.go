// Package scraper extracts listings from HTML with goquery.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UserAgent is sent with page requests.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Selectors locate listing fields. Every field selector is evaluated
// inside the Item selection.
type Selectors struct {
	Item        string
	Title       string
	Link        string
	Description string
	End         string
	Image       string
}

// Item is one scraped listing. Link and Image are absolute when a base
// URL was given.
type Item struct {
	Title       string
	Link        string
	Description string
	End         string
	Image       string
}

// FetchDocument downloads and parses the page at pageURL.
func FetchDocument(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	return doc, nil
}

// Extract returns one Item per match of sel.Item, in document order.
func Extract(doc *goquery.Document, base *url.URL, sel Selectors) []Item {
	if sel.Item == "" {
		return nil
	}
	var items []Item
	doc.Find(sel.Item).Each(func(i int, s *goquery.Selection) {
		item := Item{
			Title:       text(s, sel.Title),
			Description: text(s, sel.Description),
			End:         text(s, sel.End),
			Link:        resolve(base, attr(s, sel.Link, "href")),
		}
		if sel.Image != "" {
			item.Image = resolve(base, attr(s, sel.Image, "src", "data-src"))
		}
		items = append(items, item)
	})
	return items
}

// Text flattens an HTML fragment to whitespace-collapsed text.
func Text(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapse(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}
	return collapse(doc.Text())
}

// FirstLink returns the first href in fragment that contains substr, or "".
func FirstLink(fragment, substr string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var link string
	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if strings.Contains(href, substr) {
			link = strings.TrimSpace(href)
			return false
		}
		return true
	})
	return link
}

func text(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return collapse(s.Find(selector).First().Text())
}

// attr reads the first non-empty attribute of the selected element. An
// empty selector means the item element itself, then its first descendant
// carrying the attribute.
func attr(s *goquery.Selection, selector string, names ...string) string {
	target := s
	if selector != "" {
		target = s.Find(selector).First()
	}
	for _, name := range names {
		if v, ok := target.Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if selector == "" {
		for _, name := range names {
			if v, ok := s.Find("[" + name + "]").First().Attr(name); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
