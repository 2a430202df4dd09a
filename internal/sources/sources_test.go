package sources

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deusflow/freegames/internal/config"
	"github.com/deusflow/freegames/internal/rss"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const epicBody = `{"data":{"Catalog":{"searchStore":{"elements":[
  {
    "title":"Nightingale",
    "description":"Gaslamp fantasy survival crafting.",
    "productSlug":"nightingale",
    "keyImages":[{"type":"Thumbnail","url":"https://cdn.example/thumb.jpg"},{"type":"OfferImageWide","url":"https://cdn.example/wide.jpg"}],
    "categories":[{"path":"freegames"},{"path":"games/edition/base"}],
    "promotions":{"promotionalOffers":[{"promotionalOffers":[
      {"startDate":"2024-06-06T15:00:00.000Z","endDate":"2024-06-13T15:00:00.000Z","discountSetting":{"discountType":"PERCENTAGE","discountPercentage":0}}
    ]}]}
  },
  {
    "title":"Discounted Only",
    "productSlug":"discounted",
    "promotions":{"promotionalOffers":[{"promotionalOffers":[
      {"endDate":"2024-06-13T15:00:00.000Z","discountSetting":{"discountPercentage":50}}
    ]}]}
  },
  {
    "title":"Coming Soon",
    "productSlug":"soon",
    "promotions":{"promotionalOffers":[],"upcomingPromotionalOffers":[{"promotionalOffers":[{"discountSetting":{"discountPercentage":0}}]}]}
  },
  {
    "title":"No Promotions",
    "productSlug":"none",
    "promotions":null
  },
  {
    "title":"Mapped Slug",
    "productSlug":"",
    "offerMappings":[{"pageSlug":"mapped-slug","pageType":"productHome"}],
    "promotions":{"promotionalOffers":[{"promotionalOffers":[{"endDate":"2024-06-20T15:00:00.000Z","discountSetting":{"discountPercentage":0}}]}]}
  }
]}}}}`

func TestEpicFetch(t *testing.T) {
	srv := serve(t, epicBody)
	e := NewEpic(config.SourceConfig{Name: "epic", URL: srv.URL, StoreURL: "https://store.epicgames.com/it/p/"}, srv.Client())

	got, err := e.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}

	n := got[0]
	if n.SourceTitle != "Nightingale" || n.SourceURL != "https://store.epicgames.com/it/p/nightingale" {
		t.Errorf("candidate = %+v", n)
	}
	if n.RawEnd != "2024-06-13T15:00:00.000Z" || n.SourcePlatformLabel != epicDefaultPlatform {
		t.Errorf("RawEnd = %q Platform = %q", n.RawEnd, n.SourcePlatformLabel)
	}
	if n.ImageURL != "https://cdn.example/wide.jpg" {
		t.Errorf("ImageURL = %q, want wide image", n.ImageURL)
	}
	if len(n.RawCategories) != 2 {
		t.Errorf("RawCategories = %v", n.RawCategories)
	}
	if got[1].SourceURL != "https://store.epicgames.com/it/p/mapped-slug" {
		t.Errorf("fallback slug URL = %q", got[1].SourceURL)
	}
}

func TestEpicFetchBadPayload(t *testing.T) {
	srv := serve(t, `<html>maintenance</html>`)
	e := NewEpic(config.SourceConfig{Name: "epic", URL: srv.URL}, srv.Client())
	if _, err := e.Fetch(context.Background()); err == nil {
		t.Error("Fetch() error = nil for non-JSON payload")
	}
}

const gamerPowerBody = `[
  {"id":1,"title":"Hades (Steam) Giveaway","description":"Defy the god of the dead.","image":"https://gp.example/hades.jpg",
   "open_giveaway_url":"https://gp.example/open/1","gamerpower_url":"https://gp.example/1","end_date":"2024-01-05 23:59:00",
   "type":"Game","platforms":"PC, Steam","status":"Active"},
  {"id":2,"title":"Expired Thing","open_giveaway_url":"https://gp.example/open/2","status":"Expired"},
  {"id":3,"title":"No Dates","description":"N/A","open_giveaway_url":"N/A","open_giveaway":"","gamerpower_url":"https://gp.example/3",
   "end_date":"N/A","type":"DLC","platforms":"N/A","status":"Active"},
  {"id":4,"title":"Beyond Limit","open_giveaway_url":"https://gp.example/open/4","status":"Active"}
]`

func TestGamerPowerFetch(t *testing.T) {
	srv := serve(t, gamerPowerBody)
	g := NewGamerPower(config.SourceConfig{Name: "gamerpower", URL: srv.URL, Limit: 3}, srv.Client())

	got, err := g.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}

	h := got[0]
	if h.SourceURL != "https://gp.example/open/1" || h.RawEnd != "2024-01-05 23:59:00" {
		t.Errorf("candidate = %+v", h)
	}
	if h.SourcePlatformLabel != "PC, Steam" || h.DateLayouts[0] != GamerPowerDateLayout {
		t.Errorf("Platform = %q layouts = %v", h.SourcePlatformLabel, h.DateLayouts)
	}

	nd := got[1]
	if nd.SourceURL != "https://gp.example/3" {
		t.Errorf("URL = %q, want gamerpower page fallback", nd.SourceURL)
	}
	if nd.RawEnd != "" || nd.SourceDescription != "" || nd.SourcePlatformLabel != "PC" {
		t.Errorf("N/A fields not cleared: %+v", nd)
	}
	if len(nd.RawCategories) != 1 || nd.RawCategories[0] != "DLC" {
		t.Errorf("RawCategories = %v", nd.RawCategories)
	}
}

func TestGamerPowerNoGiveaways(t *testing.T) {
	srv := serve(t, `{"status":0,"status_message":"No active giveaways available at the moment, please try again later."}`)
	g := NewGamerPower(config.SourceConfig{Name: "gamerpower", URL: srv.URL}, srv.Client())
	got, err := g.Fetch(context.Background())
	if err != nil || len(got) != 0 {
		t.Errorf("Fetch() = %v, %v; want empty, nil", got, err)
	}
}

const dealsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Free deals</title>
<item>
  <title>Hades - FREE on Steam</title>
  <link>https://isthereanydeal.com/deal/hades</link>
  <description><![CDATA[<p>Grab <b>Hades</b> at <a href="https://store.steampowered.com/app/1145360">Steam</a></p>]]></description>
  <category>Action</category>
  <pubDate>Thu, 13 Jun 2024 17:00:00 +0000</pubDate>
</item>
<item>
  <title>Prey - FREE on GOG</title>
  <link>https://isthereanydeal.com/deal/prey</link>
  <description><![CDATA[<a href="https://www.gog.com/game/prey">GOG</a>]]></description>
</item>
<item>
  <title>Portal - FREE on Steam</title>
  <link>https://isthereanydeal.com/deal/portal</link>
</item>
</channel></rss>`

func TestFeedFetch(t *testing.T) {
	srv := serve(t, dealsFeed)
	cfg := config.SourceConfig{
		Name:          "steam",
		Kind:          KindFeed,
		URL:           srv.URL,
		Platform:      "Steam",
		TitleKeywords: []string{"steam"},
		LinkContains:  "store.steampowered.com",
	}
	src, err := Build([]config.SourceConfig{cfg}, srv.Client(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	got, err := src[0].Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2 (GOG filtered by keyword)", len(got))
	}
	if got[0].SourceURL != "https://store.steampowered.com/app/1145360" {
		t.Errorf("SourceURL = %q, want the Steam link from the body", got[0].SourceURL)
	}
	if got[0].SourceDescription != "Grab Hades at Steam" {
		t.Errorf("SourceDescription = %q", got[0].SourceDescription)
	}
	if got[0].SourcePlatformLabel != "Steam" || len(got[0].RawCategories) != 1 {
		t.Errorf("candidate = %+v", got[0])
	}
	if got[1].SourceURL != "https://isthereanydeal.com/deal/portal" {
		t.Errorf("SourceURL = %q, want item link fallback", got[1].SourceURL)
	}
	if got[0].RawEnd != "" {
		t.Errorf("RawEnd = %q without a date layout", got[0].RawEnd)
	}
}

func TestFeedFetchPublishedDate(t *testing.T) {
	srv := serve(t, dealsFeed)
	cfg := config.SourceConfig{
		Name:          "steam",
		URL:           srv.URL,
		TitleKeywords: []string{"steam"},
		DateLayout:    time.RFC1123Z,
	}
	got, err := NewFeed(cfg, rss.New(srv.Client(), quietLogger())).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates", len(got))
	}
	if got[0].RawEnd != "Thu, 13 Jun 2024 17:00:00 +0000" || len(got[0].DateLayouts) != 1 {
		t.Errorf("RawEnd = %q, DateLayouts = %v", got[0].RawEnd, got[0].DateLayouts)
	}
	if got[1].RawEnd != "" {
		t.Errorf("RawEnd = %q for an item without pubDate", got[1].RawEnd)
	}
}

func TestPageFetch(t *testing.T) {
	srv := serve(t, `<ul>
<li class="g"><a href="/p/hades"><h3>Hades</h3></a><span class="until">2024-06-13</span></li>
<li class="g"><a href="/p/celeste"><h3>Celeste</h3></a></li>
</ul>`)
	cfg := config.SourceConfig{
		Name:       "shop",
		Kind:       KindPage,
		URL:        srv.URL + "/free/",
		Platform:   "Shop",
		DateLayout: "2006-01-02",
		Selectors:  config.Selectors{Item: "li.g", Title: "h3", Link: "a", End: ".until"},
	}
	src, err := Build([]config.SourceConfig{cfg}, srv.Client(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	got, err := src[0].Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].SourceURL != srv.URL+"/p/hades" || got[0].RawEnd != "2024-06-13" {
		t.Errorf("candidate = %+v", got[0])
	}
	if got[0].DateLayouts[0] != "2006-01-02" || got[1].SourcePlatformLabel != "Shop" {
		t.Errorf("candidate = %+v", got[1])
	}
}

func TestBuild(t *testing.T) {
	if _, err := Build(config.DefaultSources(), http.DefaultClient, quietLogger()); err != nil {
		t.Fatalf("Build(defaults) error = %v", err)
	}

	tests := map[string]config.SourceConfig{
		"unknown kind":           {Name: "x", Kind: "ftp", URL: "ftp://x"},
		"page without selectors": {Name: "x", Kind: KindPage, URL: "https://x"},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Build([]config.SourceConfig{cfg}, http.DefaultClient, quietLogger())
			if err == nil || !strings.Contains(err.Error(), `"x"`) {
				t.Errorf("Build() error = %v", err)
			}
		})
	}
}
