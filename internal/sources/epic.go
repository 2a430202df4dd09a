package sources

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/deusflow/freegames/internal/config"
	"github.com/deusflow/freegames/internal/games"
)

const (
	epicDefaultStoreURL = "https://store.epicgames.com/p/"
	epicDefaultPlatform = "Epic Games Store"
)

// Epic reads the Epic Games Store promotions endpoint.
type Epic struct {
	cfg    config.SourceConfig
	client *http.Client
}

func NewEpic(cfg config.SourceConfig, client *http.Client) *Epic {
	if client == nil {
		client = http.DefaultClient
	}
	return &Epic{cfg: cfg, client: client}
}

func (e *Epic) Name() string { return e.cfg.Name }

type epicResponse struct {
	Data struct {
		Catalog struct {
			SearchStore struct {
				Elements []epicElement `json:"elements"`
			} `json:"searchStore"`
		} `json:"Catalog"`
	} `json:"data"`
}

type epicElement struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ProductSlug   string `json:"productSlug"`
	OfferMappings []struct {
		PageSlug string `json:"pageSlug"`
	} `json:"offerMappings"`
	CatalogNs struct {
		Mappings []struct {
			PageSlug string `json:"pageSlug"`
		} `json:"mappings"`
	} `json:"catalogNs"`
	KeyImages []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"keyImages"`
	Categories []struct {
		Path string `json:"path"`
	} `json:"categories"`
	Promotions *struct {
		PromotionalOffers []struct {
			PromotionalOffers []epicOffer `json:"promotionalOffers"`
		} `json:"promotionalOffers"`
	} `json:"promotions"`
}

type epicOffer struct {
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	DiscountSetting struct {
		DiscountPercentage int `json:"discountPercentage"`
	} `json:"discountSetting"`
}

// Fetch returns every element with a current promotion that makes it free.
func (e *Epic) Fetch(ctx context.Context) ([]games.RawCandidate, error) {
	var resp epicResponse
	if err := getJSON(ctx, e.client, e.cfg.URL, &resp); err != nil {
		return nil, err
	}

	var out []games.RawCandidate
	for _, el := range capped(resp.Data.Catalog.SearchStore.Elements, e.cfg.Limit) {
		offer, ok := el.freeOffer()
		if !ok {
			continue
		}
		c := games.RawCandidate{
			SourceTitle:         strings.TrimSpace(el.Title),
			SourceDescription:   el.Description,
			SourcePlatformLabel: firstNonEmpty(e.cfg.Platform, epicDefaultPlatform),
			RawEnd:              offer.EndDate,
			DateLayouts:         []string{time.RFC3339},
			DefaultDescription:  e.cfg.DefaultDescription,
			ImageURL:            el.image(),
		}
		if slug := el.slug(); slug != "" {
			c.SourceURL = strings.TrimSuffix(firstNonEmpty(e.cfg.StoreURL, epicDefaultStoreURL), "/") + "/" + slug
		}
		for _, cat := range el.Categories {
			c.RawCategories = append(c.RawCategories, cat.Path)
		}
		out = append(out, c)
	}
	return out, nil
}

// freeOffer finds a running promotion with a zero discount setting, which
// the store uses for 100% off giveaways.
func (el epicElement) freeOffer() (epicOffer, bool) {
	if el.Promotions == nil {
		return epicOffer{}, false
	}
	for _, group := range el.Promotions.PromotionalOffers {
		for _, offer := range group.PromotionalOffers {
			if offer.DiscountSetting.DiscountPercentage == 0 {
				return offer, true
			}
		}
	}
	return epicOffer{}, false
}

func (el epicElement) slug() string {
	slug := strings.TrimSuffix(strings.TrimSpace(el.ProductSlug), "/home")
	if slug != "" && slug != "[]" {
		return slug
	}
	for _, m := range el.OfferMappings {
		if m.PageSlug != "" {
			return m.PageSlug
		}
	}
	for _, m := range el.CatalogNs.Mappings {
		if m.PageSlug != "" {
			return m.PageSlug
		}
	}
	return ""
}

func (el epicElement) image() string {
	for _, want := range []string{"OfferImageWide", "DieselStoreFrontWide", "Thumbnail"} {
		for _, img := range el.KeyImages {
			if img.Type == want && img.URL != "" {
				return img.URL
			}
		}
	}
	return ""
}
