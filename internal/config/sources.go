package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourcesFile is the YAML layout of the upstream list:
//
//	sources:
//	  - name: epic
//	    kind: epic
//	    url: https://...
type SourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig describes one upstream.
type SourceConfig struct {
	Name               string    `yaml:"name"`
	Kind               string    `yaml:"kind"` // epic, gamerpower, feed, page
	URL                string    `yaml:"url"`
	Platform           string    `yaml:"platform"`
	StoreURL           string    `yaml:"store_url"`
	DefaultDescription string    `yaml:"default_description"`
	Limit              int       `yaml:"limit"` // 0 = no cap
	TitleKeywords      []string  `yaml:"title_keywords"`
	LinkContains       string    `yaml:"link_contains"`
	DateLayout         string    `yaml:"date_layout"`
	Selectors          Selectors `yaml:"selectors"`
	Disabled           bool      `yaml:"disabled"`
}

// Selectors are the CSS selectors a page source scrapes with. Title, Link,
// Description, End and Image are evaluated relative to each Item.
type Selectors struct {
	Item        string `yaml:"item"`
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
	End         string `yaml:"end"`
	Image       string `yaml:"image"`
}

// LoadSources reads the upstream list from path. A missing file yields
// DefaultSources; disabled entries are dropped.
func LoadSources(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSources(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sources config: %w", err)
	}
	return ParseSources(data)
}

// ParseSources decodes and checks a YAML upstream list.
func ParseSources(data []byte) ([]SourceConfig, error) {
	var file SourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sources config: %w", err)
	}

	seen := make(map[string]bool)
	var out []SourceConfig
	for i, sc := range file.Sources {
		sc.Name = strings.TrimSpace(sc.Name)
		sc.Kind = strings.ToLower(strings.TrimSpace(sc.Kind))
		if sc.Name == "" {
			return nil, fmt.Errorf("source #%d: name is required", i+1)
		}
		if sc.Kind == "" {
			return nil, fmt.Errorf("source %q: kind is required", sc.Name)
		}
		if sc.URL == "" {
			return nil, fmt.Errorf("source %q: url is required", sc.Name)
		}
		if sc.Limit < 0 {
			return nil, fmt.Errorf("source %q: limit must not be negative", sc.Name)
		}
		if seen[sc.Name] {
			return nil, fmt.Errorf("source %q declared twice", sc.Name)
		}
		seen[sc.Name] = true
		if sc.Disabled {
			continue
		}
		out = append(out, sc)
	}
	return out, nil
}

// DefaultSources is the built-in upstream list: the Epic promotions API,
// the IsThereAnyDeal free-deals feed (Steam links only) and GamerPower.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:               "epic",
			Kind:               "epic",
			URL:                "https://store-site-backend-static.ak.epicgames.com/freeGamesPromotions",
			Platform:           "Epic Games Store",
			StoreURL:           "https://store.epicgames.com/it/p/",
			DefaultDescription: "Free to keep for a limited time on the Epic Games Store.",
		},
		{
			Name:               "steam",
			Kind:               "feed",
			URL:                "https://isthereanydeal.com/rss/deals/free/",
			Platform:           "Steam",
			DefaultDescription: "Free on Steam for a limited time.",
			Limit:              5,
			TitleKeywords:      []string{"steam"},
			LinkContains:       "store.steampowered.com",
		},
		{
			Name:               "gamerpower",
			Kind:               "gamerpower",
			URL:                "https://www.gamerpower.com/api/giveaways?platform=pc&type=game",
			DefaultDescription: "Free giveaway for a limited time.",
			Limit:              5,
		},
	}
}
