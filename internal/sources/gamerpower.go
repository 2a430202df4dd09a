package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/deusflow/freegames/internal/config"
	"github.com/deusflow/freegames/internal/games"
)

// GamerPowerDateLayout is the end_date format of the giveaway API.
const GamerPowerDateLayout = "2006-01-02 15:04:05"

// notAvailable is the API's placeholder for missing fields.
const notAvailable = "N/A"

// GamerPower reads the GamerPower giveaway API.
type GamerPower struct {
	cfg    config.SourceConfig
	client *http.Client
}

func NewGamerPower(cfg config.SourceConfig, client *http.Client) *GamerPower {
	if client == nil {
		client = http.DefaultClient
	}
	return &GamerPower{cfg: cfg, client: client}
}

func (g *GamerPower) Name() string { return g.cfg.Name }

type giveaway struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Image           string `json:"image"`
	OpenGiveawayURL string `json:"open_giveaway_url"`
	OpenGiveaway    string `json:"open_giveaway"`
	GamerPowerURL   string `json:"gamerpower_url"`
	EndDate         string `json:"end_date"`
	Type            string `json:"type"`
	Platforms       string `json:"platforms"`
	Status          string `json:"status"`
}

// Fetch returns active giveaways. The API answers with an object instead of
// an array when nothing is on offer; that is an empty result, not an error.
func (g *GamerPower) Fetch(ctx context.Context) ([]games.RawCandidate, error) {
	var raw json.RawMessage
	if err := getJSON(ctx, g.client, g.cfg.URL, &raw); err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, nil
	}
	var items []giveaway
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode giveaways: %w", err)
	}

	var out []games.RawCandidate
	for _, it := range capped(items, g.cfg.Limit) {
		if it.Status != "" && !strings.EqualFold(it.Status, "Active") {
			continue
		}
		c := games.RawCandidate{
			SourceTitle:         strings.TrimSpace(it.Title),
			SourceDescription:   available(it.Description),
			SourceURL:           firstNonEmpty(available(it.OpenGiveawayURL), available(it.OpenGiveaway), available(it.GamerPowerURL)),
			SourcePlatformLabel: firstNonEmpty(g.cfg.Platform, available(it.Platforms), "PC"),
			RawEnd:              available(it.EndDate),
			DateLayouts:         []string{firstNonEmpty(g.cfg.DateLayout, GamerPowerDateLayout)},
			DefaultDescription:  g.cfg.DefaultDescription,
			ImageURL:            available(it.Image),
		}
		if t := available(it.Type); t != "" {
			c.RawCategories = []string{t}
		}
		out = append(out, c)
	}
	return out, nil
}

func available(s string) string {
	s = strings.TrimSpace(s)
	if s == notAvailable {
		return ""
	}
	return s
}
