package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/deusflow/freegames/internal/cache"
	"github.com/deusflow/freegames/internal/config"
	"github.com/deusflow/freegames/internal/gemini"
	"github.com/deusflow/freegames/internal/metrics"
	"github.com/deusflow/freegames/internal/ratelimit"
	"github.com/deusflow/freegames/internal/translate"
)

// newTranslator builds the description localiser: the free Google endpoint
// first, then Gemini and OpenAI when their keys are set. It returns nil when
// translation is disabled. stats reports provider budget usage and cache
// size for the monitoring endpoint.
func newTranslator(ctx context.Context, cfg *config.Config, client *http.Client, logger *slog.Logger, m *metrics.Metrics) (chain *translate.Chain, stats func() map[string]interface{}, closers []func() error) {
	if cfg.TranslateTo == "" || cfg.TranslateTo == cfg.TranslateFrom {
		logger.Info("Translation disabled")
		return nil, nil, nil
	}

	providers := []translate.Provider{translate.NewGoogle(client, "")}

	if cfg.GeminiAPIKey != "" {
		gc, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, "")
		if err != nil {
			logger.Warn("Gemini unavailable, continuing without it", "error", err)
		} else {
			providers = append(providers, translate.NewLLM("gemini", gc))
			closers = append(closers, func() error { gc.Close(); return nil })
		}
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, translate.NewLLM("openai", translate.NewOpenAI(cfg.OpenAIAPIKey)))
	}

	budget := ratelimit.New(map[string]int{
		"gemini": cfg.MaxGeminiRequests,
		"openai": cfg.MaxOpenAIRequests,
	}, logger.With("component", "ratelimit"))

	memo := cache.New[string](10 * time.Minute)
	closers = append(closers, func() error { memo.Close(); return nil })

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	logger.Info("Translation enabled", "from", cfg.TranslateFrom, "to", cfg.TranslateTo, "providers", names)

	chain = translate.NewChain(cfg.TranslateFrom, cfg.TranslateTo, providers, logger.With("component", "translate"),
		translate.WithLimiter(budget),
		translate.WithCache(memo, cfg.TranslationTTL),
		translate.WithTimeout(cfg.RequestTimeout),
		translate.WithMetrics(m),
	)
	stats = func() map[string]interface{} {
		out := budget.GetStats()
		out["cached_translations"] = memo.Len()
		return out
	}
	return chain, stats, closers
}
