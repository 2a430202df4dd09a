// Package app wires configuration into a runnable announcement pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/freegames/internal/config"
	"github.com/deusflow/freegames/internal/games"
	"github.com/deusflow/freegames/internal/ledger"
	"github.com/deusflow/freegames/internal/metrics"
	"github.com/deusflow/freegames/internal/pipeline"
	"github.com/deusflow/freegames/internal/sources"
	"github.com/deusflow/freegames/internal/telegram"
	"github.com/deusflow/freegames/internal/validate"
)

// App owns the pipeline and every resource it holds open.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	ledger   *ledger.Ledger
	pipeline *pipeline.Pipeline
	closers  []func() error

	translationStats func() map[string]interface{}

	mu sync.Mutex
}

// New builds the application from cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger, metrics: metrics.New()}
	client := &http.Client{Timeout: cfg.RequestTimeout}

	l, closeLedger, err := OpenLedger(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.ledger = l
	a.closers = append(a.closers, closeLedger)

	srcs, err := sources.Build(cfg.Sources, client, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	validator := validate.New(&http.Client{}, cfg.ValidateTimeout, logger.With("component", "validate"))
	collectors := make([]pipeline.Collector, len(srcs))
	for i, src := range srcs {
		collectors[i] = sources.NewAdapter(src, validator, cfg.RequestTimeout, logger, a.metrics)
	}

	opts := []games.AssemblerOption{
		games.WithMaxDescription(cfg.DescriptionMaxRunes),
		games.WithLocation(cfg.Location()),
	}
	translator, stats, closers := newTranslator(ctx, cfg, client, logger, a.metrics)
	a.translationStats = stats
	a.closers = append(a.closers, closers...)
	if translator != nil {
		opts = append(opts, games.WithTransformer(translator))
	}

	publisher, err := a.newPublisher()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.pipeline = pipeline.New(collectors, a.ledger, games.NewAssembler(opts...), publisher, logger, a.metrics)
	logger.Info("Application ready", "sources", len(collectors), "ledger", cfg.LedgerBackend, "mode", cfg.BotMode, "dry_run", cfg.DryRun)
	return a, nil
}

func (a *App) newPublisher() (pipeline.Publisher, error) {
	format := telegram.Formatter{
		Labels:    telegram.LabelsFor(a.cfg.TranslateTo),
		Signature: a.cfg.ChannelSignature,
		Location:  a.cfg.Location(),
	}
	logger := a.logger.With("component", "telegram")
	if a.cfg.DryRun {
		return telegram.NewLogPublisher(format, a.cfg.BotMode, logger), nil
	}

	chat, err := telegram.ParseChat(a.cfg.TelegramChatID)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}
	bot, err := telegram.NewBot(a.cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	logger.Info("Telegram bot authorised", "bot", bot.Self.UserName)

	return telegram.NewPublisher(bot, chat, logger,
		telegram.WithMode(a.cfg.BotMode),
		telegram.WithDelay(a.cfg.MessageDelay),
		telegram.WithFormatter(format),
		telegram.WithMetrics(a.metrics),
	), nil
}

func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// RunOnce performs one pipeline run. Concurrent calls are serialised.
func (a *App) RunOnce(ctx context.Context) ([]games.Announcement, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := a.logger.With("run_id", uuid.NewString())
	logger.Info("Run started")
	start := time.Now()

	anns, err := a.pipeline.WithLogger(logger).Run(ctx)
	if err != nil {
		logger.Error("Run failed", "error", err, "duration", time.Since(start))
		return anns, err
	}
	logger.Info("Run finished", "announced", len(anns), "duration", time.Since(start))
	return anns, nil
}

// Serve runs the pipeline every RunInterval until ctx is done, optionally
// exposing the monitoring endpoints.
func (a *App) Serve(ctx context.Context) error {
	if a.cfg.EnableHTTP {
		srv := &http.Server{
			Addr:              ":" + a.cfg.MonitoringPort,
			Handler:           monitorHandler(a.metrics, a.translationStats),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("Starting monitoring server", "port", a.cfg.MonitoringPort)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Monitoring server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	interval := a.cfg.RunInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		// failures are logged and recorded in metrics; the loop keeps going
		a.RunOnce(ctx)

		select {
		case <-ctx.Done():
			a.logger.Info("Shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

// Close releases every resource New opened.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
