package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deusflow/freegames/internal/app"
	"github.com/deusflow/freegames/internal/config"
	"github.com/deusflow/freegames/internal/games"
	"github.com/deusflow/freegames/internal/logger"
)

var (
	dryRun bool
	debug  bool
)

func main() {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Announce new free games once and exit",
		RunE:  runOnce,
	}

	rootCmd := &cobra.Command{
		Use:          "freegames",
		Short:        "Announce free-to-keep games on Telegram",
		Long:         "Collects free game offers from stores and giveaway feeds, skips the ones already announced and posts the rest to a Telegram chat.",
		RunE:         runOnce,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log messages instead of sending them (overrides DRY_RUN)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (overrides DEBUG)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run every RUN_INTERVAL until interrupted",
		RunE:  serve,
	}

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or edit the record of announced games",
	}
	ledgerCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print every announced key",
			Args:  cobra.NoArgs,
			RunE:  ledgerList,
		},
		&cobra.Command{
			Use:   "mark <title>...",
			Short: "Record titles as announced without posting them",
			Args:  cobra.MinimumNArgs(1),
			RunE:  ledgerMark,
		},
	)

	rootCmd.AddCommand(runCmd, serveCmd, ledgerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(validate func(*config.Config) error) (*config.Config, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dryRun {
		cfg.DryRun = true
	}
	if debug {
		cfg.Debug = true
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig((*config.Config).Validate)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Debug)

	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	anns, err := a.RunOnce(ctx)
	if err != nil {
		return err
	}
	for _, ann := range anns {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", ann.ID, ann.Title, ann.URL)
	}
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig((*config.Config).Validate)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Debug)

	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(ctx)
}

func ledgerList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig((*config.Config).ValidateLedger)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	l, closeFn, err := app.OpenLedger(ctx, cfg, logger.New(cfg.Debug))
	if err != nil {
		return err
	}
	defer closeFn()

	l.Load(ctx)
	for _, k := range l.Keys() {
		fmt.Fprintln(cmd.OutOrStdout(), k)
	}
	return nil
}

func ledgerMark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig((*config.Config).ValidateLedger)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	l, closeFn, err := app.OpenLedger(ctx, cfg, logger.New(cfg.Debug))
	if err != nil {
		return err
	}
	defer closeFn()

	l.Load(ctx)
	for _, title := range args {
		key := games.Normalize(title)
		if key == "" {
			return fmt.Errorf("title %q has no usable key", title)
		}
		l.Record(key)
		fmt.Fprintln(cmd.OutOrStdout(), key)
	}
	return l.Persist(ctx)
}
