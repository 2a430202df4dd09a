package app

import (
	"context"
	"fmt"
	"log/slog"

	gcs "cloud.google.com/go/storage"

	"github.com/deusflow/freegames/internal/config"
	"github.com/deusflow/freegames/internal/ledger"
	"github.com/deusflow/freegames/internal/storage"
)

// OpenLedger builds the ledger on the configured backend. The returned
// close function releases the backend's connections.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ledger.Ledger, func() error, error) {
	store, closeFn, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DryRun {
		store = readOnlyStore{Store: store, logger: logger}
	}
	return ledger.New(store, logger.With("component", "ledger")), closeFn, nil
}

// readOnlyStore reads through to Store and drops writes.
type readOnlyStore struct {
	ledger.Store
	logger *slog.Logger
}

func (s readOnlyStore) Save(_ context.Context, keys []string) error {
	s.logger.Info("DRY RUN: ledger not saved", "keys", len(keys))
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ledger.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.LedgerBackend {
	case config.LedgerFile:
		logger.Info("Using file ledger", "path", cfg.LedgerPath)
		return storage.NewFileStore(cfg.LedgerPath), noop, nil

	case config.LedgerGCS:
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		logger.Info("Using Cloud Storage ledger", "bucket", cfg.LedgerBucket, "object", cfg.LedgerObject)
		return storage.NewGCSStore(client, cfg.LedgerBucket, cfg.LedgerObject, logger), client.Close, nil

	case config.LedgerPostgres, config.LedgerSQLite:
		driver := storage.DriverPostgres
		if cfg.LedgerBackend == config.LedgerSQLite {
			driver = storage.DriverSQLite
		}
		store, err := storage.OpenSQL(ctx, driver, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
}
