// Package ledger tracks which games have already been announced.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/deusflow/freegames/internal/games"
	"github.com/deusflow/freegames/internal/storage"
)

// Store persists the full key set.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, keys []string) error
}

// Ledger is a grow-only set of canonical keys backed by a Store.
type Ledger struct {
	store  Store
	logger *slog.Logger

	mu         sync.RWMutex
	keys       map[games.CanonicalKey]struct{}
	loadFailed bool // last Load hit an error other than ErrNotFound
}

func New(store Store, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger,
		keys:   make(map[games.CanonicalKey]struct{}),
	}
}

// Load replaces the in-memory set with the persisted one. It never fails:
// a missing ledger is empty, and an unreadable one is logged and treated
// as empty.
func (l *Ledger) Load(ctx context.Context) {
	stored, err := l.store.Load(ctx)
	keys := make(map[games.CanonicalKey]struct{}, len(stored))
	failed := false
	switch {
	case errors.Is(err, storage.ErrNotFound):
		l.logger.Info("No ledger yet, starting empty")
	case err != nil:
		l.logger.Warn("Ledger unreadable, starting empty", "error", err)
		failed = true
	default:
		for _, k := range stored {
			if k != "" {
				keys[games.CanonicalKey(k)] = struct{}{}
			}
		}
	}

	l.mu.Lock()
	l.keys = keys
	l.loadFailed = failed
	l.mu.Unlock()
	l.logger.Debug("Ledger loaded", "keys", len(keys))
}

func (l *Ledger) Contains(key games.CanonicalKey) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.keys[key]
	return ok
}

// Record adds key. Empty keys are ignored.
func (l *Ledger) Record(key games.CanonicalKey) {
	if key == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys[key] = struct{}{}
}

// Persist writes the whole set, sorted. When the last Load failed it first
// re-reads the store and merges, so a transient read error cannot shrink
// the persisted set.
func (l *Ledger) Persist(ctx context.Context) error {
	l.mu.RLock()
	failed := l.loadFailed
	l.mu.RUnlock()
	if failed {
		l.mergeStored(ctx)
	}

	keys := l.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	if err := l.store.Save(ctx, out); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}

func (l *Ledger) mergeStored(ctx context.Context) {
	stored, err := l.store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		l.logger.Warn("Ledger still unreadable, overwriting it", "error", err)
		return
	default:
		l.logger.Info("Ledger readable again, merging before save", "stored", len(stored))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range stored {
		if k != "" {
			l.keys[games.CanonicalKey(k)] = struct{}{}
		}
	}
	l.loadFailed = false
}

// Keys returns the set in sorted order.
func (l *Ledger) Keys() []games.CanonicalKey {
	l.mu.RLock()
	out := make([]games.CanonicalKey, 0, len(l.keys))
	for k := range l.keys {
		out = append(out, k)
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.keys)
}
